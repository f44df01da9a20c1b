package export

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/arnabmitra/topcap-index/internal/index"
)

var ErrNoData = errors.New("no data to plot")

// Chart draws cumulative return over time as a PNG. Days without a
// cumulative return are left out.
func Chart(w io.Writer, title string, records []index.PerformanceRecord) error {
	points := make(plotter.XYs, 0, len(records))
	for _, r := range records {
		if r.CumulativeReturn == nil {
			continue
		}
		day, err := index.DateOf(r.Date)
		if err != nil {
			return fmt.Errorf("record date %q: %w", r.Date, err)
		}
		points = append(points, plotter.XY{X: float64(day.Unix()), Y: *r.CumulativeReturn})
	}
	if len(points) == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Cumulative return"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Y.Tick.Marker = plot.TickerFunc(func(min, max float64) []plot.Tick {
		ticks := plot.DefaultTicks{}.Ticks(min, max)
		for i := range ticks {
			if ticks[i].Label != "" {
				ticks[i].Label = fmt.Sprintf("%+.1f%%", (ticks[i].Value-1)*100)
			}
		}
		return ticks
	})
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(points)
	if err != nil {
		return fmt.Errorf("line: %w", err)
	}
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	line.Width = vg.Points(1.5)
	p.Add(line)

	wt, err := p.WriterTo(12*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

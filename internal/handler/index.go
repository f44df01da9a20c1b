// Package handler serves the index over HTTP.
package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/arnabmitra/topcap-index/internal/apierror"
	"github.com/arnabmitra/topcap-index/internal/export"
	"github.com/arnabmitra/topcap-index/internal/index"
	"github.com/arnabmitra/topcap-index/internal/lock"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Service is the part of index.Service the handlers call.
type Service interface {
	export.Source
	Build(ctx context.Context, start, end string) ([]index.PerformanceRecord, error)
	Size() int
}

type IndexHandler struct {
	logger   *slog.Logger
	service  Service
	exporter *export.Exporter
	validate *validator.Validate
}

func NewIndexHandler(logger *slog.Logger, service Service) *IndexHandler {
	return &IndexHandler{
		logger:   logger.With(slog.String("component", "handler")),
		service:  service,
		exporter: export.NewExporter(service, logger),
		validate: newValidator(),
	}
}

func (h *IndexHandler) Root(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"message": "App is working!"})
}

func (h *IndexHandler) Build(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRange(w, r)
	if !ok {
		return
	}

	start := time.Now()
	records, err := h.service.Build(r.Context(), req.StartDate, req.End())
	if err != nil {
		h.fail(w, r, "build failed", err)
		return
	}

	h.logger.Info("index build finished",
		slog.String("start", req.StartDate),
		slog.String("end", req.End()),
		slog.Int("records", len(records)),
		slog.Duration("took", time.Since(start)),
	)
	render.JSON(w, r, map[string]any{"status": "success", "records": len(records)})
}

func (h *IndexHandler) Performance(w http.ResponseWriter, r *http.Request) {
	q := rangeQuery{
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	}
	if !h.check(w, r, &q, q.StartDate, q.EndDate) {
		return
	}

	records, err := h.service.Performance(r.Context(), q.StartDate, q.EndDate)
	if err != nil {
		h.fail(w, r, "performance query failed", err)
		return
	}
	render.JSON(w, r, records)
}

func (h *IndexHandler) Composition(w http.ResponseWriter, r *http.Request) {
	q := dateQuery{Date: r.URL.Query().Get("date")}
	if err := h.validate.Struct(&q); err != nil {
		apierror.Write(w, r, validationError(err))
		return
	}

	records, err := h.service.Composition(r.Context(), q.Date)
	if err != nil {
		h.fail(w, r, "composition query failed", err)
		return
	}
	render.JSON(w, r, records)
}

func (h *IndexHandler) Changes(w http.ResponseWriter, r *http.Request) {
	q := rangeQuery{
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	}
	if !h.check(w, r, &q, q.StartDate, q.EndDate) {
		return
	}

	records, err := h.service.Changes(r.Context(), q.StartDate, q.EndDate)
	if err != nil {
		h.fail(w, r, "changes query failed", err)
		return
	}
	render.JSON(w, r, records)
}

func (h *IndexHandler) Export(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRange(w, r)
	if !ok {
		return
	}

	buf, err := h.exporter.Workbook(r.Context(), req.StartDate, req.End())
	if err != nil {
		h.fail(w, r, "export failed", err)
		return
	}

	filename := fmt.Sprintf("export_%s_to_%s.xlsx", req.StartDate, req.End())
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("failed to write export", slog.Any("error", err))
	}
}

func (h *IndexHandler) Chart(w http.ResponseWriter, r *http.Request) {
	q := rangeQuery{
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	}
	if !h.check(w, r, &q, q.StartDate, q.EndDate) {
		return
	}

	records, err := h.service.Performance(r.Context(), q.StartDate, q.EndDate)
	if err != nil {
		h.fail(w, r, "performance query failed", err)
		return
	}

	title := fmt.Sprintf("Top %d equal-weighted index, %s to %s", h.service.Size(), q.StartDate, q.EndDate)
	var buf bytes.Buffer
	if err := export.Chart(&buf, title, records); err != nil {
		if errors.Is(err, export.ErrNoData) {
			apierror.Write(w, r, apierror.NotFound("no index values in range"))
			return
		}
		h.fail(w, r, "chart failed", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("failed to write chart", slog.Any("error", err))
	}
}

// decodeRange reads and validates a RangeRequest body.
func (h *IndexHandler) decodeRange(w http.ResponseWriter, r *http.Request) (*RangeRequest, bool) {
	var req RangeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		apierror.Write(w, r, apierror.InvalidRequest(err))
		return nil, false
	}
	if !h.check(w, r, &req, req.StartDate, req.End()) {
		return nil, false
	}
	return &req, true
}

// check validates v and rejects ranges that end before they start.
func (h *IndexHandler) check(w http.ResponseWriter, r *http.Request, v any, start, end string) bool {
	if err := h.validate.Struct(v); err != nil {
		apierror.Write(w, r, validationError(err))
		return false
	}
	if _, _, err := index.ParseRange(start, end); err != nil {
		apierror.Write(w, r, apierror.Validation([]apierror.ValidationError{
			{Field: "end_date", Message: err.Error()},
		}))
		return false
	}
	return true
}

func (h *IndexHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case r.Context().Err() != nil:
		// client went away, nobody to answer
		h.logger.Info(msg, slog.Any("error", err))
	case errors.Is(err, lock.ErrHeld):
		apierror.Write(w, r, apierror.BuildInProgress())
	case errors.Is(err, index.ErrInvalidDate), errors.Is(err, index.ErrInvalidRange):
		apierror.Write(w, r, apierror.InvalidRequest(err))
	default:
		h.logger.Error(msg, slog.Any("error", err))
		apierror.Write(w, r, apierror.Internal(err))
	}
}

package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		in      string
		wantErr bool
	}{
		{in: "2024-01-05"},
		{in: "2024-1-5"},
		{in: "2024/01/05"},
		{in: " 2024-01-05 "},
		{in: "2024-01-05T15:30:00-05:00"},
		{in: "05/01/2024", wantErr: true},
		{in: "", wantErr: true},
		{in: "2024-02-30", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseRange(t *testing.T) {
	_, _, err := ParseRange("2024-01-05", "2024-01-04")
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, _, err = ParseRange("2024-01-05", "soon")
	assert.ErrorIs(t, err, ErrInvalidDate)

	from, to, err := ParseRange("2024-01-05", "2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, from, to)
}

func TestBusinessDays(t *testing.T) {
	got := BusinessDays(day("2024-01-05"), day("2024-01-09"))
	assert.Equal(t, []time.Time{day("2024-01-05"), day("2024-01-08"), day("2024-01-09")}, got)

	assert.Empty(t, BusinessDays(day("2024-01-06"), day("2024-01-07")))
	assert.Empty(t, BusinessDays(day("2024-01-09"), day("2024-01-05")))
	assert.Len(t, BusinessDays(day("2024-01-01"), day("2024-12-31")), 262)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "index:2024-01-01:2024-01-31", Key(KindIndex, "2024-01-01", "2024-01-31"))
	assert.Equal(t, "composition:2024-01-02", Key(KindComposition, "2024-01-02"))
	assert.Equal(t, "changes:2024/01/01:2024-1-31", Key(KindChanges, "2024/01/01", "2024-1-31"))
}

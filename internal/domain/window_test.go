package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustWindow(t *testing.T, start, end string) RentalWindow {
	t.Helper()
	startAt, err := time.Parse(time.RFC3339, start)
	require.NoError(t, err)
	endAt, err := time.Parse(time.RFC3339, end)
	require.NoError(t, err)
	return NewRentalWindow(startAt, endAt)
}

func TestRentalWindow_Validate(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		wantErr error
	}{
		{
			name:  "exactly 12 hours is valid",
			start: "2026-06-01T10:00:00Z",
			end:   "2026-06-01T22:00:00Z",
		},
		{
			name:  "multi-day window is valid",
			start: "2026-06-01T10:00:00Z",
			end:   "2026-06-04T10:00:00Z",
		},
		{
			name:    "11 hours is too short",
			start:   "2026-06-01T10:00:00Z",
			end:     "2026-06-01T21:00:00Z",
			wantErr: ErrWindowTooShort,
		},
		{
			name:    "zero duration",
			start:   "2026-06-01T10:00:00Z",
			end:     "2026-06-01T10:00:00Z",
			wantErr: ErrWindowEndNotAfterStart,
		},
		{
			name:    "end before start",
			start:   "2026-06-02T10:00:00Z",
			end:     "2026-06-01T10:00:00Z",
			wantErr: ErrWindowEndNotAfterStart,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mustWindow(t, tt.start, tt.end).Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRentalWindow_Overlaps_HalfOpen(t *testing.T) {
	base := mustWindow(t, "2026-06-01T10:00:00Z", "2026-06-02T10:00:00Z")

	tests := []struct {
		name  string
		other RentalWindow
		want  bool
	}{
		{
			name:  "identical windows overlap",
			other: mustWindow(t, "2026-06-01T10:00:00Z", "2026-06-02T10:00:00Z"),
			want:  true,
		},
		{
			name:  "partial overlap at the end",
			other: mustWindow(t, "2026-06-02T00:00:00Z", "2026-06-03T00:00:00Z"),
			want:  true,
		},
		{
			name:  "contained window overlaps",
			other: mustWindow(t, "2026-06-01T12:00:00Z", "2026-06-02T00:00:00Z"),
			want:  true,
		},
		{
			name: "adjacent window starting at the end does not overlap",
			// возврат в 10:00 и получение в 10:00 — валидная пара
			other: mustWindow(t, "2026-06-02T10:00:00Z", "2026-06-03T10:00:00Z"),
			want:  false,
		},
		{
			name:  "adjacent window ending at the start does not overlap",
			other: mustWindow(t, "2026-05-31T10:00:00Z", "2026-06-01T10:00:00Z"),
			want:  false,
		},
		{
			name:  "disjoint window",
			other: mustWindow(t, "2026-06-05T10:00:00Z", "2026-06-06T10:00:00Z"),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			// Пересечение симметрично
			assert.Equal(t, tt.want, tt.other.Overlaps(base))
		})
	}
}

func TestRentalWindow_BilledHours(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  int64
	}{
		{
			name:  "exact 12 hours bills as 12",
			start: "2026-06-01T10:00:00Z",
			end:   "2026-06-01T22:00:00Z",
			want:  12,
		},
		{
			name:  "13 hours rounds up to 24",
			start: "2026-06-01T10:00:00Z",
			end:   "2026-06-01T23:00:00Z",
			want:  24,
		},
		{
			name:  "exact 24 hours bills as 24",
			start: "2026-06-01T10:00:00Z",
			end:   "2026-06-02T10:00:00Z",
			want:  24,
		},
		{
			name:  "25 hours rounds up to 36",
			start: "2026-06-01T10:00:00Z",
			end:   "2026-06-02T11:00:00Z",
			want:  36,
		},
		{
			name:  "12 hours and one minute rounds up to 24",
			start: "2026-06-01T10:00:00Z",
			end:   "2026-06-01T22:01:00Z",
			want:  24,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustWindow(t, tt.start, tt.end).BilledHours())
		})
	}
}

func TestRentalWindow_Quote(t *testing.T) {
	// 24 часа при цене 5000/день = 2 единицы по полдня
	day := mustWindow(t, "2026-06-01T10:00:00Z", "2026-06-02T10:00:00Z")
	assert.Equal(t, int64(5000), day.Quote(5000))

	// 12 часов = половина дневной ставки, округление вверх
	half := mustWindow(t, "2026-06-01T10:00:00Z", "2026-06-01T22:00:00Z")
	assert.Equal(t, int64(2500), half.Quote(5000))
	assert.Equal(t, int64(2501), half.Quote(5001))
}

func TestComputeHoldAmount(t *testing.T) {
	tests := []struct {
		total int64
		want  int64
	}{
		{total: 10000, want: 1000},
		{total: 10004, want: 1000}, // округление вниз
		{total: 10005, want: 1001}, // округление вверх
		{total: 1, want: 1},
		{total: 4, want: 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ComputeHoldAmount(tt.total), "total=%d", tt.total)
	}
}

func TestNewRentalWindow_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	w := NewRentalWindow(
		time.Date(2026, 6, 1, 13, 0, 0, 0, loc),
		time.Date(2026, 6, 2, 13, 0, 0, 0, loc),
	)

	assert.Equal(t, time.UTC, w.StartAt.Location())
	assert.Equal(t, time.UTC, w.EndAt.Location())
	assert.Equal(t, 10, w.StartAt.Hour())
}

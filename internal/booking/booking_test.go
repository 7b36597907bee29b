package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickcourt/quickcourt-api/internal/model"
)

func mustInterval(t *testing.T, start, end string) Interval {
	t.Helper()
	iv, err := NewInterval(start, end)
	require.NoError(t, err)
	return iv
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "06:00", want: 360},
		{in: "9:30", want: 570},
		{in: "23:59", want: 1439},
		{in: "24:00", want: 1440},
		{in: "24:30", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "1230", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "", wantErr: true},
		{in: "10:5", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidClock)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClockStringIsZeroPadded(t *testing.T) {
	c, err := ParseClock("9:05")
	require.NoError(t, err)
	assert.Equal(t, "09:05", c.String())
	assert.Equal(t, "24:00", Clock(1440).String())
}

func TestNewIntervalRejectsEmpty(t *testing.T) {
	_, err := NewInterval("11:00", "11:00")
	assert.ErrorIs(t, err, ErrEmptyInterval)
	_, err = NewInterval("12:00", "11:00")
	assert.ErrorIs(t, err, ErrEmptyInterval)
	_, err = NewInterval("24:00", "24:00")
	assert.ErrorIs(t, err, ErrEmptyInterval)
}

func TestOverlaps(t *testing.T) {
	existing := mustInterval(t, "10:00", "11:00")
	tests := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"identical interval", "10:00", "11:00", true},
		{"partial overlap at end", "10:30", "11:30", true},
		{"partial overlap at start", "09:30", "10:30", true},
		{"contained", "10:15", "10:45", true},
		{"containing", "09:00", "12:00", true},
		{"back to back after", "11:00", "12:00", false},
		{"back to back before", "09:00", "10:00", false},
		{"disjoint", "13:00", "14:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := mustInterval(t, tt.start, tt.end)
			assert.Equal(t, tt.want, candidate.Overlaps(existing))
			assert.Equal(t, tt.want, existing.Overlaps(candidate), "overlap must be symmetric")
		})
	}
}

func TestHasConflictIsIdempotent(t *testing.T) {
	existing := []Interval{mustInterval(t, "10:00", "11:00"), mustInterval(t, "14:00", "15:30")}
	candidate := mustInterval(t, "15:00", "16:00")

	first := HasConflict(candidate, existing)
	second := HasConflict(candidate, existing)
	assert.True(t, first)
	assert.Equal(t, first, second)
	assert.False(t, HasConflict(mustInterval(t, "11:00", "14:00"), existing))
	assert.False(t, HasConflict(candidate, nil))
}

func TestComputePriceIsLinearInDuration(t *testing.T) {
	rates := []float64{45, 12.5, 300, 0.1}
	slots := [][2]string{{"10:00", "11:00"}, {"06:00", "06:30"}, {"07:15", "09:45"}, {"00:00", "24:00"}}
	for _, rate := range rates {
		for _, s := range slots {
			iv := mustInterval(t, s[0], s[1])
			assert.Equal(t, iv.Hours()*rate, ComputePrice(iv.Start, iv.End, rate), "%v @ %v", s, rate)
		}
	}
}

func TestComputePriceHalfHour(t *testing.T) {
	iv := mustInterval(t, "10:00", "10:30")
	assert.Equal(t, 22.5, ComputePrice(iv.Start, iv.End, 45))
}

func TestValidateCourt(t *testing.T) {
	hours, err := ValidateCourt(45, "06:00", "22:00")
	require.NoError(t, err)
	assert.Equal(t, Interval{Start: 360, End: 1320}, hours)

	_, err = ValidateCourt(0, "06:00", "22:00")
	assert.ErrorIs(t, err, ErrInvalidPrice)
	_, err = ValidateCourt(45, "22:00", "06:00")
	assert.ErrorIs(t, err, ErrInvalidOpenings)
	_, err = ValidateCourt(45, "6am", "22:00")
	assert.ErrorIs(t, err, ErrInvalidClock)
}

func TestTransitions(t *testing.T) {
	assert.True(t, CanTransition(model.BookingConfirmed, model.BookingCancelled))
	assert.True(t, CanTransition(model.BookingConfirmed, model.BookingCompleted))
	assert.False(t, CanTransition(model.BookingCancelled, model.BookingConfirmed))
	assert.False(t, CanTransition(model.BookingCompleted, model.BookingCancelled))
	assert.False(t, CanTransition(model.BookingCancelled, model.BookingCompleted))
	assert.Empty(t, SourcesOf(model.BookingConfirmed))
}

func TestAt(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	day, err := ParseDate("2026-10-20")
	require.NoError(t, err)
	got := At(day, 630, loc)
	assert.True(t, time.Date(2026, 10, 20, 10, 30, 0, 0, loc).Equal(got), "got %s", got)

	_, err = ParseDate("20-10-2026")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

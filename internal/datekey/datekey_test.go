package datekey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Key
		wantErr bool
	}{
		{in: "2024-06-01", want: "2024-06-01"},
		{in: " 2024-06-01 ", want: "2024-06-01"},
		{in: "2024-6-1", wantErr: true},
		{in: "2024-02-30", wantErr: true},
		{in: "2024-06-01T00:00:00Z", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromTimeUsesOwnLocation(t *testing.T) {
	seoul := time.FixedZone("KST", 9*3600)
	instant := time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, Key("2024-06-01"), FromTime(instant))
	assert.Equal(t, Key("2024-06-02"), FromTime(instant.In(seoul)))
	assert.Equal(t, Key("2024-06-02"), Today(instant, seoul))
	assert.Equal(t, Key("2024-06-01"), Today(instant, nil))
}

func TestArithmetic(t *testing.T) {
	assert.Equal(t, Key("2024-03-01"), Key("2024-02-28").AddDays(2))
	assert.Equal(t, Key("2023-12-31"), Key("2024-01-01").AddDays(-1))
	assert.Equal(t, 2, DaysBetween("2024-02-28", "2024-03-01"))
	assert.Equal(t, -3, DaysBetween("2024-06-04", "2024-06-01"))
	assert.Equal(t, 0, DaysBetween("2024-06-04", "2024-06-04"))
	assert.Equal(t, 366, DaysBetween("2024-01-01", "2025-01-01"))
	assert.Equal(t, 118338, DaysBetween("1700-01-01", "2024-01-01"))
	assert.Equal(t, -182621, DaysBetween("2400-01-01", "1900-01-01"))

	assert.Equal(t, Key("2024-02-01"), Key("2024-02-10").MonthStart())
	assert.Equal(t, Key("2024-02-29"), Key("2024-02-10").MonthEnd())
	assert.True(t, SameMonth("2024-06-01", "2024-06-30"))
	assert.False(t, SameMonth("2024-06-01", "2023-06-01"))

	assert.True(t, Key("2024-06-01").Before("2024-06-02"))
	assert.True(t, Key("2024-06-10").After("2024-06-02"))
}

func TestRangeLongerThanDuration(t *testing.T) {
	r := Range{Start: "1700-01-01", End: "2024-01-01"}
	assert.Equal(t, 118339, r.Len())
	days := r.Days()
	require.Len(t, days, 118339)
	assert.Equal(t, Key("2024-01-01"), days[len(days)-1])
}

func TestLabels(t *testing.T) {
	k := Key("2024-06-03")
	assert.Equal(t, "3", k.DayOfMonthLabel())
	assert.Equal(t, "MON", k.ShortDayLabel())
	assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}, WeekdayLabels(time.Monday))
	assert.Equal(t, []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}, WeekdayLabels(time.Sunday))
}

func TestInvalidKeyIsHarmless(t *testing.T) {
	assert.False(t, Key("nope").Valid())
	assert.True(t, Key("nope").Time().IsZero())
}

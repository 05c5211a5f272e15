package caldate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	d, err := Parse("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2024, Month: time.February, Day: 29}, d)
	assert.Equal(t, "2024-02-29", d.String())

	for _, bad := range []string{"", "2024-2-29", "2023-02-29", "29/02/2024", "2024-02-29T00:00"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestDateArithmetic(t *testing.T) {
	d := MustParse("2024-02-28")

	assert.Equal(t, "2024-02-29", d.AddDays(1).String())
	assert.Equal(t, "2024-03-01", d.AddDays(2).String())
	assert.Equal(t, "2023-12-31", MustParse("2024-01-01").AddDays(-1).String())
	assert.Equal(t, 2, d.DaysUntil(MustParse("2024-03-01")))
	assert.Equal(t, -28, d.DaysUntil(MustParse("2024-01-31")))
	assert.Equal(t, time.Wednesday, d.Weekday())
}

func TestCompareMatchesLexicographic(t *testing.T) {
	dates := []string{"2023-12-31", "2024-01-01", "2024-01-10", "2024-02-01", "2024-10-01", "2025-01-01"}
	for _, a := range dates {
		for _, b := range dates {
			want := 0
			if a < b {
				want = -1
			} else if a > b {
				want = 1
			}
			assert.Equal(t, want, MustParse(a).Compare(MustParse(b)), "%s vs %s", a, b)
		}
	}
}

func TestWeekStart(t *testing.T) {
	assert.Equal(t, "2024-03-03", WeekStart(MustParse("2024-03-03")).String())
	assert.Equal(t, "2024-03-03", WeekStart(MustParse("2024-03-09")).String())
	assert.Equal(t, "2024-02-25", WeekStart(MustParse("2024-03-02")).String())
}

func TestTodayUsesInstantLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	now := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, "2024-03-01", Today(now).String())
	assert.Equal(t, "2024-03-02", Today(now.In(loc)).String())
	assert.Equal(t, "2024-03-03", Tomorrow(now.In(loc)).String())
}

func TestTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:05")
	require.NoError(t, err)
	assert.Equal(t, 9, tod.Hour())
	assert.Equal(t, 5, tod.Minute())
	assert.Equal(t, "09:05", tod.String())
	assert.Equal(t, "10:05", tod.Add(60).String())
	assert.Equal(t, "23:59", tod.Add(24*60).String())

	_, err = ParseTimeOfDay("25:00")
	assert.ErrorIs(t, err, ErrInvalidTime)
	_, err = ParseTimeOfDay("")
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestDateIn(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	got := MustParse("2024-03-01").In(loc, TimeOfDay(13*60+30))
	assert.Equal(t, time.Date(2024, 3, 1, 13, 30, 0, 0, loc), got)
}

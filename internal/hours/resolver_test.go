package hours

import (
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func colombo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Colombo")
	require.NoError(t, err)
	return loc
}

// 2025-01-01 is a Wednesday.
func wednesdayAt(loc *time.Location, hour, min int) time.Time {
	return time.Date(2025, 1, 1, hour, min, 0, 0, loc)
}

func TestResolve_Scenarios(t *testing.T) {
	loc := colombo(t)
	schedule := DefaultSchedule()

	tests := []struct {
		name        string
		now         time.Time
		wantOpen    bool
		wantMessage string
		wantMinutes int
		wantClock   string
	}{
		{"afternoon open", wednesdayAt(loc, 14, 0), true, "Closes in 5h 0m", 300, "02:00 PM"},
		{"evening after close", wednesdayAt(loc, 20, 0), false, "Opens in 13h 0m", 780, "08:00 PM"},
		{"early morning", wednesdayAt(loc, 7, 0), false, "Opens in 2h 0m", 120, "07:00 AM"},
		{"exactly at opening", wednesdayAt(loc, 9, 0), true, "Closes in 10h 0m", 600, "09:00 AM"},
		{"exactly at closing", wednesdayAt(loc, 19, 0), false, "Opens in 14h 0m", 840, "07:00 PM"},
		{"last open minute", wednesdayAt(loc, 18, 59), true, "Closes in 1m", 1, "06:59 PM"},
		{"first closed minute", wednesdayAt(loc, 19, 1), false, "Opens in 13h 59m", 839, "07:01 PM"},
		{"just before midnight", wednesdayAt(loc, 23, 59), false, "Opens in 9h 1m", 541, "11:59 PM"},
		{"midnight", wednesdayAt(loc, 0, 0), false, "Opens in 9h 0m", 540, "12:00 AM"},
		{"half hour to open", wednesdayAt(loc, 8, 30), false, "Opens in 30m", 30, "08:30 AM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := Resolve(tt.now, schedule, loc)
			assert.Equal(t, tt.wantOpen, st.IsOpen)
			assert.Equal(t, tt.wantMessage, st.Message)
			assert.Equal(t, tt.wantMinutes, st.MinutesUntilChange)
			assert.Equal(t, tt.wantClock, st.FormattedLocalTime)
			assert.Equal(t, "Wednesday", st.CurrentDayName)
			assert.Equal(t, tt.now.Hour(), st.CurrentHour)
			assert.Equal(t, schedule[2], st.TodaySchedule)
		})
	}
}

func TestResolve_ProjectsIntoTimezone(t *testing.T) {
	loc := colombo(t)

	// 08:30 UTC is 14:00 in Colombo (+05:30).
	now := time.Date(2025, 1, 1, 8, 30, 0, 0, time.UTC)
	st := Resolve(now, DefaultSchedule(), loc)

	assert.True(t, st.IsOpen)
	assert.Equal(t, "Closes in 5h 0m", st.Message)
	assert.Equal(t, 14, st.CurrentHour)
}

func TestResolve_NilLocationIsUTC(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	st := Resolve(now, DefaultSchedule(), nil)
	assert.True(t, st.IsOpen)
	assert.Equal(t, "Closes in 9h 0m", st.Message)
}

func TestResolve_RollsToTomorrowSchedule(t *testing.T) {
	loc := colombo(t)
	schedule := DefaultSchedule()
	schedule[0].OpenHour = 10 // Monday

	// 2025-01-05 is a Sunday; tomorrow is Monday which opens at 10.
	sunday := time.Date(2025, 1, 5, 20, 0, 0, 0, loc)
	st := Resolve(sunday, schedule, loc)

	assert.False(t, st.IsOpen)
	assert.Equal(t, "Sunday", st.CurrentDayName)
	assert.Equal(t, 240+600, st.MinutesUntilChange)
	assert.Equal(t, "Opens in 14h 0m", st.Message)
	assert.Equal(t, time.Date(2025, 1, 6, 10, 0, 0, 0, loc), st.ChangesAt.In(loc))
}

func TestResolve_ChangesAt(t *testing.T) {
	loc := colombo(t)
	st := Resolve(wednesdayAt(loc, 14, 0).Add(42*time.Second), DefaultSchedule(), loc)
	assert.True(t, st.ChangesAt.Equal(wednesdayAt(loc, 19, 0)))
}

func TestResolve_CountdownDecreasesWithinSegment(t *testing.T) {
	loc := colombo(t)
	schedule := DefaultSchedule()
	start := wednesdayAt(loc, 0, 0)

	prev := Resolve(start, schedule, loc)
	for m := 1; m < 2*minutesPerDay; m++ {
		st := Resolve(start.Add(time.Duration(m)*time.Minute), schedule, loc)
		require.GreaterOrEqual(t, st.MinutesUntilChange, 0)
		if st.IsOpen == prev.IsOpen {
			require.Equal(t, prev.MinutesUntilChange-1, st.MinutesUntilChange, "minute %d", m)
		} else {
			require.Equal(t, 1, prev.MinutesUntilChange, "transition at minute %d", m)
			require.Greater(t, st.MinutesUntilChange, prev.MinutesUntilChange)
		}
		prev = st
	}
}

func TestResolve_FlipAroundClosing(t *testing.T) {
	loc := colombo(t)
	before := Resolve(wednesdayAt(loc, 18, 59), DefaultSchedule(), loc)
	after := Resolve(wednesdayAt(loc, 19, 1), DefaultSchedule(), loc)

	assert.True(t, before.IsOpen)
	assert.True(t, strings.HasPrefix(before.Message, "Closes"))
	assert.False(t, after.IsOpen)
	assert.True(t, strings.HasPrefix(after.Message, "Opens"))
}

func TestResolve_MalformedScheduleDoesNotPanic(t *testing.T) {
	schedule := UniformSchedule(19, 9)
	assert.NotPanics(t, func() {
		for h := 0; h < 24; h++ {
			st := Resolve(time.Date(2025, 1, 1, h, 0, 0, 0, time.UTC), schedule, time.UTC)
			assert.False(t, st.IsOpen)
			assert.GreaterOrEqual(t, st.MinutesUntilChange, 0)
		}
	})
}

func TestFormatCountdown(t *testing.T) {
	assert.Equal(t, "0m", FormatCountdown(0))
	assert.Equal(t, "59m", FormatCountdown(59))
	assert.Equal(t, "1h 0m", FormatCountdown(60))
	assert.Equal(t, "13h 59m", FormatCountdown(839))
}

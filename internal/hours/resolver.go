package hours

import (
	"fmt"
	"time"
)

const minutesPerDay = 24 * 60

// LocalTimeLayout renders wall-clock time as "hh:mm AM/PM".
const LocalTimeLayout = "03:04 PM"

// Status is the computed open/closed state at a given instant.
type Status struct {
	IsOpen             bool        `json:"is_open"`
	Message            string      `json:"message"`
	MinutesUntilChange int         `json:"minutes_until_change"`
	CurrentHour        int         `json:"current_hour"`
	CurrentDayName     string      `json:"current_day_name"`
	TodaySchedule      DaySchedule `json:"today_schedule"`
	FormattedLocalTime string      `json:"formatted_local_time"`
	ChangesAt          time.Time   `json:"changes_at"`
}

// Resolve computes the business-hours status of now against schedule in loc.
// A nil loc is treated as UTC. Resolve has no side effects and never panics;
// a malformed schedule (open >= close) gives meaningless but bounded output.
func Resolve(now time.Time, schedule WeeklySchedule, loc *time.Location) Status {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)

	idx := ScheduleIndex(local.Weekday())
	today := schedule[idx]

	current := local.Hour()*60 + local.Minute()
	open := today.OpenMinutes()
	closing := today.CloseMinutes()

	st := Status{
		IsOpen:             open <= current && current < closing,
		CurrentHour:        local.Hour(),
		CurrentDayName:     DayNames[idx],
		TodaySchedule:      today,
		FormattedLocalTime: local.Format(LocalTimeLayout),
	}

	var prefix string
	switch {
	case st.IsOpen:
		prefix = "Closes in"
		st.MinutesUntilChange = closing - current
	case current < open:
		prefix = "Opens in"
		st.MinutesUntilChange = open - current
	default:
		prefix = "Opens in"
		tomorrow := schedule[(idx+1)%DaysInWeek]
		st.MinutesUntilChange = (minutesPerDay - current) + tomorrow.OpenMinutes()
	}
	if st.MinutesUntilChange < 0 {
		st.MinutesUntilChange = 0
	}

	st.Message = prefix + " " + FormatCountdown(st.MinutesUntilChange)
	st.ChangesAt = local.Truncate(time.Minute).Add(time.Duration(st.MinutesUntilChange) * time.Minute)
	return st
}

// FormatCountdown renders minutes as "{H}h {M}m", or "{M}m" when under an hour.
func FormatCountdown(minutes int) string {
	h, m := minutes/60, minutes%60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

package hours

import (
	"fmt"
	"time"
)

// DaysInWeek is the number of entries a WeeklySchedule must hold.
const DaysInWeek = 7

// DayNames lists weekday names in schedule order (Monday first).
var DayNames = [DaysInWeek]string{
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
	"Saturday",
	"Sunday",
}

// DaySchedule is the opening window of a single weekday.
type DaySchedule struct {
	DayName   string `json:"day_name"`
	OpenHour  int    `json:"open_hour"`  // 0-23
	CloseHour int    `json:"close_hour"` // 0-23, must be after OpenHour
}

// OpenMinutes returns the opening time as minutes since midnight.
func (d DaySchedule) OpenMinutes() int {
	return d.OpenHour * 60
}

// CloseMinutes returns the closing time as minutes since midnight.
func (d DaySchedule) CloseMinutes() int {
	return d.CloseHour * 60
}

// WeeklySchedule holds one DaySchedule per weekday, indexed Monday=0 … Sunday=6.
type WeeklySchedule [DaysInWeek]DaySchedule

// DefaultSchedule returns the shop's standard 9am-7pm, seven days a week.
func DefaultSchedule() WeeklySchedule {
	return UniformSchedule(9, 19)
}

// UniformSchedule returns a schedule with identical hours every day.
func UniformSchedule(openHour, closeHour int) WeeklySchedule {
	var s WeeklySchedule
	for i := range s {
		s[i] = DaySchedule{DayName: DayNames[i], OpenHour: openHour, CloseHour: closeHour}
	}
	return s
}

// Day returns the schedule entry for a Go weekday.
func (s WeeklySchedule) Day(wd time.Weekday) DaySchedule {
	return s[ScheduleIndex(wd)]
}

// Validate checks hour ranges and that every day opens before it closes.
func (s WeeklySchedule) Validate() error {
	for i, d := range s {
		if d.OpenHour < 0 || d.OpenHour > 23 {
			return fmt.Errorf("hours[%d]: open_hour %d out of range 0-23", i, d.OpenHour)
		}
		if d.CloseHour < 0 || d.CloseHour > 23 {
			return fmt.Errorf("hours[%d]: close_hour %d out of range 0-23", i, d.CloseHour)
		}
		if d.OpenHour >= d.CloseHour {
			return fmt.Errorf("hours[%d]: open_hour must be before close_hour", i)
		}
	}
	return nil
}

// ScheduleIndex converts Go's weekday (0=Sunday) to the Monday-first index (0=Monday, 6=Sunday).
func ScheduleIndex(wd time.Weekday) int {
	if wd == time.Sunday {
		return 6
	}
	return int(wd) - 1
}

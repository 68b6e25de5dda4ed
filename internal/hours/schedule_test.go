package hours

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduleIndex(t *testing.T) {
	assert.Equal(t, 0, ScheduleIndex(time.Monday))
	assert.Equal(t, 2, ScheduleIndex(time.Wednesday))
	assert.Equal(t, 5, ScheduleIndex(time.Saturday))
	assert.Equal(t, 6, ScheduleIndex(time.Sunday))
}

func TestWeeklySchedule_Day(t *testing.T) {
	s := DefaultSchedule()
	s[6].CloseHour = 14

	assert.Equal(t, "Sunday", s.Day(time.Sunday).DayName)
	assert.Equal(t, 14, s.Day(time.Sunday).CloseHour)
	assert.Equal(t, "Monday", s.Day(time.Monday).DayName)
}

func TestWeeklySchedule_Validate(t *testing.T) {
	assert.NoError(t, DefaultSchedule().Validate())

	tests := []struct {
		name    string
		mutate  func(s *WeeklySchedule)
		wantErr string
	}{
		{"open equals close", func(s *WeeklySchedule) { s[1].CloseHour = s[1].OpenHour }, "hours[1]: open_hour must be before close_hour"},
		{"open after close", func(s *WeeklySchedule) { s[3].OpenHour = 20 }, "hours[3]: open_hour must be before close_hour"},
		{"negative open", func(s *WeeklySchedule) { s[0].OpenHour = -1 }, "hours[0]: open_hour -1 out of range 0-23"},
		{"close past 23", func(s *WeeklySchedule) { s[6].CloseHour = 24 }, "hours[6]: close_hour 24 out of range 0-23"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSchedule()
			tt.mutate(&s)
			assert.EqualError(t, s.Validate(), tt.wantErr)
		})
	}
}

package seasonal

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultThemeID marks the sentinel "no theme" entry. It is never matched.
const DefaultThemeID = "default"

// MonthDay is a calendar day without a year.
type MonthDay struct {
	Month time.Month
	Day   int
}

// Key returns the comparable month*100+day value.
func (md MonthDay) Key() int {
	return int(md.Month)*100 + md.Day
}

func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", int(md.Month), md.Day)
}

// MarshalJSON renders the month-day as "MM-DD".
func (md MonthDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + md.String() + `"`), nil
}

// UnmarshalJSON accepts "MM-DD".
func (md *MonthDay) UnmarshalJSON(data []byte) error {
	parsed, err := ParseMonthDay(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*md = parsed
	return nil
}

// MonthDayOf extracts the month and day of t in t's location.
func MonthDayOf(t time.Time) MonthDay {
	return MonthDay{Month: t.Month(), Day: t.Day()}
}

// daysInMonth uses a leap year so that 02-29 is accepted.
var daysInMonth = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// ParseMonthDay parses "MM-DD".
func ParseMonthDay(s string) (MonthDay, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return MonthDay{}, fmt.Errorf("invalid month-day %q, expected MM-DD", s)
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return MonthDay{}, fmt.Errorf("invalid month in %q", s)
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil || day < 1 || day > daysInMonth[month] {
		return MonthDay{}, fmt.Errorf("invalid day in %q", s)
	}
	return MonthDay{Month: time.Month(month), Day: day}, nil
}

// MustMonthDay is ParseMonthDay for package-level tables.
func MustMonthDay(s string) MonthDay {
	md, err := ParseMonthDay(s)
	if err != nil {
		panic(err)
	}
	return md
}

// Effects are the ambient visual effects a theme switches on.
type Effects struct {
	Snowfall  bool `json:"snowfall"`
	Fireworks bool `json:"fireworks"`
	Lanterns  bool `json:"lanterns"`
}

// Names lists the enabled effects, in a fixed order.
func (e Effects) Names() []string {
	names := make([]string, 0, 3)
	if e.Snowfall {
		names = append(names, "snowfall")
	}
	if e.Fireworks {
		names = append(names, "fireworks")
	}
	if e.Lanterns {
		names = append(names, "lanterns")
	}
	return names
}

// Theme is a named, annually recurring date window.
type Theme struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Start       MonthDay `json:"start"`
	End         MonthDay `json:"end"`
	Effects     Effects  `json:"effects"`
}

// WrapsYearEnd reports whether the window crosses December 31.
func (t Theme) WrapsYearEnd() bool {
	return t.Start.Key() > t.End.Key()
}

// State is the seasonal outcome for a given date.
type State struct {
	ActiveTheme *Theme  `json:"active_theme"`
	Effects     Effects `json:"effects"`
	IsHoliday   bool    `json:"is_holiday"`
}

// ThemeID returns the active theme id or "" when none is active.
func (s State) ThemeID() string {
	if s.ActiveTheme == nil {
		return ""
	}
	return s.ActiveTheme.ID
}

// DefaultThemes is the built-in theme table used when the store config has none.
func DefaultThemes() []Theme {
	return []Theme{
		{
			ID:          "christmas",
			DisplayName: "Christmas",
			Start:       MustMonthDay("12-15"),
			End:         MustMonthDay("12-26"),
			Effects:     Effects{Snowfall: true},
		},
		{
			ID:          "new_year",
			DisplayName: "New Year",
			Start:       MustMonthDay("12-27"),
			End:         MustMonthDay("01-05"),
			Effects:     Effects{Fireworks: true},
		},
		{
			ID:          "thai_pongal",
			DisplayName: "Thai Pongal",
			Start:       MustMonthDay("01-13"),
			End:         MustMonthDay("01-16"),
			Effects:     Effects{Lanterns: true},
		},
		{
			ID:          "avurudu",
			DisplayName: "Sinhala & Tamil New Year",
			Start:       MustMonthDay("04-10"),
			End:         MustMonthDay("04-20"),
			Effects:     Effects{Fireworks: true},
		},
		{
			ID:          "vesak",
			DisplayName: "Vesak",
			Start:       MustMonthDay("05-10"),
			End:         MustMonthDay("05-20"),
			Effects:     Effects{Lanterns: true},
		},
		{
			ID:          "deepavali",
			DisplayName: "Deepavali",
			Start:       MustMonthDay("10-25"),
			End:         MustMonthDay("11-05"),
			Effects:     Effects{Lanterns: true, Fireworks: true},
		},
		{ID: DefaultThemeID, DisplayName: "Default"},
	}
}

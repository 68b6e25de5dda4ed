package seasonal

import "time"

// IsDateInRange reports whether now's month-day lies in [start, end].
// When start is after end the window wraps across the year boundary.
func IsDateInRange(now time.Time, start, end MonthDay) bool {
	cur := MonthDayOf(now).Key()
	s, e := start.Key(), end.Key()
	if s <= e {
		return s <= cur && cur <= e
	}
	return cur >= s || cur <= e
}

// Match returns the first theme, in declaration order, whose window contains now.
// The default sentinel entry is skipped.
func Match(now time.Time, themes []Theme) (Theme, bool) {
	for _, t := range themes {
		if t.ID == DefaultThemeID {
			continue
		}
		if IsDateInRange(now, t.Start, t.End) {
			return t, true
		}
	}
	return Theme{}, false
}

// Evaluate wraps Match into a State.
func Evaluate(now time.Time, themes []Theme) State {
	t, ok := Match(now, themes)
	if !ok {
		return State{}
	}
	return State{ActiveTheme: &t, Effects: t.Effects, IsHoliday: true}
}

// Overlap names two themes whose windows share at least one day.
type Overlap struct {
	First  string
	Second string
}

// Overlaps reports every pair of themes whose windows intersect.
// The earlier theme in the list wins on the shared days.
func Overlaps(themes []Theme) []Overlap {
	var out []Overlap
	for i := 0; i < len(themes); i++ {
		if themes[i].ID == DefaultThemeID {
			continue
		}
		for j := i + 1; j < len(themes); j++ {
			if themes[j].ID == DefaultThemeID {
				continue
			}
			if windowsIntersect(themes[i], themes[j]) {
				out = append(out, Overlap{First: themes[i].ID, Second: themes[j].ID})
			}
		}
	}
	return out
}

// windowsIntersect walks a leap year day by day; windows are at most a year long.
func windowsIntersect(a, b Theme) bool {
	day := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for day.Year() == 2024 {
		if IsDateInRange(day, a.Start, a.End) && IsDateInRange(day, b.Start, b.End) {
			return true
		}
		day = day.AddDate(0, 0, 1)
	}
	return false
}

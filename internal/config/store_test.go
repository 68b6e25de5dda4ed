package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/seasonal"
)

const validStore = `
name: Lanka Auto Parts
timezone: Asia/Colombo
hours:
  - {day: Monday, open: 9, close: 19}
  - {day: Tuesday, open: 9, close: 19}
  - {day: Wednesday, open: 9, close: 19}
  - {day: Thursday, open: 9, close: 19}
  - {day: Friday, open: 9, close: 19}
  - {day: Saturday, open: 9, close: 17}
  - {day: Sunday, open: 10, close: 14}
themes:
  - {id: christmas, name: Christmas, start: "12-15", end: "12-26", snowfall: true}
  - {id: new_year, name: New Year, start: "12-27", end: "01-05", fireworks: true}
  - {id: default, name: Default}
`

func TestParseStoreConfig_Valid(t *testing.T) {
	cfg, err := ParseStoreConfig([]byte(validStore))
	require.NoError(t, err)

	assert.Equal(t, "Lanka Auto Parts", cfg.Name)
	assert.Equal(t, "Asia/Colombo", cfg.Location().String())

	sched := cfg.Schedule()
	assert.Equal(t, "Monday", sched[0].DayName)
	assert.Equal(t, 17, sched[5].CloseHour)
	assert.Equal(t, 10, sched[6].OpenHour)

	themes := cfg.ThemeTable()
	require.Len(t, themes, 3)
	assert.Equal(t, "christmas", themes[0].ID)
	assert.True(t, themes[0].Effects.Snowfall)
	assert.True(t, themes[1].WrapsYearEnd())
	assert.Equal(t, seasonal.DefaultThemeID, themes[2].ID)
	assert.Empty(t, cfg.ThemeOverlaps())
}

func TestParseStoreConfig_Defaults(t *testing.T) {
	cfg, err := ParseStoreConfig([]byte("name: Minimal\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultTimezone, cfg.Timezone)
	for _, d := range cfg.Schedule() {
		assert.Equal(t, 9, d.OpenHour)
		assert.Equal(t, 19, d.CloseHour)
	}
	assert.NotEmpty(t, cfg.ThemeTable())
	assert.Equal(t, "christmas", cfg.ThemeTable()[0].ID)
}

func TestDefaultStoreConfig(t *testing.T) {
	cfg := DefaultStoreConfig()
	assert.Equal(t, "Storefront", cfg.Name)
	assert.NotNil(t, cfg.Location())
}

func TestParseStoreConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "bad timezone",
			yaml:    "timezone: Mars/Olympus",
			wantErr: "timezone: unknown zone 'Mars/Olympus'",
		},
		{
			name:    "too few days",
			yaml:    "hours:\n  - {day: Monday, open: 9, close: 19}",
			wantErr: "hours: expected 7 entries (Monday first), got 1",
		},
		{
			name: "wrong order",
			yaml: `hours:
  - {day: Sunday, open: 9, close: 19}
  - {day: Tuesday, open: 9, close: 19}
  - {day: Wednesday, open: 9, close: 19}
  - {day: Thursday, open: 9, close: 19}
  - {day: Friday, open: 9, close: 19}
  - {day: Saturday, open: 9, close: 19}
  - {day: Monday, open: 9, close: 19}`,
			wantErr: "hours[0]: expected day 'Monday', got 'Sunday'",
		},
		{
			name: "open after close",
			yaml: `hours:
  - {day: Monday, open: 9, close: 19}
  - {day: Tuesday, open: 20, close: 19}
  - {day: Wednesday, open: 9, close: 19}
  - {day: Thursday, open: 9, close: 19}
  - {day: Friday, open: 9, close: 19}
  - {day: Saturday, open: 9, close: 19}
  - {day: Sunday, open: 9, close: 19}`,
			wantErr: "hours[1]: open_hour must be before close_hour",
		},
		{
			name:    "theme without id",
			yaml:    `themes: [{name: X, start: "01-01", end: "01-02"}]`,
			wantErr: "themes[0]: id is required",
		},
		{
			name:    "duplicate theme",
			yaml:    `themes: [{id: a, start: "01-01", end: "01-02"}, {id: a, start: "02-01", end: "02-02"}]`,
			wantErr: "themes[1]: duplicate id 'a'",
		},
		{
			name:    "bad month day",
			yaml:    `themes: [{id: a, start: "13-01", end: "01-02"}]`,
			wantErr: "themes[0].start: invalid month in \"13-01\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStoreConfig([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStoreConfig_ThemeOverlaps(t *testing.T) {
	cfg, err := ParseStoreConfig([]byte(`themes:
  - {id: december, start: "12-01", end: "12-31"}
  - {id: christmas, start: "12-20", end: "12-26"}`))
	require.NoError(t, err)

	overlaps := cfg.ThemeOverlaps()
	require.Len(t, overlaps, 1)
	assert.Equal(t, "december", overlaps[0].First)
	assert.Equal(t, "christmas", overlaps[0].Second)
}

func TestWatchStore_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: First\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var names []string
	logger := zerolog.Nop()

	err := WatchStore(ctx, path, 10*time.Millisecond, &logger, func(c *StoreConfig) {
		mu.Lock()
		names = append(names, c.Name)
		mu.Unlock()
	})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("name: Second\n"), 0o644))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(names) == 2 && names[0] == "First" && names[1] == "Second"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatchStore_InitialLoadError(t *testing.T) {
	logger := zerolog.Nop()
	err := WatchStore(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), time.Second, &logger, nil)
	assert.Error(t, err)
}

func TestLoadStoreConfig_ShippedFile(t *testing.T) {
	cfg, err := LoadStoreConfig(filepath.Join("..", "..", "configs", "store.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Lanka Auto Parts", cfg.Name)
	assert.Len(t, cfg.ThemeTable(), 7)
	assert.Empty(t, cfg.ThemeOverlaps())
}

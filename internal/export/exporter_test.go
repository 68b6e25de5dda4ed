package export

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"storefront/internal/database"
)

type fakeSource struct {
	rows []database.Transition
	err  error
}

func (f *fakeSource) TransitionsBetween(_ context.Context, from, to time.Time) ([]database.Transition, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []database.Transition
	for _, r := range f.rows {
		if !r.OccurredAt.Before(from) && r.OccurredAt.Before(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestExporter_Export(t *testing.T) {
	base := time.Date(2025, 1, 1, 3, 30, 0, 0, time.UTC)
	src := &fakeSource{rows: []database.Transition{
		{ID: "a", Kind: database.KindHours, State: "open", Detail: "Closes in 10h 0m", OccurredAt: base},
		{ID: "b", Kind: database.KindHours, State: "closed", Detail: "Opens in 14h 0m", OccurredAt: base.Add(10 * time.Hour)},
		{ID: "c", Kind: database.KindSeason, State: "new_year", Detail: "fireworks", OccurredAt: base.Add(time.Hour)},
	}}
	loc, err := time.LoadLocation("Asia/Colombo")
	require.NoError(t, err)

	exp := NewExporter(src, loc, nil)
	var buf bytes.Buffer
	n, err := exp.Export(context.Background(), base.Add(-time.Hour), base.Add(24*time.Hour), &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "hours", "season"}, f.GetSheetList())

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, []string{"hours", "2"}, summary[1][:2])
	assert.Equal(t, []string{"season", "1"}, summary[2][:2])

	hoursRows, err := f.GetRows("hours")
	require.NoError(t, err)
	require.Len(t, hoursRows, 3)
	assert.Equal(t, "Occurred At", hoursRows[0][0])
	assert.Equal(t, []string{"2025-01-01 09:00", "open", "Closes in 10h 0m", "a"}, hoursRows[1])
}

func TestExporter_InvalidRange(t *testing.T) {
	exp := NewExporter(&fakeSource{}, nil, nil)
	now := time.Now()
	_, err := exp.Export(context.Background(), now, now, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestExporter_SourceError(t *testing.T) {
	exp := NewExporter(&fakeSource{err: errors.New("db down")}, nil, nil)
	now := time.Now()
	_, err := exp.Export(context.Background(), now.Add(-time.Hour), now, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestExcelizeWriter_RequiresSheet(t *testing.T) {
	w := NewExcelizeWriter()
	defer w.Close()
	assert.Error(t, w.WriteRow([]interface{}{"x"}))
	assert.Error(t, w.WriteHeader([]string{"x"}))
}

func TestExcelizeWriter_TruncatesSheetName(t *testing.T) {
	w := NewExcelizeWriter()
	defer w.Close()
	require.NoError(t, w.AddSheet("a-very-long-sheet-name-that-exceeds-excel-limits"))
	assert.Len(t, w.sheet, maxSheetName)
}

func TestGenerateFilename(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "journal_2025-01-01_2025-02-01.xlsx", GenerateFilename(from, from.AddDate(0, 1, 0)))
}

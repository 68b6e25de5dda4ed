package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"storefront/internal/database"
)

const timestampLayout = "2006-01-02 15:04"

// TransitionSource reads journal rows for a period.
type TransitionSource interface {
	TransitionsBetween(ctx context.Context, from, to time.Time) ([]database.Transition, error)
}

// Exporter renders the transition journal as a workbook: a summary sheet plus one sheet per kind.
type Exporter struct {
	source    TransitionSource
	newWriter func() ExcelWriter
	loc       *time.Location
	logger    *zerolog.Logger
}

// NewExporter builds an exporter that formats timestamps in loc.
func NewExporter(source TransitionSource, loc *time.Location, logger *zerolog.Logger) *Exporter {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Exporter{
		source:    source,
		newWriter: func() ExcelWriter { return NewExcelizeWriter() },
		loc:       loc,
		logger:    logger,
	}
}

// Export writes every transition in [from, to) to w and returns the row count.
func (e *Exporter) Export(ctx context.Context, from, to time.Time, w io.Writer) (int, error) {
	if !from.Before(to) {
		return 0, fmt.Errorf("export range: from %s is not before to %s", from.Format(time.RFC3339), to.Format(time.RFC3339))
	}

	rows, err := e.source.TransitionsBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("load transitions: %w", err)
	}

	byKind := make(map[string][]database.Transition, len(database.Kinds))
	for _, t := range rows {
		byKind[t.Kind] = append(byKind[t.Kind], t)
	}

	xw := e.newWriter()
	defer xw.Close()

	if err := xw.AddSheet("Summary"); err != nil {
		return 0, err
	}
	if err := xw.WriteHeader([]string{"Kind", "Transitions", "From", "To"}); err != nil {
		return 0, err
	}
	for _, kind := range database.Kinds {
		if err := xw.WriteRow([]interface{}{kind, len(byKind[kind]), e.format(from), e.format(to)}); err != nil {
			return 0, err
		}
	}

	for _, kind := range database.Kinds {
		if err := xw.AddSheet(kind); err != nil {
			return 0, err
		}
		if err := xw.WriteHeader([]string{"Occurred At", "State", "Detail", "ID"}); err != nil {
			return 0, err
		}
		for _, t := range byKind[kind] {
			if err := xw.WriteRow([]interface{}{e.format(t.OccurredAt), t.State, t.Detail, t.ID}); err != nil {
				return 0, fmt.Errorf("write %s row: %w", kind, err)
			}
		}
	}

	if err := xw.Save(w); err != nil {
		return 0, fmt.Errorf("save workbook: %w", err)
	}

	e.logger.Info().Int("rows", len(rows)).Time("from", from).Time("to", to).Msg("Journal exported")
	return len(rows), nil
}

func (e *Exporter) format(t time.Time) string {
	return t.In(e.loc).Format(timestampLayout)
}

// GenerateFilename names a report covering [from, to).
func GenerateFilename(from, to time.Time) string {
	return fmt.Sprintf("journal_%s_%s.xlsx", from.Format("2006-01-02"), to.Format("2006-01-02"))
}

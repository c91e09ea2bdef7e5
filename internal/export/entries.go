package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mbjorn/econgrab/internal/api/economic"
	"github.com/mbjorn/econgrab/internal/ndjson"
	"github.com/rs/zerolog"
)

const (
	ExportTypeEntries = ExportType("entries")
	entriesTimeFormat = "2006-01-02"
)

func init() {
	Register(ExportTypeEntries, func(opts Options) (Exporter, error) {
		return NewBookedEntryExporter(newClient(opts)), nil
	})
}

var _ Exporter = (*bookedEntryExporter)(nil)

type bookedEntryExporter struct {
	api economic.Client
}

func NewBookedEntryExporter(api economic.Client) *bookedEntryExporter {
	return &bookedEntryExporter{
		api: api,
	}
}

func (e *bookedEntryExporter) Type() ExportType {
	return ExportTypeEntries
}

func (e *bookedEntryExporter) Export(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid opts: %w", err)
	}

	if opts.StartDate.IsZero() || opts.EndDate.IsZero() {
		return nil, errors.New("start and end dates are required")
	}

	filter := economic.And(economic.DateRangeFilter(opts.StartDate, opts.EndDate), opts.Filter)

	zerolog.Ctx(ctx).Info().
		Str("export.type", string(ExportTypeEntries)).
		Str("export.start", opts.StartDate.Format(entriesTimeFormat)).
		Str("export.end", opts.EndDate.Format(entriesTimeFormat)).
		Msg("starting export of booked entries")

	path := opts.outputPath("booked_entries", timestamp(), ".jsonl")

	writer, err := ndjson.Create(path)
	if err != nil {
		return nil, err
	}

	err = e.api.FetchBookedEntries(ctx, economic.FetchOptions{
		Filter:   filter,
		PageSize: opts.PageSize,
	}, func(item json.RawMessage) error {
		return writer.Write(item)
	})
	if err != nil {
		_ = writer.Close()
		return nil, err
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("export.type", string(ExportTypeEntries)).
		Int("record.count", writer.Count()).
		Str("export.path", path).
		Msg("successfully exported booked entries")

	return &Result{
		Records: writer.Count(),
		Paths:   []string{path},
	}, nil
}

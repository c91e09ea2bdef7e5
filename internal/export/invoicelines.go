package export

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mbjorn/econgrab/internal/api/economic"
	"github.com/mbjorn/econgrab/internal/ndjson"
	"github.com/rs/zerolog"
)

const ExportTypeInvoiceLines = ExportType("invoicelines")

func init() {
	Register(ExportTypeInvoiceLines, func(opts Options) (Exporter, error) {
		return NewInvoiceLineExporter(newClient(opts)), nil
	})
}

var _ Exporter = (*invoiceLineExporter)(nil)

type invoiceLineExporter struct {
	api economic.Client
}

func NewInvoiceLineExporter(api economic.Client) *invoiceLineExporter {
	return &invoiceLineExporter{
		api: api,
	}
}

func (e *invoiceLineExporter) Type() ExportType {
	return ExportTypeInvoiceLines
}

func (e *invoiceLineExporter) Export(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid opts: %w", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("export.type", string(ExportTypeInvoiceLines)).
		Str("export.filter", opts.Filter).
		Msg("starting export of booked invoice lines")

	path := opts.outputPath("invoice_lines", timestamp(), ".jsonl")

	writer, err := ndjson.Create(path)
	if err != nil {
		return nil, err
	}

	err = e.api.FetchInvoiceLines(ctx, economic.FetchOptions{
		Filter:   opts.Filter,
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
		Str("export.type", string(ExportTypeInvoiceLines)).
		Int("record.count", writer.Count()).
		Str("export.path", path).
		Msg("successfully exported booked invoice lines")

	return &Result{
		Records: writer.Count(),
		Paths:   []string{path},
	}, nil
}

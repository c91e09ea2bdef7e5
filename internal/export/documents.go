package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/mbjorn/econgrab/internal/api/economic"
	"github.com/mbjorn/econgrab/internal/ndjson"
	"github.com/rs/zerolog"
)

const ExportTypeDocuments = ExportType("documents")

// errLimitReached stops the paginated fetch early in list mode.
var errLimitReached = errors.New("document limit reached")

func init() {
	Register(ExportTypeDocuments, func(opts Options) (Exporter, error) {
		return NewDocumentExporter(newClient(opts)), nil
	})
}

var _ Exporter = (*documentExporter)(nil)

type documentExporter struct {
	api economic.Client
}

func NewDocumentExporter(api economic.Client) *documentExporter {
	return &documentExporter{
		api: api,
	}
}

func (e *documentExporter) Type() ExportType {
	return ExportTypeDocuments
}

func (e *documentExporter) Export(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid opts: %w", err)
	}

	switch {
	case opts.VoucherNumber > 0:
		return e.exportVoucher(ctx, opts)
	case opts.ListAll:
		return e.exportList(ctx, opts)
	case opts.DocumentNumber > 0:
		return e.exportSingle(ctx, opts)
	default:
		return nil, errors.New("either a document number, a voucher number, or list mode is required")
	}
}

// exportSingle looks up one document directly rather than fetching pages.
func (e *documentExporter) exportSingle(ctx context.Context, opts Options) (*Result, error) {
	zerolog.Ctx(ctx).Info().
		Str("export.type", string(ExportTypeDocuments)).
		Int("document.number", opts.DocumentNumber).
		Msg("retrieving attached document")

	document, err := e.api.FetchDocument(ctx, opts.DocumentNumber)
	if err != nil {
		return nil, err
	}

	path := opts.outputPath("attached_document", strconv.Itoa(opts.DocumentNumber), ".jsonl")

	writer, err := ndjson.Create(path)
	if err != nil {
		return nil, err
	}

	if err := writer.Write(document); err != nil {
		_ = writer.Close()
		return nil, err
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	result := &Result{
		Records: writer.Count(),
		Paths:   []string{path},
	}

	if opts.IncludePDF {
		pdfPath, err := e.downloadPDF(ctx, opts, opts.DocumentNumber, "attached_document")
		if err != nil {
			return nil, err
		}

		result.Paths = append(result.Paths, pdfPath)
	}

	zerolog.Ctx(ctx).Info().
		Str("export.type", string(ExportTypeDocuments)).
		Int("document.number", opts.DocumentNumber).
		Strs("export.paths", result.Paths).
		Msg("successfully exported attached document")

	return result, nil
}

// exportList writes document metadata as a listing file instead of
// per-document files.
func (e *documentExporter) exportList(ctx context.Context, opts Options) (*Result, error) {
	zerolog.Ctx(ctx).Info().
		Str("export.type", string(ExportTypeDocuments)).
		Int("export.limit", opts.Limit).
		Msg("retrieving list of attached documents")

	path := opts.outputPath("attached_documents_list", "", ".jsonl")

	writer, err := ndjson.Create(path)
	if err != nil {
		return nil, err
	}

	err = e.api.FetchDocuments(ctx, economic.FetchOptions{
		Filter:   opts.Filter,
		PageSize: opts.PageSize,
	}, func(item json.RawMessage) error {
		if opts.Limit > 0 && writer.Count() >= opts.Limit {
			return errLimitReached
		}

		return writer.Write(item)
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		_ = writer.Close()
		return nil, err
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("export.type", string(ExportTypeDocuments)).
		Int("record.count", writer.Count()).
		Str("export.path", path).
		Msg("successfully exported attached document list")

	return &Result{
		Records: writer.Count(),
		Paths:   []string{path},
	}, nil
}

// exportVoucher lists the documents attached to one voucher and, when exactly
// one matches, optionally downloads its PDF.
func (e *documentExporter) exportVoucher(ctx context.Context, opts Options) (*Result, error) {
	zerolog.Ctx(ctx).Info().
		Str("export.type", string(ExportTypeDocuments)).
		Int("voucher.number", opts.VoucherNumber).
		Str("voucher.accounting_year", opts.AccountingYear).
		Msg("searching for documents by voucher number")

	path := opts.outputPath("voucher", strconv.Itoa(opts.VoucherNumber), ".jsonl")

	writer, err := ndjson.Create(path)
	if err != nil {
		return nil, err
	}

	var documentNumbers []int

	err = e.api.FetchDocuments(ctx, economic.FetchOptions{
		Filter:   economic.And(economic.VoucherFilter(opts.VoucherNumber, opts.AccountingYear), opts.Filter),
		PageSize: opts.PageSize,
	}, func(item json.RawMessage) error {
		var doc struct {
			Number int `json:"number"`
		}
		if err := json.Unmarshal(item, &doc); err == nil && doc.Number > 0 {
			documentNumbers = append(documentNumbers, doc.Number)
		}

		return writer.Write(item)
	})
	if err != nil {
		_ = writer.Close()
		return nil, err
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	result := &Result{
		Records: writer.Count(),
		Paths:   []string{path},
	}

	switch {
	case opts.IncludePDF && len(documentNumbers) == 1:
		pdfPath, err := e.downloadPDF(ctx, opts, documentNumbers[0], "voucher")
		if err != nil {
			return nil, err
		}

		result.Paths = append(result.Paths, pdfPath)
	case opts.IncludePDF && len(documentNumbers) > 1:
		zerolog.Ctx(ctx).Info().
			Int("voucher.number", opts.VoucherNumber).
			Int("document.count", len(documentNumbers)).
			Msg("multiple documents found; re-run with a document number to download a PDF")
	}

	zerolog.Ctx(ctx).Info().
		Str("export.type", string(ExportTypeDocuments)).
		Int("voucher.number", opts.VoucherNumber).
		Int("record.count", writer.Count()).
		Strs("export.paths", result.Paths).
		Msg("successfully exported voucher documents")

	return result, nil
}

func (e *documentExporter) downloadPDF(ctx context.Context, opts Options, documentNumber int, prefix string) (string, error) {
	zerolog.Ctx(ctx).Info().
		Int("document.number", documentNumber).
		Msg("retrieving PDF")

	data, err := e.api.FetchDocumentPDF(ctx, documentNumber)
	if err != nil {
		return "", err
	}

	identifier := strconv.Itoa(documentNumber)
	if prefix == "voucher" {
		identifier = strconv.Itoa(opts.VoucherNumber)
	}

	path := opts.outputPath(prefix, identifier, ".pdf")
	if err := ndjson.WriteBinary(path, data); err != nil {
		return "", err
	}

	return path, nil
}

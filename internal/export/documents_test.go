package export_test

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/mbjorn/econgrab/internal/export"
	"github.com/mbjorn/econgrab/internal/util/testutil"
	"github.com/stretchr/testify/require"
)

const pdfPayload = "%PDF-1.7 mock pdf"

func TestExportDocuments(t *testing.T) {
	t.Parallel()

	t.Run("single document with PDF writes both files", func(t *testing.T) {
		t.Parallel()

		routes := []testutil.HTTPTestRoute{
			{
				Method: http.MethodGet,
				URL:    "/documentsapi/v1.0.1/AttachedDocuments/70492",
				Handler: func(w http.ResponseWriter, _ *http.Request) {
					w.Header().Set("Content-Type", "application/json")
					fmt.Fprint(w, `{"number": 70492, "note": "Receipt"}`)
				},
			},
			{
				Method: http.MethodGet,
				URL:    "/documentsapi/v1.0.1/AttachedDocuments/70492/pdf",
				Handler: func(w http.ResponseWriter, _ *http.Request) {
					w.Header().Set("Content-Type", "application/pdf")
					fmt.Fprint(w, pdfPayload)
				},
			},
		}

		server := testutil.NewHTTPTestServer(t, routes)
		outputDir := t.TempDir()

		opts := validOptions()
		opts.BaseURL = server.URL
		opts.OutputDir = outputDir
		opts.DocumentNumber = 70492
		opts.IncludePDF = true

		exporter, err := export.NewExporter(export.ExportTypeDocuments, opts)
		require.NoError(t, err)

		result, err := exporter.Export(t.Context(), opts)
		require.NoError(t, err)
		require.Equal(t, 1, result.Records)
		require.Equal(t, []string{
			filepath.Join(outputDir, "attached_document_acme_70492.jsonl"),
			filepath.Join(outputDir, "attached_document_acme_70492.pdf"),
		}, result.Paths)

		lines := readLines(t, result.Paths[0])
		require.Equal(t, []string{`{"number":70492,"note":"Receipt"}`}, lines)

		pdf, err := os.ReadFile(result.Paths[1])
		require.NoError(t, err)
		require.Equal(t, pdfPayload, string(pdf))
	})

	t.Run("list mode honours the limit", func(t *testing.T) {
		t.Parallel()

		route := testutil.HTTPTestRoute{
			Method: http.MethodGet,
			URL:    "/documentsapi/v1.0.1/AttachedDocuments/paged",
			Handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, `{"collection": [{"number": 1}, {"number": 2}, {"number": 3}]}`)
			},
		}

		server := testutil.NewHTTPTestServer(t, []testutil.HTTPTestRoute{route})
		outputDir := t.TempDir()

		opts := validOptions()
		opts.BaseURL = server.URL
		opts.OutputDir = outputDir
		opts.ListAll = true
		opts.Limit = 2

		exporter, err := export.NewExporter(export.ExportTypeDocuments, opts)
		require.NoError(t, err)

		result, err := exporter.Export(t.Context(), opts)
		require.NoError(t, err)
		require.Equal(t, 2, result.Records)
		require.Equal(t, []string{filepath.Join(outputDir, "attached_documents_list_acme.jsonl")}, result.Paths)
		require.Len(t, readLines(t, result.Paths[0]), 2)
	})

	t.Run("voucher mode with a single match downloads its PDF", func(t *testing.T) {
		t.Parallel()

		routes := []testutil.HTTPTestRoute{
			{
				Method: http.MethodGet,
				URL:    "/documentsapi/v1.0.1/AttachedDocuments/paged",
				Handler: func(w http.ResponseWriter, r *http.Request) {
					require.Equal(t, "voucherNumber$eq:1234$and:accountingYear$eq:2024", r.URL.Query().Get("filter"))
					w.Header().Set("Content-Type", "application/json")
					fmt.Fprint(w, `{"collection": [{"number": 70492, "voucherNumber": 1234}]}`)
				},
			},
			{
				Method: http.MethodGet,
				URL:    "/documentsapi/v1.0.1/AttachedDocuments/70492/pdf",
				Handler: func(w http.ResponseWriter, _ *http.Request) {
					w.Header().Set("Content-Type", "application/pdf")
					fmt.Fprint(w, pdfPayload)
				},
			},
		}

		server := testutil.NewHTTPTestServer(t, routes)
		outputDir := t.TempDir()

		opts := validOptions()
		opts.BaseURL = server.URL
		opts.OutputDir = outputDir
		opts.VoucherNumber = 1234
		opts.AccountingYear = "2024"
		opts.IncludePDF = true

		exporter, err := export.NewExporter(export.ExportTypeDocuments, opts)
		require.NoError(t, err)

		result, err := exporter.Export(t.Context(), opts)
		require.NoError(t, err)
		require.Equal(t, 1, result.Records)
		require.Equal(t, []string{
			filepath.Join(outputDir, "voucher_acme_1234.jsonl"),
			filepath.Join(outputDir, "voucher_acme_1234.pdf"),
		}, result.Paths)
	})

	t.Run("voucher mode with multiple matches skips the PDF", func(t *testing.T) {
		t.Parallel()

		route := testutil.HTTPTestRoute{
			Method: http.MethodGet,
			URL:    "/documentsapi/v1.0.1/AttachedDocuments/paged",
			Handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, `{"collection": [{"number": 1}, {"number": 2}]}`)
			},
		}

		server := testutil.NewHTTPTestServer(t, []testutil.HTTPTestRoute{route})
		outputDir := t.TempDir()

		opts := validOptions()
		opts.BaseURL = server.URL
		opts.OutputDir = outputDir
		opts.VoucherNumber = 1234
		opts.IncludePDF = true

		exporter, err := export.NewExporter(export.ExportTypeDocuments, opts)
		require.NoError(t, err)

		result, err := exporter.Export(t.Context(), opts)
		require.NoError(t, err)
		require.Equal(t, 2, result.Records)
		require.Len(t, result.Paths, 1, "no PDF should be downloaded for multiple matches")
	})

	t.Run("requires a mode", func(t *testing.T) {
		t.Parallel()

		opts := validOptions()

		exporter, err := export.NewExporter(export.ExportTypeDocuments, opts)
		require.NoError(t, err)

		_, err = exporter.Export(t.Context(), opts)
		require.ErrorContains(t, err, "either a document number, a voucher number, or list mode is required")
	})
}

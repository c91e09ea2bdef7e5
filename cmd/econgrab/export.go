package econgrab

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mbjorn/econgrab/internal/auth"
	"github.com/mbjorn/econgrab/internal/export"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	timeFormat       = "2006-01-02"
	defaultTimeout   = 1 * time.Minute
	defaultStartDate = "2024-01-01"
)

var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export data from the e-conomic API",
	Long:  "Export invoice lines, attached documents, or booked entries to local files",
}

func init() {
	for _, exportType := range export.All() {
		ExportCmd.AddCommand(newExportCommand(exportType))
	}
}

type exportOptions struct {
	CredsFile      string
	Demo           bool
	OutputDir      string
	OutputFile     string
	Filter         string
	Timeout        time.Duration
	PageSize       int
	StartDateStr   string
	EndDateStr     string
	DocumentNumber int
	VoucherNumber  int
	AccountingYear string
	PDF            bool
	List           bool
	Limit          int
}

func newExportCommand(exportType export.ExportType) *cobra.Command {
	opts := &exportOptions{}
	name := string(exportType)

	cmd := &cobra.Command{
		Use:   strings.ToLower(name),
		Short: "Export " + name + " from the e-conomic API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, opts, exportType)
		},
	}

	cmd.Flags().StringVar(&opts.CredsFile, "creds-file", "", fmt.Sprintf("Path to credentials JSON file (also searched for in the %s directory)", auth.DefaultDir))
	cmd.Flags().BoolVar(&opts.Demo, "demo", false, "Use demo authentication instead of a credentials file")
	cmd.Flags().StringVar(&opts.OutputFile, "output", "", "Output filename (default: generated from company name and timestamp)")
	cmd.Flags().StringVar(&opts.OutputDir, "output-dir", "", "Output directory (default: data_output)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "Filter expression for the API query")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", defaultTimeout, "API request timeout")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "Number of items requested per page (default: 100, the API maximum)")

	switch exportType {
	case export.ExportTypeEntries:
		cmd.Flags().StringVar(&opts.StartDateStr, "start-date", defaultStartDate, "Start date (YYYY-MM-DD)")
		cmd.Flags().StringVar(&opts.EndDateStr, "end-date", "", "End date (YYYY-MM-DD, default: today)")
	case export.ExportTypeDocuments:
		cmd.Flags().IntVar(&opts.DocumentNumber, "document-number", 0, "Number of the attached document to retrieve")
		cmd.Flags().IntVar(&opts.VoucherNumber, "voucher-number", 0, "Search for documents by voucher number")
		cmd.Flags().StringVar(&opts.AccountingYear, "accounting-year", "", "Accounting year for voucher search")
		cmd.Flags().BoolVar(&opts.PDF, "pdf", false, "Also retrieve and save the PDF file for the document")
		cmd.Flags().BoolVar(&opts.List, "list", false, "List all available attached documents")
		cmd.Flags().IntVar(&opts.Limit, "limit", 100, "Maximum number of documents to retrieve when listing")
	}

	return cmd
}

func runExport(cmd *cobra.Command, opts *exportOptions, exportType export.ExportType) error {
	ctx := cmd.Context()

	logger := zerolog.Ctx(ctx).With().Str("run.id", uuid.NewString()).Logger()
	ctx = logger.WithContext(ctx)

	creds, companyName, err := resolveCredentials(opts)
	if err != nil {
		return err
	}

	exportOpts := export.Options{
		Credentials:    creds,
		CompanyName:    companyName,
		Timeout:        opts.Timeout,
		OutputDir:      opts.OutputDir,
		OutputFile:     opts.OutputFile,
		Filter:         opts.Filter,
		PageSize:       opts.PageSize,
		DocumentNumber: opts.DocumentNumber,
		VoucherNumber:  opts.VoucherNumber,
		AccountingYear: opts.AccountingYear,
		IncludePDF:     opts.PDF,
		ListAll:        opts.List,
		Limit:          opts.Limit,
	}

	if exportType == export.ExportTypeEntries {
		exportOpts.StartDate, exportOpts.EndDate, err = parseDateRange(opts.StartDateStr, opts.EndDateStr)
		if err != nil {
			return err
		}
	}

	exporter, err := export.NewExporter(exportType, exportOpts)
	if err != nil {
		return fmt.Errorf("failed to create exporter: %w", err)
	}

	result, err := exporter.Export(ctx, exportOpts)
	if err != nil {
		return err
	}

	cmd.Printf("Exported %d record(s)\n", result.Records)

	for _, path := range result.Paths {
		cmd.Printf("Saved to: %s\n", path)
	}

	return nil
}

// resolveCredentials applies the resolution order demo > file > environment
// and derives the company name used in output filenames.
func resolveCredentials(opts *exportOptions) (auth.Credentials, string, error) {
	companyName := ""
	credsPath := ""

	if opts.CredsFile != "" {
		credsPath = auth.ResolvePath(opts.CredsFile)
		companyName = auth.CompanyName(credsPath)
	}

	if opts.Demo {
		if companyName == "" {
			companyName = "demo"
		} else {
			companyName += "_demo"
		}

		return auth.Demo(), companyName, nil
	}

	if credsPath != "" {
		creds, err := auth.LoadFile(credsPath)
		if err != nil {
			return auth.Credentials{}, "", err
		}

		return creds, companyName, nil
	}

	creds, err := auth.FromEnv()
	if err != nil {
		return auth.Credentials{}, "", err
	}

	return creds, companyName, nil
}

func parseDateRange(startStr, endStr string) (time.Time, time.Time, error) {
	startDate, err := time.Parse(timeFormat, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %w", err)
	}

	endDate := time.Now()
	if endStr != "" {
		endDate, err = time.Parse(timeFormat, endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date: %w", err)
		}
	}

	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, errors.New("end date must be after start date")
	}

	return startDate, endDate, nil
}

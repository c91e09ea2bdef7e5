package export

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mbjorn/econgrab/internal/api/economic"
	"github.com/mbjorn/econgrab/internal/auth"
)

type (
	ExportType          string
	ExporterConstructor func(opts Options) (Exporter, error)
	Exporter            interface {
		Type() ExportType
		Export(ctx context.Context, opts Options) (*Result, error)
	}
)

// Result summarises one completed export.
type Result struct {
	Records int
	Paths   []string
}

type Options struct {
	Credentials auth.Credentials
	CompanyName string
	// BaseURL overrides the production API root, e.g. for tests.
	BaseURL   string
	Timeout   time.Duration
	OutputDir string
	// OutputFile overrides the generated filename inside OutputDir.
	OutputFile string
	Filter     string
	PageSize   int

	// Booked entries.
	StartDate time.Time
	EndDate   time.Time

	// Attached documents.
	DocumentNumber int
	VoucherNumber  int
	AccountingYear string
	IncludePDF     bool
	ListAll        bool
	Limit          int
}

func (o Options) Validate(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, &o,
		validation.Field(&o.Credentials, validation.By(func(any) error {
			if o.Credentials.AppSecretToken == "" || o.Credentials.AgreementGrantToken == "" {
				return validation.NewError("validation_missing_tokens", "both API tokens are required")
			}

			return nil
		})),
		validation.Field(&o.PageSize, validation.Min(0).Error("page size must be non-negative")),
		validation.Field(&o.StartDate, validation.When(!o.StartDate.IsZero() && !o.EndDate.IsZero(), validation.By(func(any) error {
			if o.StartDate.After(o.EndDate) {
				return validation.NewError("validation_invalid_date_range", "start date must not be after end date")
			}

			return nil
		}))),
	)
}

const defaultOutputDir = "data_output"

func (o Options) outputDir() string {
	if o.OutputDir != "" {
		return o.OutputDir
	}

	return defaultOutputDir
}

// outputPath builds the output file path: the explicit OutputFile when given,
// otherwise prefix, company name, and identifier joined with underscores.
// The extension is forced either way.
func (o Options) outputPath(prefix, identifier, ext string) string {
	name := o.OutputFile
	if name == "" {
		parts := []string{prefix}
		if o.CompanyName != "" {
			parts = append(parts, o.CompanyName)
		}

		if identifier != "" {
			parts = append(parts, identifier)
		}

		name = strings.Join(parts, "_")
	}

	return filepath.Join(o.outputDir(), forceExt(name, ext))
}

func forceExt(name, ext string) string {
	for _, known := range []string{".jsonl", ".json", ".pdf"} {
		name = strings.TrimSuffix(name, known)
	}

	return name + ext
}

func timestamp() string {
	return time.Now().Format("20060102_150405")
}

func newClient(opts Options) economic.Client {
	httpClient := &http.Client{
		Timeout: opts.Timeout,
	}

	var baseURL economic.Option
	if opts.BaseURL != "" {
		baseURL = economic.WithBaseURL(opts.BaseURL)
	}

	return economic.New(httpClient,
		economic.WithAuthTokens(opts.Credentials.AppSecretToken, opts.Credentials.AgreementGrantToken),
		economic.WithTimeout(opts.Timeout),
		baseURL,
	)
}

var (
	registry     = make(map[ExportType]ExporterConstructor)
	registryLock = sync.RWMutex{}
)

// Register adds a new exporter constructor to the registry for the given export type.
// It is thread-safe and overwrites any existing constructor for the same ExportType.
func Register(exportType ExportType, constructor ExporterConstructor) {
	registryLock.Lock()
	defer registryLock.Unlock()

	registry[exportType] = constructor
}

func NewExporter(exportType ExportType, opts Options) (Exporter, error) {
	registryLock.RLock()
	defer registryLock.RUnlock()

	constructor, exists := registry[exportType]
	if !exists {
		return nil, fmt.Errorf("unsupported type: %s", exportType)
	}

	exporter, err := constructor(opts)
	if err != nil {
		return nil, fmt.Errorf("constructor: %w", err)
	}

	return exporter, nil
}

// All returns a sorted slice (by name) of all registered export types.
func All() []ExportType {
	registryLock.RLock()
	defer registryLock.RUnlock()

	exportTypes := make([]ExportType, 0, len(registry))
	for exportType := range registry {
		exportTypes = append(exportTypes, exportType)
	}

	slices.Sort(exportTypes)

	return exportTypes
}

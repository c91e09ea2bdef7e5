package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/samber/lo"
)

const (
	// DefaultDir is the directory searched for credential files when the
	// given path does not exist on its own.
	DefaultDir = "authentication_schemas"

	// EnvAppSecretToken and EnvAgreementGrantToken are the environment
	// variables consulted when no credential file is given.
	EnvAppSecretToken      = "ECONOMIC_APP_SECRET_TOKEN"
	EnvAgreementGrantToken = "ECONOMIC_AGREEMENT_GRANT_TOKEN"

	// The API accepts the word "demo" for both tokens to access its demo
	// environment.
	demoToken = "demo"
)

var companyPattern = regexp.MustCompile(`^(.+)_credentials\.json$`)

// Credentials is the token pair required by every API request.
// Immutable once loaded.
type Credentials struct {
	AppSecretToken      string `json:"app_secret_token"`
	AgreementGrantToken string `json:"agreement_grant_token"`
}

// ConfigError reports missing or malformed credentials.
type ConfigError struct {
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("credentials %s: %s", e.Source, e.Err)
	}

	return fmt.Sprintf("credentials: %s", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Demo returns the fixed token pair understood by the API's demo environment.
func Demo() Credentials {
	return Credentials{
		AppSecretToken:      demoToken,
		AgreementGrantToken: demoToken,
	}
}

// FromEnv resolves the token pair from the environment.
func FromEnv() (Credentials, error) {
	creds := Credentials{
		AppSecretToken:      strings.TrimSpace(os.Getenv(EnvAppSecretToken)),
		AgreementGrantToken: strings.TrimSpace(os.Getenv(EnvAgreementGrantToken)),
	}

	if creds.AppSecretToken == "" || creds.AgreementGrantToken == "" {
		return Credentials{}, &ConfigError{
			Source: "environment",
			Err:    fmt.Errorf("both %s and %s must be set", EnvAppSecretToken, EnvAgreementGrantToken),
		}
	}

	return creds, nil
}

// credentialFile tolerates both shapes the tool has accepted over time: the
// tokens nested under an "economic_api" object, or at the top level.
type credentialFile struct {
	EconomicAPI *Credentials `json:"economic_api"`
	Credentials
}

// LoadFile reads a credentials JSON file and extracts the token pair.
func LoadFile(path string) (Credentials, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Credentials{}, &ConfigError{Source: path, Err: err}
	}

	var file credentialFile
	if err := json.Unmarshal(data, &file); err != nil {
		return Credentials{}, &ConfigError{Source: path, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	creds := file.Credentials
	if file.EconomicAPI != nil {
		creds = *file.EconomicAPI
	}

	if creds.AppSecretToken == "" || creds.AgreementGrantToken == "" {
		return Credentials{}, &ConfigError{
			Source: path,
			Err:    fmt.Errorf("app_secret_token and agreement_grant_token are both required"),
		}
	}

	return creds, nil
}

// ResolvePath returns the path to a credential file: the name as given when
// it exists, otherwise the name looked up under DefaultDir.
func ResolvePath(name string) string {
	if _, err := os.Stat(name); err == nil {
		return name
	}

	inDir := filepath.Join(DefaultDir, name)
	if _, err := os.Stat(inDir); err == nil {
		return inDir
	}

	return name
}

// CompanyName extracts the company name from a credential file named
// <company>_credentials.json. Returns "" when the name doesn't match.
func CompanyName(path string) string {
	match := companyPattern.FindStringSubmatch(filepath.Base(path))
	if match == nil {
		return ""
	}

	return match[1]
}

// CredFile describes one entry found by List.
type CredFile struct {
	Name    string
	Company string
}

// List enumerates the credential files in dir. A missing directory is not an
// error; it simply holds no credential files.
func List(dir string) ([]CredFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, &ConfigError{Source: dir, Err: err}
	}

	jsonFiles := lo.Filter(entries, func(entry os.DirEntry, _ int) bool {
		return !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json")
	})

	return lo.Map(jsonFiles, func(entry os.DirEntry, _ int) CredFile {
		return CredFile{
			Name:    entry.Name(),
			Company: CompanyName(entry.Name()),
		}
	}), nil
}

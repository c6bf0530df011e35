// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by collaborators that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxRetries bounds retries on 429/503 responses (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// ServerConfig holds settings for the web form.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// DownloadName is the file name of the returned workbook (default "output.xlsx").
	DownloadName string `json:"download_name" yaml:"download_name" mapstructure:"download_name"`

	// MaxBodyBytes caps the size of a submitted form (default 1 MiB).
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// TemplateConfig points at the single-record workbook template.
type TemplateConfig struct {
	// Path is the template .xlsx file (e.g. "印刷リストテンプレ.xlsx").
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogBackend selects the implementation of the shared print list.
type LogBackend string

const (
	LogBackendSheets LogBackend = "sheets"
	LogBackendSQLite LogBackend = "sqlite"
)

// SheetsConfig addresses the Google Sheets print list.
type SheetsConfig struct {
	// SpreadsheetID is the key of the shared spreadsheet.
	SpreadsheetID string `json:"spreadsheet_id" yaml:"spreadsheet_id" mapstructure:"spreadsheet_id"`

	// Worksheet is the tab holding the print list (default "printlist").
	Worksheet string `json:"worksheet" yaml:"worksheet" mapstructure:"worksheet"`

	// CredentialsSecret names the service-account JSON in the secrets
	// directory (default "credentials.json").
	CredentialsSecret string `json:"credentials_secret" yaml:"credentials_secret" mapstructure:"credentials_secret"`
}

// SQLiteConfig addresses the local print list database.
type SQLiteConfig struct {
	// Path is the database file (default "printlist.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogConfig groups the print-list backend settings.
type LogConfig struct {
	Backend LogBackend   `json:"backend" yaml:"backend" mapstructure:"backend"`
	Sheets  SheetsConfig `json:"sheets" yaml:"sheets" mapstructure:"sheets"`
	SQLite  SQLiteConfig `json:"sqlite" yaml:"sqlite" mapstructure:"sqlite"`

	// RemoteAllocation asks the script endpoint for the next block index
	// instead of counting occupied rows.
	RemoteAllocation bool `json:"remote_allocation" yaml:"remote_allocation" mapstructure:"remote_allocation"`
}

// ScriptConfig holds the Apps Script web-app endpoints that maintain the
// print list.
type ScriptConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// ClearURL empties the print list.
	ClearURL string `json:"clear_url" yaml:"clear_url" mapstructure:"clear_url"`

	// CopyURL appends a fresh template block.
	CopyURL string `json:"copy_url" yaml:"copy_url" mapstructure:"copy_url"`

	// AllocateURL reserves the next block and returns its index.
	AllocateURL string `json:"allocate_url" yaml:"allocate_url" mapstructure:"allocate_url"`
}

// Config groups all settings for the printlist binary.
type Config struct {
	// Profile is a built-in profile name ("standard", "compact") or a path
	// to a profile YAML file.
	Profile string `json:"profile" yaml:"profile" mapstructure:"profile"`

	// SecretsDir is the directory of credential files (default "/etc/secrets").
	SecretsDir string `json:"secrets_dir" yaml:"secrets_dir" mapstructure:"secrets_dir"`

	Server   ServerConfig   `json:"server" yaml:"server" mapstructure:"server"`
	Template TemplateConfig `json:"template" yaml:"template" mapstructure:"template"`
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
	Script   ScriptConfig   `json:"script" yaml:"script" mapstructure:"script"`
}

// Defaults fills zero values with the deployed defaults.
func (c *Config) Defaults() {
	if c.Profile == "" {
		c.Profile = "standard"
	}
	if c.SecretsDir == "" {
		c.SecretsDir = "/etc/secrets"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.DownloadName == "" {
		c.Server.DownloadName = "output.xlsx"
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = 1 << 20
	}
	if c.Template.Path == "" {
		c.Template.Path = "印刷リストテンプレ.xlsx"
	}
	if c.Log.Backend == "" {
		c.Log.Backend = LogBackendSheets
	}
	if c.Log.Sheets.Worksheet == "" {
		c.Log.Sheets.Worksheet = "printlist"
	}
	if c.Log.Sheets.CredentialsSecret == "" {
		c.Log.Sheets.CredentialsSecret = "credentials.json"
	}
	if c.Log.SQLite.Path == "" {
		c.Log.SQLite.Path = "printlist.db"
	}
	if c.Script.Timeout <= 0 {
		c.Script.Timeout = 30 * time.Second
	}
	if c.Script.MaxRetries <= 0 {
		c.Script.MaxRetries = 3
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the printlist CLI: the web form and
// the command-line tools around the manufacturing-report extractor.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/printlist/internal/secrets"
	"github.com/pdiddy/printlist/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from the secrets directory at startup.
var loadedSecrets secrets.Set

// rootCmd is the base command for the printlist CLI.
var rootCmd = &cobra.Command{
	Use:   "printlist",
	Short: "Turn pasted manufacturing reports into print-list entries",
	Long: `printlist reads the free-form text of a manufacturing instruction report,
extracts its fields, and places them in two spreadsheets: a copy of the
single-record template (downloaded as output.xlsx) and a block of the shared
print list.

serve runs the web form. extract and place show what a report produces
without touching the print list. clear and copy maintain the print list
through its script endpoint.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(viper.GetString("secrets_dir"), os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Names())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./printlist.yaml or ~/.config/printlist/printlist.yaml)")
	rootCmd.PersistentFlags().String("profile", "", "report profile: built-in name or path to a profile YAML")
	rootCmd.PersistentFlags().Bool("debug", false, "development logging")
	viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("printlist")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "printlist"))
		}
	}

	setDefaults()
	viper.SetEnvPrefix("PRINTLIST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key so that PRINTLIST_* variables resolve
// even when no config file sets them.
func setDefaults() {
	var d types.Config
	d.Defaults()
	for key, value := range map[string]any{
		"profile":                       d.Profile,
		"secrets_dir":                   d.SecretsDir,
		"server.addr":                   d.Server.Addr,
		"server.download_name":          d.Server.DownloadName,
		"server.max_body_bytes":         d.Server.MaxBodyBytes,
		"template.path":                 d.Template.Path,
		"log.backend":                   string(d.Log.Backend),
		"log.sheets.spreadsheet_id":     "",
		"log.sheets.worksheet":          d.Log.Sheets.Worksheet,
		"log.sheets.credentials_secret": d.Log.Sheets.CredentialsSecret,
		"log.sqlite.path":               d.Log.SQLite.Path,
		"log.remote_allocation":         false,
		"script.timeout":                d.Script.Timeout,
		"script.max_retries":            d.Script.MaxRetries,
		"script.clear_url":              "",
		"script.copy_url":               "",
		"script.allocate_url":           "",
	} {
		viper.SetDefault(key, value)
	}
}

// loadConfig decodes the merged configuration.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Defaults()
	return cfg, nil
}

// newLogger returns a console logger with --debug and a JSON logger
// otherwise.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

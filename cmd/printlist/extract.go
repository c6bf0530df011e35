// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/printlist/internal/extract"
	"github.com/pdiddy/printlist/internal/layout"
	"github.com/pdiddy/printlist/internal/profile"
	"github.com/pdiddy/printlist/internal/workbook"
)

var extractCmd = &cobra.Command{
	Use:   "extract [report]",
	Short: "Extract the fields of a report",
	Long: `Extract reads a report from the file argument (or stdin) and prints the
extracted record as YAML, or JSON with --json. Missing fields are empty.

With --xlsx the record is also written into a copy of the template.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		text, err := readReport(args)
		if err != nil {
			return err
		}
		p, err := profile.Load(cfg.Profile)
		if err != nil {
			return err
		}
		ex, err := extract.New(p.Extraction)
		if err != nil {
			return err
		}
		rec := ex.Extract(text)

		asJSON, _ := cmd.Flags().GetBool("json")
		if err := printValue(os.Stdout, rec.View(), asJSON); err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("xlsx")
		if out == "" {
			return nil
		}
		tmplPath, _ := cmd.Flags().GetString("template")
		if tmplPath == "" {
			tmplPath = cfg.Template.Path
		}
		tmpl, err := workbook.Open(tmplPath, p.FileLayout.Sheet)
		if err != nil {
			return err
		}
		fixed, err := layout.NewFixed(p.FileLayout.Cells)
		if err != nil {
			return err
		}
		resolver, err := tmpl.Resolver(fixed)
		if err != nil {
			return err
		}
		data, err := tmpl.Fill(rec, resolver)
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Fprintln(os.Stderr, "Wrote", out)
		return nil
	},
}

// printValue encodes v as indented JSON or as YAML.
func printValue(w io.Writer, v any, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func init() {
	extractCmd.Flags().Bool("json", false, "output the record as JSON")
	extractCmd.Flags().String("xlsx", "", "also write the filled template to this path")
	extractCmd.Flags().String("template", "", "template workbook (default from config)")

	rootCmd.AddCommand(extractCmd)
}

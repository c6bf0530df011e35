// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/printlist/internal/profile"
	"github.com/pdiddy/printlist/internal/submit"
	"github.com/pdiddy/printlist/internal/workbook"
)

var placeCmd = &cobra.Command{
	Use:   "place [report]",
	Short: "Show where a report's fields would be written",
	Long: `Place extracts a report and prints the resolved writes for both layouts:
the template cells (after merged-cell redirection) and the print-list cells
of a block starting at --origin. Nothing is written.`,
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
		tmplPath, _ := cmd.Flags().GetString("template")
		if tmplPath == "" {
			tmplPath = cfg.Template.Path
		}
		tmpl, err := workbook.Open(tmplPath, p.FileLayout.Sheet)
		if err != nil {
			return err
		}
		svc, err := submit.New(p, tmpl, nil, nil)
		if err != nil {
			return err
		}

		origin, _ := cmd.Flags().GetInt("origin")
		plan, err := svc.Plan(svc.Extract(text), origin)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		return printValue(os.Stdout, plan, asJSON)
	},
}

func init() {
	placeCmd.Flags().Int("origin", 1, "first row of the print-list block")
	placeCmd.Flags().Bool("json", false, "output as JSON")
	placeCmd.Flags().String("template", "", "template workbook (default from config)")

	rootCmd.AddCommand(placeCmd)
}

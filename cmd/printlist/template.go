// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/printlist/internal/layout"
	"github.com/pdiddy/printlist/internal/profile"
	"github.com/pdiddy/printlist/internal/workbook"
	"github.com/pdiddy/printlist/pkg/types"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write a starter single-record template",
	Long: `Template writes a workbook laid out for the profile's file layout: each
field label sits to the left of its value cell. Edit it in a spreadsheet
application and point template.path at it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p, err := profile.Load(cfg.Profile)
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = cfg.Template.Path
		}
		if force, _ := cmd.Flags().GetBool("force"); !force {
			if _, err := os.Stat(out); err == nil {
				return fmt.Errorf("%s exists (use --force to overwrite)", out)
			}
		}

		fixed, err := layout.NewFixed(p.FileLayout.Cells)
		if err != nil {
			return err
		}
		if err := workbook.Scaffold(out, fixed.Cells(), fieldLabels(p)); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Wrote", out)
		return nil
	},
}

// fieldLabels takes each field's first label from the pattern table.
func fieldLabels(p *profile.Profile) map[types.FieldKey]string {
	labels := make(map[types.FieldKey]string)
	for k, fp := range p.Extraction.Fields {
		if len(fp.Labels) > 0 {
			labels[k] = fp.Labels[0]
		}
	}
	if l := p.Extraction.Classification.Pattern.Labels; len(l) > 0 {
		labels[types.FieldPrintData] = l[0]
	}
	return labels
}

func init() {
	templateCmd.Flags().String("out", "", "output path (default template.path)")
	templateCmd.Flags().Bool("force", false, "overwrite an existing file")

	rootCmd.AddCommand(templateCmd)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/printlist/internal/profile"
	"github.com/pdiddy/printlist/internal/sheetlog"
	"github.com/pdiddy/printlist/pkg/types"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the shared print list",
	Long: `Clear asks the print list's script endpoint to remove every block. With
--local the SQLite print list is emptied instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if local, _ := cmd.Flags().GetBool("local"); local {
			store, err := openLocalStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Reset(ctx); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "Cleared", cfg.Log.SQLite.Path)
			return nil
		}

		if err := newScriptClient(cfg).Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Print list cleared.")
		return nil
	},
}

var copyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Append a fresh template block to the shared print list",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := newScriptClient(cfg).CopyTemplate(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Template block copied.")
		return nil
	},
}

var cellsCmd = &cobra.Command{
	Use:   "cells",
	Short: "Print the contents of the local SQLite print list",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openLocalStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		cells, err := store.Cells(cmd.Context())
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		return printValue(os.Stdout, cells, asJSON)
	},
}

func openLocalStore(cfg types.Config) (*sheetlog.Store, error) {
	p, err := profile.Load(cfg.Profile)
	if err != nil {
		return nil, err
	}
	return sheetlog.OpenSQLite(cfg.Log.SQLite, sheetlog.NewGeometry(p.LogLayout))
}

func init() {
	clearCmd.Flags().Bool("local", false, "empty the SQLite print list instead")
	cellsCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(clearCmd, copyCmd, cellsCmd)
}

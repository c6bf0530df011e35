// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/printlist/internal/profile"
	"github.com/pdiddy/printlist/internal/script"
	"github.com/pdiddy/printlist/internal/sheetlog"
	"github.com/pdiddy/printlist/pkg/types"
)

// readReport returns the contents of the single file argument, or stdin.
func readReport(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading report: %w", err)
	}
	return string(data), nil
}

func newScriptClient(cfg types.Config) *script.Client {
	return script.NewClient(cfg.Script, nil)
}

// maintainer runs the script endpoint actions and makes log forget its
// handed-out origins once the print list is cleared.
type maintainer struct {
	*script.Client
	log sheetlog.Log
}

func (m maintainer) Clear(ctx context.Context) error {
	if err := m.Client.Clear(ctx); err != nil {
		return err
	}
	if f, ok := m.log.(sheetlog.Forgetter); ok {
		f.ForgetOrigins()
	}
	return nil
}

// openLog builds the configured print-list backend. The returned close
// function is never nil.
func openLog(ctx context.Context, cfg types.Config, p *profile.Profile) (sheetlog.Log, func() error, error) {
	geom := sheetlog.NewGeometry(p.LogLayout)
	noop := func() error { return nil }

	var (
		log     sheetlog.Log
		closeFn = noop
	)
	switch cfg.Log.Backend {
	case types.LogBackendSQLite:
		store, err := sheetlog.OpenSQLite(cfg.Log.SQLite, geom)
		if err != nil {
			return nil, noop, err
		}
		log, closeFn = store, store.Close
	case types.LogBackendSheets:
		creds, err := loadedSecrets.Require(cfg.Log.Sheets.CredentialsSecret)
		if err != nil {
			return nil, noop, err
		}
		sh, err := sheetlog.NewSheets(ctx, cfg.Log.Sheets, geom, sheetlog.CredentialsOption(creds))
		if err != nil {
			return nil, noop, err
		}
		log = sh
	default:
		return nil, noop, fmt.Errorf("unknown log backend %q", cfg.Log.Backend)
	}

	if cfg.Log.RemoteAllocation {
		log = sheetlog.NewScriptAllocator(log, newScriptClient(cfg), geom)
	}
	return log, closeFn, nil
}

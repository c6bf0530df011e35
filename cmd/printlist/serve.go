// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/printlist/internal/profile"
	"github.com/pdiddy/printlist/internal/server"
	"github.com/pdiddy/printlist/internal/submit"
	"github.com/pdiddy/printlist/internal/workbook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web form",
	Long: `Serve runs the form where a report is pasted. Each submission returns the
filled template as output.xlsx and appends a block to the print list. The
clear and copy buttons call the print list's script endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p, err := profile.Load(cfg.Profile)
		if err != nil {
			return err
		}
		tmpl, err := workbook.Open(cfg.Template.Path, p.FileLayout.Sheet)
		if err != nil {
			return err
		}
		log, closeLog, err := openLog(ctx, cfg, p)
		if err != nil {
			return err
		}
		defer closeLog()

		svc, err := submit.New(p, tmpl, log, logger)
		if err != nil {
			return err
		}
		sessionSecret, _ := loadedSecrets.Get("session-secret")
		maint := maintainer{Client: newScriptClient(cfg), log: log}
		srv, err := server.New(cfg.Server, svc, maint, sessionSecret, logger)
		if err != nil {
			return err
		}

		logger.Info("starting",
			zap.String("version", version),
			zap.String("profile", p.Name),
			zap.String("backend", string(cfg.Log.Backend)),
			zap.Bool("remote_allocation", cfg.Log.RemoteAllocation),
		)
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().String("backend", "", "print-list backend: sheets or sqlite")
	serveCmd.Flags().String("template", "", "single-record template workbook")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("log.backend", serveCmd.Flags().Lookup("backend"))
	viper.BindPFlag("template.path", serveCmd.Flags().Lookup("template"))

	rootCmd.AddCommand(serveCmd)
}

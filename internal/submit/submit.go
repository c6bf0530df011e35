// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package submit turns one pasted report into its two outputs: a filled
// copy of the single-record template, and a block of the shared print list.
package submit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/printlist/internal/extract"
	"github.com/pdiddy/printlist/internal/layout"
	"github.com/pdiddy/printlist/internal/profile"
	"github.com/pdiddy/printlist/internal/sheetlog"
	"github.com/pdiddy/printlist/internal/workbook"
	"github.com/pdiddy/printlist/pkg/types"
)

// ErrEmptyReport is returned when the submitted text is blank.
var ErrEmptyReport = errors.New("report text is empty")

// Result is the outcome of one submission.
type Result struct {
	ID     string
	Record types.Record
	XLSX   []byte
	Origin int
	Writes int
}

// Plan is the set of writes a record produces without touching any
// collaborator.
type Plan struct {
	File []layout.Write `json:"file" yaml:"file"`
	Log  []layout.Write `json:"log" yaml:"log"`
}

// Service wires an extractor with both placements.
type Service struct {
	extractor *extract.Extractor
	template  *workbook.Template
	file      *layout.FileResolver
	block     *layout.Block
	log       sheetlog.Log
	logger    *zap.Logger
}

// New builds a service for profile p. The file layout is bound to tmpl's
// merged regions.
func New(p *profile.Profile, tmpl *workbook.Template, log sheetlog.Log, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ex, err := extract.New(p.Extraction)
	if err != nil {
		return nil, fmt.Errorf("building extractor: %w", err)
	}
	fixed, err := layout.NewFixed(p.FileLayout.Cells)
	if err != nil {
		return nil, fmt.Errorf("file layout: %w", err)
	}
	file, err := tmpl.Resolver(fixed)
	if err != nil {
		return nil, fmt.Errorf("file layout: %w", err)
	}
	block, err := layout.NewBlock(p.LogLayout.Cells, p.LogLayout.BlockRows, p.LogLayout.OriginOffset)
	if err != nil {
		return nil, fmt.Errorf("log layout: %w", err)
	}
	return &Service{
		extractor: ex,
		template:  tmpl,
		file:      file,
		block:     block,
		log:       log,
		logger:    logger,
	}, nil
}

// Extract runs the extractor alone.
func (s *Service) Extract(text string) types.Record {
	return s.extractor.Extract(text)
}

// Plan resolves rec against both layouts, placing the block at origin.
func (s *Service) Plan(rec types.Record, origin int) (Plan, error) {
	logWrites, err := s.block.Resolve(rec, origin)
	if err != nil {
		return Plan{}, err
	}
	return Plan{File: s.file.Resolve(rec), Log: logWrites}, nil
}

// Submit extracts text once and runs the file and log placements
// concurrently. Either failure fails the submission; log writes already
// made are not rolled back.
func (s *Service) Submit(ctx context.Context, text string) (Result, error) {
	res := Result{ID: uuid.NewString()}
	logger := s.logger.With(zap.String("submission_id", res.ID))

	if strings.TrimSpace(text) == "" {
		return res, ErrEmptyReport
	}
	res.Record = s.extractor.Extract(text)
	logger.Debug("extracted",
		zap.String("manufacturing_number", res.Record.Get(types.FieldManufacturingNumber)),
		zap.String("classification", string(res.Record.Classification())),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := s.template.Fill(res.Record, s.file)
		if err != nil {
			return fmt.Errorf("rendering workbook: %w", err)
		}
		res.XLSX = data
		return nil
	})
	g.Go(func() error {
		origin, n, err := s.appendBlock(gctx, res.Record)
		res.Origin, res.Writes = origin, n
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Warn("submission failed", zap.Int("origin", res.Origin), zap.Int("writes", res.Writes), zap.Error(err))
		return res, err
	}

	logger.Info("submitted", zap.Int("origin", res.Origin), zap.Int("writes", res.Writes), zap.Int("xlsx_bytes", len(res.XLSX)))
	return res, nil
}

// appendBlock reserves a block, styles it, and writes rec's cells one at a
// time in row-major order. It reports how many cells were written.
func (s *Service) appendBlock(ctx context.Context, rec types.Record) (int, int, error) {
	origin, err := s.log.NextBlockOrigin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("reserving block: %w", err)
	}
	writes, err := s.block.Resolve(rec, origin)
	if err != nil {
		return origin, 0, err
	}
	if st, ok := s.log.(sheetlog.BlockStyler); ok {
		if err := st.StyleBlock(ctx, origin); err != nil {
			return origin, 0, fmt.Errorf("styling block: %w", err)
		}
	}
	for i, w := range writes {
		if err := s.log.WriteCell(ctx, w.Coord.Row, w.Coord.Col, w.Value); err != nil {
			return origin, i, fmt.Errorf("writing %s: %w", w.Field, err)
		}
	}
	return origin, len(writes), nil
}

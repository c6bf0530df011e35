// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sheetlog appends record blocks to the shared print list. The
// print list is a sheet divided into fixed-height blocks; each submission
// reserves the next block and writes its cells into it one at a time.
//
// Backends: Google Sheets (the deployed list) and a local SQLite file.
package sheetlog

import (
	"context"
	"fmt"

	"github.com/pdiddy/printlist/internal/layout"
	"github.com/pdiddy/printlist/internal/profile"
)

// Log is the shared print list as seen by a submission.
type Log interface {
	// NextBlockOrigin reserves a block and returns the absolute row of its
	// first line (1-based).
	NextBlockOrigin(ctx context.Context) (int, error)

	// WriteCell stores value at the 1-based row and column.
	WriteCell(ctx context.Context, row, col int, value string) error
}

// BlockStyler is implemented by logs that decorate a freshly reserved block.
type BlockStyler interface {
	StyleBlock(ctx context.Context, origin int) error
}

// Validation is a dropdown over a single-column row range.
type Validation struct {
	Column  int      `json:"column"`
	FromRow int      `json:"from_row"`
	ToRow   int      `json:"to_row"`
	Options []string `json:"options"`
}

// Geometry is the block arithmetic of one print list.
type Geometry struct {
	BlockRows  int
	HeaderRows int
	Style      profile.BlockStyle
}

// NewGeometry takes the block dimensions from a profile's log layout.
func NewGeometry(l profile.LogLayout) Geometry {
	return Geometry{BlockRows: l.BlockRows, HeaderRows: l.HeaderRows, Style: l.Style}
}

// OriginForIndex is the first row of the zero-based block idx.
func (g Geometry) OriginForIndex(idx int) int {
	return idx*g.BlockRows + 1
}

// OriginForOccupied derives the next origin from the number of occupied
// rows: index max((occupied-header)/K, 0).
func (g Geometry) OriginForOccupied(occupied int) int {
	idx := 0
	if occupied > g.HeaderRows {
		idx = (occupied - g.HeaderRows) / g.BlockRows
	}
	return g.OriginForIndex(idx)
}

// Validations lists the dropdowns of the block starting at origin. A style
// column left empty gets no dropdown.
func (g Geometry) Validations(origin int) ([]Validation, error) {
	from, to := origin+g.Style.RowsFrom, origin+g.Style.RowsTo
	var out []Validation
	for _, d := range []struct {
		column  string
		options []string
	}{
		{g.Style.StatusColumn, g.Style.StatusOptions},
		{g.Style.AssigneeColumn, g.Style.AssigneeOptions},
	} {
		if d.column == "" || len(d.options) == 0 {
			continue
		}
		col, err := layout.ColumnIndex(d.column)
		if err != nil {
			return nil, fmt.Errorf("style column %q: %w", d.column, err)
		}
		out = append(out, Validation{Column: col, FromRow: from, ToRow: to, Options: d.options})
	}
	return out, nil
}

// Forgetter is implemented by logs that remember handed-out origins and
// must drop them once the print list is cleared.
type Forgetter interface {
	ForgetOrigins()
}

// BlockAllocator hands out zero-based block indices.
type BlockAllocator interface {
	AllocateBlock(ctx context.Context) (int, error)
}

// ScriptAllocator wraps a Log and takes block origins from a remote
// allocator instead of the wrapped log's own accounting.
type ScriptAllocator struct {
	Log
	alloc BlockAllocator
	geom  Geometry
}

// NewScriptAllocator returns log with allocation delegated to alloc.
func NewScriptAllocator(log Log, alloc BlockAllocator, g Geometry) *ScriptAllocator {
	return &ScriptAllocator{Log: log, alloc: alloc, geom: g}
}

// NextBlockOrigin asks the allocator for the next block index.
func (s *ScriptAllocator) NextBlockOrigin(ctx context.Context) (int, error) {
	idx, err := s.alloc.AllocateBlock(ctx)
	if err != nil {
		return 0, fmt.Errorf("allocating block: %w", err)
	}
	return s.geom.OriginForIndex(idx), nil
}

// StyleBlock forwards to the wrapped log when it can style blocks.
func (s *ScriptAllocator) StyleBlock(ctx context.Context, origin int) error {
	if st, ok := s.Log.(BlockStyler); ok {
		return st.StyleBlock(ctx, origin)
	}
	return nil
}

// ForgetOrigins forwards to the wrapped log.
func (s *ScriptAllocator) ForgetOrigins() {
	if f, ok := s.Log.(Forgetter); ok {
		f.ForgetOrigins()
	}
}

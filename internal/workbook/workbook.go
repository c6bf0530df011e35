// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workbook fills the single-record XLSX template handed back to the
// requester. The template is read once and never modified; each render works
// on a fresh copy.
package workbook

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/printlist/internal/layout"
	"github.com/pdiddy/printlist/pkg/types"
)

// ContentType is the MIME type of a rendered workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrSheetNotFound is returned when the configured sheet is not in the template.
var ErrSheetNotFound = errors.New("sheet not found in template")

// Template is a read-only single-record workbook.
type Template struct {
	data   []byte
	sheet  string
	merges *layout.MergeMap
}

// Open reads the template at path. An empty sheet selects the active sheet.
func Open(path, sheet string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", path, err)
	}
	t, err := FromBytes(data, sheet)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", path, err)
	}
	return t, nil
}

// FromBytes parses a template from its XLSX bytes and collects its merged
// regions.
func FromBytes(data []byte, sheet string) (*Template, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	cells, err := f.GetMergeCells(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading merged cells: %w", err)
	}
	regions := make([]layout.Region, 0, len(cells))
	for _, mc := range cells {
		r, err := layout.ParseRegion(mc.GetStartAxis() + ":" + mc.GetEndAxis())
		if err != nil {
			return nil, fmt.Errorf("merged range %s:%s: %w", mc.GetStartAxis(), mc.GetEndAxis(), err)
		}
		regions = append(regions, r)
	}

	return &Template{
		data:   data,
		sheet:  sheet,
		merges: layout.NewMergeMap(regions...),
	}, nil
}

// Sheet returns the sheet that receives the writes.
func (t *Template) Sheet() string { return t.sheet }

// Merges returns the template's merged regions as a lookup.
func (t *Template) Merges() *layout.MergeMap { return t.merges }

// Resolver binds a fixed layout to this template's merged regions.
func (t *Template) Resolver(f *layout.Fixed) (*layout.FileResolver, error) {
	return layout.NewFileResolver(f, t.merges)
}

// Render applies writes to a copy of the template and returns the workbook
// bytes.
func (t *Template) Render(writes []layout.Write) ([]byte, error) {
	f, err := excelize.OpenReader(bytes.NewReader(t.data))
	if err != nil {
		return nil, fmt.Errorf("opening template copy: %w", err)
	}
	defer f.Close()

	for _, w := range writes {
		if err := f.SetCellValue(t.sheet, w.Coord.String(), w.Value); err != nil {
			return nil, fmt.Errorf("writing %s to %s: %w", w.Field, w.Coord, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// Fill resolves rec against r and renders the result.
func (t *Template) Fill(rec types.Record, r *layout.FileResolver) ([]byte, error) {
	return t.Render(r.Resolve(rec))
}

// Scaffold writes a starter template to path: each field's label sits left
// of its value cell and the value cell is merged with its right neighbour
// when that cell is free.
func Scaffold(path string, cells map[types.FieldKey]layout.Coord, labels map[types.FieldKey]string) error {
	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Sheet1"

	used := make(map[layout.Coord]bool, len(cells)*2)
	for _, c := range cells {
		used[c] = true
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating label style: %w", err)
	}

	keys := make([]types.FieldKey, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, k := range keys {
		c := cells[k]
		if label := labels[k]; label != "" && c.Col > 1 {
			lc := layout.Coord{Row: c.Row, Col: c.Col - 1}
			if !used[lc] {
				used[lc] = true
				if err := f.SetCellValue(sheet, lc.String(), label); err != nil {
					return fmt.Errorf("writing label for %s: %w", k, err)
				}
				if err := f.SetCellStyle(sheet, lc.String(), lc.String(), bold); err != nil {
					return fmt.Errorf("styling label for %s: %w", k, err)
				}
			}
		}
	}

	for _, k := range keys {
		c := cells[k]
		right := layout.Coord{Row: c.Row, Col: c.Col + 1}
		if right.InRange() && !used[right] {
			used[right] = true
			if err := f.MergeCell(sheet, c.String(), right.String()); err != nil {
				return fmt.Errorf("merging value cell for %s: %w", k, err)
			}
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 14); err != nil {
		return fmt.Errorf("sizing label column: %w", err)
	}
	if err := f.SetColWidth(sheet, "B", "F", 18); err != nil {
		return fmt.Errorf("sizing value columns: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving template %s: %w", path, err)
	}
	return nil
}

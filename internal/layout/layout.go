// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package layout

import (
	"errors"
	"fmt"
	"sort"

	"github.com/pdiddy/printlist/pkg/types"
)

var (
	// ErrDuplicateCoordinate is returned when two fields of one layout
	// target the same cell.
	ErrDuplicateCoordinate = errors.New("duplicate layout coordinate")

	// ErrOutOfRange is returned when a coordinate falls outside the
	// addressable sheet or outside its block.
	ErrOutOfRange = errors.New("coordinate out of range")
)

// PlacementError reports the field whose placement failed.
type PlacementError struct {
	Field types.FieldKey
	Coord Coord
	Err   error
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("placing %s at %s: %v", e.Field, e.Coord, e.Err)
}

func (e *PlacementError) Unwrap() error {
	return e.Err
}

// Write is one resolved cell assignment.
type Write struct {
	Field types.FieldKey `json:"field" yaml:"field"`
	Coord Coord          `json:"coord" yaml:"coord"`
	Value string         `json:"value" yaml:"value"`
}

// entry is one field → coordinate mapping, sorted row-major.
type entry struct {
	key   types.FieldKey
	coord Coord
}

func buildEntries(cells map[types.FieldKey]string) ([]entry, error) {
	entries := make([]entry, 0, len(cells))
	for k, ref := range cells {
		c, err := ParseCell(ref)
		if err != nil {
			return nil, &PlacementError{Field: k, Err: err}
		}
		entries = append(entries, entry{key: k, coord: c})
	}
	sortEntries(entries)

	seen := make(map[Coord]types.FieldKey, len(entries))
	for _, e := range entries {
		if other, dup := seen[e.coord]; dup {
			return nil, &PlacementError{
				Field: e.key,
				Coord: e.coord,
				Err:   fmt.Errorf("%w: also used by %s", ErrDuplicateCoordinate, other),
			}
		}
		seen[e.coord] = e.key
	}
	return entries, nil
}

func sortEntries(entries []entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.coord.Row != b.coord.Row {
			return a.coord.Row < b.coord.Row
		}
		if a.coord.Col != b.coord.Col {
			return a.coord.Col < b.coord.Col
		}
		return a.key < b.key
	})
}

// Fixed is a single-record layout with absolute coordinates.
type Fixed struct {
	entries []entry
}

// NewFixed builds a fixed layout from A1 references. Duplicate or invalid
// coordinates are rejected.
func NewFixed(cells map[types.FieldKey]string) (*Fixed, error) {
	entries, err := buildEntries(cells)
	if err != nil {
		return nil, err
	}
	return &Fixed{entries: entries}, nil
}

// Cells returns the layout's coordinates keyed by field.
func (f *Fixed) Cells() map[types.FieldKey]Coord {
	out := make(map[types.FieldKey]Coord, len(f.entries))
	for _, e := range f.entries {
		out[e.key] = e.coord
	}
	return out
}

// Resolve emits one write per field that has a value and a coordinate.
// Merged regions are not considered; see FileResolver.
func (f *Fixed) Resolve(rec types.Record) []Write {
	var writes []Write
	for _, e := range f.entries {
		if v := rec.Get(e.key); v != "" {
			writes = append(writes, Write{Field: e.key, Coord: e.coord, Value: v})
		}
	}
	return writes
}

// Block is a layout repeated every Rows rows in a running log. Entry rows are
// relative to the block; the row numbered OriginOffset lands on the block
// origin.
type Block struct {
	entries      []entry
	rows         int
	originOffset int
}

// NewBlock builds a block layout of height rows. Every entry must lie within
// rows originOffset .. originOffset+rows-1 so that blocks never overlap.
func NewBlock(cells map[types.FieldKey]string, rows, originOffset int) (*Block, error) {
	if rows <= 0 {
		return nil, fmt.Errorf("%w: block height %d", ErrOutOfRange, rows)
	}
	if originOffset <= 0 {
		return nil, fmt.Errorf("%w: origin offset %d", ErrOutOfRange, originOffset)
	}
	entries, err := buildEntries(cells)
	if err != nil {
		return nil, err
	}
	last := originOffset + rows - 1
	for _, e := range entries {
		if e.coord.Row < originOffset || e.coord.Row > last {
			return nil, &PlacementError{
				Field: e.key,
				Coord: e.coord,
				Err:   fmt.Errorf("%w: block rows are %d..%d", ErrOutOfRange, originOffset, last),
			}
		}
	}
	return &Block{entries: entries, rows: rows, originOffset: originOffset}, nil
}

// Rows returns the block height.
func (b *Block) Rows() int { return b.rows }

// OriginOffset returns the relative row that maps onto the block origin.
func (b *Block) OriginOffset() int { return b.originOffset }

// AbsoluteRow maps a relative block row onto the log.
func (b *Block) AbsoluteRow(origin, relative int) int {
	return origin + (relative - b.originOffset)
}

// Resolve places rec into the block starting at origin. Origin is owned by
// the log; Resolve never allocates it. If any write would leave the sheet,
// no writes are returned.
func (b *Block) Resolve(rec types.Record, origin int) ([]Write, error) {
	var writes []Write
	for _, e := range b.entries {
		v := rec.Get(e.key)
		if v == "" {
			continue
		}
		abs := Coord{Row: b.AbsoluteRow(origin, e.coord.Row), Col: e.coord.Col}
		if !abs.InRange() {
			return nil, &PlacementError{
				Field: e.key,
				Coord: abs,
				Err:   fmt.Errorf("%w: block origin %d", ErrOutOfRange, origin),
			}
		}
		writes = append(writes, Write{Field: e.key, Coord: abs, Value: v})
	}
	return writes, nil
}

// MergeLookup answers whether a coordinate belongs to a merged region and,
// if so, which cell anchors it.
type MergeLookup interface {
	Anchor(c Coord) (Coord, bool)
}

// MergeMap is a MergeLookup over a fixed list of regions.
type MergeMap struct {
	regions []Region
}

// NewMergeMap builds a lookup from regions.
func NewMergeMap(regions ...Region) *MergeMap {
	m := &MergeMap{regions: make([]Region, len(regions))}
	copy(m.regions, regions)
	return m
}

// Anchor returns the top-left cell of the region containing c.
func (m *MergeMap) Anchor(c Coord) (Coord, bool) {
	if m == nil {
		return Coord{}, false
	}
	for _, r := range m.regions {
		if r.Contains(c) {
			return r.TopLeft, true
		}
	}
	return Coord{}, false
}

// Regions returns the merged regions in the map.
func (m *MergeMap) Regions() []Region {
	if m == nil {
		return nil
	}
	out := make([]Region, len(m.regions))
	copy(out, m.regions)
	return out
}

// FileResolver places records into a fixed layout, redirecting writes that
// land inside merged regions to the region's anchor.
type FileResolver struct {
	entries []entry
}

// NewFileResolver binds layout to the merged regions of a template. Two
// fields that collapse onto the same anchor are rejected.
func NewFileResolver(f *Fixed, merges MergeLookup) (*FileResolver, error) {
	entries := make([]entry, 0, len(f.entries))
	seen := make(map[Coord]types.FieldKey, len(f.entries))
	for _, e := range f.entries {
		target := e.coord
		if merges != nil {
			if anchor, ok := merges.Anchor(target); ok {
				target = anchor
			}
		}
		if other, dup := seen[target]; dup {
			return nil, &PlacementError{
				Field: e.key,
				Coord: target,
				Err:   fmt.Errorf("%w: merged with %s", ErrDuplicateCoordinate, other),
			}
		}
		seen[target] = e.key
		entries = append(entries, entry{key: e.key, coord: target})
	}
	sortEntries(entries)
	return &FileResolver{entries: entries}, nil
}

// Resolve emits writes for every non-empty field, never addressing a
// non-anchor cell of a merged region.
func (r *FileResolver) Resolve(rec types.Record) []Write {
	var writes []Write
	for _, e := range r.entries {
		if v := rec.Get(e.key); v != "" {
			writes = append(writes, Write{Field: e.key, Coord: e.coord, Value: v})
		}
	}
	return writes
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package layout resolves an extracted record into cell writes. It knows two
// coordinate systems: a fixed single-record layout with merged regions, and
// a repeating block layout inside a running log whose block origin is
// supplied by the caller.
package layout

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Addressable sheet bounds shared by both destinations.
const (
	MaxRows    = excelize.TotalRows
	MaxColumns = excelize.MaxColumns
)

// Coord is a 1-based cell position.
type Coord struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// InRange reports whether c addresses a cell of the sheet.
func (c Coord) InRange() bool {
	return c.Row >= 1 && c.Row <= MaxRows && c.Col >= 1 && c.Col <= MaxColumns
}

// String renders c in A1 notation, or "R{row}C{col}" when out of range.
func (c Coord) String() string {
	if !c.InRange() {
		return fmt.Sprintf("R%dC%d", c.Row, c.Col)
	}
	name, err := excelize.CoordinatesToCellName(c.Col, c.Row)
	if err != nil {
		return fmt.Sprintf("R%dC%d", c.Row, c.Col)
	}
	return name
}

// ParseCell converts an A1 reference such as "B3" (absolute markers
// allowed) to a Coord.
func ParseCell(ref string) (Coord, error) {
	ref = strings.ReplaceAll(strings.TrimSpace(ref), "$", "")
	col, row, err := excelize.CellNameToCoordinates(strings.ToUpper(ref))
	if err != nil {
		return Coord{}, fmt.Errorf("%w: cell %q: %v", ErrOutOfRange, ref, err)
	}
	return Coord{Row: row, Col: col}, nil
}

// ColumnIndex converts a column name ("A", "O", "AA") to its 1-based index.
func ColumnIndex(name string) (int, error) {
	col, err := excelize.ColumnNameToNumber(strings.ToUpper(strings.TrimSpace(name)))
	if err != nil {
		return 0, fmt.Errorf("%w: column %q: %v", ErrOutOfRange, name, err)
	}
	return col, nil
}

// ColumnName converts a 1-based column index to its name.
func ColumnName(col int) (string, error) {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return "", fmt.Errorf("%w: column %d: %v", ErrOutOfRange, col, err)
	}
	return name, nil
}

// Region is a rectangular merged range, inclusive on both corners.
type Region struct {
	TopLeft     Coord `json:"top_left" yaml:"top_left"`
	BottomRight Coord `json:"bottom_right" yaml:"bottom_right"`
}

// ParseRegion converts "B2:D2" to a Region. Corners may be given in any order.
func ParseRegion(ref string) (Region, error) {
	parts := strings.Split(ref, ":")
	if len(parts) != 2 {
		return Region{}, fmt.Errorf("%w: range %q", ErrOutOfRange, ref)
	}
	a, err := ParseCell(parts[0])
	if err != nil {
		return Region{}, err
	}
	b, err := ParseCell(parts[1])
	if err != nil {
		return Region{}, err
	}
	return Region{
		TopLeft:     Coord{Row: min(a.Row, b.Row), Col: min(a.Col, b.Col)},
		BottomRight: Coord{Row: max(a.Row, b.Row), Col: max(a.Col, b.Col)},
	}, nil
}

// Contains reports whether c lies inside r.
func (r Region) Contains(c Coord) bool {
	return c.Row >= r.TopLeft.Row && c.Row <= r.BottomRight.Row &&
		c.Col >= r.TopLeft.Col && c.Col <= r.BottomRight.Col
}

func (r Region) String() string {
	return r.TopLeft.String() + ":" + r.BottomRight.String()
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/printlist/pkg/types"
)

func record(values map[types.FieldKey]string) types.Record {
	return types.NewRecord(values, types.ClassificationNew)
}

func TestParseCell(t *testing.T) {
	tests := []struct {
		ref     string
		want    Coord
		wantErr bool
	}{
		{ref: "A1", want: Coord{Row: 1, Col: 1}},
		{ref: "O10", want: Coord{Row: 10, Col: 15}},
		{ref: "z26", want: Coord{Row: 26, Col: 26}},
		{ref: "$B$3", want: Coord{Row: 3, Col: 2}},
		{ref: "AA2", want: Coord{Row: 2, Col: 27}},
		{ref: "", wantErr: true},
		{ref: "A0", wantErr: true},
		{ref: "3B", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := ParseCell(tt.ref)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrOutOfRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, ref string) Coord {
	t.Helper()
	c, err := ParseCell(ref)
	require.NoError(t, err)
	return c
}

func TestColumnIndex(t *testing.T) {
	for name, want := range map[string]int{"A": 1, "G": 7, "L": 12, "O": 15, "Z": 26, "a": 1} {
		got, err := ColumnIndex(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
	_, err := ColumnIndex("")
	assert.ErrorIs(t, err, ErrOutOfRange)

	name, err := ColumnName(15)
	require.NoError(t, err)
	assert.Equal(t, "O", name)
}

func TestNewFixedRejectsDuplicates(t *testing.T) {
	_, err := NewFixed(map[types.FieldKey]string{
		types.FieldCompanyName: "B3",
		types.FieldProductName: "b3",
	})
	require.ErrorIs(t, err, ErrDuplicateCoordinate)

	var pe *PlacementError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, Coord{Row: 3, Col: 2}, pe.Coord)
}

func TestNewFixedRejectsInvalidCells(t *testing.T) {
	_, err := NewFixed(map[types.FieldKey]string{types.FieldCompanyName: "B0"})
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestFixedResolveSkipsEmpty(t *testing.T) {
	f, err := NewFixed(map[types.FieldKey]string{
		types.FieldManufacturingDate:   "B2",
		types.FieldManufacturingNumber: "E1",
		types.FieldCompanyName:         "B3",
	})
	require.NoError(t, err)

	writes := f.Resolve(record(map[types.FieldKey]string{
		types.FieldManufacturingNumber: "M-1",
		types.FieldCompanyName:         "  ",
		types.FieldProductName:         "not in layout",
	}))
	assert.Equal(t, []Write{
		{Field: types.FieldManufacturingNumber, Coord: Coord{Row: 1, Col: 5}, Value: "M-1"},
	}, writes)
}

func TestMergedCellRedirection(t *testing.T) {
	f, err := NewFixed(map[types.FieldKey]string{
		types.FieldCompanyName: "D3",
		types.FieldProductName: "B4",
	})
	require.NoError(t, err)

	region, err := ParseRegion("C3:E3")
	require.NoError(t, err)
	r, err := NewFileResolver(f, NewMergeMap(region))
	require.NoError(t, err)

	writes := r.Resolve(record(map[types.FieldKey]string{
		types.FieldCompanyName: "山田",
		types.FieldProductName: "飴",
	}))
	require.Len(t, writes, 2)
	assert.Equal(t, Coord{Row: 3, Col: 3}, writes[0].Coord, "write lands on anchor C3")
	assert.Equal(t, "山田", writes[0].Value)
	assert.Equal(t, Coord{Row: 4, Col: 2}, writes[1].Coord, "unmerged cell written directly")
	for _, w := range writes {
		assert.NotEqual(t, Coord{Row: 3, Col: 4}, w.Coord, "D3 is never addressed")
	}
}

func TestFileResolverRejectsCollapsedAnchors(t *testing.T) {
	f, err := NewFixed(map[types.FieldKey]string{
		types.FieldCompanyName: "B2",
		types.FieldProductName: "C2",
	})
	require.NoError(t, err)
	region, err := ParseRegion("B2:D2")
	require.NoError(t, err)

	_, err = NewFileResolver(f, NewMergeMap(region))
	assert.ErrorIs(t, err, ErrDuplicateCoordinate)
}

func TestParseRegionNormalisesCorners(t *testing.T) {
	r, err := ParseRegion("D4:B2")
	require.NoError(t, err)
	assert.Equal(t, "B2:D4", r.String())
	assert.True(t, r.Contains(Coord{Row: 3, Col: 3}))
	assert.False(t, r.Contains(Coord{Row: 5, Col: 3}))

	_, err = ParseRegion("B2")
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestBlockOffsetArithmetic(t *testing.T) {
	b, err := NewBlock(map[types.FieldKey]string{types.FieldCompanyName: "E5"}, 8, 3)
	require.NoError(t, err)

	writes, err := b.Resolve(record(map[types.FieldKey]string{types.FieldCompanyName: "山田"}), 21)
	require.NoError(t, err)
	require.Len(t, writes, 1)
	assert.Equal(t, Coord{Row: 23, Col: 5}, writes[0].Coord)
}

func TestBlockResolveStandardLayout(t *testing.T) {
	b, err := NewBlock(map[types.FieldKey]string{
		types.FieldPrintData:           "A3",
		types.FieldManufacturingNumber: "C3",
		types.FieldPrintNumber:         "C7",
		types.FieldSurfacePrinting:     "G9",
	}, 10, 1)
	require.NoError(t, err)

	writes, err := b.Resolve(record(map[types.FieldKey]string{
		types.FieldPrintData:           "新規",
		types.FieldManufacturingNumber: "M-1",
		types.FieldSurfacePrinting:     "4色",
	}), 11)
	require.NoError(t, err)
	want := []Write{
		{Field: types.FieldPrintData, Coord: Coord{Row: 13, Col: 1}, Value: "新規"},
		{Field: types.FieldManufacturingNumber, Coord: Coord{Row: 13, Col: 3}, Value: "M-1"},
		{Field: types.FieldSurfacePrinting, Coord: Coord{Row: 19, Col: 7}, Value: "4色"},
	}
	if diff := cmp.Diff(want, writes); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
}

func TestBlockResolveOutOfRange(t *testing.T) {
	b, err := NewBlock(map[types.FieldKey]string{
		types.FieldCompanyName: "A1",
		types.FieldProductName: "A10",
	}, 10, 1)
	require.NoError(t, err)

	rec := record(map[types.FieldKey]string{
		types.FieldCompanyName: "x",
		types.FieldProductName: "y",
	})

	writes, err := b.Resolve(rec, MaxRows-5)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Nil(t, writes, "no partial writes")

	_, err = b.Resolve(rec, 0)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestNewBlockValidation(t *testing.T) {
	tests := []struct {
		name   string
		cells  map[types.FieldKey]string
		rows   int
		offset int
		err    error
	}{
		{"entry below block", map[types.FieldKey]string{types.FieldMemo: "A11"}, 10, 1, ErrOutOfRange},
		{"entry above origin", map[types.FieldKey]string{types.FieldMemo: "A2"}, 8, 3, ErrOutOfRange},
		{"zero height", map[types.FieldKey]string{types.FieldMemo: "A1"}, 0, 1, ErrOutOfRange},
		{"zero offset", map[types.FieldKey]string{types.FieldMemo: "A1"}, 10, 0, ErrOutOfRange},
		{"duplicate", map[types.FieldKey]string{types.FieldMemo: "A1", types.FieldQuantity: "A1"}, 10, 1, ErrDuplicateCoordinate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBlock(tt.cells, tt.rows, tt.offset)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestBlockResolveSkipsEmpty(t *testing.T) {
	b, err := NewBlock(map[types.FieldKey]string{
		types.FieldCompanyName: "E3",
		types.FieldQuantity:    "L3",
	}, 10, 1)
	require.NoError(t, err)

	writes, err := b.Resolve(record(map[types.FieldKey]string{types.FieldQuantity: "500"}), 1)
	require.NoError(t, err)
	require.Len(t, writes, 1)
	assert.Equal(t, types.FieldQuantity, writes[0].Field)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package submit

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/printlist/internal/layout"
	"github.com/pdiddy/printlist/internal/profile"
	"github.com/pdiddy/printlist/internal/sheetlog"
	"github.com/pdiddy/printlist/internal/workbook"
	"github.com/pdiddy/printlist/pkg/types"
)

const report = `製造番号：M-2024-0815)
印刷番号: P7781
製造日：2024年8月15日
会社名：株式会社サンプル食品
製品名：抹茶ラテ スティック
製品種類：粉末スティック
外装包材：アルミ三方袋
表面印刷：あり
製造個数：12,000個
印刷データ：新しいデータ
<印刷用データ(.FMT)>
ファイル名：matcha_v2.FMT
`

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func template(t *testing.T) *workbook.Template {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "製造日"))
	require.NoError(t, f.MergeCell("Sheet1", "B3", "D3"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tpl, err := workbook.FromBytes(buf.Bytes(), "")
	require.NoError(t, err)
	return tpl
}

func standard(t *testing.T) *profile.Profile {
	t.Helper()
	p, err := profile.Load("standard")
	require.NoError(t, err)
	return p
}

func sqliteLog(t *testing.T, p *profile.Profile) *sheetlog.Store {
	t.Helper()
	s, err := sheetlog.OpenSQLite(types.SQLiteConfig{Path: filepath.Join(t.TempDir(), "printlist.db")}, sheetlog.NewGeometry(p.LogLayout))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSubmitWritesBothOutputs(t *testing.T) {
	p := standard(t)
	store := sqliteLog(t, p)
	core, logs := observer.New(zap.InfoLevel)
	svc, err := New(p, template(t), store, zap.New(core))
	require.NoError(t, err)

	ctx := context.Background()
	res, err := svc.Submit(ctx, report)
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, 1, res.Origin)
	assert.Equal(t, 11, res.Writes)
	assert.Equal(t, types.ClassificationNew, res.Record.Classification())

	f, err := excelize.OpenReader(bytes.NewReader(res.XLSX))
	require.NoError(t, err)
	defer f.Close()
	for cell, want := range map[string]string{
		"E1": "M-2024-0815",
		"E2": "P7781",
		"B2": "2024年8月15日",
		"B3": "株式会社サンプル食品",
		"B4": "抹茶ラテ スティック",
	} {
		got, err := f.GetCellValue("Sheet1", cell)
		require.NoError(t, err)
		assert.Equal(t, want, got, cell)
	}

	cells, err := store.Cells(ctx)
	require.NoError(t, err)
	got := make(map[string]string, len(cells))
	for _, c := range cells {
		got[layout.Coord{Row: c.Row, Col: c.Col}.String()] = c.Value
	}
	assert.Equal(t, map[string]string{
		"A3": "新規",
		"B3": "matcha_v2.FMT",
		"C3": "M-2024-0815",
		"C7": "P7781",
		"D3": "2024年8月15日",
		"E3": "株式会社サンプル食品",
		"E5": "抹茶ラテ スティック",
		"G3": "粉末スティック",
		"G6": "アルミ三方袋",
		"G9": "あり",
		"L3": "12,000個",
	}, got)

	vals, err := store.Validations(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, vals, 2)

	entries := logs.FilterMessage("submitted").All()
	require.Len(t, entries, 1)
	assert.Equal(t, res.ID, entries[0].ContextMap()["submission_id"])
	assert.EqualValues(t, 1, entries[0].ContextMap()["origin"])
}

func TestSubmitSecondBlock(t *testing.T) {
	p := standard(t)
	store := sqliteLog(t, p)
	svc, err := New(p, template(t), store, nil)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = svc.Submit(ctx, report)
	require.NoError(t, err)
	res, err := svc.Submit(ctx, report)
	require.NoError(t, err)
	assert.Equal(t, 11, res.Origin)

	cells, err := store.Cells(ctx)
	require.NoError(t, err)
	assert.Len(t, cells, 22)
	assert.Equal(t, sheetlog.Cell{Row: 13, Col: 1, Value: "新規"}, cells[11])
}

func TestSubmitConcurrentOriginsAreDistinct(t *testing.T) {
	p := standard(t)
	svc, err := New(p, template(t), sqliteLog(t, p), nil)
	require.NoError(t, err)

	const n = 8
	origins := make([]int, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Submit(context.Background(), report)
			assert.NoError(t, err)
			origins[i] = res.Origin
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, []int{1, 11, 21, 31, 41, 51, 61, 71}, origins)
}

func TestSubmitRejectsBlankText(t *testing.T) {
	p := standard(t)
	svc, err := New(p, template(t), &fakeLog{}, nil)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), " \n\t")
	assert.ErrorIs(t, err, ErrEmptyReport)
}

type fakeLog struct {
	mu        sync.Mutex
	origin    int
	originErr error
	failAfter int
	writes    []layout.Write
}

func (f *fakeLog) NextBlockOrigin(context.Context) (int, error) {
	return f.origin, f.originErr
}

func (f *fakeLog) WriteCell(_ context.Context, row, col int, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAfter > 0 && len(f.writes) == f.failAfter {
		return errors.New("quota exceeded")
	}
	f.writes = append(f.writes, layout.Write{Coord: layout.Coord{Row: row, Col: col}, Value: value})
	return nil
}

func TestSubmitLogFailures(t *testing.T) {
	p := standard(t)
	tpl := template(t)
	ctx := context.Background()

	t.Run("allocation", func(t *testing.T) {
		boom := errors.New("sheet locked")
		svc, err := New(p, tpl, &fakeLog{originErr: boom}, nil)
		require.NoError(t, err)
		_, err = svc.Submit(ctx, report)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("partial write", func(t *testing.T) {
		log := &fakeLog{origin: 1, failAfter: 2}
		svc, err := New(p, tpl, log, nil)
		require.NoError(t, err)
		res, err := svc.Submit(ctx, report)
		require.Error(t, err)
		assert.Equal(t, 2, res.Writes)
		assert.Len(t, log.writes, 2)
	})

	t.Run("origin out of range", func(t *testing.T) {
		log := &fakeLog{origin: layout.MaxRows}
		svc, err := New(p, tpl, log, nil)
		require.NoError(t, err)
		_, err = svc.Submit(ctx, report)
		assert.ErrorIs(t, err, layout.ErrOutOfRange)
		assert.Empty(t, log.writes)
	})
}

func TestPlan(t *testing.T) {
	p := standard(t)
	svc, err := New(p, template(t), &fakeLog{}, nil)
	require.NoError(t, err)

	rec := svc.Extract(report)
	plan, err := svc.Plan(rec, 21)
	require.NoError(t, err)

	assert.Len(t, plan.File, 5)
	require.Len(t, plan.Log, 11)
	assert.Equal(t, layout.Write{Field: types.FieldPrintData, Coord: layout.Coord{Row: 23, Col: 1}, Value: "新規"}, plan.Log[0])
	last := plan.Log[len(plan.Log)-1]
	assert.Equal(t, types.FieldSurfacePrinting, last.Field)
	assert.Equal(t, 29, last.Coord.Row)

	_, err = svc.Plan(rec, layout.MaxRows)
	assert.ErrorIs(t, err, layout.ErrOutOfRange)
}

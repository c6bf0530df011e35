// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sheetlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/pdiddy/printlist/internal/layout"
	"github.com/pdiddy/printlist/pkg/types"
)

// ErrWorksheetNotFound is returned when the spreadsheet has no tab with
// the configured name.
var ErrWorksheetNotFound = errors.New("worksheet not found")

// Sheets is the print list kept in a Google Sheets worksheet.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
	worksheet     string
	geom          Geometry

	mu           sync.Mutex
	sheetID      *int64
	lastOrigin   int
	lastOccupied int
}

// CredentialsOption authenticates with service-account JSON.
func CredentialsOption(credentialsJSON string) option.ClientOption {
	return option.WithCredentialsJSON([]byte(credentialsJSON))
}

// NewSheets connects to the worksheet named in cfg. opts carry the
// credentials (see CredentialsOption) or a test endpoint.
func NewSheets(ctx context.Context, cfg types.SheetsConfig, g Geometry, opts ...option.ClientOption) (*Sheets, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("spreadsheet id is required")
	}
	if g.BlockRows <= 0 {
		return nil, fmt.Errorf("block rows must be positive, got %d", g.BlockRows)
	}
	opts = append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}, opts...)
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &Sheets{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		worksheet:     cfg.Worksheet,
		geom:          g,
	}, nil
}

// a1 quotes the worksheet name for an A1 range.
func (s *Sheets) a1(ref string) string {
	return "'" + strings.ReplaceAll(s.worksheet, "'", "''") + "'!" + ref
}

// NextBlockOrigin counts the occupied rows of the worksheet and derives the
// next block from them. Origins handed out by this process are not reused,
// even when the rows of an earlier block are still being written, until the
// sheet is seen emptied back to its header rows.
func (s *Sheets) NextBlockOrigin(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vr, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.a1("A:Z")).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", s.worksheet, err)
	}
	occupied := len(vr.Values)
	if occupied <= s.geom.HeaderRows && occupied < s.lastOccupied {
		s.lastOrigin = 0
	}
	s.lastOccupied = occupied

	origin := s.geom.OriginForOccupied(occupied)
	if s.lastOrigin > 0 && origin <= s.lastOrigin {
		origin = s.lastOrigin + s.geom.BlockRows
	}
	s.lastOrigin = origin
	return origin, nil
}

// ForgetOrigins drops the remembered origins after the sheet was cleared.
func (s *Sheets) ForgetOrigins() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOrigin = 0
	s.lastOccupied = 0
}

// WriteCell updates one cell with the raw value.
func (s *Sheets) WriteCell(ctx context.Context, row, col int, value string) error {
	ref := layout.Coord{Row: row, Col: col}.String()
	vr := &sheets.ValueRange{Values: [][]any{{value}}}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, s.a1(ref), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing %s: %w", ref, err)
	}
	return nil
}

// StyleBlock sets the status and assignee dropdowns of the block at origin.
func (s *Sheets) StyleBlock(ctx context.Context, origin int) error {
	vals, err := s.geom.Validations(origin)
	if err != nil {
		return err
	}
	if len(vals) == 0 {
		return nil
	}
	id, err := s.worksheetID(ctx)
	if err != nil {
		return err
	}

	reqs := make([]*sheets.Request, 0, len(vals))
	for _, v := range vals {
		reqs = append(reqs, validationRequest(id, v))
	}
	_, err = s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: reqs,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("styling block at row %d: %w", origin, err)
	}
	return nil
}

func validationRequest(sheetID int64, v Validation) *sheets.Request {
	values := make([]*sheets.ConditionValue, 0, len(v.Options))
	for _, o := range v.Options {
		// The blank option must be sent explicitly.
		values = append(values, &sheets.ConditionValue{
			UserEnteredValue: o,
			ForceSendFields:  []string{"UserEnteredValue"},
		})
	}
	return &sheets.Request{
		SetDataValidation: &sheets.SetDataValidationRequest{
			// GridRange is zero-based and half-open.
			Range: &sheets.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    int64(v.FromRow - 1),
				EndRowIndex:      int64(v.ToRow),
				StartColumnIndex: int64(v.Column - 1),
				EndColumnIndex:   int64(v.Column),
				ForceSendFields:  []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
			},
			Rule: &sheets.DataValidationRule{
				Condition: &sheets.BooleanCondition{
					Type:   "ONE_OF_LIST",
					Values: values,
				},
				ShowCustomUi: true,
			},
		},
	}
}

func (s *Sheets) worksheetID(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sheetID != nil {
		return *s.sheetID, nil
	}

	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("reading spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.worksheet {
			id := sh.Properties.SheetId
			s.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrWorksheetNotFound, s.worksheet)
}

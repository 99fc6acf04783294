package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/ndemidenko/habitbot/internal/observability"
)

// Store implements the tabular store against the Google Sheets API.
// Each user's sheet id is a spreadsheet id; worksheets map to sheet
// tabs.
type Store struct {
	svc *sheetsapi.Service
}

func NewStore(ctx context.Context, credentialsFile string) (*Store, error) {
	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Store{svc: svc}, nil
}

func (s *Store) EnsureWorksheet(ctx context.Context, sheetID, worksheet string, header []string) error {
	spreadsheet, err := s.svc.Spreadsheets.Get(sheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet %s: %w", sheetID, err)
	}
	for _, tab := range spreadsheet.Sheets {
		if tab.Properties.Title == worksheet {
			return nil
		}
	}

	_, err = s.svc.Spreadsheets.BatchUpdate(sheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{Title: worksheet},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add worksheet %q: %w", worksheet, err)
	}

	observability.LoggerFromContext(ctx).Info("worksheet created",
		"sheet_id", sheetID, "worksheet", worksheet)

	if len(header) == 0 {
		return nil
	}
	return s.WriteHeader(ctx, sheetID, worksheet, header)
}

func (s *Store) ReadHeader(ctx context.Context, sheetID, worksheet string) ([]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(sheetID, rangeOf(worksheet, "1:1")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read header of %q: %w", worksheet, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	return toStrings(resp.Values[0]), nil
}

func (s *Store) WriteHeader(ctx context.Context, sheetID, worksheet string, header []string) error {
	vr := &sheetsapi.ValueRange{Values: [][]any{toAnys(header)}}
	_, err := s.svc.Spreadsheets.Values.Update(sheetID, rangeOf(worksheet, "1:1"), vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header of %q: %w", worksheet, err)
	}
	return nil
}

func (s *Store) AppendRow(ctx context.Context, sheetID, worksheet string, row []string) error {
	vr := &sheetsapi.ValueRange{Values: [][]any{toAnys(row)}}
	_, err := s.svc.Spreadsheets.Values.Append(sheetID, rangeOf(worksheet, "A1"), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row to %q: %w", worksheet, err)
	}
	return nil
}

func (s *Store) ReadAllRows(ctx context.Context, sheetID, worksheet string) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(sheetID, quote(worksheet)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read rows of %q: %w", worksheet, err)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		rows = append(rows, toStrings(row))
	}
	return rows, nil
}

func (s *Store) ReplaceAllRows(ctx context.Context, sheetID, worksheet string, rows [][]string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(sheetID, quote(worksheet), &sheetsapi.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %q: %w", worksheet, err)
	}

	values := make([][]any, 0, len(rows))
	for _, row := range rows {
		values = append(values, toAnys(row))
	}
	vr := &sheetsapi.ValueRange{Values: values}
	_, err = s.svc.Spreadsheets.Values.Update(sheetID, rangeOf(worksheet, "A1"), vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("rewrite %q: %w", worksheet, err)
	}
	return nil
}

func quote(worksheet string) string {
	return fmt.Sprintf("'%s'", worksheet)
}

func rangeOf(worksheet, cells string) string {
	return fmt.Sprintf("'%s'!%s", worksheet, cells)
}

func toAnys(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

func toStrings(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = fmt.Sprint(v)
	}
	return out
}

// Package sheets implements the tabular store on top of a Google Sheets
// spreadsheet, one worksheet per table, first row as header.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"stockservice/internal/store"
)

const (
	valueRenderUnformatted = "UNFORMATTED_VALUE"
	valueInputUserEntered  = "USER_ENTERED"
	insertRows             = "INSERT_ROWS"
)

// Store reads and writes worksheets of a single spreadsheet.
type Store struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
}

// New connects to the Sheets API with a service account key.
func New(ctx context.Context, spreadsheetID string, credentialsJSON []byte) (*Store, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("%w: spreadsheet id is empty", store.ErrUnavailable)
	}
	if len(credentialsJSON) == 0 {
		return nil, fmt.Errorf("%w: service account credentials are empty", store.ErrUnavailable)
	}

	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot create sheets client: %v", store.ErrUnavailable, err)
	}

	return &Store{values: svc.Spreadsheets.Values, spreadsheetID: spreadsheetID}, nil
}

func (s *Store) LoadTable(ctx context.Context, table string) ([]store.Record, error) {
	grid, err := s.read(ctx, table)
	if err != nil {
		return nil, err
	}
	return toRecords(grid), nil
}

func (s *Store) FindAndUpdate(ctx context.Context, table, keyColumn, keyValue, targetColumn, newValue string) error {
	grid, err := s.read(ctx, table)
	if err != nil {
		return err
	}
	if len(grid) == 0 {
		return fmt.Errorf("%w: %s has no header", store.ErrColumnNotFound, table)
	}

	header := grid[0]
	keyIdx := indexOf(header, keyColumn)
	if keyIdx < 0 {
		return fmt.Errorf("%w: %s.%s", store.ErrColumnNotFound, table, keyColumn)
	}
	targetIdx := indexOf(header, targetColumn)
	if targetIdx < 0 {
		return fmt.Errorf("%w: %s.%s", store.ErrColumnNotFound, table, targetColumn)
	}

	for i, row := range grid[1:] {
		if keyIdx < len(row) && row[keyIdx] == keyValue {
			// +2: one for the header row, one because A1 rows start at 1.
			cell := cellRange(table, targetIdx, i+2)
			_, err := s.values.Update(s.spreadsheetID, cell, &sheets.ValueRange{
				Values: [][]interface{}{{newValue}},
			}).ValueInputOption(valueInputUserEntered).Context(ctx).Do()
			if err != nil {
				return classify(table, err)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s=%q in %s", store.ErrRowNotFound, keyColumn, keyValue, table)
}

func (s *Store) AppendRow(ctx context.Context, table string, values []string) error {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}

	_, err := s.values.Append(s.spreadsheetID, quoteSheet(table), &sheets.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption(valueInputUserEntered).InsertDataOption(insertRows).Context(ctx).Do()
	if err != nil {
		return classify(table, err)
	}
	return nil
}

func (s *Store) read(ctx context.Context, table string) ([][]string, error) {
	resp, err := s.values.Get(s.spreadsheetID, quoteSheet(table)).
		ValueRenderOption(valueRenderUnformatted).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify(table, err)
	}

	grid := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellString(v)
		}
		grid[i] = cells
	}
	return grid, nil
}

// toRecords mirrors gspread's get_all_records: the first row names the
// columns, empty trailing cells read as "".
func toRecords(grid [][]string) []store.Record {
	if len(grid) == 0 {
		return nil
	}
	header := grid[0]
	records := make([]store.Record, 0, len(grid)-1)
	for _, row := range grid[1:] {
		rec := make(store.Record, len(header))
		for i, col := range header {
			if col == "" {
				continue
			}
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		records = append(records, rec)
	}
	return records
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// columnLetter converts a zero-based column index to A1 letters.
func columnLetter(idx int) string {
	var b []byte
	for n := idx + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func cellRange(table string, col, row int) string {
	return fmt.Sprintf("%s!%s%d", quoteSheet(table), columnLetter(col), row)
}

func classify(table string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s: %v", store.ErrTableNotFound, table, err)
		case http.StatusBadRequest:
			// Unknown worksheet names come back as "Unable to parse range".
			if strings.Contains(apiErr.Message, "Unable to parse range") {
				return fmt.Errorf("%w: %s: %v", store.ErrTableNotFound, table, err)
			}
		case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusBadGateway:
			return fmt.Errorf("%w: %s: %v", store.ErrUnavailable, table, err)
		}
		return fmt.Errorf("sheets: %s: %w", table, err)
	}
	return fmt.Errorf("%w: %s: %v", store.ErrUnavailable, table, err)
}

func indexOf(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}

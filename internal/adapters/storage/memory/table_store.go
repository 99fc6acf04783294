package memory

import (
	"context"
	"fmt"
	"sync"
)

// TableStore is an in-memory domain.TableStore: one grid of cells per
// (sheet, worksheet), row 0 being the header. Used in local mode and
// as the test double for the sync engine.
type TableStore struct {
	mu     sync.RWMutex
	sheets map[string]map[string][][]string
}

func NewTableStore() *TableStore {
	return &TableStore{
		sheets: make(map[string]map[string][][]string),
	}
}

func (s *TableStore) worksheet(sheetID, name string) ([][]string, error) {
	ws, ok := s.sheets[sheetID]
	if !ok {
		return nil, fmt.Errorf("sheet %q not found", sheetID)
	}
	grid, ok := ws[name]
	if !ok {
		return nil, fmt.Errorf("worksheet %q not found in sheet %q", name, sheetID)
	}
	return grid, nil
}

func (s *TableStore) EnsureWorksheet(ctx context.Context, sheetID, worksheet string, header []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.sheets[sheetID]
	if !ok {
		ws = make(map[string][][]string)
		s.sheets[sheetID] = ws
	}
	if _, ok := ws[worksheet]; !ok {
		ws[worksheet] = [][]string{cloneRow(header)}
	}
	return nil
}

func (s *TableStore) ReadHeader(ctx context.Context, sheetID, worksheet string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grid, err := s.worksheet(sheetID, worksheet)
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, nil
	}
	return cloneRow(grid[0]), nil
}

func (s *TableStore) WriteHeader(ctx context.Context, sheetID, worksheet string, header []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	grid, err := s.worksheet(sheetID, worksheet)
	if err != nil {
		return err
	}
	if len(grid) == 0 {
		grid = [][]string{cloneRow(header)}
	} else {
		grid[0] = cloneRow(header)
	}
	s.sheets[sheetID][worksheet] = grid
	return nil
}

func (s *TableStore) AppendRow(ctx context.Context, sheetID, worksheet string, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	grid, err := s.worksheet(sheetID, worksheet)
	if err != nil {
		return err
	}
	s.sheets[sheetID][worksheet] = append(grid, cloneRow(row))
	return nil
}

func (s *TableStore) ReadAllRows(ctx context.Context, sheetID, worksheet string) ([][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grid, err := s.worksheet(sheetID, worksheet)
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(grid))
	for i, row := range grid {
		out[i] = cloneRow(row)
	}
	return out, nil
}

func (s *TableStore) ReplaceAllRows(ctx context.Context, sheetID, worksheet string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.worksheet(sheetID, worksheet); err != nil {
		return err
	}
	grid := make([][]string, len(rows))
	for i, row := range rows {
		grid[i] = cloneRow(row)
	}
	s.sheets[sheetID][worksheet] = grid
	return nil
}

func cloneRow(row []string) []string {
	return append([]string(nil), row...)
}

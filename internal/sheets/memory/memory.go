package memory

import (
	"context"
	"fmt"
	"sync"

	ports "spendlog/internal/sheets"
)

var _ ports.Exporter = (*Store)(nil)

// Store keeps the last exported table in memory. It backs local runs
// without Google credentials.
type Store struct {
	mu     sync.Mutex
	header []string
	rows   [][]string
	writes int
}

func New() *Store {
	return &Store{}
}

func (s *Store) Export(_ context.Context, header []string, rows [][]string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.header = append([]string(nil), header...)
	s.rows = make([][]string, len(rows))
	for i, r := range rows {
		s.rows[i] = append([]string(nil), r...)
	}
	s.writes++
	return fmt.Sprintf("mem:%d:%d", s.writes, len(rows)+1), nil
}

// Table returns a copy of the last exported header and rows.
func (s *Store) Table() ([]string, [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([][]string, len(s.rows))
	for i, r := range s.rows {
		rows[i] = append([]string(nil), r...)
	}
	return append([]string(nil), s.header...), rows
}

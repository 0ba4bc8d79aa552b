package store

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ExportCSV dumps all three tables into CSV files under a timestamped
// directory below dir, returning the directory created.
func (s *Store) ExportCSV(ctx context.Context, dir string) (string, error) {
	exportDir := filepath.Join(dir, fmt.Sprintf("export_%s", time.Now().Format("20060102_150405")))
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	for _, table := range []string{"matches", "processed_events", "scraping_logs"} {
		path := filepath.Join(exportDir, table+".csv")
		if err := s.exportTable(ctx, table, path); err != nil {
			return "", fmt.Errorf("exporting %s: %w", table, err)
		}
	}
	return exportDir, nil
}

func (s *Store) exportTable(ctx context.Context, table, path string) error {
	rows, err := s.db.QueryContext(ctx, `SELECT * FROM `+table)
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(cols); err != nil {
		return err
	}

	values := make([]sql.NullString, len(cols))
	scanArgs := make([]interface{}, len(cols))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	record := make([]string, len(cols))
	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return err
		}
		for i, v := range values {
			record[i] = v.String
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Sync()
}

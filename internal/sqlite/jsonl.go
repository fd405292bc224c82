// This file provides JSONL read/write helpers for tasks.jsonl.
package sqlite

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/mesh-intelligence/taskboard/internal/fsutil"
)

// readJSONL reads a JSONL file and returns each non-empty, parseable line as
// a json.RawMessage. Malformed lines are skipped with a warning; the next
// persist drops them from the file.
func readJSONL(path string, log *slog.Logger) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			log.Warn("skipping malformed JSONL line", "file", path, "line", lineNo)
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL atomically replaces path with one record per line.
func writeJSONL(path string, records []json.RawMessage) error {
	var buf bytes.Buffer
	for _, rec := range records {
		buf.Write(rec)
		buf.WriteByte('\n')
	}
	return fsutil.WriteFileAtomic(path, buf.Bytes(), 0o644)
}

// ensureJSONL creates an empty file at path if none exists.
func ensureJSONL(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// persistTasksJSONL dumps every row of the tasks table visible to q to path,
// newest first.
func persistTasksJSONL(ctx context.Context, q querier, path string) error {
	rows, err := q.QueryContext(ctx, "SELECT "+taskColumns+" FROM tasks ORDER BY created_at DESC, id")
	if err != nil {
		return fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return fmt.Errorf("scanning task: %w", err)
		}
		rec, err := row.record()
		if err != nil {
			return err
		}
		b, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding task %s: %w", rec.ID, err)
		}
		records = append(records, b)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating tasks: %w", err)
	}
	return writeJSONL(path, records)
}

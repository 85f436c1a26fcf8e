package auditlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ReadJSONL reads audit cost records from r, one JSON object per line.
// Blank lines are skipped; lines that fail to decode are logged as warnings
// and skipped. This is deliberately the one tolerant surface of the kernel:
// a corrupt log line must not invalidate the measurements around it.
func ReadJSONL(r io.Reader, logger *slog.Logger) ([]*CostRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var records []*CostRecord
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var record CostRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			logger.Warn("skipping invalid JSONL line", "line", lineNum, "error", err)
			continue
		}
		records = append(records, &record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read JSONL: %w", err)
	}
	return records, nil
}

// ReadJSONLFile reads audit cost records from the JSONL file at path.
func ReadJSONLFile(path string, logger *slog.Logger) ([]*CostRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSONL(f, logger)
}

// AppendJSONL appends a record to the JSONL file at path, creating the file
// and its directory as needed.
func AppendJSONL(path string, record *CostRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create audit log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

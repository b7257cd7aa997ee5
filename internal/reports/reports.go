// Package reports writes timestamped JSON run reports.
//
// The run command uses this package when --json is set. Reports land in
// "reports/" under the working directory unless another directory is given.
package reports

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultDir is used when WriteJSON is given an empty directory.
const DefaultDir = "reports"

// WriteJSON pretty-prints data into dir/{prefix}-{YYYYMMDD-HHMMSS}.json and
// returns the path written.
func WriteJSON(dir, prefix string, data any) (string, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if prefix == "" {
		prefix = "report"
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}

	ts := time.Now().UTC().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.json", prefix, ts))

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal JSON: %w", err)
	}

	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	return path, nil
}

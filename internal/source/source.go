// Package source reads the line-oriented text files the bot is driven by:
// wallet keys, proxies, and the single-key fallback file.
//
// File format:
//   - One entry per line
//   - Surrounding whitespace is trimmed
//   - Empty lines are ignored
//   - Lines starting with # are treated as comments
package source

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
)

// ReadLines returns the usable entries of the file at path.
//
// A missing file is reported as an error wrapping fs.ErrNotExist so callers
// can tell an absent optional source apart from an unreadable one.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseLines(data), nil
}

// ParseLines applies the line rules to an in-memory buffer.
func ParseLines(data []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// SplitAddresses splits a comma-separated address list, dropping blanks.
func SplitAddresses(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

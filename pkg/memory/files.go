package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// LongTermFile is the single cumulative memory document
	LongTermFile = "MEMORY.md"
	// LongTermSource is the index source identity for the long-term document
	LongTermSource = "MEMORY"

	dateFormat = "2006-01-02"
)

// EnsureMemoryDir creates the memory directory under the workspace if it
// doesn't exist
func EnsureMemoryDir(workspacePath string) (string, error) {
	memoryPath := filepath.Join(workspacePath, "memory")

	info, err := os.Stat(memoryPath)
	if err == nil {
		if !info.IsDir() {
			return "", fmt.Errorf("memory path exists but is not a directory: %s", memoryPath)
		}
		return memoryPath, nil
	}

	if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to stat memory directory: %w", err)
	}

	if err := os.MkdirAll(memoryPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create memory directory: %w", err)
	}

	return memoryPath, nil
}

// IsDailyFile reports whether name is a daily note file (YYYY-MM-DD.md)
func IsDailyFile(name string) bool {
	stem, ok := strings.CutSuffix(name, ".md")
	if !ok {
		return false
	}
	_, err := time.Parse(dateFormat, stem)
	return err == nil
}

// SourceForFile maps a memory file name to its index source identity:
// the date stem for daily files, LongTermSource for MEMORY.md, empty
// for anything else.
func SourceForFile(name string) string {
	if name == LongTermFile {
		return LongTermSource
	}
	if IsDailyFile(name) {
		return strings.TrimSuffix(name, ".md")
	}
	return ""
}

// readFileOrEmpty reads a file, treating absence as empty content.
// Any other failure propagates.
func readFileOrEmpty(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

package memory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureMemoryDir(t *testing.T) {
	workspace := t.TempDir()

	dir, err := EnsureMemoryDir(workspace)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workspace, "memory"), dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Idempotent
	again, err := EnsureMemoryDir(workspace)
	require.NoError(t, err)
	assert.Equal(t, dir, again)
}

func TestEnsureMemoryDirRejectsFile(t *testing.T) {
	workspace := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(workspace, "memory"), []byte("not a dir"), 0644))

	_, err := EnsureMemoryDir(workspace)
	assert.Error(t, err)
}

func TestIsDailyFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"2025-03-14.md", true},
		{"1999-12-31.md", true},
		{"MEMORY.md", false},
		{"2025-03-14.txt", false},
		{"2025-3-14.md", false},
		{"2025-13-01.md", false},
		{"notes.md", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDailyFile(tt.name))
		})
	}
}

func TestSourceForFile(t *testing.T) {
	assert.Equal(t, "2025-03-14", SourceForFile("2025-03-14.md"))
	assert.Equal(t, LongTermSource, SourceForFile(LongTermFile))
	assert.Empty(t, SourceForFile("notes.md"))
}

func TestReadFileOrEmpty(t *testing.T) {
	dir := t.TempDir()

	content, err := readFileOrEmpty(filepath.Join(dir, "missing.md"))
	require.NoError(t, err)
	assert.Empty(t, content)

	path := filepath.Join(dir, "present.md")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	content, err = readFileOrEmpty(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", content)
}

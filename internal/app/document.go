package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// languageByExt maps file extensions to language identifiers used for
// scoped configuration lookups.
var languageByExt = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".rs":   "rust",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".hpp":  "cpp",
	".java": "java",
	".rb":   "ruby",
	".sh":   "shell",
	".bash": "shell",
	".md":   "markdown",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".toml": "toml",
	".html": "html",
	".css":  "css",
	".sql":  "sql",
	".lua":  "lua",
	".zig":  "zig",
	".txt":  "plaintext",
}

// DetectLanguage maps a file path to a language identifier, falling
// back to "plaintext" for unknown extensions.
func DetectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := languageByExt[ext]; ok {
		return lang
	}
	return "plaintext"
}

// FileDocument is a read-only document backed by a file on disk.
// Reload picks up external edits, which is how the demo simulates
// typing: edit the file in another terminal and watch the tints move.
type FileDocument struct {
	mu       sync.RWMutex
	path     string
	language string
	lines    []string
}

// OpenDocument reads path into memory.
func OpenDocument(path string) (*FileDocument, error) {
	d := &FileDocument{
		path:     path,
		language: DetectLanguage(path),
	}
	if err := d.Reload(); err != nil {
		return nil, err
	}
	return d, nil
}

// Path returns the document's file path.
func (d *FileDocument) Path() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.path
}

// Language returns the detected language identifier.
func (d *FileDocument) Language() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.language
}

// LineCount returns the number of lines.
func (d *FileDocument) LineCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.lines)
}

// Line returns line n (1-based) without its trailing newline.
func (d *FileDocument) Line(n int) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if n < 1 || n > len(d.lines) {
		return "", false
	}
	return d.lines[n-1], true
}

// Reload re-reads the file from disk.
func (d *FileDocument) Reload() error {
	d.mu.RLock()
	path := d.path
	d.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("app: reloading %s: %w", path, err)
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	// A trailing newline is a line terminator, not an extra empty line.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	d.mu.Lock()
	d.lines = lines
	d.mu.Unlock()
	return nil
}

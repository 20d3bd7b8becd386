// Package envfile reads and edits dotenv files in place, preserving comments,
// blank lines, and entry order. It replaces ad-hoc sed/grep edits during
// provisioning.
package envfile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// line is one physical line of the file. Entries keep their parsed key so
// lookups and in-place updates stay cheap.
type line struct {
	raw     string
	key     string
	isEntry bool
}

// File is a parsed dotenv file
type File struct {
	path  string
	lines []line
	// noTrailingNewline records that the source file did not end with a
	// newline, so round-tripping stays byte-identical.
	noTrailingNewline bool
}

// Load parses the dotenv file at path. A missing file yields an empty File
// that Save will create.
func Load(path string) (*File, error) {
	f := &File{path: path}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, errors.Wrapf(err, "failed to read env file '%s'", path)
	}

	if len(content) == 0 {
		return f, nil
	}
	f.noTrailingNewline = !strings.HasSuffix(string(content), "\n")

	text := strings.TrimSuffix(string(content), "\n")

	for _, raw := range strings.Split(text, "\n") {
		f.lines = append(f.lines, parseLine(raw))
	}

	return f, nil
}

func parseLine(raw string) line {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return line{raw: raw}
	}

	eq := strings.Index(trimmed, "=")
	if eq <= 0 {
		return line{raw: raw}
	}

	key := strings.TrimSpace(strings.TrimPrefix(trimmed[:eq], "export "))
	if key == "" {
		return line{raw: raw}
	}

	return line{raw: raw, key: key, isEntry: true}
}

// Path returns the file path this File was loaded from
func (f *File) Path() string {
	return f.path
}

// Get returns the value for key and whether it is present. Values are
// unquoted on read.
func (f *File) Get(key string) (string, bool) {
	for i := len(f.lines) - 1; i >= 0; i-- {
		if f.lines[i].isEntry && f.lines[i].key == key {
			return f.lines[i].value(), true
		}
	}
	return "", false
}

func (l line) value() string {
	trimmed := strings.TrimSpace(l.raw)
	trimmed = strings.TrimPrefix(trimmed, "export ")
	eq := strings.Index(trimmed, "=")
	raw := strings.TrimSpace(trimmed[eq+1:])

	if len(raw) >= 2 {
		if (raw[0] == '"' && raw[len(raw)-1] == '"') || (raw[0] == '\'' && raw[len(raw)-1] == '\'') {
			return raw[1 : len(raw)-1]
		}
	}
	return raw
}

// Set updates the value for key in place, or appends a new entry when the key
// is absent. Values containing whitespace or '#' are quoted.
func (f *File) Set(key, value string) error {
	if key == "" || strings.ContainsAny(key, "= \t") {
		return errors.Errorf("invalid env key '%s'", key)
	}

	entry := key + "=" + quoteIfNeeded(value)

	for i := range f.lines {
		if f.lines[i].isEntry && f.lines[i].key == key {
			f.lines[i] = line{raw: entry, key: key, isEntry: true}
			return nil
		}
	}

	f.lines = append(f.lines, line{raw: entry, key: key, isEntry: true})
	return nil
}

func quoteIfNeeded(value string) string {
	if value == "" || strings.ContainsAny(value, " \t#\"'") {
		return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
	}
	return value
}

// Unset removes every entry for key. It reports whether anything was removed.
func (f *File) Unset(key string) bool {
	removed := false
	kept := f.lines[:0]
	for _, l := range f.lines {
		if l.isEntry && l.key == key {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	f.lines = kept
	return removed
}

// Keys returns the keys of all entries in file order
func (f *File) Keys() []string {
	var keys []string
	seen := make(map[string]bool)
	for _, l := range f.lines {
		if l.isEntry && !seen[l.key] {
			keys = append(keys, l.key)
			seen[l.key] = true
		}
	}
	return keys
}

// String renders the file content
func (f *File) String() string {
	if len(f.lines) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, l := range f.lines {
		sb.WriteString(l.raw)
		if i < len(f.lines)-1 || !f.noTrailingNewline {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Save writes the file atomically (temp file in the same directory, then
// rename) with 0600 permissions.
func (f *File) Save() error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create env file directory")
	}

	tmp, err := os.CreateTemp(dir, ".env-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(f.String()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "failed to write env file")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "failed to set env file permissions")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "failed to close temp file")
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "failed to replace env file")
	}

	return nil
}

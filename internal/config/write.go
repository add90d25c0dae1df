package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SetKeyInFile updates or adds an option in the config file, preserving
// comments and formatting. section is "" for a global option.
//
// An existing line for key within the section is replaced in place. A new
// global key is inserted before the first section header; a new section key
// is appended to the end of its section, creating the section at the end of
// the file if needed.
func SetKeyInFile(path, section, key, value string) error {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config file: %w", err)
	}

	var lines []string
	if len(data) > 0 {
		lines = strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	}

	newLine := key
	if value != "" {
		newLine = key + " " + value
	}

	var (
		inTarget     = section == ""
		sectionSeen  = section == ""
		insertIndex  = -1
		lastInTarget = -1
	)
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			if inTarget && insertIndex < 0 {
				insertIndex = i
			}
			inTarget = strings.TrimSpace(strings.Trim(trimmed, "[]")) == section
			if inTarget {
				sectionSeen = true
				lastInTarget = i
			}
			continue
		}

		if !inTarget {
			continue
		}
		if trimmed != "" {
			lastInTarget = i
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if name, _, _ := strings.Cut(trimmed, " "); name == key {
			lines[i] = newLine
			return writeLines(path, lines)
		}
	}

	switch {
	case section == "":
		if insertIndex < 0 {
			lines = append(lines, newLine)
		} else {
			lines = insertLine(lines, insertIndex, newLine)
		}
	case !sectionSeen:
		lines = append(lines, "["+section+"]", newLine)
	default:
		lines = insertLine(lines, lastInTarget+1, newLine)
	}

	return writeLines(path, lines)
}

func insertLine(lines []string, index int, line string) []string {
	lines = append(lines, "")
	copy(lines[index+1:], lines[index:])
	lines[index] = line
	return lines
}

// writeLines replaces the file atomically, via a temporary file in the same
// directory.
func writeLines(path string, lines []string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing config file: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

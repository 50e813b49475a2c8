package completion

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	directoryPermissions = 0o755
	filePermissions      = 0o644
	markerLinePrefix     = "// File: "
)

// ErrUnsafePath indicates a file path that is absolute or escapes the output directory.
var ErrUnsafePath = errors.New("unsafe file path")

// WriteFiles writes every file below directory, creating parent directories as needed.
// All paths are validated before anything is written. It returns the written paths, sorted.
func WriteFiles(directory string, files map[string]string) ([]string, error) {
	targets := make(map[string]string, len(files))
	for _, filePath := range sortedPaths(files) {
		relativePath, validateErr := safeRelativePath(filePath)
		if validateErr != nil {
			return nil, validateErr
		}
		targets[filePath] = filepath.Join(directory, relativePath)
	}
	written := make([]string, 0, len(targets))
	for _, filePath := range sortedPaths(files) {
		target := targets[filePath]
		if mkdirErr := os.MkdirAll(filepath.Dir(target), directoryPermissions); mkdirErr != nil {
			return written, fmt.Errorf("create directory for %s: %w", filePath, mkdirErr)
		}
		if writeErr := os.WriteFile(target, []byte(files[filePath]), filePermissions); writeErr != nil {
			return written, fmt.Errorf("write %s: %w", filePath, writeErr)
		}
		written = append(written, target)
	}
	return written, nil
}

func safeRelativePath(filePath string) (string, error) {
	slashed := strings.ReplaceAll(strings.TrimSpace(filePath), "\\", "/")
	if slashed == "" || path.IsAbs(slashed) || filepath.IsAbs(filePath) || filepath.VolumeName(filePath) != "" {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, filePath)
	}
	cleaned := path.Clean(slashed)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, filePath)
	}
	return filepath.FromSlash(cleaned), nil
}

// MarkerDocument renders files as "// File: path" lines each followed by a fenced block, sorted by path.
func MarkerDocument(files map[string]string) string {
	var builder strings.Builder
	for index, filePath := range sortedPaths(files) {
		if index > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(markerLinePrefix)
		builder.WriteString(filePath)
		builder.WriteString("\n")
		builder.WriteString(backtickFence)
		builder.WriteString(strings.TrimPrefix(path.Ext(filePath), "."))
		builder.WriteString("\n")
		builder.WriteString(files[filePath])
		if !strings.HasSuffix(files[filePath], "\n") {
			builder.WriteString("\n")
		}
		builder.WriteString(backtickFence)
		builder.WriteString("\n")
	}
	return builder.String()
}

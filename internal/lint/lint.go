// Package lint runs best-effort syntax checks over generated files.
package lint

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/temirov/pagegen/internal/utils"
)

// Diagnostic reports one problem found in a generated file.
type Diagnostic struct {
	Path    string `json:"path"`
	Checker string `json:"checker"`
	Message string `json:"message"`
}

// Checker validates files it supports.
type Checker interface {
	Name() string
	Supports(filePath string) bool
	Check(ctx context.Context, filePath string, content []byte) error
}

// Check runs every applicable checker over files and returns the diagnostics sorted by path.
func Check(ctx context.Context, files map[string]string) []Diagnostic {
	return CheckWith(ctx, DefaultCheckers(), files)
}

// CheckWith runs the given checkers over files.
func CheckWith(ctx context.Context, checkers []Checker, files map[string]string) []Diagnostic {
	paths := make([]string, 0, len(files))
	for filePath := range files {
		paths = append(paths, filePath)
	}
	sort.Strings(paths)

	diagnostics := []Diagnostic{}
	for _, filePath := range paths {
		if ctx.Err() != nil {
			break
		}
		content := []byte(files[filePath])
		if utils.IsBinary(content) {
			continue
		}
		for _, checker := range checkers {
			if !checker.Supports(filePath) {
				continue
			}
			if checkErr := checker.Check(ctx, filePath, content); checkErr != nil {
				diagnostics = append(diagnostics, Diagnostic{Path: filePath, Checker: checker.Name(), Message: checkErr.Error()})
			}
		}
	}
	return diagnostics
}

// DefaultCheckers returns the checkers available in this build.
func DefaultCheckers() []Checker {
	checkers := syntaxTreeCheckers()
	return append(checkers, goModuleChecker{}, goSourceChecker{}, jsonChecker{})
}

func extensionOf(filePath string) string {
	return strings.ToLower(path.Ext(filePath))
}

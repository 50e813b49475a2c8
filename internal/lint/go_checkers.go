package lint

import (
	"context"
	"encoding/json"
	"errors"
	"path"

	"golang.org/x/mod/modfile"
	"golang.org/x/tools/imports"
)

const (
	goModuleFileName   = "go.mod"
	goSourceExtension  = ".go"
	jsonExtension      = ".json"
	goModuleCheckName  = "gomod"
	goSourceCheckName  = "gosource"
	jsonCheckName      = "json"
	goFormatTabWidth   = 8
	invalidJSONMessage = "invalid JSON document"
)

var errInvalidJSON = errors.New(invalidJSONMessage)

type goModuleChecker struct{}

func (goModuleChecker) Name() string { return goModuleCheckName }

func (goModuleChecker) Supports(filePath string) bool {
	return path.Base(filePath) == goModuleFileName
}

func (goModuleChecker) Check(ctx context.Context, filePath string, content []byte) error {
	_, parseErr := modfile.Parse(filePath, content, nil)
	return parseErr
}

// goSourceChecker parses and formats Go sources without resolving missing imports.
type goSourceChecker struct{}

func (goSourceChecker) Name() string { return goSourceCheckName }

func (goSourceChecker) Supports(filePath string) bool {
	return extensionOf(filePath) == goSourceExtension
}

func (goSourceChecker) Check(ctx context.Context, filePath string, content []byte) error {
	options := &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   goFormatTabWidth,
		FormatOnly: true,
	}
	_, processErr := imports.Process(filePath, content, options)
	return processErr
}

type jsonChecker struct{}

func (jsonChecker) Name() string { return jsonCheckName }

func (jsonChecker) Supports(filePath string) bool {
	return extensionOf(filePath) == jsonExtension
}

func (jsonChecker) Check(ctx context.Context, filePath string, content []byte) error {
	if !json.Valid(content) {
		return errInvalidJSON
	}
	return nil
}

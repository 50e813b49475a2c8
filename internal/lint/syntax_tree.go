//go:build cgo

package lint

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

const (
	syntaxErrorFormat = "syntax error at line %d, column %d"
	errorNodeType     = "ERROR"
)

// syntaxTreeChecker parses a file with a tree-sitter grammar and reports the first error node.
type syntaxTreeChecker struct {
	name       string
	extensions []string
	language   *sitter.Language
}

func syntaxTreeCheckers() []Checker {
	return []Checker{
		syntaxTreeChecker{name: "javascript", extensions: []string{".js", ".jsx", ".mjs", ".cjs"}, language: javascript.GetLanguage()},
		syntaxTreeChecker{name: "typescript", extensions: []string{".ts", ".mts", ".cts"}, language: typescript.GetLanguage()},
		syntaxTreeChecker{name: "tsx", extensions: []string{".tsx"}, language: tsx.GetLanguage()},
		syntaxTreeChecker{name: "python", extensions: []string{".py"}, language: python.GetLanguage()},
	}
}

func (checker syntaxTreeChecker) Name() string { return checker.name }

func (checker syntaxTreeChecker) Supports(filePath string) bool {
	extension := extensionOf(filePath)
	for _, candidate := range checker.extensions {
		if candidate == extension {
			return true
		}
	}
	return false
}

func (checker syntaxTreeChecker) Check(ctx context.Context, filePath string, content []byte) error {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(checker.language)
	tree, parseErr := parser.ParseCtx(ctx, nil, content)
	if parseErr != nil {
		return fmt.Errorf("parse %s: %w", filePath, parseErr)
	}
	defer tree.Close()
	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}
	errorNode := firstErrorNode(root)
	if errorNode == nil {
		errorNode = root
	}
	position := errorNode.StartPoint()
	return fmt.Errorf(syntaxErrorFormat, position.Row+1, position.Column+1)
}

func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.Type() == errorNodeType || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for childIndex := 0; childIndex < int(node.ChildCount()); childIndex++ {
		if found := firstErrorNode(node.Child(childIndex)); found != nil {
			return found
		}
	}
	return nil
}

//go:build !cgo

package lint

// syntaxTreeCheckers returns no checkers when cgo is unavailable, since the tree-sitter grammars
// require it.
func syntaxTreeCheckers() []Checker {
	return nil
}

// Package types defines the names and shared result shapes used across pagegen surfaces.
package types

const (
	CommandTree     = "tree"
	CommandPrompt   = "prompt"
	CommandGenerate = "generate"
	CommandExtract  = "extract"
	CommandPages    = "pages"
	CommandServe    = "serve"
	CommandInit     = "init"

	FormatRaw  = "raw"
	FormatJSON = "json"
	FormatHTML = "html"
)

// OutputSummary captures aggregate information about generated files.
type OutputSummary struct {
	TotalFiles  int    `json:"totalFiles"`
	TotalSize   string `json:"totalSize"`
	TotalTokens int    `json:"totalTokens,omitempty"`
	Model       string `json:"model,omitempty"`
}

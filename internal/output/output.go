// Package output renders command results as indented JSON or raw text.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/temirov/pagegen/internal/completion"
	"github.com/temirov/pagegen/internal/lint"
	"github.com/temirov/pagegen/internal/notion"
	"github.com/temirov/pagegen/internal/pagetree"
	"github.com/temirov/pagegen/internal/types"
	"github.com/temirov/pagegen/internal/utils"
)

const (
	indentPrefix = ""
	indentSpacer = "  "

	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "

	untitledPageLabel = "(untitled)"
)

// RenderJSON marshals a command result with two-space indentation.
func RenderJSON(value interface{}) (string, error) {
	encoded, jsonEncodeError := json.MarshalIndent(value, indentPrefix, indentSpacer)
	if jsonEncodeError != nil {
		return "", jsonEncodeError
	}
	return string(encoded), nil
}

func treeNodeLinePrefix(prefix string, isRoot bool, isLast bool) (string, string) {
	if isRoot {
		return "", ""
	}
	connector := treeBranchConnector
	childPrefix := prefix + treeBranchPadding
	if isLast {
		connector = treeLastConnector
		childPrefix = prefix + treeLastPadding
	}
	return prefix + connector, childPrefix
}

// WriteOutlineRaw renders a page outline as an indented tree followed by its page counts.
func WriteOutlineRaw(writer io.Writer, outline pagetree.Outline) {
	if outline.ID == "" {
		fmt.Fprintln(writer, FormatPageCountLine(0, 0))
		return
	}
	renderOutline(writer, outline, "", true, true)
	pages := countOutlinePages(outline)
	fmt.Fprintln(writer, FormatPageCountLine(pages, pages-1))
}

func renderOutline(writer io.Writer, outline pagetree.Outline, prefix string, isRoot bool, isLast bool) {
	linePrefix, childPrefix := treeNodeLinePrefix(prefix, isRoot, isLast)
	fmt.Fprintf(writer, "%s%s (%s)\n", linePrefix, outline.Title, pluralize(outline.BlockCount, "block", "blocks"))
	for index, subpage := range outline.Subpages {
		renderOutline(writer, subpage, childPrefix, false, index == len(outline.Subpages)-1)
	}
}

func countOutlinePages(outline pagetree.Outline) int {
	count := 1
	for _, subpage := range outline.Subpages {
		count += countOutlinePages(subpage)
	}
	return count
}

// FormatPageCountLine formats the page totals printed under an outline.
func FormatPageCountLine(pages int, subpages int) string {
	return fmt.Sprintf("Summary: %s, %s", pluralize(pages, "page", "pages"), pluralize(subpages, "subpage", "subpages"))
}

// WriteFileTreeRaw renders extracted files as a directory tree. Token counts are shown when present.
func WriteFileTreeRaw(writer io.Writer, nodes []*completion.FileNode, fileTokens map[string]int) {
	for index, node := range nodes {
		renderFileNode(writer, node, "", fileTokens, index == len(nodes)-1)
	}
}

func renderFileNode(writer io.Writer, node *completion.FileNode, prefix string, fileTokens map[string]int, isLast bool) {
	if node == nil {
		return
	}
	linePrefix, childPrefix := treeNodeLinePrefix(prefix, false, isLast)
	if node.Type == completion.NodeTypeDirectory {
		fmt.Fprintf(writer, "%s%s/\n", linePrefix, node.Name)
		for index, child := range node.Children {
			renderFileNode(writer, child, childPrefix, fileTokens, index == len(node.Children)-1)
		}
		return
	}
	if tokens, found := fileTokens[node.Path]; found && tokens > 0 {
		fmt.Fprintf(writer, "%s%s (%d tokens)\n", linePrefix, node.Name, tokens)
		return
	}
	fmt.Fprintf(writer, "%s%s\n", linePrefix, node.Name)
}

// SummarizeFiles computes the totals of a generated file set.
func SummarizeFiles(files map[string]string, totalTokens int, model string) *types.OutputSummary {
	var totalBytes int64
	for _, content := range files {
		totalBytes += int64(len(content))
	}
	return &types.OutputSummary{
		TotalFiles:  len(files),
		TotalSize:   utils.FormatByteCount(totalBytes),
		TotalTokens: totalTokens,
		Model:       model,
	}
}

// FormatSummaryLine formats an OutputSummary into the raw summary line.
func FormatSummaryLine(summary *types.OutputSummary) string {
	if summary == nil {
		summary = &types.OutputSummary{}
	}
	extra := ""
	if summary.TotalTokens > 0 {
		extra = fmt.Sprintf(", %d tokens", summary.TotalTokens)
	}
	modelSuffix := ""
	if summary.Model != "" {
		modelSuffix = fmt.Sprintf(" (model: %s)", summary.Model)
	}
	return fmt.Sprintf("Summary: %s, %s%s%s", pluralize(summary.TotalFiles, "file", "files"), summary.TotalSize, extra, modelSuffix)
}

// WriteDiagnosticsRaw prints one warning line per diagnostic.
func WriteDiagnosticsRaw(writer io.Writer, diagnostics []lint.Diagnostic) {
	for _, diagnostic := range diagnostics {
		fmt.Fprintf(writer, "Warning: %s: %s: %s\n", diagnostic.Path, diagnostic.Checker, diagnostic.Message)
	}
}

// WritePagesRaw lists page summaries one per line with their edit time in location.
func WritePagesRaw(writer io.Writer, summaries []notion.PageSummary, location *time.Location) {
	for _, summary := range summaries {
		title := summary.Title
		if title == "" {
			title = untitledPageLabel
		}
		if summary.Icon != "" && !isURL(summary.Icon) {
			title = summary.Icon + " " + title
		}
		edited := utils.FormatEditedTime(summary.LastEdited, location)
		if edited == "" {
			fmt.Fprintf(writer, "%s  %s\n", summary.ID, title)
			continue
		}
		fmt.Fprintf(writer, "%s  %s  (edited %s)\n", summary.ID, title, edited)
	}
}

func isURL(value string) bool {
	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}

func pluralize(count int, singular string, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

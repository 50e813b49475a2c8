// Package completion recovers a path to content file map from free-form model output.
package completion

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

const (
	StrategyDirectJSON   = "direct_json"
	StrategyEmbeddedJSON = "embedded_json"
	StrategyFileMarkers  = "file_markers"
	StrategyRaw          = "raw"

	// FallbackFileName holds the raw completion when no structured form is recognized.
	FallbackFileName = "index.tsx"

	filesFieldName        = "files"
	fallbackMessage       = "could not extract individual files from the completion; the raw text is returned as " + FallbackFileName
	jsonIndentation       = "  "
	markerPathCutset      = "*`'\" "
	backtickFence         = "```"
	tildeFence            = "~~~"
	minimumFenceRuneCount = 3
)

var fileMarkerPattern = regexp.MustCompile(`^\s*(?://|#+|\*\*|[-*])?\s*(?:\*\*)?File:\s*(.*?)\s*$`)

// Result is the outcome of an extraction.
type Result struct {
	Files     map[string]string `json:"files"`
	Extracted bool              `json:"extracted"`
	Strategy  string            `json:"strategy"`
	Message   string            `json:"message,omitempty"`
}

type strategy struct {
	name    string
	extract func(text string) (map[string]string, bool)
}

var strategies = []strategy{
	{name: StrategyDirectJSON, extract: parseFilesObject},
	{name: StrategyEmbeddedJSON, extract: extractEmbeddedObject},
	{name: StrategyFileMarkers, extract: scanFileMarkers},
}

// ExtractFiles tries each strategy in order and returns the first success. It never fails:
// when nothing matches, the raw text is returned under FallbackFileName with Extracted unset.
func ExtractFiles(raw string) Result {
	for _, candidate := range strategies {
		files, extracted := runStrategy(candidate, raw)
		if extracted {
			return Result{Files: files, Extracted: true, Strategy: candidate.name}
		}
	}
	return Result{
		Files:     map[string]string{FallbackFileName: raw},
		Extracted: false,
		Strategy:  StrategyRaw,
		Message:   fallbackMessage,
	}
}

func runStrategy(candidate strategy, raw string) (files map[string]string, extracted bool) {
	defer func() {
		if recover() != nil {
			files, extracted = nil, false
		}
	}()
	return candidate.extract(raw)
}

// parseFilesObject accepts a JSON object whose "files" member is an object. String members are
// taken verbatim; other JSON values are stored as indented JSON text.
func parseFilesObject(text string) (map[string]string, bool) {
	var envelope map[string]json.RawMessage
	if decodeErr := json.Unmarshal([]byte(strings.TrimSpace(text)), &envelope); decodeErr != nil {
		return nil, false
	}
	rawFiles, found := envelope[filesFieldName]
	if !found {
		return nil, false
	}
	var entries map[string]json.RawMessage
	if decodeErr := json.Unmarshal(rawFiles, &entries); decodeErr != nil || entries == nil {
		return nil, false
	}
	files := make(map[string]string, len(entries))
	for path, rawValue := range entries {
		var content string
		if json.Unmarshal(rawValue, &content) == nil {
			files[path] = content
			continue
		}
		var indented bytes.Buffer
		if json.Indent(&indented, rawValue, "", jsonIndentation) != nil {
			return nil, false
		}
		files[path] = indented.String()
	}
	return files, true
}

func extractEmbeddedObject(text string) (map[string]string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	return parseFilesObject(text[start : end+1])
}

// scanFileMarkers recognizes "File: path" lines followed by a fenced block or by plain lines up to
// the next marker.
func scanFileMarkers(text string) (map[string]string, bool) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	files := map[string]string{}
	lineIndex := 0
	for lineIndex < len(lines) {
		path, isMarker := parseMarker(lines[lineIndex])
		if !isMarker {
			lineIndex++
			continue
		}
		content, nextIndex := collectFileBody(lines, lineIndex+1)
		if path != "" {
			files[path] = strings.TrimSpace(content)
		}
		lineIndex = nextIndex
	}
	return files, len(files) > 0
}

func parseMarker(line string) (string, bool) {
	match := fileMarkerPattern.FindStringSubmatch(line)
	if match == nil {
		return "", false
	}
	return strings.Trim(match[1], markerPathCutset), true
}

func collectFileBody(lines []string, start int) (string, int) {
	lineIndex := start
	for lineIndex < len(lines) && strings.TrimSpace(lines[lineIndex]) == "" {
		lineIndex++
	}
	if lineIndex < len(lines) {
		if fence, isFence := openingFence(lines[lineIndex]); isFence {
			bodyStart := lineIndex + 1
			for closingIndex := bodyStart; closingIndex < len(lines); closingIndex++ {
				if isClosingFence(lines[closingIndex], fence) {
					return strings.Join(lines[bodyStart:closingIndex], "\n"), closingIndex + 1
				}
			}
			return strings.Join(lines[bodyStart:], "\n"), len(lines)
		}
	}
	endIndex := start
	for endIndex < len(lines) {
		if _, isMarker := parseMarker(lines[endIndex]); isMarker {
			break
		}
		endIndex++
	}
	return strings.Join(lines[start:endIndex], "\n"), endIndex
}

func openingFence(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	for _, fence := range []string{backtickFence, tildeFence} {
		if strings.HasPrefix(trimmed, fence) {
			fenceRune := fence[:1]
			runLength := len(trimmed) - len(strings.TrimLeft(trimmed, fenceRune))
			return strings.Repeat(fenceRune, runLength), true
		}
	}
	return "", false
}

func isClosingFence(line string, fence string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < len(fence) || len(fence) < minimumFenceRuneCount {
		return false
	}
	return strings.Trim(trimmed, fence[:1]) == ""
}

package tokenizer

import (
	"sort"

	"github.com/temirov/pagegen/internal/utils"
)

// CountResult captures the outcome of counting one text.
type CountResult struct {
	Tokens  int
	Counted bool
}

// CountBytes estimates tokens for data. Binary content is reported as not counted.
func CountBytes(counter Counter, data []byte) (CountResult, error) {
	if counter == nil {
		return CountResult{}, errNilCounter
	}
	if utils.IsBinary(data) {
		return CountResult{Counted: false}, nil
	}
	tokens, countErr := counter.CountString(string(data))
	if countErr != nil {
		return CountResult{}, countErr
	}
	return CountResult{Tokens: tokens, Counted: true}, nil
}

// CountFiles estimates tokens for each file of a generated project and returns the per-path counts and the total.
func CountFiles(counter Counter, files map[string]string) (map[string]int, int, error) {
	paths := make([]string, 0, len(files))
	for filePath := range files {
		paths = append(paths, filePath)
	}
	sort.Strings(paths)
	perFile := make(map[string]int, len(paths))
	total := 0
	for _, filePath := range paths {
		result, countErr := CountBytes(counter, []byte(files[filePath]))
		if countErr != nil {
			return nil, 0, countErr
		}
		if !result.Counted {
			continue
		}
		perFile[filePath] = result.Tokens
		total += result.Tokens
	}
	return perFile, total, nil
}

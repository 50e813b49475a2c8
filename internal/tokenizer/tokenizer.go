// Package tokenizer estimates prompt sizes with tiktoken encodings.
package tokenizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

// Config captures tokenizer selection parameters.
type Config struct {
	Model string
}

const (
	// DefaultModel is the model whose tokenizer is estimated when none is configured.
	DefaultModel        = "claude-3-5-haiku-20241022"
	defaultEncodingName = "cl100k_base"
)

var errNilCounter = errors.New("nil tokenizer counter")

// NewCounter returns a Counter for the requested model and the name of the encoding it resolved to.
// OpenAI model names use their own encoding; every other model, Claude included, is estimated with cl100k_base.
func NewCounter(config Config) (Counter, string, error) {
	lowerModel := strings.ToLower(strings.TrimSpace(config.Model))
	if lowerModel == "" {
		lowerModel = DefaultModel
	}
	if isOpenAIModel(lowerModel) {
		encoding, encodingErr := tiktoken.EncodingForModel(lowerModel)
		if encodingErr == nil && encoding != nil {
			return tiktokenCounter{encoding: encoding, name: lowerModel}, lowerModel, nil
		}
	}
	encoding, encodingErr := tiktoken.GetEncoding(defaultEncodingName)
	if encodingErr != nil {
		return nil, "", fmt.Errorf("initialize %s tokenizer: %w", defaultEncodingName, encodingErr)
	}
	return tiktokenCounter{encoding: encoding, name: defaultEncodingName}, defaultEncodingName, nil
}

func isOpenAIModel(model string) bool {
	prefixes := []string{
		"gpt-",
		"o1",
		"o3",
		"text-embedding",
		"davinci",
		"babbage",
		"code-",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// Package codegen turns selected documentation pages into generated project files.
package codegen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/pagegen/internal/completion"
	"github.com/temirov/pagegen/internal/lint"
	"github.com/temirov/pagegen/internal/llm"
	"github.com/temirov/pagegen/internal/pagetree"
	"github.com/temirov/pagegen/internal/prompt"
	"github.com/temirov/pagegen/internal/tokenizer"
)

const (
	logFieldPageCount     = "pages"
	logFieldPromptTokens  = "prompt_tokens"
	logFieldStrategy      = "strategy"
	logFieldFileCount     = "files"
	logFieldDiagnostics   = "diagnostics"
	logFieldProjectType   = "project_type"
	logFieldUsedFallback  = "fallback_prompt"
	logMessagePromptReady = "prompt assembled"
	logMessageGenerated   = "generation completed"
)

var (
	// ErrNoPages indicates a request without any page IDs.
	ErrNoPages = errors.New("at least one page id is required")
	// ErrNoGenerator indicates that generation was requested from a service built without a generator.
	ErrNoGenerator = errors.New("text generator is not configured")
)

// TreeFetcher loads page trees for a set of roots.
type TreeFetcher interface {
	FetchAll(ctx context.Context, rootIDs []string, maxDepth int) ([]pagetree.Tree, error)
}

// Request selects the pages and shape of a generation.
type Request struct {
	PageIDs     []string `json:"pageIds"`
	ProjectType string   `json:"projectType,omitempty"`
	Depth       *int     `json:"depth,omitempty"`
}

// PromptResult is the fetch and format half of a generation.
type PromptResult struct {
	Prompt       prompt.Prompt      `json:"prompt"`
	PromptTokens int                `json:"promptTokens"`
	TokenModel   string             `json:"tokenModel,omitempty"`
	Outlines     []pagetree.Outline `json:"outlines"`
}

// Generation is the full outcome of a generation request.
type Generation struct {
	PromptResult
	Completion  string            `json:"completion"`
	Result      completion.Result `json:"result"`
	Diagnostics []lint.Diagnostic `json:"diagnostics"`
}

// Observer receives the extraction strategy of each completed generation.
type Observer func(result completion.Result)

// Config wires a Service.
type Config struct {
	Fetcher      TreeFetcher
	Builder      prompt.Builder
	Generator    llm.Generator
	Counter      tokenizer.Counter
	Logger       *zap.Logger
	DefaultDepth int
	Checkers     []lint.Checker
	Observer     Observer
}

// Service runs the generation pipeline.
type Service struct {
	config Config
}

// NewService applies defaults to config.
func NewService(config Config) Service {
	normalized := config
	if normalized.Logger == nil {
		normalized.Logger = zap.NewNop()
	}
	if normalized.DefaultDepth <= 0 {
		normalized.DefaultDepth = pagetree.DefaultGenerateDepth
	}
	if normalized.Checkers == nil {
		normalized.Checkers = lint.DefaultCheckers()
	}
	return Service{config: normalized}
}

// Prompt fetches the selected pages and renders the generation prompt without calling the model.
func (service Service) Prompt(ctx context.Context, request Request) (PromptResult, error) {
	pageIDs := normalizePageIDs(request.PageIDs)
	if len(pageIDs) == 0 {
		return PromptResult{}, ErrNoPages
	}
	depth := service.config.DefaultDepth
	if request.Depth != nil {
		depth = *request.Depth
	}
	trees, fetchErr := service.config.Fetcher.FetchAll(ctx, pageIDs, depth)
	if fetchErr != nil {
		return PromptResult{}, fetchErr
	}
	documentation := prompt.FormatTrees(trees)
	renderedPrompt, buildErr := service.config.Builder.Build(request.ProjectType, documentation)
	if buildErr != nil {
		return PromptResult{}, fmt.Errorf("build prompt: %w", buildErr)
	}
	result := PromptResult{Prompt: renderedPrompt, Outlines: make([]pagetree.Outline, 0, len(trees))}
	for _, tree := range trees {
		result.Outlines = append(result.Outlines, tree.Outline())
	}
	if service.config.Counter != nil {
		tokens, countErr := service.config.Counter.CountString(renderedPrompt.System + "\n" + renderedPrompt.User)
		if countErr != nil {
			service.config.Logger.Warn("failed to count prompt tokens", zap.Error(countErr))
		} else {
			result.PromptTokens = tokens
			result.TokenModel = service.config.Counter.Name()
		}
	}
	service.config.Logger.Info(logMessagePromptReady,
		zap.Int(logFieldPageCount, len(trees)),
		zap.Int(logFieldPromptTokens, result.PromptTokens),
		zap.Bool(logFieldUsedFallback, renderedPrompt.UsedFallback),
		zap.String(logFieldProjectType, request.ProjectType),
	)
	return result, nil
}

// Generate runs the whole pipeline: fetch, format, prompt, complete, extract and check.
func (service Service) Generate(ctx context.Context, request Request) (Generation, error) {
	if service.config.Generator == nil {
		return Generation{}, ErrNoGenerator
	}
	promptResult, promptErr := service.Prompt(ctx, request)
	if promptErr != nil {
		return Generation{}, promptErr
	}
	completionText, generateErr := service.config.Generator.Generate(ctx, promptResult.Prompt.System, promptResult.Prompt.User)
	if generateErr != nil {
		return Generation{}, fmt.Errorf("generate completion: %w", generateErr)
	}
	extraction := completion.ExtractFiles(completionText)
	if service.config.Observer != nil {
		service.config.Observer(extraction)
	}
	diagnostics := lint.CheckWith(ctx, service.config.Checkers, extraction.Files)
	service.config.Logger.Info(logMessageGenerated,
		zap.String(logFieldStrategy, extraction.Strategy),
		zap.Int(logFieldFileCount, len(extraction.Files)),
		zap.Int(logFieldDiagnostics, len(diagnostics)),
	)
	return Generation{
		PromptResult: promptResult,
		Completion:   completionText,
		Result:       extraction,
		Diagnostics:  diagnostics,
	}, nil
}

func normalizePageIDs(pageIDs []string) []string {
	normalized := make([]string, 0, len(pageIDs))
	for _, pageID := range pageIDs {
		if trimmed := strings.TrimSpace(pageID); trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	return normalized
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/pagegen/internal/codegen"
	"github.com/temirov/pagegen/internal/completion"
	"github.com/temirov/pagegen/internal/config"
	"github.com/temirov/pagegen/internal/lint"
	"github.com/temirov/pagegen/internal/notion"
	"github.com/temirov/pagegen/internal/pagetree"
	"github.com/temirov/pagegen/internal/tokenizer"
)

// ErrEmptyCompletion indicates an extract request without completion text.
var ErrEmptyCompletion = errors.New("completion text is required")

// TreeRequest selects a page tree. A nil Depth selects the configured tree depth.
type TreeRequest struct {
	PageID string `json:"pageId"`
	Depth  *int   `json:"depth,omitempty"`
}

// TreeResult summarizes a fetched page tree.
type TreeResult struct {
	Outline      pagetree.Outline `json:"outline"`
	Depth        int              `json:"depth"`
	PageCount    int              `json:"pageCount"`
	SubpageCount int              `json:"subpageCount"`
}

// GenerationRequest selects the pages used for a prompt or a generation.
// A nil Depth selects the configured generation depth.
type GenerationRequest struct {
	PageIDs     []string `json:"pageIds"`
	ProjectType string   `json:"projectType,omitempty"`
	Depth       *int     `json:"depth,omitempty"`
}

// ExtractRequest carries a completion saved from an earlier generation.
type ExtractRequest struct {
	Completion string `json:"completion"`
}

// ExtractResult is the outcome of extracting files from a completion.
type ExtractResult struct {
	completion.Result
	Tree        []*completion.FileNode `json:"tree"`
	Diagnostics []lint.Diagnostic      `json:"diagnostics"`
	FileTokens  map[string]int         `json:"fileTokens,omitempty"`
	TotalTokens int                    `json:"totalTokens,omitempty"`
}

// Tree fetches one page tree and returns its outline.
func Tree(ctx context.Context, environment Environment, credential string, request TreeRequest) (TreeResult, error) {
	pageID, parseErr := notion.ParsePageID(request.PageID)
	if parseErr != nil {
		return TreeResult{}, parseErr
	}
	depth := config.IntValue(environment.Configuration.Notion.TreeDepth, pagetree.DefaultTreeDepth)
	if request.Depth != nil {
		depth = *request.Depth
	}
	tree, fetchErr := environment.Fetcher(credential).Fetch(ctx, pageID, depth)
	if fetchErr != nil {
		return TreeResult{}, fetchErr
	}
	return TreeResult{
		Outline:      tree.Outline(),
		Depth:        depth,
		PageCount:    tree.PageCount(),
		SubpageCount: tree.SubpageCount(),
	}, nil
}

// Prompt fetches the selected pages and renders the generation prompt.
func Prompt(ctx context.Context, environment Environment, credential string, request GenerationRequest) (codegen.PromptResult, error) {
	serviceRequest, requestErr := environment.serviceRequest(request)
	if requestErr != nil {
		return codegen.PromptResult{}, requestErr
	}
	return environment.Service(credential).Prompt(ctx, serviceRequest)
}

// Generate runs the whole generation pipeline for the selected pages.
func Generate(ctx context.Context, environment Environment, credential string, request GenerationRequest) (codegen.Generation, error) {
	serviceRequest, requestErr := environment.serviceRequest(request)
	if requestErr != nil {
		return codegen.Generation{}, requestErr
	}
	return environment.Service(credential).Generate(ctx, serviceRequest)
}

// Extract recovers files from a completion and checks them.
func Extract(ctx context.Context, environment Environment, request ExtractRequest) (ExtractResult, error) {
	if strings.TrimSpace(request.Completion) == "" {
		return ExtractResult{}, ErrEmptyCompletion
	}
	extraction := completion.ExtractFiles(request.Completion)
	if environment.ExtractionObserver != nil {
		environment.ExtractionObserver(extraction)
	}
	result := ExtractResult{
		Result:      extraction,
		Tree:        completion.BuildFileTree(extraction.Files),
		Diagnostics: lint.CheckWith(ctx, environment.Checkers, extraction.Files),
	}
	if environment.Counter != nil {
		fileTokens, totalTokens, countErr := tokenizer.CountFiles(environment.Counter, extraction.Files)
		if countErr != nil {
			return ExtractResult{}, fmt.Errorf("count file tokens: %w", countErr)
		}
		result.FileTokens = fileTokens
		result.TotalTokens = totalTokens
	}
	return result, nil
}

// Pages lists the pages visible to the credential, most recently edited first.
func Pages(ctx context.Context, environment Environment, credential string) ([]notion.PageSummary, error) {
	return environment.NotionClient(credential).SearchPages(ctx)
}

func (environment Environment) serviceRequest(request GenerationRequest) (codegen.Request, error) {
	if len(request.PageIDs) == 0 {
		return codegen.Request{}, codegen.ErrNoPages
	}
	pageIDs := make([]string, 0, len(request.PageIDs))
	for _, rawPageID := range request.PageIDs {
		pageID, parseErr := notion.ParsePageID(rawPageID)
		if parseErr != nil {
			return codegen.Request{}, parseErr
		}
		pageIDs = append(pageIDs, pageID)
	}
	projectType := strings.TrimSpace(request.ProjectType)
	if projectType == "" {
		projectType = environment.Configuration.Prompt.ProjectType
	}
	return codegen.Request{PageIDs: pageIDs, ProjectType: projectType, Depth: request.Depth}, nil
}

package codegen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/temirov/pagegen/internal/completion"
	"github.com/temirov/pagegen/internal/lint"
	"github.com/temirov/pagegen/internal/llm"
	"github.com/temirov/pagegen/internal/notion"
	"github.com/temirov/pagegen/internal/pagetree"
	"github.com/temirov/pagegen/internal/prompt"
)

type staticSource struct {
	blocks map[string][]notion.Block
	titles map[string]string
}

func (source staticSource) RetrievePage(ctx context.Context, pageID string) (notion.Page, error) {
	title, known := source.titles[pageID]
	if !known {
		return notion.Page{}, &notion.APIError{StatusCode: 404, Message: "missing"}
	}
	return notion.Page{
		ID:         pageID,
		Properties: []notion.Property{{Name: "Name", Type: "title", Title: []notion.RichText{{PlainText: title}}}},
	}, nil
}

func (source staticSource) ListBlocks(ctx context.Context, blockID string, pageSize int) ([]notion.Block, error) {
	return source.blocks[blockID], nil
}

type runeCounter struct{}

func (runeCounter) Name() string { return "runes" }

func (runeCounter) CountString(input string) (int, error) { return len([]rune(input)), nil }

func newTestService(t *testing.T, generator llm.Generator, observer Observer) Service {
	t.Helper()
	source := staticSource{
		titles: map[string]string{"root": "Root", "x": "X"},
		blocks: map[string][]notion.Block{
			"root": {notion.Paragraph{ID: "p", Text: "Hello"}, notion.ChildReference{ID: "x"}},
			"x":    {},
		},
	}
	builder, builderErr := prompt.NewBuilder(prompt.Templates{})
	if builderErr != nil {
		t.Fatalf("NewBuilder error: %v", builderErr)
	}
	return NewService(Config{
		Fetcher:   pagetree.NewFetcher(source, nil),
		Builder:   builder,
		Generator: generator,
		Counter:   runeCounter{},
		Checkers:  []lint.Checker{},
		Observer:  observer,
	})
}

func TestGenerateEndToEnd(t *testing.T) {
	t.Parallel()
	var observedStrategy string
	generator := llm.GeneratorFunc(func(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
		if !strings.Contains(userPrompt, "## Root\n\nHello\n\n### X") {
			t.Errorf("unexpected user prompt %q", userPrompt)
		}
		if !strings.Contains(userPrompt, "Create a Vue project") {
			t.Errorf("expected project type in prompt, got %q", userPrompt)
		}
		return `{"files":{"a.js":"x"}}`, nil
	})
	service := newTestService(t, generator, func(result completion.Result) {
		observedStrategy = result.Strategy
	})

	generation, err := service.Generate(context.Background(), Request{PageIDs: []string{" root ", ""}, ProjectType: "Vue"})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if !generation.Result.Extracted || generation.Result.Files["a.js"] != "x" {
		t.Fatalf("unexpected result %+v", generation.Result)
	}
	if observedStrategy != completion.StrategyDirectJSON {
		t.Fatalf("expected observer to receive direct_json, got %q", observedStrategy)
	}
	if generation.PromptTokens == 0 || generation.TokenModel != "runes" {
		t.Fatalf("expected prompt tokens to be counted, got %d (%s)", generation.PromptTokens, generation.TokenModel)
	}
	if len(generation.Outlines) != 1 || len(generation.Outlines[0].Subpages) != 1 || generation.Outlines[0].Subpages[0].Title != "X" {
		t.Fatalf("unexpected outlines %+v", generation.Outlines)
	}
}

func TestGenerateErrors(t *testing.T) {
	t.Parallel()
	upstreamFailure := errors.New("upstream unavailable")
	failingGenerator := llm.GeneratorFunc(func(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
		return "", upstreamFailure
	})
	service := newTestService(t, failingGenerator, nil)

	if _, err := service.Generate(context.Background(), Request{}); !errors.Is(err, ErrNoPages) {
		t.Fatalf("expected ErrNoPages, got %v", err)
	}
	if _, err := service.Generate(context.Background(), Request{PageIDs: []string{"missing"}}); !errors.Is(err, pagetree.ErrNoPagesFetched) || !errors.Is(err, notion.ErrNotFound) {
		t.Fatalf("expected ErrNoPagesFetched wrapping ErrNotFound, got %v", err)
	}
	if _, err := service.Generate(context.Background(), Request{PageIDs: []string{"root"}}); !errors.Is(err, upstreamFailure) {
		t.Fatalf("expected generator failure to be wrapped, got %v", err)
	}
	if _, err := NewService(Config{}).Generate(context.Background(), Request{PageIDs: []string{"root"}}); !errors.Is(err, ErrNoGenerator) {
		t.Fatalf("expected ErrNoGenerator, got %v", err)
	}
}

func intPointer(value int) *int {
	return &value
}

func TestPromptRespectsDepth(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name             string
		depth            *int
		expectedSubpages int
	}{
		{name: "unset depth selects the default", depth: nil, expectedSubpages: 1},
		{name: "depth zero keeps only the root", depth: intPointer(0), expectedSubpages: 0},
		{name: "depth one follows child pages", depth: intPointer(1), expectedSubpages: 1},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			service := newTestService(t, nil, nil)
			result, err := service.Prompt(context.Background(), Request{PageIDs: []string{"root"}, Depth: testCase.depth})
			if err != nil {
				t.Fatalf("Prompt error: %v", err)
			}
			if len(result.Outlines) != 1 || len(result.Outlines[0].Subpages) != testCase.expectedSubpages {
				t.Fatalf("expected %d subpages, got %+v", testCase.expectedSubpages, result.Outlines)
			}
			if hasChild := strings.Contains(result.Prompt.Documentation, "### X"); hasChild != (testCase.expectedSubpages > 0) {
				t.Fatalf("unexpected documentation for depth %v: %q", testCase.depth, result.Prompt.Documentation)
			}
		})
	}
}

package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/temirov/pagegen/internal/commands"
	"github.com/temirov/pagegen/internal/completion"
	"github.com/temirov/pagegen/internal/config"
	"github.com/temirov/pagegen/internal/lint"
)

const toolTestPageID = "00000000-0000-0000-0000-0000000000aa"

func newToolTestEnvironment(t *testing.T) commands.Environment {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/pages/"+toolTestPageID, func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(`{"object":"page","id":"` + toolTestPageID + `","properties":{"title":{"type":"title","title":[{"plain_text":"Handbook"}]}}}`))
	})
	mux.HandleFunc("/v1/blocks/"+toolTestPageID+"/children", func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(`{"results":[{"object":"block","id":"b1","type":"paragraph","paragraph":{"rich_text":[{"plain_text":"Welcome aboard"}]}}]}`))
	})
	notionServer := httptest.NewServer(mux)
	t.Cleanup(notionServer.Close)

	environment, err := commands.NewEnvironment(config.ApplicationConfiguration{
		Notion: config.NotionConfiguration{Token: "secret_tools", APIBase: notionServer.URL},
	}, nil)
	if err != nil {
		t.Fatalf("NewEnvironment error: %v", err)
	}
	environment.HTTPClient = notionServer.Client()
	environment.Checkers = []lint.Checker{}
	return environment
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatalf("expected tool result content")
	}
	textContent, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return textContent.Text
}

func TestNewServer(t *testing.T) {
	if NewServer(commands.Environment{}) == nil {
		t.Fatal("NewServer() returned nil")
	}
}

func TestTreeHandler(t *testing.T) {
	t.Parallel()
	environment := newToolTestEnvironment(t)
	handler := treeHandler(environment)

	testCases := []struct {
		name            string
		args            TreeArguments
		expectError     bool
		expectedContent string
	}{
		{name: "fetches outline", args: TreeArguments{PageID: toolTestPageID}, expectedContent: `"title": "Handbook"`},
		{name: "missing page id", args: TreeArguments{}, expectError: true, expectedContent: "pageId is required"},
		{name: "invalid page id", args: TreeArguments{PageID: "nope"}, expectError: true, expectedContent: "failed to fetch page tree"},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			request := mcp.CallToolRequest{Params: mcp.CallToolParams{Name: ToolNotionTree, Arguments: testCase.args}}
			result, err := handler(context.Background(), request, testCase.args)
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if result.IsError != testCase.expectError {
				t.Fatalf("expected IsError=%v, got %v (%s)", testCase.expectError, result.IsError, resultText(t, result))
			}
			if text := resultText(t, result); !strings.Contains(text, testCase.expectedContent) {
				t.Fatalf("expected %q in %s", testCase.expectedContent, text)
			}
		})
	}
}

func TestPromptHandler(t *testing.T) {
	t.Parallel()
	environment := newToolTestEnvironment(t)
	args := PromptArguments{PageIDs: " " + toolTestPageID + " , ", ProjectType: "Svelte"}
	result, err := promptHandler(environment)(context.Background(), mcp.CallToolRequest{}, args)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, result))
	}
	text := resultText(t, result)
	if !strings.Contains(text, "Welcome aboard") || !strings.Contains(text, "Svelte") {
		t.Fatalf("unexpected prompt result: %s", text)
	}

	emptyResult, emptyErr := promptHandler(environment)(context.Background(), mcp.CallToolRequest{}, PromptArguments{PageIDs: " , "})
	if emptyErr != nil || !emptyResult.IsError {
		t.Fatalf("expected error result for empty page ids, got %+v (%v)", emptyResult, emptyErr)
	}
}

func TestExtractHandler(t *testing.T) {
	t.Parallel()
	handler := extractHandler(commands.Environment{Checkers: []lint.Checker{}})

	result, err := handler(context.Background(), mcp.CallToolRequest{}, ExtractArguments{Completion: `Here you go: {"files": {"main.py": "print('hi')\n"}} Enjoy.`})
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	var decoded struct {
		Files    map[string]string `json:"files"`
		Strategy string            `json:"strategy"`
	}
	if decodeErr := json.Unmarshal([]byte(resultText(t, result)), &decoded); decodeErr != nil {
		t.Fatalf("decode result: %v", decodeErr)
	}
	if decoded.Strategy != completion.StrategyEmbeddedJSON || decoded.Files["main.py"] != "print('hi')\n" {
		t.Fatalf("unexpected extraction %+v", decoded)
	}

	emptyResult, emptyErr := handler(context.Background(), mcp.CallToolRequest{}, ExtractArguments{})
	if emptyErr != nil || !emptyResult.IsError {
		t.Fatalf("expected error result for empty completion")
	}
}

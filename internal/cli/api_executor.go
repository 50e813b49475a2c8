package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/temirov/pagegen/internal/codegen"
	"github.com/temirov/pagegen/internal/commands"
	"github.com/temirov/pagegen/internal/notion"
	"github.com/temirov/pagegen/internal/pagetree"
	"github.com/temirov/pagegen/internal/services/api"
	"github.com/temirov/pagegen/internal/types"
)

func apiCapabilities() []api.Capability {
	return []api.Capability{
		{Name: types.CommandTree, Description: "Fetch a Notion page tree and return its outline"},
		{Name: types.CommandPrompt, Description: "Flatten Notion pages into a code generation prompt"},
		{Name: types.CommandGenerate, Description: "Generate project files from Notion pages"},
		{Name: types.CommandExtract, Description: "Recover files from a saved completion"},
		{Name: types.CommandPages, Description: "List pages shared with the integration"},
	}
}

func apiCommandExecutors(environment commands.Environment) map[string]api.CommandExecutor {
	return map[string]api.CommandExecutor{
		types.CommandTree: api.CommandExecutorFunc(func(ctx context.Context, request api.CommandRequest) (api.CommandResponse, error) {
			var payload commands.TreeRequest
			if decodeErr := decodePayload(request.Payload, &payload); decodeErr != nil {
				return api.CommandResponse{}, api.NewCommandExecutionError(http.StatusBadRequest, fmt.Errorf("decode tree request: %w", decodeErr))
			}
			result, treeErr := commands.Tree(ctx, environment, request.Credential, payload)
			return jsonResponse(result, treeErr)
		}),
		types.CommandPrompt: api.CommandExecutorFunc(func(ctx context.Context, request api.CommandRequest) (api.CommandResponse, error) {
			var payload commands.GenerationRequest
			if decodeErr := decodePayload(request.Payload, &payload); decodeErr != nil {
				return api.CommandResponse{}, api.NewCommandExecutionError(http.StatusBadRequest, fmt.Errorf("decode prompt request: %w", decodeErr))
			}
			result, promptErr := commands.Prompt(ctx, environment, request.Credential, payload)
			return jsonResponse(result, promptErr)
		}),
		types.CommandGenerate: api.CommandExecutorFunc(func(ctx context.Context, request api.CommandRequest) (api.CommandResponse, error) {
			var payload commands.GenerationRequest
			if decodeErr := decodePayload(request.Payload, &payload); decodeErr != nil {
				return api.CommandResponse{}, api.NewCommandExecutionError(http.StatusBadRequest, fmt.Errorf("decode generate request: %w", decodeErr))
			}
			generation, generateErr := commands.Generate(ctx, environment, request.Credential, payload)
			if generateErr != nil {
				return jsonResponse(nil, generateErr)
			}
			response, _ := jsonResponse(generation, nil)
			if !generation.Result.Extracted {
				response.Warnings = append(response.Warnings, generation.Result.Message)
			}
			for _, diagnostic := range generation.Diagnostics {
				response.Warnings = append(response.Warnings, fmt.Sprintf("%s: %s", diagnostic.Path, diagnostic.Message))
			}
			return response, nil
		}),
		types.CommandExtract: api.CommandExecutorFunc(func(ctx context.Context, request api.CommandRequest) (api.CommandResponse, error) {
			var payload commands.ExtractRequest
			if decodeErr := decodePayload(request.Payload, &payload); decodeErr != nil {
				return api.CommandResponse{}, api.NewCommandExecutionError(http.StatusBadRequest, fmt.Errorf("decode extract request: %w", decodeErr))
			}
			result, extractErr := commands.Extract(ctx, environment, payload)
			return jsonResponse(result, extractErr)
		}),
		types.CommandPages: api.CommandExecutorFunc(func(ctx context.Context, request api.CommandRequest) (api.CommandResponse, error) {
			summaries, pagesErr := commands.Pages(ctx, environment, request.Credential)
			return jsonResponse(summaries, pagesErr)
		}),
	}
}

func decodePayload(payload json.RawMessage, target interface{}) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func jsonResponse(result interface{}, commandErr error) (api.CommandResponse, error) {
	if commandErr != nil {
		return api.CommandResponse{}, api.NewCommandExecutionError(statusCodeForError(commandErr), commandErr)
	}
	return api.CommandResponse{Output: result, Format: types.FormatJSON}, nil
}

// statusCodeForError maps command failures to HTTP status codes. Credential and lookup failures are checked
// before ErrNoPagesFetched because it wraps the per-root causes.
func statusCodeForError(err error) int {
	switch {
	case errors.Is(err, notion.ErrInvalidPageID),
		errors.Is(err, pagetree.ErrMissingRootID),
		errors.Is(err, codegen.ErrNoPages),
		errors.Is(err, commands.ErrEmptyCompletion):
		return http.StatusBadRequest
	case errors.Is(err, notion.ErrMissingCredential), errors.Is(err, notion.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, notion.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, codegen.ErrNoGenerator):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusBadGateway
	}
}

// Package commands contains the operations shared by the CLI, the HTTP API and the MCP tools.
package commands

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/pagegen/internal/codegen"
	"github.com/temirov/pagegen/internal/config"
	"github.com/temirov/pagegen/internal/lint"
	"github.com/temirov/pagegen/internal/llm"
	"github.com/temirov/pagegen/internal/notion"
	"github.com/temirov/pagegen/internal/pagetree"
	"github.com/temirov/pagegen/internal/prompt"
	"github.com/temirov/pagegen/internal/tokenizer"
	"github.com/temirov/pagegen/internal/utils"
)

const warningTokenizerUnavailable = "token counting disabled"

// Environment carries the collaborators every command needs.
type Environment struct {
	Configuration      config.ApplicationConfiguration
	Logger             *zap.Logger
	HTTPClient         *http.Client
	Builder            prompt.Builder
	Counter            tokenizer.Counter
	Generator          llm.Generator
	Checkers           []lint.Checker
	FetchObserver      pagetree.FetchObserver
	ExtractionObserver codegen.Observer
}

// NewEnvironment builds the prompt builder and, when an API key is configured, the text generator.
func NewEnvironment(configuration config.ApplicationConfiguration, logger *zap.Logger) (Environment, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	templates := prompt.DefaultTemplates()
	if templatesPath := strings.TrimSpace(configuration.Prompt.Templates); templatesPath != "" {
		loaded, loadErr := prompt.LoadTemplates(templatesPath)
		if loadErr != nil {
			return Environment{}, loadErr
		}
		templates = loaded
	}
	builder, builderErr := prompt.NewBuilder(templates)
	if builderErr != nil {
		return Environment{}, builderErr
	}
	environment := Environment{
		Configuration: configuration,
		Logger:        logger,
		Builder:       builder,
		Checkers:      lint.DefaultCheckers(),
	}
	if strings.TrimSpace(configuration.Anthropic.APIKey) != "" {
		generator, generatorErr := llm.NewAnthropicGenerator(llm.AnthropicConfig{
			APIKey:    configuration.Anthropic.APIKey,
			Model:     configuration.Anthropic.Model,
			MaxTokens: int64(config.IntValue(configuration.Anthropic.MaxTokens, llm.DefaultMaxTokens)),
			BaseURL:   configuration.Anthropic.BaseURL,
		})
		if generatorErr != nil {
			return Environment{}, fmt.Errorf("configure text generator: %w", generatorErr)
		}
		environment.Generator = generator
	}
	return environment, nil
}

// WithTokenCounter returns a copy with a tokenizer for the configured model.
// A tokenizer that cannot be loaded disables token counts instead of failing.
func (environment Environment) WithTokenCounter() Environment {
	counter, _, counterErr := tokenizer.NewCounter(tokenizer.Config{Model: environment.Configuration.Tokens.Model})
	if counterErr != nil {
		environment.logger().Warn(warningTokenizerUnavailable, zap.Error(counterErr))
		return environment
	}
	environment.Counter = counter
	return environment
}

// WithObservers returns a copy reporting page fetches and extractions to the given callbacks.
func (environment Environment) WithObservers(fetchObserver pagetree.FetchObserver, extractionObserver codegen.Observer) Environment {
	environment.FetchObserver = fetchObserver
	environment.ExtractionObserver = extractionObserver
	return environment
}

// NotionClient builds a content API client. A non-empty credential replaces the configured token.
func (environment Environment) NotionClient(credential string) notion.Client {
	var client notion.Client
	if environment.HTTPClient != nil {
		client = notion.NewClient(environment.HTTPClient)
	} else {
		client = notion.NewClient(nil)
	}
	token := strings.TrimSpace(credential)
	if token == "" {
		token = environment.Configuration.Notion.Token
	}
	return client.
		WithAPIBase(environment.Configuration.Notion.APIBase).
		WithNotionVersion(environment.Configuration.Notion.Version).
		WithUserAgent(utils.ApplicationName).
		WithTimeout(time.Duration(config.IntValue(environment.Configuration.Notion.TimeoutSeconds, 0))*time.Second).
		WithAuthorizationToken(token)
}

// Fetcher builds a tree fetcher reading through NotionClient(credential).
func (environment Environment) Fetcher(credential string) pagetree.Fetcher {
	notionSettings := environment.Configuration.Notion
	return pagetree.NewFetcher(environment.NotionClient(credential), environment.logger()).
		WithPageSize(config.IntValue(notionSettings.PageSize, notion.MaxPageSize)).
		WithConcurrency(config.IntValue(notionSettings.Concurrency, 0)).
		WithObserver(environment.FetchObserver)
}

// Service builds the generation pipeline for one credential.
func (environment Environment) Service(credential string) codegen.Service {
	return codegen.NewService(codegen.Config{
		Fetcher:      environment.Fetcher(credential),
		Builder:      environment.Builder,
		Generator:    environment.Generator,
		Counter:      environment.Counter,
		Logger:       environment.logger(),
		DefaultDepth: config.IntValue(environment.Configuration.Notion.GenerateDepth, pagetree.DefaultGenerateDepth),
		Checkers:     environment.Checkers,
		Observer:     environment.ExtractionObserver,
	})
}

func (environment Environment) logger() *zap.Logger {
	if environment.Logger == nil {
		return zap.NewNop()
	}
	return environment.Logger
}

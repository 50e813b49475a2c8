// Package config loads pagegen settings from YAML files, a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/temirov/pagegen/internal/utils"
)

const (
	// GlobalConfigDirectoryName is the directory under the user's home holding the global configuration.
	GlobalConfigDirectoryName = ".pagegen"
	// GlobalConfigFileName is the global configuration file name.
	GlobalConfigFileName = "config.yaml"
	// LocalConfigFileName is the configuration file looked up in the working directory.
	LocalConfigFileName = ".pagegen.yaml"
	// DotEnvFileName is the dotenv file loaded from the working directory.
	DotEnvFileName = ".env"

	environmentPrefix       = "PAGEGEN"
	environmentNotionToken  = "NOTION_API_KEY"
	environmentAnthropicKey = "ANTHROPIC_API_KEY"

	keyNotionToken         = "notion.token"
	keyNotionAPIBase       = "notion.api_base"
	keyNotionVersion       = "notion.version"
	keyNotionPageSize      = "notion.page_size"
	keyNotionTreeDepth     = "notion.tree_depth"
	keyNotionGenerateDepth = "notion.generate_depth"
	keyNotionConcurrency   = "notion.concurrency"
	keyNotionTimeout       = "notion.timeout_seconds"
	keyAnthropicAPIKey     = "anthropic.api_key"
	keyAnthropicModel      = "anthropic.model"
	keyAnthropicMaxTokens  = "anthropic.max_tokens"
	keyAnthropicBaseURL    = "anthropic.base_url"
	keyServerAddress       = "server.address"
	keyPromptTemplates     = "prompt.templates"
	keyPromptProjectType   = "prompt.project_type"
	keyTokensModel         = "tokens.model"
	keyLogLevel            = "log.level"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
	SkipDotEnv       bool
}

// ApplicationConfiguration holds every configurable setting. Nil pointers mean "not set".
type ApplicationConfiguration struct {
	Notion    NotionConfiguration    `mapstructure:"notion"`
	Anthropic AnthropicConfiguration `mapstructure:"anthropic"`
	Server    ServerConfiguration    `mapstructure:"server"`
	Prompt    PromptConfiguration    `mapstructure:"prompt"`
	Tokens    TokenConfiguration     `mapstructure:"tokens"`
	Log       LogConfiguration       `mapstructure:"log"`
}

// NotionConfiguration configures the content API client and the tree fetcher.
type NotionConfiguration struct {
	Token          string `mapstructure:"token"`
	APIBase        string `mapstructure:"api_base"`
	Version        string `mapstructure:"version"`
	PageSize       *int   `mapstructure:"page_size"`
	TreeDepth      *int   `mapstructure:"tree_depth"`
	GenerateDepth  *int   `mapstructure:"generate_depth"`
	Concurrency    *int   `mapstructure:"concurrency"`
	TimeoutSeconds *int   `mapstructure:"timeout_seconds"`
}

// AnthropicConfiguration configures the text generator.
type AnthropicConfiguration struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens *int   `mapstructure:"max_tokens"`
	BaseURL   string `mapstructure:"base_url"`
}

// ServerConfiguration configures the HTTP command API.
type ServerConfiguration struct {
	Address string `mapstructure:"address"`
}

// PromptConfiguration configures prompt assembly.
type PromptConfiguration struct {
	Templates   string `mapstructure:"templates"`
	ProjectType string `mapstructure:"project_type"`
}

// TokenConfiguration selects the tokenizer used to report prompt sizes.
type TokenConfiguration struct {
	Model string `mapstructure:"model"`
}

// LogConfiguration configures the application logger.
type LogConfiguration struct {
	Level string `mapstructure:"level"`
}

// LoadApplicationConfiguration merges the global file, the local (or explicit) file and the environment,
// in increasing order of precedence. A .env file in the working directory seeds variables that are not
// already set.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, GlobalConfigDirectoryName, GlobalConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if localPath != "" {
		if options.ExplicitFilePath != "" {
			if _, statErr := os.Stat(localPath); statErr != nil {
				return ApplicationConfiguration{}, fmt.Errorf("configuration file %s: %w", localPath, statErr)
			}
		}
		localConfig, loadErr := loadConfigurationFromPath(localPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	if !options.SkipDotEnv {
		if dotEnvErr := loadDotEnv(filepath.Join(workingDirectory, DotEnvFileName)); dotEnvErr != nil {
			return ApplicationConfiguration{}, dotEnvErr
		}
	}
	environmentConfig, environmentErr := loadConfigurationFromEnvironment()
	if environmentErr != nil {
		return ApplicationConfiguration{}, environmentErr
	}
	return merged.Merge(environmentConfig), nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf("resolve configuration path %s: %w", explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, LocalConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType("yaml")
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

func loadDotEnv(path string) error {
	if _, statErr := os.Stat(path); statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, statErr)
	}
	if loadErr := godotenv.Load(path); loadErr != nil {
		return fmt.Errorf("load %s: %w", path, loadErr)
	}
	return nil
}

// loadConfigurationFromEnvironment reads PAGEGEN_<SECTION>_<KEY> variables plus the conventional
// NOTION_API_KEY and ANTHROPIC_API_KEY names.
func loadConfigurationFromEnvironment() (ApplicationConfiguration, error) {
	reader := viper.New()
	reader.SetEnvPrefix(environmentPrefix)
	reader.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	stringKeys := []string{
		keyNotionAPIBase, keyNotionVersion, keyAnthropicModel, keyAnthropicBaseURL,
		keyServerAddress, keyPromptTemplates, keyPromptProjectType, keyTokensModel, keyLogLevel,
	}
	for _, key := range stringKeys {
		if bindErr := reader.BindEnv(key); bindErr != nil {
			return ApplicationConfiguration{}, fmt.Errorf("bind environment for %s: %w", key, bindErr)
		}
	}
	credentialBindings := map[string][]string{
		keyNotionToken:     {environmentPrefix + "_NOTION_TOKEN", environmentNotionToken},
		keyAnthropicAPIKey: {environmentPrefix + "_ANTHROPIC_API_KEY", environmentAnthropicKey},
	}
	for key, environmentNames := range credentialBindings {
		bindArguments := append([]string{key}, environmentNames...)
		if bindErr := reader.BindEnv(bindArguments...); bindErr != nil {
			return ApplicationConfiguration{}, fmt.Errorf("bind environment for %s: %w", key, bindErr)
		}
	}

	config := ApplicationConfiguration{
		Notion: NotionConfiguration{
			Token:   reader.GetString(keyNotionToken),
			APIBase: reader.GetString(keyNotionAPIBase),
			Version: reader.GetString(keyNotionVersion),
		},
		Anthropic: AnthropicConfiguration{
			APIKey:  reader.GetString(keyAnthropicAPIKey),
			Model:   reader.GetString(keyAnthropicModel),
			BaseURL: reader.GetString(keyAnthropicBaseURL),
		},
		Server: ServerConfiguration{Address: reader.GetString(keyServerAddress)},
		Prompt: PromptConfiguration{Templates: reader.GetString(keyPromptTemplates), ProjectType: reader.GetString(keyPromptProjectType)},
		Tokens: TokenConfiguration{Model: reader.GetString(keyTokensModel)},
		Log:    LogConfiguration{Level: reader.GetString(keyLogLevel)},
	}
	integerTargets := map[string]**int{
		keyNotionPageSize:      &config.Notion.PageSize,
		keyNotionTreeDepth:     &config.Notion.TreeDepth,
		keyNotionGenerateDepth: &config.Notion.GenerateDepth,
		keyNotionConcurrency:   &config.Notion.Concurrency,
		keyNotionTimeout:       &config.Notion.TimeoutSeconds,
		keyAnthropicMaxTokens:  &config.Anthropic.MaxTokens,
	}
	for key, target := range integerTargets {
		if bindErr := reader.BindEnv(key); bindErr != nil {
			return ApplicationConfiguration{}, fmt.Errorf("bind environment for %s: %w", key, bindErr)
		}
		if !reader.IsSet(key) {
			continue
		}
		value, castErr := parseInteger(reader.GetString(key))
		if castErr != nil {
			return ApplicationConfiguration{}, fmt.Errorf("environment value for %s: %w", key, castErr)
		}
		*target = &value
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Notion = result.Notion.merge(override.Notion)
	result.Anthropic = result.Anthropic.merge(override.Anthropic)
	result.Server.Address = overrideString(result.Server.Address, override.Server.Address)
	result.Prompt.Templates = overrideString(result.Prompt.Templates, override.Prompt.Templates)
	result.Prompt.ProjectType = overrideString(result.Prompt.ProjectType, override.Prompt.ProjectType)
	result.Tokens.Model = overrideString(result.Tokens.Model, override.Tokens.Model)
	result.Log.Level = overrideString(result.Log.Level, override.Log.Level)
	return result
}

func (config NotionConfiguration) merge(override NotionConfiguration) NotionConfiguration {
	result := config
	result.Token = overrideString(result.Token, override.Token)
	result.APIBase = overrideString(result.APIBase, override.APIBase)
	result.Version = overrideString(result.Version, override.Version)
	if override.PageSize != nil {
		result.PageSize = cloneInt(override.PageSize)
	}
	if override.TreeDepth != nil {
		result.TreeDepth = cloneInt(override.TreeDepth)
	}
	if override.GenerateDepth != nil {
		result.GenerateDepth = cloneInt(override.GenerateDepth)
	}
	if override.Concurrency != nil {
		result.Concurrency = cloneInt(override.Concurrency)
	}
	if override.TimeoutSeconds != nil {
		result.TimeoutSeconds = cloneInt(override.TimeoutSeconds)
	}
	return result
}

func (config AnthropicConfiguration) merge(override AnthropicConfiguration) AnthropicConfiguration {
	result := config
	result.APIKey = overrideString(result.APIKey, override.APIKey)
	result.Model = overrideString(result.Model, override.Model)
	result.BaseURL = overrideString(result.BaseURL, override.BaseURL)
	if override.MaxTokens != nil {
		result.MaxTokens = cloneInt(override.MaxTokens)
	}
	return result
}

// IntValue dereferences value, returning fallback when it is unset.
func IntValue(value *int, fallback int) int {
	if value == nil {
		return fallback
	}
	return *value
}

// LogLevel returns the configured log level or the application default.
func (config ApplicationConfiguration) LogLevel() string {
	if strings.TrimSpace(config.Log.Level) == "" {
		return utils.DefaultLogLevel
	}
	return config.Log.Level
}

func overrideString(current string, override string) string {
	if strings.TrimSpace(override) == "" {
		return current
	}
	return strings.TrimSpace(override)
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

// Package cli provides the command line interface.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/pagegen/internal/commands"
	"github.com/temirov/pagegen/internal/config"
	"github.com/temirov/pagegen/internal/services/clipboard"
	"github.com/temirov/pagegen/internal/types"
	"github.com/temirov/pagegen/internal/utils"
)

const (
	configFlagName       = "config"
	versionFlagName      = "version"
	notionTokenFlagName  = "notion-token"
	logLevelFlagName     = "log-level"
	formatFlagName       = "format"
	depthFlagName        = "depth"
	projectTypeFlagName  = "project-type"
	tokensFlagName       = "tokens"
	outFlagName          = "out"
	copyFlagName         = "copy"
	addressFlagName      = "address"
	stdioFlagName        = "stdio"
	globalFlagName       = "global"
	forceFlagName        = "force"
	versionTemplate      = utils.ApplicationName + " version: %s\n"
	rootUse              = utils.ApplicationName
	rootShortDescription = "generate project source code from Notion documentation"
	rootLongDescription  = `pagegen fetches a Notion page tree, flattens it into a markdown prompt, asks Claude for a project
and extracts the generated files from the completion.
Credentials come from --notion-token, NOTION_API_KEY and ANTHROPIC_API_KEY, a .env file or the configuration files.`
	configFlagDescription      = "configuration file (default ./.pagegen.yaml)"
	versionFlagDescription     = "display application version"
	notionTokenFlagDescription = "Notion integration token, overrides configuration"
	logLevelFlagDescription    = "log level (debug, info, warn, error)"
	formatFlagDescription      = "output format"
	treeDepthFlagDescription   = "levels of subpages to follow (default from configuration, 2)"
	promptDepthFlagDescription = "levels of subpages to follow (default from configuration, 3)"
	projectTypeFlagDescription = "kind of project to generate (default React)"
	tokensFlagDescription      = "report token counts"
	outFlagDescription         = "write the extracted files below this directory"
	copyFlagDescription        = "copy the primary output to the clipboard"
	addressFlagDescription     = "listen address for the HTTP command API"
	stdioFlagDescription       = "serve MCP tools over stdin and stdout instead of HTTP"
	globalFlagDescription      = "write the configuration to the home directory"
	forceFlagDescription       = "overwrite an existing configuration file"
	invalidFormatMessage       = "invalid format value '%s'"
	clipboardCopyErrorFormat   = "copy output to clipboard: %w"
	stdinArgument              = "-"
)

// dependencies are the process resources commands read and write.
type dependencies struct {
	clipboard        clipboard.Copier
	stdin            io.Reader
	workingDirectory string
}

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath  string
	showVersion bool
	notionToken string
	logLevel    string
}

type application struct {
	options      *rootOptions
	dependencies dependencies
}

// Execute runs the pagegen application.
func Execute() error {
	rootCommand := createRootCommand(dependencies{clipboard: clipboard.NewService(), stdin: os.Stdin})
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func createRootCommand(deps dependencies) *cobra.Command {
	app := &application{options: &rootOptions{}, dependencies: deps}

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if app.options.showVersion {
				return printVersion(command)
			}
			return command.Help()
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			if app.options.showVersion && command.HasParent() {
				return printVersion(command)
			}
			return nil
		},
	}
	persistentFlags := rootCommand.PersistentFlags()
	persistentFlags.StringVar(&app.options.configPath, configFlagName, "", configFlagDescription)
	registerBooleanFlag(persistentFlags, &app.options.showVersion, versionFlagName, false, versionFlagDescription)
	persistentFlags.StringVar(&app.options.notionToken, notionTokenFlagName, "", notionTokenFlagDescription)
	persistentFlags.StringVar(&app.options.logLevel, logLevelFlagName, "", logLevelFlagDescription)
	rootCommand.AddCommand(
		app.createTreeCommand(),
		app.createPagesCommand(),
		app.createPromptCommand(),
		app.createGenerateCommand(),
		app.createExtractCommand(),
		app.createServeCommand(),
		app.createInitCommand(),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

func printVersion(command *cobra.Command) error {
	fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
	os.Exit(0)
	return nil
}

// loadConfiguration resolves the configuration files and environment, then applies the persistent flags.
func (app *application) loadConfiguration() (config.ApplicationConfiguration, error) {
	configuration, loadErr := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: app.dependencies.workingDirectory,
		ExplicitFilePath: app.options.configPath,
	})
	if loadErr != nil {
		return config.ApplicationConfiguration{}, loadErr
	}
	return configuration.Merge(config.ApplicationConfiguration{
		Notion: config.NotionConfiguration{Token: app.options.notionToken},
		Log:    config.LogConfiguration{Level: app.options.logLevel},
	}), nil
}

// withEnvironment builds the command environment and logger, runs action and flushes the logger.
func (app *application) withEnvironment(action func(environment commands.Environment) error) error {
	configuration, configurationErr := app.loadConfiguration()
	if configurationErr != nil {
		return configurationErr
	}
	logger, loggerErr := utils.NewApplicationLogger(configuration.LogLevel())
	if loggerErr != nil {
		return loggerErr
	}
	defer func() {
		_ = logger.Sync()
	}()
	environment, environmentErr := commands.NewEnvironment(configuration, logger)
	if environmentErr != nil {
		return environmentErr
	}
	logger.Debug("configuration loaded",
		zap.Bool("notion_credential", strings.TrimSpace(configuration.Notion.Token) != ""),
		zap.Bool("generator", environment.Generator != nil),
	)
	return action(environment)
}

// emitOutput writes rendered to the command output and, when requested, to the clipboard.
func (app *application) emitOutput(command *cobra.Command, rendered string, copyEnabled bool) error {
	writer := command.OutOrStdout()
	if _, writeErr := fmt.Fprint(writer, rendered); writeErr != nil {
		return writeErr
	}
	if !strings.HasSuffix(rendered, "\n") {
		if _, writeErr := fmt.Fprintln(writer); writeErr != nil {
			return writeErr
		}
	}
	if !copyEnabled {
		return nil
	}
	if app.dependencies.clipboard == nil {
		return fmt.Errorf(clipboardCopyErrorFormat, clipboard.ErrUnavailable)
	}
	if copyErr := app.dependencies.clipboard.Copy(rendered); copyErr != nil {
		return fmt.Errorf(clipboardCopyErrorFormat, copyErr)
	}
	return nil
}

// normalizeFormat lowercases format and checks it against the formats a command accepts.
func normalizeFormat(format string, supported ...string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(format))
	for _, candidate := range supported {
		if normalized == candidate {
			return normalized, nil
		}
	}
	return "", fmt.Errorf(invalidFormatMessage, format)
}

func formatFlagUsage(supported ...string) string {
	return formatFlagDescription + " (" + strings.Join(supported, ", ") + ")"
}

var (
	treeFormats     = []string{types.FormatJSON, types.FormatRaw}
	promptFormats   = []string{types.FormatRaw, types.FormatJSON, types.FormatHTML}
	generateFormats = []string{types.FormatJSON, types.FormatRaw}
)

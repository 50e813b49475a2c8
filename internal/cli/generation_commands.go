package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/pagegen/internal/commands"
	"github.com/temirov/pagegen/internal/completion"
	"github.com/temirov/pagegen/internal/lint"
	"github.com/temirov/pagegen/internal/output"
	"github.com/temirov/pagegen/internal/prompt"
	"github.com/temirov/pagegen/internal/tokenizer"
	"github.com/temirov/pagegen/internal/types"
)

const (
	promptUse              = "prompt <page-id>..."
	promptAlias            = "p"
	promptShortDescription = "build the generation prompt from Notion pages (" + promptAlias + ")"
	promptLongDescription  = `Fetch Notion pages with their subpages, flatten them into markdown and print the prompt sent to the model.
Use --format html to preview the flattened documentation and --tokens to report the prompt size.`
	promptUsageExample = `  # Print the prompt and copy it to the clipboard
  pagegen prompt 0123456789abcdef0123456789abcdef --copy

  # Preview the documentation of two pages as HTML
  pagegen prompt 0123456789abcdef0123456789abcdef fedcba9876543210fedcba9876543210 --format html`

	generateUse              = "generate <page-id>..."
	generateAlias            = "g"
	generateShortDescription = "generate project files from Notion pages (" + generateAlias + ")"
	generateLongDescription  = `Fetch Notion pages, ask the model for a project and extract the generated files.
Use --out to write the files to a directory. Diagnostics from syntax checks are reported as warnings.`
	generateUsageExample = `  # Generate a Vue project into ./app
  pagegen generate 0123456789abcdef0123456789abcdef --project-type Vue --out app --format raw`

	extractUse              = "extract [file|-]"
	extractAlias            = "x"
	extractShortDescription = "extract files from a saved completion (" + extractAlias + ")"
	extractLongDescription  = `Run the file extractor over a completion read from a file or standard input.`

	promptTokensFormat     = "Prompt tokens: %d (model: %s)\n"
	wroteFilesFormat       = "Wrote %d files to %s\n"
	extractionWarning      = "Warning: %s\n"
	readCompletionErrorFmt = "read completion from %s: %w"
	standardInputLabel     = "standard input"
)

func (app *application) createPromptCommand() *cobra.Command {
	var outputFormat string
	var projectType string
	var depth int
	var tokensEnabled bool
	var copyEnabled bool

	promptCommand := &cobra.Command{
		Use:     promptUse,
		Aliases: []string{promptAlias},
		Short:   promptShortDescription,
		Long:    promptLongDescription,
		Example: promptUsageExample,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			format, formatErr := normalizeFormat(outputFormat, promptFormats...)
			if formatErr != nil {
				return formatErr
			}
			return app.withEnvironment(func(environment commands.Environment) error {
				if tokensEnabled {
					environment = environment.WithTokenCounter()
				}
				result, promptErr := commands.Prompt(command.Context(), environment, "", generationRequest(command, arguments, projectType, depth))
				if promptErr != nil {
					return promptErr
				}
				var rendered string
				switch format {
				case types.FormatHTML:
					html, renderErr := prompt.RenderHTML(result.Prompt.Documentation)
					if renderErr != nil {
						return renderErr
					}
					rendered = html
				case types.FormatJSON:
					encoded, renderErr := output.RenderJSON(result)
					if renderErr != nil {
						return renderErr
					}
					rendered = encoded
				default:
					rendered = result.Prompt.User
				}
				if tokensEnabled && result.TokenModel != "" && format != types.FormatJSON {
					fmt.Fprintf(command.ErrOrStderr(), promptTokensFormat, result.PromptTokens, result.TokenModel)
				}
				return app.emitOutput(command, rendered, copyEnabled)
			})
		},
	}
	promptCommand.Flags().StringVar(&outputFormat, formatFlagName, types.FormatRaw, formatFlagUsage(promptFormats...))
	promptCommand.Flags().StringVar(&projectType, projectTypeFlagName, "", projectTypeFlagDescription)
	promptCommand.Flags().IntVar(&depth, depthFlagName, 0, promptDepthFlagDescription)
	registerBooleanFlag(promptCommand.Flags(), &tokensEnabled, tokensFlagName, false, tokensFlagDescription)
	registerCopyFlag(promptCommand.Flags(), &copyEnabled)
	return promptCommand
}

func (app *application) createGenerateCommand() *cobra.Command {
	var outputFormat string
	var projectType string
	var outDirectory string
	var depth int
	var tokensEnabled bool
	var copyEnabled bool

	generateCommand := &cobra.Command{
		Use:     generateUse,
		Aliases: []string{generateAlias},
		Short:   generateShortDescription,
		Long:    generateLongDescription,
		Example: generateUsageExample,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			format, formatErr := normalizeFormat(outputFormat, generateFormats...)
			if formatErr != nil {
				return formatErr
			}
			return app.withEnvironment(func(environment commands.Environment) error {
				if tokensEnabled {
					environment = environment.WithTokenCounter()
				}
				generation, generateErr := commands.Generate(command.Context(), environment, "", generationRequest(command, arguments, projectType, depth))
				if generateErr != nil {
					return generateErr
				}
				if !generation.Result.Extracted {
					fmt.Fprintf(command.ErrOrStderr(), extractionWarning, generation.Result.Message)
				}
				if writeErr := writeExtractedFiles(command, outDirectory, generation.Result.Files); writeErr != nil {
					return writeErr
				}
				if format == types.FormatJSON {
					rendered, renderErr := output.RenderJSON(generation)
					if renderErr != nil {
						return renderErr
					}
					return app.emitOutput(command, rendered, copyEnabled)
				}
				fileTokens, totalTokens := countFileTokens(environment, generation.Result.Files)
				rendered := renderFilesRaw(generation.Result.Files, fileTokens, totalTokens, counterName(environment.Counter), generation.Diagnostics)
				return app.emitOutput(command, rendered, copyEnabled)
			})
		},
	}
	generateCommand.Flags().StringVar(&outputFormat, formatFlagName, types.FormatJSON, formatFlagUsage(generateFormats...))
	generateCommand.Flags().StringVar(&projectType, projectTypeFlagName, "", projectTypeFlagDescription)
	generateCommand.Flags().StringVar(&outDirectory, outFlagName, "", outFlagDescription)
	generateCommand.Flags().IntVar(&depth, depthFlagName, 0, promptDepthFlagDescription)
	registerBooleanFlag(generateCommand.Flags(), &tokensEnabled, tokensFlagName, false, tokensFlagDescription)
	registerCopyFlag(generateCommand.Flags(), &copyEnabled)
	return generateCommand
}

func (app *application) createExtractCommand() *cobra.Command {
	var outputFormat string
	var outDirectory string
	var tokensEnabled bool

	extractCommand := &cobra.Command{
		Use:     extractUse,
		Aliases: []string{extractAlias},
		Short:   extractShortDescription,
		Long:    extractLongDescription,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			format, formatErr := normalizeFormat(outputFormat, generateFormats...)
			if formatErr != nil {
				return formatErr
			}
			completionText, readErr := app.readCompletion(arguments)
			if readErr != nil {
				return readErr
			}
			return app.withEnvironment(func(environment commands.Environment) error {
				if tokensEnabled {
					environment = environment.WithTokenCounter()
				}
				result, extractErr := commands.Extract(command.Context(), environment, commands.ExtractRequest{Completion: completionText})
				if extractErr != nil {
					return extractErr
				}
				if !result.Extracted {
					fmt.Fprintf(command.ErrOrStderr(), extractionWarning, result.Message)
				}
				if writeErr := writeExtractedFiles(command, outDirectory, result.Files); writeErr != nil {
					return writeErr
				}
				if format == types.FormatJSON {
					rendered, renderErr := output.RenderJSON(result)
					if renderErr != nil {
						return renderErr
					}
					return app.emitOutput(command, rendered, false)
				}
				rendered := renderFilesRaw(result.Files, result.FileTokens, result.TotalTokens, counterName(environment.Counter), result.Diagnostics)
				return app.emitOutput(command, rendered, false)
			})
		},
	}
	extractCommand.Flags().StringVar(&outputFormat, formatFlagName, types.FormatJSON, formatFlagUsage(generateFormats...))
	extractCommand.Flags().StringVar(&outDirectory, outFlagName, "", outFlagDescription)
	registerBooleanFlag(extractCommand.Flags(), &tokensEnabled, tokensFlagName, false, tokensFlagDescription)
	return extractCommand
}

// generationRequest selects the configured generation depth unless --depth was given.
func generationRequest(command *cobra.Command, pageIDs []string, projectType string, depth int) commands.GenerationRequest {
	request := commands.GenerationRequest{PageIDs: pageIDs, ProjectType: projectType}
	if command.Flags().Changed(depthFlagName) {
		request.Depth = &depth
	}
	return request
}

// readCompletion reads the completion named by arguments: a file path, "-" or nothing for standard input.
func (app *application) readCompletion(arguments []string) (string, error) {
	if len(arguments) == 0 || arguments[0] == stdinArgument {
		reader := app.dependencies.stdin
		if reader == nil {
			reader = os.Stdin
		}
		content, readErr := io.ReadAll(reader)
		if readErr != nil {
			return "", fmt.Errorf(readCompletionErrorFmt, standardInputLabel, readErr)
		}
		return string(content), nil
	}
	content, readErr := os.ReadFile(arguments[0])
	if readErr != nil {
		return "", fmt.Errorf(readCompletionErrorFmt, arguments[0], readErr)
	}
	return string(content), nil
}

func writeExtractedFiles(command *cobra.Command, directory string, files map[string]string) error {
	if strings.TrimSpace(directory) == "" {
		return nil
	}
	written, writeErr := completion.WriteFiles(directory, files)
	if writeErr != nil {
		return writeErr
	}
	fmt.Fprintf(command.ErrOrStderr(), wroteFilesFormat, len(written), directory)
	return nil
}

func countFileTokens(environment commands.Environment, files map[string]string) (map[string]int, int) {
	if environment.Counter == nil {
		return nil, 0
	}
	fileTokens, totalTokens, countErr := tokenizer.CountFiles(environment.Counter, files)
	if countErr != nil {
		environment.Logger.Warn("failed to count file tokens", zap.Error(countErr))
		return nil, 0
	}
	return fileTokens, totalTokens
}

func counterName(counter tokenizer.Counter) string {
	if counter == nil {
		return ""
	}
	return counter.Name()
}

// renderFilesRaw renders the file tree, a summary, diagnostics and then every file under a "// File:" marker,
// which the extract command reads back.
func renderFilesRaw(files map[string]string, fileTokens map[string]int, totalTokens int, model string, diagnostics []lint.Diagnostic) string {
	var builder strings.Builder
	output.WriteFileTreeRaw(&builder, completion.BuildFileTree(files), fileTokens)
	builder.WriteString(output.FormatSummaryLine(output.SummarizeFiles(files, totalTokens, model)))
	builder.WriteString("\n")
	output.WriteDiagnosticsRaw(&builder, diagnostics)
	builder.WriteString("\n")
	builder.WriteString(completion.MarkerDocument(files))
	return builder.String()
}

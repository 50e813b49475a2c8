package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/temirov/pagegen/internal/commands"
	"github.com/temirov/pagegen/internal/output"
	"github.com/temirov/pagegen/internal/types"
)

const (
	treeUse              = "tree <page-id>"
	treeAlias            = "t"
	treeShortDescription = "display a Notion page tree (" + treeAlias + ")"
	treeLongDescription  = `Fetch a Notion page and its subpages and print the outline.
Use --depth to bound how many levels of subpages are followed and --format to select json or raw output.`
	treeUsageExample = `  # Print the outline of a page and two levels of subpages
  pagegen tree 0123456789abcdef0123456789abcdef --format raw

  # Only the page itself
  pagegen tree https://www.notion.so/Spec-0123456789abcdef0123456789abcdef --depth 0`

	pagesUse              = types.CommandPages
	pagesShortDescription = "list pages shared with the integration"
)

func (app *application) createTreeCommand() *cobra.Command {
	var outputFormat string
	var depth int

	treeCommand := &cobra.Command{
		Use:     treeUse,
		Aliases: []string{treeAlias},
		Short:   treeShortDescription,
		Long:    treeLongDescription,
		Example: treeUsageExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			format, formatErr := normalizeFormat(outputFormat, treeFormats...)
			if formatErr != nil {
				return formatErr
			}
			request := commands.TreeRequest{PageID: arguments[0]}
			if command.Flags().Changed(depthFlagName) {
				request.Depth = &depth
			}
			return app.withEnvironment(func(environment commands.Environment) error {
				result, treeErr := commands.Tree(command.Context(), environment, "", request)
				if treeErr != nil {
					return treeErr
				}
				if format == types.FormatRaw {
					output.WriteOutlineRaw(command.OutOrStdout(), result.Outline)
					return nil
				}
				rendered, renderErr := output.RenderJSON(result)
				if renderErr != nil {
					return renderErr
				}
				return app.emitOutput(command, rendered, false)
			})
		},
	}
	treeCommand.Flags().StringVar(&outputFormat, formatFlagName, types.FormatJSON, formatFlagUsage(treeFormats...))
	treeCommand.Flags().IntVar(&depth, depthFlagName, 0, treeDepthFlagDescription)
	return treeCommand
}

func (app *application) createPagesCommand() *cobra.Command {
	var outputFormat string

	pagesCommand := &cobra.Command{
		Use:   pagesUse,
		Short: pagesShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			format, formatErr := normalizeFormat(outputFormat, treeFormats...)
			if formatErr != nil {
				return formatErr
			}
			return app.withEnvironment(func(environment commands.Environment) error {
				summaries, pagesErr := commands.Pages(command.Context(), environment, "")
				if pagesErr != nil {
					return pagesErr
				}
				if format == types.FormatRaw {
					output.WritePagesRaw(command.OutOrStdout(), summaries, time.Local)
					return nil
				}
				rendered, renderErr := output.RenderJSON(summaries)
				if renderErr != nil {
					return renderErr
				}
				return app.emitOutput(command, rendered, false)
			})
		},
	}
	pagesCommand.Flags().StringVar(&outputFormat, formatFlagName, types.FormatRaw, formatFlagUsage(treeFormats...))
	return pagesCommand
}

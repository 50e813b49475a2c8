package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/temirov/pagegen/internal/commands"
	"github.com/temirov/pagegen/internal/completion"
	"github.com/temirov/pagegen/internal/config"
	"github.com/temirov/pagegen/internal/services/api"
	"github.com/temirov/pagegen/internal/services/tools"
	"github.com/temirov/pagegen/internal/types"
)

const (
	serveUse              = types.CommandServe
	serveShortDescription = "serve the command API over HTTP or MCP tools over stdio"
	serveLongDescription  = `Serve tree, prompt, generate, extract and pages as POST /commands/<name> endpoints with Prometheus metrics on /metrics.
Callers pass their own Notion integration token in the Notion-API-Key header. With --stdio the tools are served to an MCP client instead.`

	initUse              = types.CommandInit
	initShortDescription = "write a default configuration file"

	defaultServeAddress  = "127.0.0.1:8080"
	listeningMessage     = "pagegen API listening on "
	configurationWritten = "Configuration written to %s\n"
)

func (app *application) createServeCommand() *cobra.Command {
	var address string
	var stdioEnabled bool

	serveCommand := &cobra.Command{
		Use:   serveUse,
		Short: serveShortDescription,
		Long:  serveLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return app.withEnvironment(func(environment commands.Environment) error {
				if stdioEnabled {
					return tools.ServeStdio(environment)
				}
				listenAddress := strings.TrimSpace(address)
				if listenAddress == "" {
					listenAddress = strings.TrimSpace(environment.Configuration.Server.Address)
				}
				if listenAddress == "" {
					listenAddress = defaultServeAddress
				}
				ctx, stop := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return startAPIServer(ctx, environment, listenAddress, command.OutOrStdout())
			})
		},
	}
	serveCommand.Flags().StringVar(&address, addressFlagName, "", addressFlagDescription)
	registerBooleanFlag(serveCommand.Flags(), &stdioEnabled, stdioFlagName, false, stdioFlagDescription)
	return serveCommand
}

// startAPIServer runs the HTTP command API until ctx is cancelled, reporting the bound address to writer.
func startAPIServer(ctx context.Context, environment commands.Environment, address string, writer io.Writer) error {
	metrics := api.NewMetrics()
	environment = environment.WithObservers(metrics.ObservePageFetch, func(result completion.Result) {
		metrics.ObserveExtraction(result.Strategy, result.Extracted)
	})
	server := api.NewServer(api.Config{
		Address:      address,
		Capabilities: apiCapabilities(),
		Executors:    apiCommandExecutors(environment),
		Logger:       environment.Logger,
		Metrics:      metrics,
	})
	return server.Run(ctx, func(boundAddress string) {
		fmt.Fprintln(writer, listeningMessage+boundAddress)
	})
}

func (app *application) createInitCommand() *cobra.Command {
	var globalEnabled bool
	var forceEnabled bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if globalEnabled {
				target = config.InitTargetGlobal
			}
			destinationPath, initErr := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            forceEnabled,
				WorkingDirectory: app.dependencies.workingDirectory,
			})
			if initErr != nil {
				return initErr
			}
			fmt.Fprintf(command.OutOrStdout(), configurationWritten, destinationPath)
			return nil
		},
	}
	registerBooleanFlag(initCommand.Flags(), &globalEnabled, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &forceEnabled, forceFlagName, false, forceFlagDescription)
	return initCommand
}

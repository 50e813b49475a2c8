package main

import (
	"fmt"

	"github.com/temirov/pagegen/internal/cli"
	"github.com/temirov/pagegen/internal/utils"
)

// main is the entry point for the pagegen command.
func main() {
	logger, loggerErr := utils.NewApplicationLogger(utils.DefaultLogLevel)
	if loggerErr != nil {
		panic(fmt.Errorf("initialize logger: %w", loggerErr))
	}
	defer func() {
		_ = logger.Sync()
	}()
	if executeErr := cli.Execute(); executeErr != nil {
		logger.Fatal(fmt.Sprintf(utils.ErrorLogFormat, executeErr))
	}
}

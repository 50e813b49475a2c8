// Package utils provides logging, version and formatting helpers shared by the commands.
package utils

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"strings"
)

const (
	unknownVersion      = "unknown"
	developmentVersion  = "(devel)"
	gitExecutable       = "git"
	gitDescribeCommand  = "describe"
	gitDescribeTagsFlag = "--tags"
)

// Version may be set at link time with -ldflags "-X github.com/temirov/pagegen/internal/utils.Version=v1.2.3".
var Version = ""

// GetApplicationVersion reports the link-time version, then the module build version, then the
// closest git tag of the working copy.
func GetApplicationVersion() string {
	if trimmed := strings.TrimSpace(Version); trimmed != "" {
		return trimmed
	}
	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if buildInfoAvailable && buildInfo.Main.Version != "" && buildInfo.Main.Version != developmentVersion {
		return buildInfo.Main.Version
	}
	repositoryRoot, lookupErr := findRepositoryRoot(".")
	if lookupErr != nil {
		return unknownVersion
	}
	for _, describeArguments := range [][]string{
		{gitDescribeCommand, gitDescribeTagsFlag, "--exact-match"},
		{gitDescribeCommand, gitDescribeTagsFlag, "--long", "--dirty"},
	} {
		// #nosec G204
		command := exec.Command(gitExecutable, describeArguments...)
		command.Dir = repositoryRoot
		output, describeErr := command.Output()
		if describeErr == nil && len(strings.TrimSpace(string(output))) > 0 {
			return strings.TrimSpace(string(output))
		}
	}
	return unknownVersion
}

func findRepositoryRoot(startDirectory string) (string, error) {
	absoluteStart, absoluteErr := filepath.Abs(startDirectory)
	if absoluteErr != nil {
		return "", fmt.Errorf("resolve %s: %w", startDirectory, absoluteErr)
	}
	for currentDirectory := absoluteStart; ; {
		information, statErr := os.Stat(filepath.Join(currentDirectory, GitDirectoryName))
		if statErr == nil && information.IsDir() {
			return currentDirectory, nil
		}
		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			return "", fmt.Errorf("%s directory not found in or above %s", GitDirectoryName, absoluteStart)
		}
		currentDirectory = parentDirectory
	}
}

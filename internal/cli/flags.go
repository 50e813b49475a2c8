package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	toggleFlagTypeName      = "bool"
	toggleLiteralsListing   = "true, false, yes, no, on, off, 1, 0"
	toggleInvalidValueLabel = "invalid boolean value"
	longFlagPrefix          = "--"
	flagTerminator          = "--"
	flagValueSeparator      = "="
)

// parseToggleLiteral reads the literals accepted after a toggle flag. An empty value means the flag
// was given bare and switches the toggle on.
func parseToggleLiteral(input string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", "true", "t", "1", "yes", "y", "on":
		return true, true
	case "false", "f", "0", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

// toggleValue is a pflag.Value for switches such as --copy and --tokens.
type toggleValue struct {
	target *bool
	name   string
}

func (value *toggleValue) Set(input string) error {
	parsed, recognized := parseToggleLiteral(input)
	if !recognized || value.target == nil {
		return fmt.Errorf("%s %q for --%s; accepted values: %s", toggleInvalidValueLabel, input, value.name, toggleLiteralsListing)
	}
	*value.target = parsed
	return nil
}

func (value *toggleValue) String() string {
	if value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *toggleValue) Type() string {
	return toggleFlagTypeName
}

func registerBooleanFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	if flagSet == nil || target == nil {
		return
	}
	*target = defaultValue
	flag := flagSet.VarPF(&toggleValue{target: target, name: name}, name, "", usage)
	flag.DefValue = strconv.FormatBool(defaultValue)
	flag.NoOptDefVal = strconv.FormatBool(true)
}

// registerCopyFlag adds --copy, which sends the primary output to the clipboard as well as stdout.
func registerCopyFlag(flagSet *pflag.FlagSet, target *bool) {
	registerBooleanFlag(flagSet, target, copyFlagName, false, copyFlagDescription)
}

// normalizeBooleanFlagArguments joins "--copy no" into "--copy=no" for toggle flags anywhere in the command
// tree. Only a recognized literal is joined, so "--copy <page-id>" leaves the page id positional.
func normalizeBooleanFlagArguments(command *cobra.Command, arguments []string) []string {
	toggles := toggleFlagNames(command)
	if len(toggles) == 0 {
		return arguments
	}
	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		argument := arguments[index]
		if argument == flagTerminator {
			return append(normalized, arguments[index:]...)
		}
		name, isLongFlag := strings.CutPrefix(argument, longFlagPrefix)
		if !isLongFlag || strings.Contains(name, flagValueSeparator) || !toggles[name] || index+1 >= len(arguments) {
			normalized = append(normalized, argument)
			continue
		}
		candidate := arguments[index+1]
		if _, recognized := parseToggleLiteral(candidate); recognized && strings.TrimSpace(candidate) != "" && !strings.HasPrefix(candidate, "-") {
			normalized = append(normalized, longFlagPrefix+name+flagValueSeparator+candidate)
			index++
			continue
		}
		normalized = append(normalized, argument)
	}
	return normalized
}

// toggleFlagNames lists the toggle flags registered on command and all of its subcommands.
func toggleFlagNames(command *cobra.Command) map[string]bool {
	names := map[string]bool{}
	if command == nil {
		return names
	}
	pending := []*cobra.Command{command}
	for len(pending) > 0 {
		current := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		for _, flagSet := range []*pflag.FlagSet{current.PersistentFlags(), current.Flags()} {
			flagSet.VisitAll(func(flag *pflag.Flag) {
				if _, isToggle := flag.Value.(*toggleValue); isToggle {
					names[flag.Name] = true
				}
			})
		}
		pending = append(pending, current.Commands()...)
	}
	return names
}

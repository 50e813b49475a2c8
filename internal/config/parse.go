package config

import (
	"fmt"
	"strconv"
	"strings"
)

func parseInteger(raw string) (int, error) {
	value, parseErr := strconv.Atoi(strings.TrimSpace(raw))
	if parseErr != nil {
		return 0, fmt.Errorf("%q is not an integer", raw)
	}
	return value, nil
}

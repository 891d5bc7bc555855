package validate

import "strings"

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

func ID(value string) bool {
	value = strings.TrimSpace(value)
	return value != "" && len(value) <= 64
}

package exporter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"flowcli/pkg/contracts/domain"
)

// formatFloat formats a float64 with at most 6 decimals and no trailing zeros
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// formatValue renders one cell of a report table as CSV text
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return formatInt(x)
	case int:
		return formatInt(int64(x))
	case float64:
		return formatFloat(x)
	case bool:
		return formatBool(x)
	case time.Time:
		return x.UTC().Format(domain.TimestampLayout)
	default:
		return fmt.Sprint(x)
	}
}

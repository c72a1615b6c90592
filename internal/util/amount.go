package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	amountPattern = regexp.MustCompile(`(?:^|[^0-9.,])(\d{1,3}(?:[\s,]\d{3})+(?:\.\d+)?|\d+(?:[.,]\d+)?)`)
	moneyPattern  = regexp.MustCompile(`-?\d+\.\d{2}`)
	datePattern   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

type ParsedAmount struct {
	Amount *float64
	Raw    *string
}

// ParseAmount pulls the last monetary-looking number out of a line.
// Handles thousand separators ("1,234.56", "1 234") and bare decimals.
func ParseAmount(input string) ParsedAmount {
	line := strings.ReplaceAll(input, "\u00A0", " ")

	matches := amountPattern.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return ParsedAmount{}
	}
	raw := strings.TrimSpace(matches[len(matches)-1][1])
	norm := normalizeNumericToken(raw)
	parsed, err := strconv.ParseFloat(norm, 64)
	if err != nil {
		return ParsedAmount{}
	}
	return ParsedAmount{Amount: FloatPtr(parsed), Raw: StringPtr(raw)}
}

// FindMoney returns every d+.dd token in order of appearance.
func FindMoney(text string) []string {
	return moneyPattern.FindAllString(text, -1)
}

// FindISODates returns every yyyy-mm-dd token in order of appearance.
func FindISODates(text string) []string {
	return datePattern.FindAllString(text, -1)
}

func normalizeNumericToken(token string) string {
	compact := strings.ReplaceAll(token, " ", "")
	if regexp.MustCompile(`^\d{1,3}(?:,\d{3})+(?:\.\d+)?$`).MatchString(compact) {
		return strings.ReplaceAll(compact, ",", "")
	}
	if strings.Contains(compact, ",") && !strings.Contains(compact, ".") {
		return strings.ReplaceAll(compact, ",", ".")
	}
	return compact
}

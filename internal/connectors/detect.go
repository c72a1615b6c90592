package connectors

import (
	"strings"

	"reconmail/internal/util"
)

type DetectResult struct {
	IsFinancial bool
	Score       float64
}

// DetectFinancial scores how financial-looking a message is: keyword hits
// in subject weigh most, body and sender less, with small boosts for
// monetary amounts and document attachments. Any single keyword hit is
// enough to clear the threshold.
func DetectFinancial(subject, body, sender string, attachmentNames, keywords []string) DetectResult {
	subject = strings.ToLower(subject)
	body = strings.ToLower(body)
	sender = strings.ToLower(sender)

	score := 0.0
	for _, kw := range keywords {
		if strings.Contains(subject, kw) {
			score += 0.3
		}
		if strings.Contains(body, kw) {
			score += 0.2
		}
		if strings.Contains(sender, kw) {
			score += 0.2
		}
	}

	if len(util.FindMoney(body)) > 0 {
		score += 0.1
	}

	for _, name := range attachmentNames {
		ln := strings.ToLower(name)
		if strings.HasSuffix(ln, ".pdf") || strings.HasSuffix(ln, ".xlsx") || strings.HasSuffix(ln, ".xls") || strings.HasSuffix(ln, ".csv") {
			score += 0.1
			break
		}
	}

	if score > 1 {
		score = 1
	}

	return DetectResult{IsFinancial: score >= 0.2, Score: score}
}

package connectors

import "testing"

var testKeywords = []string{"receipt", "invoice", "payment", "statement"}

func TestDetectFinancialKeywordInSubject(t *testing.T) {
	res := DetectFinancial("Your invoice for February", "thanks for your business", "noreply@acme.example", nil, testKeywords)
	if !res.IsFinancial {
		t.Fatalf("subject keyword must pass, score=%v", res.Score)
	}
}

func TestDetectFinancialIgnoresChatter(t *testing.T) {
	res := DetectFinancial("Team lunch on Friday?", "see you at noon", "colleague@example.com", nil, testKeywords)
	if res.IsFinancial {
		t.Fatalf("plain chatter must not pass, score=%v", res.Score)
	}
}

func TestDetectFinancialAttachmentAndMoneyBoosts(t *testing.T) {
	plain := DetectFinancial("Document", "here it is", "a@b.c", nil, testKeywords)
	boosted := DetectFinancial("Document", "total came to 42.50 this month", "a@b.c", []string{"statement.pdf"}, testKeywords)
	if boosted.Score <= plain.Score {
		t.Fatalf("money plus pdf attachment must raise the score: %v vs %v", boosted.Score, plain.Score)
	}
	if !boosted.IsFinancial {
		t.Fatalf("money plus document attachment should pass, score=%v", boosted.Score)
	}
}

func TestDetectFinancialScoreClamped(t *testing.T) {
	res := DetectFinancial(
		"invoice receipt payment statement",
		"invoice receipt payment statement 42.50",
		"invoice@payment.example",
		[]string{"invoice.pdf"},
		testKeywords,
	)
	if res.Score > 1 {
		t.Fatalf("score must clamp at 1, got %v", res.Score)
	}
}

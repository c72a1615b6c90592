// Package match scores statement records against a fetched email corpus.
package match

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"reconmail/internal"
	"reconmail/internal/util"
)

type Options struct {
	// SubstringBonus is added when the record's merchant string occurs
	// literally in the email's subject or body.
	SubstringBonus float64
}

func DefaultOptions() Options {
	return Options{SubstringBonus: 0.3}
}

// Matcher is the two-argument matching contract: score one record against
// a corpus and return the best candidate with its confidence.
type Matcher interface {
	Match(record internal.Record, corpus []internal.EmailRecord) (*internal.EmailRecord, float64)
}

// Heuristic is the default pure matcher. It has no I/O and is fully
// deterministic for a fixed record and corpus; ties break on corpus order.
type Heuristic struct {
	opts Options
}

func NewHeuristic(opts Options) *Heuristic {
	return &Heuristic{opts: opts}
}

func (h *Heuristic) Match(record internal.Record, corpus []internal.EmailRecord) (*internal.EmailRecord, float64) {
	if len(corpus) == 0 {
		return nil, 0.0
	}

	recordText := RecordText(record)
	merchant := util.NormalizeText(record.Merchant())

	bestScore := 0.0
	var best *internal.EmailRecord
	for i := range corpus {
		email := &corpus[i]
		emailText := EmailText(*email)
		score := Similarity(recordText, emailText)
		if merchant != "" && strings.Contains(emailText, merchant) {
			score += h.opts.SubstringBonus
		}
		if score > 1.0 {
			score = 1.0
		}
		if score > bestScore {
			bestScore = score
			best = email
		}
	}
	return best, bestScore
}

// Similarity is a deterministic text similarity in [0,1]: a blend of
// record-token overlap and normalized Levenshtein ratio.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	aTokens := util.Tokenize(a)
	bTokens := util.Tokenize(b)

	ratio := levenshtein.RatioForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
	if ratio < 0 {
		ratio = 0
	}
	if len(aTokens) == 0 || len(bTokens) == 0 {
		return ratio
	}

	set := map[string]struct{}{}
	for _, t := range bTokens {
		set[t] = struct{}{}
	}
	overlap := 0
	for _, t := range aTokens {
		if _, ok := set[t]; ok {
			overlap++
		}
	}
	tokenScore := float64(overlap) / float64(len(aTokens))

	return 0.6*tokenScore + 0.4*ratio
}

// RecordText builds the record side of the comparison from its
// merchant-like and amount-like fields. Missing fields read as empty.
func RecordText(record internal.Record) string {
	return util.NormalizeText(strings.TrimSpace(record.Merchant() + " " + record.Amount()))
}

// EmailText builds the email side of the comparison from subject and body.
func EmailText(email internal.EmailRecord) string {
	return util.NormalizeText(strings.TrimSpace(email.Subject + " " + email.Body))
}

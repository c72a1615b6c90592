package match

import (
	"math"

	"reconmail/internal/util"
)

// Vectorizer is a TF-IDF bag-of-words representation fitted over an email
// corpus. It serializes to JSON so a fitted model survives process restarts.
type Vectorizer struct {
	IDF  map[string]float64 `json:"idf"`
	Docs int                `json:"docs"`
}

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {},
	"in": {}, "for": {}, "on": {}, "is": {}, "your": {}, "you": {}, "this": {},
	"from": {}, "with": {}, "at": {}, "by": {}, "we": {}, "our": {}, "has": {},
	"have": {}, "been": {}, "was": {}, "it": {}, "as": {}, "be": {}, "are": {},
}

func terms(text string) []string {
	tokens := util.Tokenize(text)
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, stop := stopWords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// FitVectorizer computes smoothed inverse document frequencies over the
// given document texts.
func FitVectorizer(texts []string) *Vectorizer {
	df := map[string]int{}
	for _, text := range texts {
		seen := map[string]struct{}{}
		for _, term := range terms(text) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	n := len(texts)
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = math.Log(float64(1+n)/float64(1+count)) + 1
	}
	return &Vectorizer{IDF: idf, Docs: n}
}

// Transform maps a text to its L2-normalized TF-IDF vector. Terms outside
// the fitted vocabulary are dropped.
func (v *Vectorizer) Transform(text string) map[string]float64 {
	tf := map[string]float64{}
	for _, term := range terms(text) {
		if _, ok := v.IDF[term]; ok {
			tf[term]++
		}
	}

	vec := make(map[string]float64, len(tf))
	norm := 0.0
	for term, count := range tf {
		w := count * v.IDF[term]
		vec[term] = w
		norm += w * w
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for term := range vec {
		vec[term] /= norm
	}
	return vec
}

// Cosine of two L2-normalized sparse vectors is their dot product.
func Cosine(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	sum := 0.0
	for term, w := range a {
		sum += w * b[term]
	}
	if sum > 1 {
		sum = 1
	}
	return sum
}

package util

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	reSpaces   = regexp.MustCompile(`\s+`)
	reCurrency = regexp.MustCompile(`[$€£₹]`)
)

// NormalizeText lowercases, strips currency symbols and collapses
// whitespace so record and email comparison strings line up.
func NormalizeText(input string) string {
	s := strings.ToLower(input)
	s = reCurrency.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokenize splits normalized text into tokens of at least two runes.
func Tokenize(input string) []string {
	parts := strings.Split(NormalizeText(input), " ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, ".,;:!?()[]\"'")
		if len([]rune(p)) >= 2 {
			out = append(out, p)
		}
	}
	return out
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006",
	"1/2/2006",
	"02.01.2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
}

// NormalizeDate rewrites date-like values to 2006-01-02 so the same record
// hashes identically regardless of how the source file spells the date.
// Non-date values come back unchanged.
func NormalizeDate(value string) string {
	v := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, v); err == nil {
			return parsed.Format("2006-01-02")
		}
	}
	return value
}

// CanonicalRecordHash hashes a record's canonical form: keys sorted, values
// trimmed and space-collapsed, date-like values normalized. Identical
// records hash identically across files and runs.
func CanonicalRecordHash(record map[string]string) string {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		value := NormalizeDate(reSpaces.ReplaceAllString(strings.TrimSpace(record[k]), " "))
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(value))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// RowIdentityHash hashes a sheet row excluding the given derived link
// columns, which are populated only after upload.
func RowIdentityHash(row map[string]string, excludeCols []string) string {
	filtered := make(map[string]string, len(row))
	for k, v := range row {
		filtered[k] = v
	}
	for _, col := range excludeCols {
		delete(filtered, col)
	}
	return CanonicalRecordHash(filtered)
}

// ContentHash is the identity of a binary blob.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

var fileNameReplacer = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", "/", "_", "\\", "_",
	"|", "_", "?", "_", "*", "_", "\"", "_", "\x00", "_",
)

// SanitizeFileName replaces characters the storage backend rejects and
// caps the length. An empty result after sanitizing is an error.
func SanitizeFileName(input string) (string, error) {
	out := strings.TrimSpace(fileNameReplacer.Replace(input))
	out = strings.Trim(out, "._ ")
	if out == "" {
		return "", errors.New("file name empty after sanitizing")
	}
	if len(out) > 120 {
		out = out[:120]
	}
	return out, nil
}

func StringPtr(v string) *string { return &v }

func FloatPtr(v float64) *float64 { return &v }

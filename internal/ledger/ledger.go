// Package ledger tracks which hashes a run has already handled.
package ledger

import "sync"

// Ledger is the run-scoped dedup memory: seen record hashes, consumed
// email hashes, uploaded content hashes, and the email → attachment
// reference cache. It is shared by every concurrently running file task,
// so each check-and-mark is a single critical section — a caller that
// gets true owns the associated work.
type Ledger struct {
	mu      sync.Mutex
	records map[string]struct{}
	emails  map[string]struct{}
	uploads map[string]struct{}
	refs    map[string][]string
}

func New() *Ledger {
	return &Ledger{
		records: map[string]struct{}{},
		emails:  map[string]struct{}{},
		uploads: map[string]struct{}{},
		refs:    map[string][]string{},
	}
}

// MarkRecord marks a record hash as processed. Returns false if it was
// already marked, meaning another caller owns the work.
func (l *Ledger) MarkRecord(hash string) bool {
	return l.mark(l.records, hash)
}

// MarkEmail marks an email hash as consumed.
func (l *Ledger) MarkEmail(hash string) bool {
	return l.mark(l.emails, hash)
}

// SeenEmail reports whether an email hash was consumed, without marking.
func (l *Ledger) SeenEmail(hash string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.emails[hash]
	return ok
}

// MarkUpload marks a content hash as uploaded.
func (l *Ledger) MarkUpload(hash string) bool {
	return l.mark(l.uploads, hash)
}

// Refs returns the cached attachment references for an email hash.
func (l *Ledger) Refs(emailHash string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refs[emailHash]
}

// SetRefs caches the attachment references computed for an email hash so
// a second record matching the same email reuses them.
func (l *Ledger) SetRefs(emailHash string, refs []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refs[emailHash] = refs
}

func (l *Ledger) mark(set map[string]struct{}, hash string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := set[hash]; ok {
		return false
	}
	set[hash] = struct{}{}
	return true
}

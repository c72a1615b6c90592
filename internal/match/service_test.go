package match

import (
	"testing"

	"go.uber.org/zap"

	"reconmail/internal"
)

type memStore struct {
	values map[string]string
}

func (m *memStore) GetMetadata(key string) (*string, error) {
	if v, ok := m.values[key]; ok {
		return &v, nil
	}
	return nil, nil
}

func (m *memStore) SetMetadata(key, value string) error {
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}

func TestServiceLazyFitAndPersist(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, zap.NewNop())

	corpus := []internal.EmailRecord{
		{Hash: "h1", Subject: "Invoice from Acme", Body: "Amount due 42.50"},
		{Hash: "h2", Subject: "Netflix receipt", Body: "Total paid 15.99"},
	}

	best, score := svc.Match(internal.Record{"merchant": "Acme", "amount": "42.50"}, corpus)
	if best == nil || best.Hash != "h1" {
		t.Fatalf("expected h1, got %v", best)
	}
	if score <= 0 {
		t.Fatalf("expected positive confidence, got %v", score)
	}
	if _, ok := store.values[modelMetadataKey]; !ok {
		t.Fatal("fitted model was not persisted")
	}

	// A fresh service must reuse the persisted model instead of refitting.
	svc2 := NewService(store, zap.NewNop())
	best2, _ := svc2.Match(internal.Record{"merchant": "Netflix", "amount": "15.99"}, corpus)
	if best2 == nil || best2.Hash != "h2" {
		t.Fatalf("expected h2 from reloaded model, got %v", best2)
	}
}

func TestServiceEmptyCorpus(t *testing.T) {
	svc := NewService(&memStore{}, zap.NewNop())
	best, score := svc.Match(internal.Record{"merchant": "Acme"}, nil)
	if best != nil || score != 0.0 {
		t.Fatalf("empty corpus must yield (nil, 0)")
	}
}

func TestVectorizerRoundTrip(t *testing.T) {
	v := FitVectorizer([]string{"invoice from acme", "netflix receipt total"})
	vec := v.Transform("acme invoice")
	if len(vec) == 0 {
		t.Fatal("expected non-empty vector for in-vocabulary terms")
	}
	if got := Cosine(vec, vec); got < 0.999 || got > 1.001 {
		t.Fatalf("self-cosine should be 1, got %v", got)
	}
}

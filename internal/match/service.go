package match

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"reconmail/internal"
)

const modelMetadataKey = "matcher.tfidf_model"

// ModelStore persists the fitted vectorizer between runs.
type ModelStore interface {
	GetMetadata(key string) (*string, error)
	SetMetadata(key, value string) error
}

// Service wraps the trainable TF-IDF matcher behind the same contract as
// the heuristic. The vectorizer is fitted lazily on the first non-empty
// corpus it sees and persisted for later runs; the mutex keeps two
// concurrent callers from both fitting and overwriting each other's model.
//
// Match quality is sensitive to which corpus happened to arrive first;
// callers that care should refit explicitly.
type Service struct {
	mu     sync.Mutex
	store  ModelStore
	logger *zap.Logger
	model  *Vectorizer
}

func NewService(store ModelStore, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) Match(record internal.Record, corpus []internal.EmailRecord) (*internal.EmailRecord, float64) {
	if len(corpus) == 0 {
		return nil, 0.0
	}

	model := s.getOrFit(corpus)
	if model == nil {
		return nil, 0.0
	}

	query := model.Transform(RecordText(record))
	bestScore := 0.0
	var best *internal.EmailRecord
	for i := range corpus {
		email := &corpus[i]
		score := Cosine(query, model.Transform(EmailText(*email)))
		if score > bestScore {
			bestScore = score
			best = email
		}
	}
	return best, bestScore
}

func (s *Service) getOrFit(corpus []internal.EmailRecord) *Vectorizer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model != nil {
		return s.model
	}

	if s.store != nil {
		if blob, err := s.store.GetMetadata(modelMetadataKey); err != nil {
			s.logger.Error("load fitted matcher model", zap.Error(err))
		} else if blob != nil {
			var model Vectorizer
			if err := json.Unmarshal([]byte(*blob), &model); err != nil {
				s.logger.Error("decode fitted matcher model", zap.Error(err))
			} else {
				s.model = &model
				return s.model
			}
		}
	}

	texts := make([]string, 0, len(corpus))
	for _, email := range corpus {
		texts = append(texts, EmailText(email))
	}
	s.model = FitVectorizer(texts)
	s.logger.Info("fitted matcher model", zap.Int("documents", s.model.Docs), zap.Int("terms", len(s.model.IDF)))

	if s.store != nil {
		blob, err := json.Marshal(s.model)
		if err == nil {
			err = s.store.SetMetadata(modelMetadataKey, string(blob))
		}
		if err != nil {
			s.logger.Error("persist fitted matcher model", zap.Error(err))
		}
	}
	return s.model
}

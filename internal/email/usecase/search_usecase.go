package usecase

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"mailtriage-backend/internal/email/domain"
	"mailtriage-backend/internal/email/repository"
	"mailtriage-backend/pkg/ai"
	"mailtriage-backend/pkg/chroma"

	"github.com/sahilm/fuzzy"
)

const searchCandidateLimit = 500

type SearchUsecase interface {
	// Search runs fuzzy matching over stored messages. With semantic
	// enabled and an index configured, embedding results are merged in
	// ahead of the fuzzy matches.
	Search(ctx context.Context, userID, query string, semantic bool, limit int) ([]*domain.Message, error)
}

type searchUsecase struct {
	messageRepo repository.MessageRepository
	analyzer    ai.Analyzer
	index       *chroma.Client
}

func NewSearchUsecase(messageRepo repository.MessageRepository, analyzer ai.Analyzer, index *chroma.Client) SearchUsecase {
	return &searchUsecase{
		messageRepo: messageRepo,
		analyzer:    analyzer,
		index:       index,
	}
}

// messageSource adapts messages for fuzzy matching over subject, sender and
// preview text.
type messageSource []*domain.Message

func (s messageSource) String(i int) string {
	m := s[i]
	return strings.ToLower(m.Subject + " " + m.FromName + " " + m.From + " " + m.Preview)
}

func (s messageSource) Len() int { return len(s) }

func (u *searchUsecase) Search(ctx context.Context, userID, query string, semantic bool, limit int) ([]*domain.Message, error) {
	if limit <= 0 {
		limit = 20
	}

	messages, err := u.messageRepo.ListByUser(userID, repository.MessageFilter{Limit: searchCandidateLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	byID := make(map[string]*domain.Message, len(messages))
	for _, m := range messages {
		byID[m.ID] = m
	}

	var results []*domain.Message
	seen := make(map[string]bool)

	if semantic && u.index != nil {
		ids, _, err := u.index.SemanticSearch(ctx, userID, query, limit)
		if err != nil {
			// Degrade to fuzzy-only search rather than failing
			log.Printf("[Search] Semantic search failed: %v", err)
		} else {
			for _, id := range ids {
				if m, ok := byID[id]; ok && !seen[id] {
					results = append(results, m)
					seen[id] = true
				}
			}
		}
	}

	terms := []string{query}
	if semantic && u.analyzer != nil {
		if synonyms, err := u.analyzer.GenerateSynonyms(ctx, query); err == nil {
			terms = append(terms, synonyms...)
		}
	}

	source := messageSource(messages)
	type scored struct {
		message *domain.Message
		score   int
	}
	var fuzzyHits []scored
	fuzzySeen := make(map[string]bool)
	for _, term := range terms {
		for _, match := range fuzzy.FindFrom(strings.ToLower(term), source) {
			m := messages[match.Index]
			if seen[m.ID] || fuzzySeen[m.ID] {
				continue
			}
			fuzzySeen[m.ID] = true
			fuzzyHits = append(fuzzyHits, scored{message: m, score: match.Score})
		}
	}
	sort.Slice(fuzzyHits, func(i, j int) bool { return fuzzyHits[i].score > fuzzyHits[j].score })

	for _, hit := range fuzzyHits {
		results = append(results, hit.message)
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

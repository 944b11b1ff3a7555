package services

import (
	"context"
	"log/slog"
	"strings"

	"chat-vault/domain"
	"chat-vault/errors"
	"chat-vault/repositories"

	"github.com/samber/lo"
)

// Pagination describes one offset-based page of a session listing.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

type Page struct {
	Data       []domain.Message `json:"data"`
	Pagination Pagination       `json:"pagination"`
}

// SearchPagination mirrors Pagination for global search; NextOffset is nil
// once the result set is exhausted.
type SearchPagination struct {
	TotalResults int  `json:"total_results"`
	Limit        int  `json:"limit"`
	Offset       int  `json:"offset"`
	NextOffset   *int `json:"next_offset"`
}

type SearchPage struct {
	Data       []domain.Message `json:"data"`
	Pagination SearchPagination `json:"pagination"`
}

type IQueryService interface {
	GetSessionPage(ctx context.Context, sessionID string, limit, offset int, sender string) (Page, error)
	GetMessage(ctx context.Context, messageID string) (domain.Message, error)
	GetStats(ctx context.Context, sessionID string) (domain.Stats, error)
	SearchGlobally(ctx context.Context, query string, limit, offset int) (SearchPage, error)
}

const minSearchQueryLength = 3

// QueryService is the read side. All operations are side-effect-free and
// treat an unknown session as an empty one.
type QueryService struct {
	repository      repositories.IMessageRepository
	log             *slog.Logger
	defaultPageSize int
	maxPageSize     int
}

func NewQueryService(repository repositories.IMessageRepository, log *slog.Logger, defaultPageSize, maxPageSize int) *QueryService {
	return &QueryService{
		repository:      repository,
		log:             log,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// Out-of-range pagination parameters are normalized, not rejected.
func (s *QueryService) normalizePagination(limit, offset int) (int, int) {
	if limit < 1 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *QueryService) GetSessionPage(ctx context.Context, sessionID string, limit, offset int, sender string) (Page, error) {
	limit, offset = s.normalizePagination(limit, offset)

	var senderFilter *domain.Sender
	if sender != "" {
		parsed := domain.Sender(sender)
		if !parsed.Valid() {
			return Page{}, errors.NewInvalidFormat(
				"sender must be either 'user' or 'system'",
				map[string]any{"valid_senders": domain.Senders()},
			)
		}
		senderFilter = lo.ToPtr(parsed)
	}

	messages, total, err := s.repository.ListBySession(sessionID, limit, offset, senderFilter)
	if err != nil {
		return Page{}, err
	}
	return Page{
		Data: messages,
		Pagination: Pagination{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			HasNext: offset+limit < total,
			HasPrev: offset > 0,
		},
	}, nil
}

func (s *QueryService) GetMessage(ctx context.Context, messageID string) (domain.Message, error) {
	return s.repository.GetByID(messageID)
}

func (s *QueryService) GetStats(ctx context.Context, sessionID string) (domain.Stats, error) {
	return s.repository.Stats(sessionID)
}

// SearchGlobally pages through a case-insensitive substring search across
// all sessions. Queries shorter than three characters are rejected before
// the store is touched.
func (s *QueryService) SearchGlobally(ctx context.Context, query string, limit, offset int) (SearchPage, error) {
	if len([]rune(strings.TrimSpace(query))) < minSearchQueryLength {
		return SearchPage{}, errors.NewSearchQueryTooShort()
	}
	limit, offset = s.normalizePagination(limit, offset)

	matches, total, err := s.repository.Search(ctx, query, limit, offset)
	if err != nil {
		return SearchPage{}, err
	}

	var nextOffset *int
	if offset+limit < total {
		nextOffset = lo.ToPtr(offset + limit)
	}
	return SearchPage{
		Data: matches,
		Pagination: SearchPagination{
			TotalResults: total,
			Limit:        limit,
			Offset:       offset,
			NextOffset:   nextOffset,
		},
	}, nil
}

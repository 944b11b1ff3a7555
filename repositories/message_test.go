package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"chat-vault/domain"
	"chat-vault/errors"
	"chat-vault/internal/database"

	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *MessageRepository {
	t.Helper()
	req := require.New(t)

	db, index, err := database.Open(t.TempDir(), t.TempDir())
	req.NoError(err)
	t.Cleanup(func() { database.Cleanup(db, index) })

	repository, err := NewMessageRepository(db, index, slog.Default())
	req.NoError(err)
	t.Cleanup(func() { _ = repository.Close() })
	return repository
}

func testMessage(id, session, content string, sender domain.Sender) domain.Message {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return domain.Message{
		MessageID: id,
		SessionID: session,
		Content:   content,
		Timestamp: now,
		Sender:    sender,
		Metadata:  domain.DeriveMetadata(content, now),
	}
}

func TestMessageRepository_InsertAndGetByID(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	message := testMessage("m1", "s1", "hello there", domain.SenderUser)
	req.NoError(repository.Insert(message))

	fetched, err := repository.GetByID("m1")
	req.NoError(err)
	req.Equal(message, fetched)
}

func TestMessageRepository_GetByID_NotFound(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	_, err := repository.GetByID("ghost")
	req.Error(err)
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestMessageRepository_Insert_DuplicateID(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	req.NoError(repository.Insert(testMessage("m1", "s1", "first", domain.SenderUser)))

	err := repository.Insert(testMessage("m1", "s2", "second", domain.SenderSystem))
	req.Error(err)
	req.ErrorIs(err, errors.ErrDuplicateID)

	// The original record stays untouched.
	fetched, err := repository.GetByID("m1")
	req.NoError(err)
	req.Equal("first", fetched.Content)
}

func TestMessageRepository_ListBySession_InsertionOrder(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	// Client timestamps run backwards on purpose: insertion order must win.
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		message := testMessage(fmt.Sprintf("m%d", i), "s1", fmt.Sprintf("message %d", i), domain.SenderUser)
		message.Timestamp = base.Add(-time.Duration(i) * time.Minute)
		req.NoError(repository.Insert(message))
	}

	page, total, err := repository.ListBySession("s1", 10, 0, nil)
	req.NoError(err)
	req.Equal(5, total)
	req.Len(page, 5)
	for i, message := range page {
		req.Equal(fmt.Sprintf("m%d", i), message.MessageID)
	}
}

func TestMessageRepository_ListBySession_Pagination(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	for i := 0; i < 7; i++ {
		req.NoError(repository.Insert(testMessage(fmt.Sprintf("m%d", i), "s1", "hi", domain.SenderUser)))
	}

	page, total, err := repository.ListBySession("s1", 3, 5, nil)
	req.NoError(err)
	req.Equal(7, total)
	req.Len(page, 2)
	req.Equal("m5", page[0].MessageID)
	req.Equal("m6", page[1].MessageID)

	page, total, err = repository.ListBySession("s1", 3, 10, nil)
	req.NoError(err)
	req.Equal(7, total)
	req.Empty(page)
}

func TestMessageRepository_ListBySession_SenderFilterBeforePagination(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	for i := 0; i < 6; i++ {
		sender := domain.SenderUser
		if i%2 == 1 {
			sender = domain.SenderSystem
		}
		req.NoError(repository.Insert(testMessage(fmt.Sprintf("m%d", i), "s1", "hi", sender)))
	}

	sender := domain.SenderSystem
	page, total, err := repository.ListBySession("s1", 2, 1, &sender)
	req.NoError(err)
	// Total reflects the filtered set, not the whole session.
	req.Equal(3, total)
	req.Len(page, 2)
	req.Equal("m3", page[0].MessageID)
	req.Equal("m5", page[1].MessageID)
}

func TestMessageRepository_ListBySession_UnknownSession(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	page, total, err := repository.ListBySession("nope", 10, 0, nil)
	req.NoError(err)
	req.Zero(total)
	req.Empty(page)
}

func TestMessageRepository_SessionKeysDoNotBleed(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	req.NoError(repository.Insert(testMessage("m1", "alpha", "one", domain.SenderUser)))
	req.NoError(repository.Insert(testMessage("m2", "alpha-two", "two", domain.SenderUser)))

	_, total, err := repository.ListBySession("alpha", 10, 0, nil)
	req.NoError(err)
	req.Equal(1, total)
}

func TestMessageRepository_Stats(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	req.NoError(repository.Insert(testMessage("m1", "s1", "a", domain.SenderUser)))
	req.NoError(repository.Insert(testMessage("m2", "s1", "b", domain.SenderUser)))
	req.NoError(repository.Insert(testMessage("m3", "s1", "c", domain.SenderSystem)))
	req.NoError(repository.Insert(testMessage("m4", "other", "d", domain.SenderUser)))

	stats, err := repository.Stats("s1")
	req.NoError(err)
	req.Equal(domain.Stats{SessionID: "s1", TotalMessages: 3, UserMessages: 2, SystemMessages: 1}, stats)

	stats, err = repository.Stats("unknown")
	req.NoError(err)
	req.Equal(domain.Stats{SessionID: "unknown"}, stats)
}

func TestMessageRepository_Search(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	ctx := context.Background()

	req.NoError(repository.Insert(testMessage("m1", "s1", "Hello World", domain.SenderUser)))
	req.NoError(repository.Insert(testMessage("m2", "s2", "the world is round", domain.SenderSystem)))
	req.NoError(repository.Insert(testMessage("m3", "s1", "unrelated text", domain.SenderUser)))

	matches, total, err := repository.Search(ctx, "WORLD", 10, 0)
	req.NoError(err)
	req.Equal(2, total)
	req.Len(matches, 2)
	// Insertion order ascending, across sessions.
	req.Equal("m1", matches[0].MessageID)
	req.Equal("m2", matches[1].MessageID)
}

func TestMessageRepository_Search_SubstringAcrossWords(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	req.NoError(repository.Insert(testMessage("m1", "s1", "alpha beta", domain.SenderUser)))

	// Substring semantics span token boundaries, including the space.
	matches, total, err := repository.Search(context.Background(), "ha be", 10, 0)
	req.NoError(err)
	req.Equal(1, total)
	req.Len(matches, 1)
}

func TestMessageRepository_Search_Pagination(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		req.NoError(repository.Insert(testMessage(fmt.Sprintf("m%d", i), "s1", fmt.Sprintf("needle %d", i), domain.SenderUser)))
	}

	matches, total, err := repository.Search(ctx, "needle", 2, 2)
	req.NoError(err)
	req.Equal(5, total)
	req.Len(matches, 2)
	req.Equal("m2", matches[0].MessageID)
	req.Equal("m3", matches[1].MessageID)
}

func TestMessageRepository_Search_NoMatches(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	req.NoError(repository.Insert(testMessage("m1", "s1", "hello", domain.SenderUser)))

	matches, total, err := repository.Search(context.Background(), "zzz", 10, 0)
	req.NoError(err)
	req.Zero(total)
	req.Empty(matches)
}

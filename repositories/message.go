// Package repositories implements durable storage for admitted messages.
// BadgerDB owns the records, the ordering and the uniqueness invariant;
// a Bluge index provides the full-text search path. Badger stays the single
// source of truth: the index holds only identifiers.
package repositories

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"chat-vault/domain"
	"chat-vault/errors"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
)

type IMessageRepository interface {
	Insert(message domain.Message) error
	GetByID(messageID string) (domain.Message, error)
	ListBySession(sessionID string, limit, offset int, sender *domain.Sender) ([]domain.Message, int, error)
	Search(ctx context.Context, query string, limit, offset int) ([]domain.Message, int, error)
	Stats(sessionID string) (domain.Stats, error)
}

// MessageRepository persists messages in BadgerDB and mirrors them into a
// Bluge index for content search.
type MessageRepository struct {
	db    *badger.DB
	index *bluge.Writer
	seq   *badger.Sequence
	log   *slog.Logger

	// insertMu serializes Insert so the uniqueness check and the write
	// commit as one step: two concurrent inserts with the same id can
	// never both succeed.
	insertMu sync.Mutex
}

func NewMessageRepository(db *badger.DB, index *bluge.Writer, log *slog.Logger) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte("seq:message"), 64)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &MessageRepository{db: db, index: index, seq: seq, log: log}, nil
}

// Close releases the insertion sequence. The badger and bluge handles are
// owned by the caller.
func (r *MessageRepository) Close() error {
	return r.seq.Release()
}

// Key layout:
//
//	sess:{session_id}\x00{seq19} -> message JSON
//	id:{message_id}              -> session key
//
// The 19-digit zero-padded insertion sequence makes a forward prefix scan
// return messages in admission order. The NUL separator keeps one session's
// prefix from matching another session's keys.
func sessionKey(sessionID string, seq uint64) []byte {
	return fmt.Appendf(nil, "sess:%s\x00%019d", sessionID, seq)
}

func sessionPrefix(sessionID string) []byte {
	return fmt.Appendf(nil, "sess:%s\x00", sessionID)
}

func idKey(messageID string) []byte {
	return []byte("id:" + messageID)
}

// Insert atomically persists a message, failing with a duplicate-id error
// when the message_id is already taken, then mirrors it into the search
// index. The caller must treat any returned error as "not admitted".
func (r *MessageRepository) Insert(message domain.Message) error {
	r.insertMu.Lock()
	defer r.insertMu.Unlock()

	seq, err := r.seq.Next()
	if err != nil {
		return errors.NewDatabase(err)
	}
	value, err := json.Marshal(message)
	if err != nil {
		return errors.NewDatabase(err)
	}

	sessKey := sessionKey(message.SessionID, seq)
	err = r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(idKey(message.MessageID))
		switch {
		case err == nil:
			return errors.ErrDuplicateID
		case !stderrors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		if err := txn.Set(sessKey, value); err != nil {
			return err
		}
		return txn.Set(idKey(message.MessageID), sessKey)
	})
	if stderrors.Is(err, errors.ErrDuplicateID) {
		return errors.NewDuplicateID(message.MessageID)
	}
	if err != nil {
		return errors.NewDatabase(err)
	}

	doc := bluge.NewDocument(message.MessageID).
		AddField(bluge.NewKeywordField("content", strings.ToLower(message.Content))).
		AddField(bluge.NewNumericField("seq", float64(seq)).Sortable())
	if err := r.index.Update(doc.ID(), doc); err != nil {
		return errors.NewDatabase(fmt.Errorf("index message %s: %w", message.MessageID, err))
	}
	return nil
}

func (r *MessageRepository) GetByID(messageID string) (domain.Message, error) {
	var message domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		pointer, err := txn.Get(idKey(messageID))
		if err != nil {
			return err
		}
		sessKey, err := pointer.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err := txn.Get(sessKey)
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &message)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Message{}, errors.NewNotFound(fmt.Sprintf("no message found with ID: %s", messageID))
	}
	if err != nil {
		return domain.Message{}, errors.NewDatabase(err)
	}
	return message, nil
}

// ListBySession returns one page of a session's messages in insertion order
// together with the total count. The total reflects the sender-filtered
// set, so pagination arithmetic stays correct under filtering.
func (r *MessageRepository) ListBySession(sessionID string, limit, offset int, sender *domain.Sender) ([]domain.Message, int, error) {
	page := make([]domain.Message, 0, limit)
	total := 0
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := sessionPrefix(sessionID)
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var message domain.Message
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &message)
			})
			if err != nil {
				return err
			}
			if sender != nil && message.Sender != *sender {
				continue
			}
			if total >= offset && len(page) < limit {
				page = append(page, message)
			}
			total++
		}
		return nil
	})
	if err != nil {
		return nil, 0, errors.NewDatabase(err)
	}
	return page, total, nil
}

// Stats counts a session's full history partitioned by sender. An unknown
// session yields zeroed stats, indistinguishable from an empty one.
func (r *MessageRepository) Stats(sessionID string) (domain.Stats, error) {
	stats := domain.Stats{SessionID: sessionID}
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := sessionPrefix(sessionID)
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var record struct {
				Sender domain.Sender `json:"sender"`
			}
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &record)
			})
			if err != nil {
				return err
			}
			stats.TotalMessages++
			switch record.Sender {
			case domain.SenderUser:
				stats.UserMessages++
			case domain.SenderSystem:
				stats.SystemMessages++
			}
		}
		return nil
	})
	if err != nil {
		return domain.Stats{}, errors.NewDatabase(err)
	}
	return stats, nil
}

// Wildcard metacharacters in user queries are literal text to us.
var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// Search runs a case-insensitive substring match over message content
// across all sessions, ordered by insertion sequence ascending. The index
// stores content as one lowercased keyword term, so a wildcard query gives
// exact substring semantics rather than token matching.
func (r *MessageRepository) Search(ctx context.Context, query string, limit, offset int) ([]domain.Message, int, error) {
	reader, err := r.index.Reader()
	if err != nil {
		return nil, 0, errors.NewDatabase(err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			r.log.Warn("closing index reader failed", "error", err)
		}
	}()

	wildcard := "*" + wildcardEscaper.Replace(strings.ToLower(query)) + "*"
	request := bluge.NewTopNSearch(limit, bluge.NewWildcardQuery(wildcard).SetField("content")).
		SetFrom(offset).
		SortBy([]string{"seq"}).
		WithStandardAggregations()

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, 0, errors.NewDatabase(err)
	}

	var ids []string
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, 0, errors.NewDatabase(err)
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, string(value))
			}
			return true
		})
		if err != nil {
			return nil, 0, errors.NewDatabase(err)
		}
	}
	total := int(iterator.Aggregations().Count())

	messages := make([]domain.Message, 0, len(ids))
	for _, id := range ids {
		message, err := r.GetByID(id)
		if err != nil {
			return nil, 0, err
		}
		messages = append(messages, message)
	}
	return messages, total, nil
}

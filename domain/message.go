// Package domain contains core concepts of the message service.
// This file defines the Message entity and its derived metadata.
// Messages are immutable once admitted; only the service computes metadata.
package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser   Sender = "user"
	SenderSystem Sender = "system"
)

// Senders lists the accepted sender values.
func Senders() []Sender {
	return []Sender{SenderUser, SenderSystem}
}

func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderSystem
}

// Metadata holds the server-computed fields of a message. Caller-supplied
// metadata is never trusted; the admission service always recomputes it.
type Metadata struct {
	WordCount      int       `json:"word_count"`
	CharacterCount int       `json:"character_count"`
	ProcessedAt    time.Time `json:"processed_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Message represents one admitted chat message. Timestamp is the logical
// message time supplied by the caller (or the admission clock when absent);
// Metadata.ProcessedAt is always the admission clock.
type Message struct {
	MessageID string    `json:"message_id"`
	SessionID string    `json:"session_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Sender    Sender    `json:"sender"`
	Metadata  Metadata  `json:"metadata"`
}

// DeriveMetadata computes the metadata for content admitted at now.
// Word count is the number of whitespace-delimited tokens; character count
// is in runes, not bytes. UpdatedAt equals ProcessedAt at creation since no
// exposed operation mutates a message afterwards.
func DeriveMetadata(content string, now time.Time) Metadata {
	return Metadata{
		WordCount:      len(strings.Fields(content)),
		CharacterCount: utf8.RuneCountInString(content),
		ProcessedAt:    now,
		UpdatedAt:      now,
	}
}

// Stats aggregates one session's history partitioned by sender.
type Stats struct {
	SessionID      string `json:"session_id"`
	TotalMessages  int    `json:"total_messages"`
	UserMessages   int    `json:"user_messages"`
	SystemMessages int    `json:"system_messages"`
}

// Package validation turns loosely-typed admission payloads into validated,
// explicitly-defaulted messages before any other component sees them.
package validation

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"chat-vault/domain"
	"chat-vault/errors"

	"github.com/go-playground/validator/v10"
)

// MessagePayload is the inbound shape of an admission request. Optional
// fields stay zero-valued when absent; defaulting happens in Validate.
type MessagePayload struct {
	MessageID string `json:"message_id" validate:"omitempty,max=255"`
	SessionID string `json:"session_id" validate:"omitempty,max=255"`
	Content   string `json:"content"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp"`
}

// ValidatedMessage is the strict output handed to the admission pipeline.
// Timestamp is nil when the caller did not supply one.
type ValidatedMessage struct {
	MessageID string
	SessionID string
	Content   string
	Sender    domain.Sender
	Timestamp *time.Time
}

// Accepted timestamp layouts; a zone-less value is taken as UTC.
var timestampLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"}

// Validator applies the structural and semantic rules of admission.
// Validation is all-or-nothing: a payload is never partially admitted.
type Validator struct {
	validate         *validator.Validate
	maxContentLength int
	defaultSender    domain.Sender
}

// NewValidator builds a Validator. defaultSender is substituted when a
// payload omits the sender; an empty defaultSender makes a missing sender a
// validation error instead.
func NewValidator(maxContentLength int, defaultSender domain.Sender) *Validator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{
		validate:         validate,
		maxContentLength: maxContentLength,
		defaultSender:    defaultSender,
	}
}

// Validate checks a payload and returns its validated form. All missing
// required fields are reported together so the client can fix them in one
// round trip; format problems are reported as a distinct error kind.
func (v *Validator) Validate(payload MessagePayload) (ValidatedMessage, error) {
	var missing []string
	if strings.TrimSpace(payload.SessionID) == "" {
		missing = append(missing, "session_id")
	}
	if strings.TrimSpace(payload.Content) == "" {
		missing = append(missing, "content")
	}
	if payload.Sender == "" && v.defaultSender == "" {
		missing = append(missing, "sender")
	}
	if len(missing) > 0 {
		return ValidatedMessage{}, errors.NewValidation(
			"missing required fields: "+strings.Join(missing, ", "),
			map[string]any{"missing_fields": missing},
		)
	}

	if err := v.validate.Struct(payload); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return ValidatedMessage{}, errors.NewInvalidFormat(
				"fields exceed their maximum length of 255 characters",
				map[string]any{"invalid_fields": fields},
			)
		}
		return ValidatedMessage{}, errors.NewInvalidFormat(err.Error(), nil)
	}

	// Identifiers end up in storage keys; control characters would corrupt
	// the key layout.
	for field, value := range map[string]string{"message_id": payload.MessageID, "session_id": payload.SessionID} {
		if containsControl(value) {
			return ValidatedMessage{}, errors.NewInvalidFormat(
				fmt.Sprintf("%s must not contain control characters", field), nil,
			)
		}
	}

	if v.maxContentLength > 0 && len(payload.Content) > v.maxContentLength {
		return ValidatedMessage{}, errors.NewInvalidFormat(
			fmt.Sprintf("content cannot exceed %d characters", v.maxContentLength), nil,
		)
	}

	sender := v.defaultSender
	if payload.Sender != "" {
		sender = domain.Sender(payload.Sender)
		if !sender.Valid() {
			return ValidatedMessage{}, errors.NewInvalidFormat(
				"sender must be either 'user' or 'system'",
				map[string]any{"valid_senders": domain.Senders()},
			)
		}
	}

	var timestamp *time.Time
	if payload.Timestamp != "" {
		parsed, err := parseTimestamp(payload.Timestamp)
		if err != nil {
			return ValidatedMessage{}, errors.NewInvalidFormat(
				"timestamp must be in ISO 8601 format (e.g. 2023-06-15T14:30:00Z)", nil,
			)
		}
		timestamp = &parsed
	}

	return ValidatedMessage{
		MessageID: payload.MessageID,
		SessionID: payload.SessionID,
		Content:   payload.Content,
		Sender:    sender,
		Timestamp: timestamp,
	}, nil
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

func containsControl(value string) bool {
	return strings.ContainsFunc(value, unicode.IsControl)
}

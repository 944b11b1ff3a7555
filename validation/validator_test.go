package validation

import (
	"strings"
	"testing"
	"time"

	"chat-vault/domain"
	"chat-vault/errors"

	"github.com/stretchr/testify/require"
)

func newTestValidator() *Validator {
	return NewValidator(5000, domain.SenderUser)
}

func TestValidator_ValidPayload(t *testing.T) {
	req := require.New(t)
	v := newTestValidator()

	validated, err := v.Validate(MessagePayload{
		MessageID: "m1",
		SessionID: "s1",
		Content:   "hello world",
		Sender:    "system",
		Timestamp: "2023-06-15T14:30:00Z",
	})
	req.NoError(err)
	req.Equal("m1", validated.MessageID)
	req.Equal("s1", validated.SessionID)
	req.Equal(domain.SenderSystem, validated.Sender)
	req.NotNil(validated.Timestamp)
	req.Equal(time.Date(2023, 6, 15, 14, 30, 0, 0, time.UTC), *validated.Timestamp)
}

func TestValidator_MissingFieldsReportedTogether(t *testing.T) {
	req := require.New(t)
	v := newTestValidator()

	_, err := v.Validate(MessagePayload{})
	req.Error(err)

	perr, ok := errors.AsProcessing(err)
	req.True(ok)
	req.Equal(errors.CodeValidation, perr.Code)
	req.Equal([]string{"session_id", "content"}, perr.Details["missing_fields"])
}

func TestValidator_WhitespaceOnlyContentIsMissing(t *testing.T) {
	req := require.New(t)
	v := newTestValidator()

	_, err := v.Validate(MessagePayload{SessionID: "s1", Content: "   "})
	req.Error(err)

	perr, _ := errors.AsProcessing(err)
	req.Equal(errors.CodeValidation, perr.Code)
	req.Equal([]string{"content"}, perr.Details["missing_fields"])
}

func TestValidator_SenderDefaulting(t *testing.T) {
	req := require.New(t)
	v := newTestValidator()

	validated, err := v.Validate(MessagePayload{SessionID: "s1", Content: "hi"})
	req.NoError(err)
	req.Equal(domain.SenderUser, validated.Sender)
}

func TestValidator_StrictSenderWhenNoDefault(t *testing.T) {
	req := require.New(t)
	v := NewValidator(5000, "")

	_, err := v.Validate(MessagePayload{SessionID: "s1", Content: "hi"})
	req.Error(err)

	perr, _ := errors.AsProcessing(err)
	req.Equal(errors.CodeValidation, perr.Code)
	req.Equal([]string{"sender"}, perr.Details["missing_fields"])
}

func TestValidator_InvalidSender(t *testing.T) {
	req := require.New(t)
	v := newTestValidator()

	_, err := v.Validate(MessagePayload{SessionID: "s1", Content: "hi", Sender: "robot"})
	req.Error(err)

	perr, _ := errors.AsProcessing(err)
	req.Equal(errors.CodeInvalidFormat, perr.Code)
	req.Equal([]domain.Sender{domain.SenderUser, domain.SenderSystem}, perr.Details["valid_senders"])
}

func TestValidator_ContentTooLong(t *testing.T) {
	req := require.New(t)
	v := NewValidator(10, domain.SenderUser)

	_, err := v.Validate(MessagePayload{SessionID: "s1", Content: strings.Repeat("a", 11)})
	req.Error(err)

	perr, _ := errors.AsProcessing(err)
	req.Equal(errors.CodeInvalidFormat, perr.Code)
}

func TestValidator_SessionIDTooLong(t *testing.T) {
	req := require.New(t)
	v := newTestValidator()

	_, err := v.Validate(MessagePayload{SessionID: strings.Repeat("s", 256), Content: "hi"})
	req.Error(err)

	perr, _ := errors.AsProcessing(err)
	req.Equal(errors.CodeInvalidFormat, perr.Code)
	req.Equal([]string{"session_id"}, perr.Details["invalid_fields"])
}

func TestValidator_Timestamp(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{"RFC3339 with zone", "2023-06-15T14:30:00+02:00", true},
		{"RFC3339 zulu", "2023-06-15T14:30:00Z", true},
		{"Naive local time", "2023-06-15T14:30:00", true},
		{"Garbage", "yesterday at noon", false},
		{"Date only", "2023-06-15", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			validated, err := v.Validate(MessagePayload{SessionID: "s1", Content: "hi", Timestamp: tt.value})
			if tt.valid {
				req.NoError(err)
				req.NotNil(validated.Timestamp)
			} else {
				req.Error(err)
				perr, _ := errors.AsProcessing(err)
				req.Equal(errors.CodeInvalidFormat, perr.Code)
			}
		})
	}
}

func TestValidator_ControlCharactersInIdentifiers(t *testing.T) {
	req := require.New(t)
	v := newTestValidator()

	_, err := v.Validate(MessagePayload{SessionID: "s1\x00evil", Content: "hi"})
	req.Error(err)

	perr, _ := errors.AsProcessing(err)
	req.Equal(errors.CodeInvalidFormat, perr.Code)
}

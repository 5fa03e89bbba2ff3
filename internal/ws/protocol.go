package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Abubakar312/chat-app-backend/internal/common"
)

// Inbound is a client frame. Ack is an optional client chosen id echoed back
// in the "ack" reply.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	Ack   string          `json:"ack,omitempty"`
}

// Outbound is a server frame.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Error codes carried by ack and error replies.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeInternal     = "INTERNAL_ERROR"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type AckPayload struct {
	Ack   string     `json:"ack"`
	OK    bool       `json:"ok"`
	Error *ErrorBody `json:"error,omitempty"`
	Data  any        `json:"data,omitempty"`
}

// ErrorPayload is sent when an event without an ack id fails.
type ErrorPayload struct {
	Event string    `json:"event"`
	Error ErrorBody `json:"error"`
}

// errorBody maps err onto a client safe code and message. Store failures
// never leak their detail.
func errorBody(err error) ErrorBody {
	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrAlreadyExists):
		return ErrorBody{Code: CodeBadRequest, Message: err.Error()}
	case errors.Is(err, common.ErrUnauthenticated):
		return ErrorBody{Code: CodeUnauthorized, Message: err.Error()}
	case errors.Is(err, common.ErrForbidden):
		return ErrorBody{Code: CodeForbidden, Message: err.Error()}
	case errors.Is(err, common.ErrNotFound):
		return ErrorBody{Code: CodeNotFound, Message: err.Error()}
	default:
		return ErrorBody{Code: CodeInternal, Message: "internal error"}
	}
}

// decodeID reads an id sent either as a bare JSON string or as an object
// with an "id", "userId" or "conversationId" field. Absent data yields "".
func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id, nil
	}
	var obj struct {
		ID             string `json:"id"`
		UserID         string `json:"userId"`
		ConversationID string `json:"conversationId"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("%w: expected an id", common.ErrValidation)
	}
	switch {
	case obj.ID != "":
		return obj.ID, nil
	case obj.UserID != "":
		return obj.UserID, nil
	default:
		return obj.ConversationID, nil
	}
}

func decodeData(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing data", common.ErrValidation)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: malformed data", common.ErrValidation)
	}
	return nil
}

package model

import (
	"time"

	"github.com/google/uuid"

	"avm_wallet/internal/protocol"
)

type EventState string

// Approval moves an event straight from pending to signing; there is no
// intermediate resting state, since signing starts synchronously with
// the decision.
const (
	EventPending   EventState = "pending"
	EventSigning   EventState = "signing"
	EventCompleted EventState = "completed"
	EventFailed    EventState = "failed"
	EventCancelled EventState = "cancelled"
)

type (
	// EventPayload is the data a human decision is needed for. Plain
	// values only; the payload crosses process boundaries as JSON.
	EventPayload struct {
		Message    protocol.Request `json:"message"`
		ClientInfo ClientInfo       `json:"clientInfo"`
	}

	// Event is a pending client request awaiting approval. It exists from
	// the arrival of a request needing a human decision until the
	// response is sent or the originating tab disappears.
	Event struct {
		ID          string       `json:"id"`
		State       EventState   `json:"state"`
		OriginTabID string       `json:"originTabId"`
		CreatedAt   time.Time    `json:"createdAt"`
		Payload     EventPayload `json:"payload"`
	}
)

func NewEvent(req protocol.Request, client ClientInfo, tabID string) *Event {
	return &Event{
		ID:          uuid.NewString(),
		State:       EventPending,
		OriginTabID: tabID,
		CreatedAt:   time.Now(),
		Payload: EventPayload{
			Message:    req,
			ClientInfo: client,
		},
	}
}

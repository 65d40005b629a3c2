package domain

import "encoding/json"

// Inbound frame types on the realtime channel.
const (
	FrameMessage = "message"
	FrameRead    = "read"

	FrameCallRequest = "call_request"
	FrameCallAccept  = "call_accept"
	FrameCallEnd     = "call_end"
	FrameOffer       = "offer"
	FrameAnswer      = "answer"
	FrameICE         = "ice"
)

// InboundFrame is the wire form of everything a session may send. Dispatch
// switches on Type; unknown types are ignored for forward compatibility.
type InboundFrame struct {
	Type       string          `json:"type"`
	Message    string          `json:"message,omitempty"`
	MessageIDs []string        `json:"message_ids,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// IsSignal reports whether the frame type is a call-signaling variant whose
// payload is relayed verbatim, never back to the sender.
func IsSignal(frameType string) bool {
	switch frameType {
	case FrameCallRequest, FrameCallAccept, FrameCallEnd, FrameOffer, FrameAnswer, FrameICE:
		return true
	}
	return false
}

// ChatEvent is the broadcast form of a persisted chat message. Every party,
// the author included, observes the canonical copy with server id and time.
type ChatEvent struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Sender  string `json:"sender"`
	Message string `json:"message"`
	Time    string `json:"time"`
}

type ReadReceiptEvent struct {
	Type       string   `json:"type"`
	MessageIDs []string `json:"message_ids"`
	Reader     string   `json:"reader"`
}

// SignalEvent relays an opaque call-setup payload. Data is never inspected.
type SignalEvent struct {
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data"`
	Sender string          `json:"sender"`
}

const EventReadReceipt = "read_receipt"

package stream

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType classifies a telephony control event.
type EventType string

const (
	EventStart EventType = "start"
	EventMedia EventType = "media"
	EventStop  EventType = "stop"
	// EventOther covers event names this layer does not act on (marks,
	// connected, dtmf, ...). They are ignored, not errors.
	EventOther EventType = "other"
)

// ControlEvent is the parsed form of one telephony JSON message.
type ControlEvent struct {
	Type     EventType
	StreamID string
	CallID   string
	// Payload is the base64 audio carried by a media event.
	Payload string
}

// Envelope is one classified inbound unit: either a raw binary browser
// frame or a telephony control event, never both.
type Envelope struct {
	Binary  []byte
	Control *ControlEvent

	// Seq is the per-session arrival counter, Arrived the receive time used
	// for the staleness check.
	Seq     int64
	Arrived time.Time
}

type telephonyMessage struct {
	Event string          `json:"event"`
	Start *telephonyStart `json:"start,omitempty"`
	Media *telephonyMedia `json:"media,omitempty"`
}

type telephonyStart struct {
	StreamSID string `json:"streamSid"`
	CallSID   string `json:"callSid,omitempty"`
}

type telephonyMedia struct {
	Payload string `json:"payload"`
}

// ParseTelephonyEvent classifies one telephony text message. A start event
// without a callSid is valid; the call identifier is optional on the wire.
func ParseTelephonyEvent(data []byte) (ControlEvent, error) {
	var msg telephonyMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ControlEvent{}, fmt.Errorf("decode telephony event: %w", err)
	}

	switch msg.Event {
	case "start":
		ev := ControlEvent{Type: EventStart}
		if msg.Start != nil {
			ev.StreamID = msg.Start.StreamSID
			ev.CallID = msg.Start.CallSID
		}
		return ev, nil
	case "media":
		ev := ControlEvent{Type: EventMedia}
		if msg.Media != nil {
			ev.Payload = msg.Media.Payload
		}
		return ev, nil
	case "stop":
		return ControlEvent{Type: EventStop}, nil
	default:
		return ControlEvent{Type: EventOther}, nil
	}
}

package stream

import (
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the subset of *websocket.Conn a session needs. Tests substitute a
// fake; *websocket.Conn satisfies it directly.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// errMalformedEnvelope marks an inbound unit that could not be classified.
// The unit is dropped and the session continues.
var errMalformedEnvelope = errors.New("malformed envelope")

// frameSource turns one transport's read loop into a stream of envelopes.
// The two producers share the session loop: the website source yields raw
// binary frames, the telephony source yields parsed control events.
type frameSource interface {
	Next() (Envelope, error)
}

type websiteSource struct {
	conn Conn
	now  func() time.Time
	seq  int64
}

func (s *websiteSource) Next() (Envelope, error) {
	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			return Envelope{}, err
		}
		if messageType != websocket.BinaryMessage {
			// Browsers only send audio as binary; stray text frames carry
			// nothing this layer understands.
			continue
		}
		s.seq++
		return Envelope{Binary: data, Seq: s.seq, Arrived: s.now()}, nil
	}
}

type telephonySource struct {
	conn Conn
	now  func() time.Time
	seq  int64
}

func (s *telephonySource) Next() (Envelope, error) {
	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			return Envelope{}, err
		}
		if messageType != websocket.TextMessage {
			continue
		}
		s.seq++
		ev, err := ParseTelephonyEvent(data)
		if err != nil {
			return Envelope{}, fmt.Errorf("%w: %v", errMalformedEnvelope, err)
		}
		return Envelope{Control: &ev, Seq: s.seq, Arrived: s.now()}, nil
	}
}

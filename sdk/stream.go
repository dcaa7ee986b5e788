package toyvoice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsURL converts the client's HTTP base URL into the websocket URL for path.
func (c *Client) wsURL(path string, query url.Values) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("parse stream url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

func (c *Client) dialStream(ctx context.Context, path string, query url.Values) (*websocket.Conn, error) {
	target, err := c.wsURL(path, query)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if c.apiKey != "" {
		header.Set("Authorization", "Bearer "+c.apiKey)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, decodeAPIError(resp)
		}
		return nil, &TransportError{Op: "dial " + path, Err: err}
	}
	return conn, nil
}

// WebStream is a live website audio session: raw binary frames up, text
// messages down.
type WebStream struct {
	conn *websocket.Conn

	writeMu sync.Mutex
}

// DialWebStream opens a website stream for the toy. The first messages from
// the gateway are the greeting text and the media-streaming announcement.
func (c *Client) DialWebStream(ctx context.Context, toyID string) (*WebStream, error) {
	q := url.Values{}
	q.Set("toy_id", toyID)
	conn, err := c.dialStream(ctx, "/v1/stream/web", q)
	if err != nil {
		return nil, err
	}
	return &WebStream{conn: conn}, nil
}

// SendAudio sends one raw binary audio frame.
func (s *WebStream) SendAudio(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

// ReadText blocks until the next text message from the gateway. Binary
// messages are skipped.
func (s *WebStream) ReadText() (string, error) {
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if msgType == websocket.TextMessage {
			return string(data), nil
		}
	}
}

func (s *WebStream) Close() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadlineFromNow())
	return s.conn.Close()
}

// TelephonyStream is a live telephony session speaking the JSON event
// protocol: start, then media events with base64 audio, then stop.
type TelephonyStream struct {
	conn *websocket.Conn

	writeMu sync.Mutex
}

// DialTelephonyStream opens a telephony stream.
func (c *Client) DialTelephonyStream(ctx context.Context) (*TelephonyStream, error) {
	conn, err := c.dialStream(ctx, "/v1/stream/telephony", url.Values{})
	if err != nil {
		return nil, err
	}
	return &TelephonyStream{conn: conn}, nil
}

func (s *TelephonyStream) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Start announces the stream. callSID may be empty.
func (s *TelephonyStream) Start(streamSID, callSID string) error {
	type startBody struct {
		StreamSID string `json:"streamSid"`
		CallSID   string `json:"callSid,omitempty"`
	}
	return s.writeJSON(map[string]any{
		"event": "start",
		"start": startBody{StreamSID: streamSID, CallSID: callSID},
	})
}

// SendAudio base64-encodes the audio and sends it as one media event.
func (s *TelephonyStream) SendAudio(data []byte) error {
	return s.writeJSON(map[string]any{
		"event": "media",
		"media": map[string]string{"payload": base64.StdEncoding.EncodeToString(data)},
	})
}

// Stop ends the session; the gateway closes the connection in response.
func (s *TelephonyStream) Stop() error {
	return s.writeJSON(map[string]string{"event": "stop"})
}

// ReadText blocks until the next text message from the gateway.
func (s *TelephonyStream) ReadText() (string, error) {
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if msgType == websocket.TextMessage {
			return string(data), nil
		}
	}
}

func (s *TelephonyStream) Close() error {
	return s.conn.Close()
}

// IsCloseNormal reports whether err is a clean websocket close.
func IsCloseNormal(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}

func deadlineFromNow() time.Time {
	return time.Now().Add(time.Second)
}

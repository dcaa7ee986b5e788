// Package voice defines the boundary between stream transport and the
// conversational pipeline that performs STT, agent turns, and TTS.
package voice

import "context"

// InputSource identifies where a stream session's audio originates. It is
// fixed for the lifetime of a session.
type InputSource string

const (
	// SourceWebsite is a browser client sending raw binary audio frames.
	SourceWebsite InputSource = "website"
	// SourceTelephony is a telephony media stream sending JSON control
	// events with base64 audio payloads.
	SourceTelephony InputSource = "telephony"
)

// RealtimeVoiceHandler is the downstream speech pipeline a stream session
// drives. Implementations own STT/LLM/TTS wiring and any cross-frame
// ordering they need; the stream layer only bounds concurrency and drops
// stale audio.
//
// LazyInitialize opens provider connections on demand. For telephony it must
// be called after the first response has been prepared: opening an STT
// socket early risks it idling out while the greeting is still being
// composed, leaving the call without transcription.
type RealtimeVoiceHandler interface {
	LazyInitialize(ctx context.Context) error
	GenerateFirstResponseFromAgent(ctx context.Context, source InputSource) error
	// HandleUserAudioStream consumes one base64 telephony media payload.
	HandleUserAudioStream(ctx context.Context, payload string) error
	// HandleWebAudioStream consumes one raw binary browser audio frame.
	HandleWebAudioStream(ctx context.Context, data []byte) error
}

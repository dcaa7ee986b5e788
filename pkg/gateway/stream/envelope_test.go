package stream

import "testing"

func TestParseTelephonyEvent(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    ControlEvent
		wantErr bool
	}{
		{
			name: "start with call sid",
			data: `{"event":"start","start":{"streamSid":"S1","callSid":"C1"}}`,
			want: ControlEvent{Type: EventStart, StreamID: "S1", CallID: "C1"},
		},
		{
			name: "start without call sid",
			data: `{"event":"start","start":{"streamSid":"S2"}}`,
			want: ControlEvent{Type: EventStart, StreamID: "S2"},
		},
		{
			name: "start without body",
			data: `{"event":"start"}`,
			want: ControlEvent{Type: EventStart},
		},
		{
			name: "media",
			data: `{"event":"media","media":{"payload":"YWJj"}}`,
			want: ControlEvent{Type: EventMedia, Payload: "YWJj"},
		},
		{
			name: "stop",
			data: `{"event":"stop"}`,
			want: ControlEvent{Type: EventStop},
		},
		{
			name: "unknown event is other, not an error",
			data: `{"event":"mark","mark":{"name":"m1"}}`,
			want: ControlEvent{Type: EventOther},
		},
		{
			name: "empty event is other",
			data: `{}`,
			want: ControlEvent{Type: EventOther},
		},
		{
			name:    "malformed json",
			data:    `{"event":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTelephonyEvent([]byte(tt.data))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTelephonyEvent: %v", err)
			}
			if got != tt.want {
				t.Fatalf("event=%+v, want %+v", got, tt.want)
			}
		})
	}
}

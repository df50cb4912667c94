// Package ws implements a reference input/output transport pair over a
// websocket peer connection (spec §6.3): binary messages carry raw PCM audio,
// text messages carry a JSON {type, data} control envelope.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/coder/websocket"

	"github.com/MrWong99/glyphoxa/pkg/frame"
)

// envelope is the wire shape of a control message over the peer channel.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// TranscriptionPayload is the data shape of an outgoing "transcription"
// control message.
type TranscriptionPayload struct {
	Text      string `json:"text"`
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp"`
	Final     bool   `json:"final"`
}

// BotResponsePayload is the data shape of an outgoing "bot_response" control
// message.
type BotResponsePayload struct {
	Text string `json:"text"`
}

// Peer wraps one websocket connection, implementing
// transport.AudioSource, transport.AudioSink, and transport.MessageSink.
// Control (text) messages encountered while reading audio are handed to
// onMessage instead of being returned as audio.
type Peer struct {
	conn      *websocket.Conn
	onMessage func(*frame.InboundTransportMessageFrame)
}

// New wraps conn. onMessage is invoked for every text control message
// received while polling for audio; it may be nil to drop them.
func New(conn *websocket.Conn, onMessage func(*frame.InboundTransportMessageFrame)) *Peer {
	return &Peer{conn: conn, onMessage: onMessage}
}

// ReceiveAudioFrame implements transport.AudioSource. It reads messages
// until a binary (audio) message arrives, dispatching any text (control)
// messages to onMessage along the way.
func (p *Peer) ReceiveAudioFrame(ctx context.Context) ([]byte, error) {
	for {
		typ, data, err := p.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				return nil, io.EOF
			}
			return nil, err
		}
		if typ == websocket.MessageBinary {
			return data, nil
		}

		var env envelope
		if jsonErr := json.Unmarshal(data, &env); jsonErr != nil {
			continue
		}
		if p.onMessage != nil {
			p.onMessage(frame.NewInboundTransportMessageFrame(env.Type, []byte(env.Data)))
		}
	}
}

// SendAudio implements transport.AudioSink: the chunk is written as a single
// binary websocket message.
func (p *Peer) SendAudio(chunk []byte) error {
	return p.conn.Write(context.Background(), websocket.MessageBinary, chunk)
}

// SendMessage implements transport.MessageSink: the frame's payload is
// wrapped in the {type, data} envelope and sent as a text message.
//
// Payload is expected to already be the JSON-encoded data field; callers
// building frames with NewTranscriptionMessage/NewBotResponseMessage get
// this encoding for free.
func (p *Peer) SendMessage(f *frame.OutboundTransportMessageFrame) error {
	env := envelope{Type: f.MessageType, Data: f.Payload}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("ws: marshal envelope: %w", err)
	}
	return p.conn.Write(context.Background(), websocket.MessageText, raw)
}

// NewTranscriptionMessage builds an OutboundTransportMessageFrame carrying a
// "transcription" control envelope (spec §6.3).
func NewTranscriptionMessage(payload TranscriptionPayload) (*frame.OutboundTransportMessageFrame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return frame.NewOutboundTransportMessageFrame("transcription", data, false), nil
}

// NewBotResponseMessage builds an OutboundTransportMessageFrame carrying a
// "bot_response" control envelope (spec §6.3).
func NewBotResponseMessage(payload BotResponsePayload) (*frame.OutboundTransportMessageFrame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return frame.NewOutboundTransportMessageFrame("bot_response", data, false), nil
}

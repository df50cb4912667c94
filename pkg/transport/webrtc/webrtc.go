// Package webrtc implements a reference input/output transport pair over a
// WebRTC peer connection: audio travels as Opus-encoded RTP on a media
// track, control messages travel as JSON text over a data channel, mirroring
// the {type, data} envelope used by pkg/transport/ws (spec §6.3).
package webrtc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pion/webrtc/v3"
	"github.com/pion/webrtc/v3/pkg/media"
	"gopkg.in/hraban/opus.v2"

	"github.com/MrWong99/glyphoxa/pkg/frame"
)

const sampleDuration = 20 * time.Millisecond

const (
	rtpFrameSamples = 960 // 20ms at 48kHz mono, Opus's native frame size
	opusSampleRate  = 48000
	opusChannels    = 1
)

// SampleRate and Channels are the fixed PCM format this Peer's Opus codec
// always decodes to and encodes from, regardless of what format the rest of
// a pipeline uses. A caller wiring a Peer into transport.NewInput/NewOutput
// should set InputConfig.SourceSampleRate/SourceChannels and
// OutputConfig.SinkSampleRate/SinkChannels to these values so the transport
// stage resamples instead of mislabeling audio.
const (
	SampleRate = opusSampleRate
	Channels   = opusChannels
)

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Peer wraps one pion PeerConnection, decoding incoming Opus RTP into PCM
// and encoding outgoing PCM into Opus RTP, implementing
// transport.AudioSource, transport.AudioSink, and transport.MessageSink.
type Peer struct {
	pc   *webrtc.PeerConnection
	dc   *webrtc.DataChannel
	send *webrtc.TrackLocalStaticSample

	decoder *opus.Decoder
	encoder *opus.Encoder

	audioCh chan []byte
	onMsg   func(*frame.InboundTransportMessageFrame)

	closeOnce sync.Once
	closed    chan struct{}
}

// New creates a Peer around an established pion PeerConnection that already
// has one remote audio track and one data channel negotiated. onMessage is
// invoked for every control message received on the data channel; it may be
// nil to drop them.
func New(pc *webrtc.PeerConnection, onMessage func(*frame.InboundTransportMessageFrame)) (*Peer, error) {
	decoder, err := opus.NewDecoder(opusSampleRate, opusChannels)
	if err != nil {
		return nil, fmt.Errorf("webrtc: new opus decoder: %w", err)
	}
	encoder, err := opus.NewEncoder(opusSampleRate, opusChannels, opus.AppVoIP)
	if err != nil {
		return nil, fmt.Errorf("webrtc: new opus encoder: %w", err)
	}
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", "glyphoxa")
	if err != nil {
		return nil, fmt.Errorf("webrtc: new local track: %w", err)
	}
	if _, err := pc.AddTrack(track); err != nil {
		return nil, fmt.Errorf("webrtc: add local track: %w", err)
	}

	p := &Peer{
		pc:      pc,
		send:    track,
		decoder: decoder,
		encoder: encoder,
		audioCh: make(chan []byte, 64),
		onMsg:   onMessage,
		closed:  make(chan struct{}),
	}

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		if track.Kind() != webrtc.RTPCodecTypeAudio {
			return
		}
		go p.readTrack(track)
	})
	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		p.dc = dc
		dc.OnMessage(func(msg webrtc.DataChannelMessage) {
			p.handleDataChannelMessage(msg.Data)
		})
	})

	return p, nil
}

func (p *Peer) readTrack(track *webrtc.TrackRemote) {
	pcm := make([]int16, rtpFrameSamples)
	for {
		packet, _, err := track.ReadRTP()
		if err != nil {
			close(p.audioCh)
			return
		}
		n, err := p.decoder.Decode(packet.Payload, pcm)
		if err != nil {
			continue
		}
		chunk := int16sToBytes(pcm[:n])
		select {
		case p.audioCh <- chunk:
		case <-p.closed:
			return
		}
	}
}

func (p *Peer) handleDataChannelMessage(raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return
	}
	if p.onMsg != nil {
		p.onMsg(frame.NewInboundTransportMessageFrame(env.Type, []byte(env.Data)))
	}
}

// ReceiveAudioFrame implements transport.AudioSource.
func (p *Peer) ReceiveAudioFrame(ctx context.Context) ([]byte, error) {
	select {
	case chunk, ok := <-p.audioCh:
		if !ok {
			return nil, errPeerClosed
		}
		return chunk, nil
	case <-p.closed:
		return nil, errPeerClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SendAudio implements transport.AudioSink: chunk (16-bit LE PCM) is
// Opus-encoded and written as one RTP sample via the local track.
func (p *Peer) SendAudio(chunk []byte) error {
	pcm := bytesToInt16s(chunk)
	encoded := make([]byte, 4000)
	n, err := p.encoder.Encode(pcm, encoded)
	if err != nil {
		return fmt.Errorf("webrtc: opus encode: %w", err)
	}
	return p.send.WriteSample(media.Sample{Data: encoded[:n], Duration: sampleDuration})
}

// SendMessage implements transport.MessageSink: the frame's payload is
// wrapped in the {type, data} envelope and sent over the data channel.
func (p *Peer) SendMessage(f *frame.OutboundTransportMessageFrame) error {
	if p.dc == nil {
		return errNoDataChannel
	}
	env := envelope{Type: f.MessageType, Data: f.Payload}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("webrtc: marshal envelope: %w", err)
	}
	return p.dc.SendText(string(raw))
}

// Close tears down the peer connection.
func (p *Peer) Close() error {
	p.closeOnce.Do(func() { close(p.closed) })
	return p.pc.Close()
}

func int16sToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}

func bytesToInt16s(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(b[i*2]) | int16(b[i*2+1])<<8
	}
	return out
}

var (
	errPeerClosed    = fmt.Errorf("webrtc: peer connection closed: %w", io.EOF)
	errNoDataChannel = errors.New("webrtc: no data channel negotiated")
)

package transcript

import (
	"context"
	"sync"
	"time"

	"github.com/pitchloop-ai/session-orchestrator/pkg/audio"
)

const (
	tickInterval    = 1 * time.Second
	flushInterval   = 5 * time.Second
	minWindowBytes  = audio.BytesPerSecond // 1s of audio
	maxFlushWAVSize = 25 << 20
)

// PartialHandler receives rolling transcription output. isFinal is always
// true for this target: each flushed window is transcribed in full, never
// partially, so every callback carries a complete utterance for its window.
type PartialHandler func(text string, isFinal bool)

// ErrorHandler receives non-fatal provider failures encountered during a
// flush; the Streaming transcriber keeps running afterwards.
type ErrorHandler func(err error)

// Streaming produces rolling partial transcripts for UI display. It owns a
// window buffer (drained on each flush) and a cumulative buffer mirroring
// every byte ever sent. Safe for concurrent Send calls; the periodic flush
// runs on its own goroutine.
type Streaming struct {
	provider Provider
	opts     Options

	onPartial PartialHandler
	onError   ErrorHandler

	mu         sync.Mutex
	window     []byte
	cumulative []byte
	lastFlush  time.Time
	closed     bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewStreaming starts the periodic flush loop immediately. The returned
// Streaming must eventually be closed to stop the loop.
func NewStreaming(provider Provider, opts Options, onPartial PartialHandler, onError ErrorHandler) *Streaming {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Streaming{
		provider:  provider,
		opts:      opts,
		onPartial: onPartial,
		onError:   onError,
		lastFlush: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

func (s *Streaming) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.maybeFlush(ctx)
		}
	}
}

// Send appends pcm to both buffers. No-op once closed.
func (s *Streaming) Send(pcm []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.window = append(s.window, pcm...)
	s.cumulative = append(s.cumulative, pcm...)
}

// GetComplete returns the full accumulation sent so far, including after
// Close.
func (s *Streaming) GetComplete() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.cumulative))
	copy(out, s.cumulative)
	return out
}

func (s *Streaming) maybeFlush(ctx context.Context) {
	window, ready := s.snapshotIfDue()
	if !ready {
		return
	}
	s.transcribeWindow(ctx, window)
}

// snapshotIfDue holds the lock only long enough to decide whether a flush
// is due and, if so, to drain the window; the provider call happens outside
// the lock.
func (s *Streaming) snapshotIfDue() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false
	}
	if time.Since(s.lastFlush) < flushInterval {
		return nil, false
	}
	if len(s.window) < minWindowBytes {
		return nil, false
	}
	window := s.window
	s.window = nil
	s.lastFlush = time.Now()
	return window, true
}

func (s *Streaming) transcribeWindow(ctx context.Context, window []byte) {
	wav := audio.NewWavBuffer(window, s.opts.SampleRate)
	if len(wav) > maxFlushWAVSize {
		return
	}
	result, err := s.provider.TranscribeVerbose(ctx, wav, s.opts)
	if err != nil {
		if s.onError != nil {
			s.onError(err)
		}
		return
	}
	if result.Text == "" {
		return
	}
	if s.onPartial != nil {
		s.onPartial(result.Text, true)
	}
}

// Close stops the periodic flush loop, performing one final flush if the
// remaining window holds at least a second of audio. Send becomes a no-op
// after Close returns; GetComplete keeps working.
func (s *Streaming) Close(ctx context.Context) {
	window, ok := s.drainForClose()
	s.cancel()
	<-s.done
	if ok {
		s.transcribeWindow(ctx, window)
	}
}

func (s *Streaming) drainForClose() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false
	}
	s.closed = true
	if len(s.window) < minWindowBytes {
		return nil, false
	}
	window := s.window
	s.window = nil
	return window, true
}

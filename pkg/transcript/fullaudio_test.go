package transcript

import (
	"context"
	"testing"

	"github.com/pitchloop-ai/session-orchestrator/pkg/audio"
)

type mockProvider struct {
	name      string
	responses []VerboseResult
	errs      []error
	calls     int
	received  [][]byte
}

func (m *mockProvider) TranscribeVerbose(ctx context.Context, wav []byte, opts Options) (VerboseResult, error) {
	idx := m.calls
	m.calls++
	m.received = append(m.received, wav)
	var err error
	if idx < len(m.errs) {
		err = m.errs[idx]
	}
	if err != nil {
		return VerboseResult{}, err
	}
	if idx < len(m.responses) {
		return m.responses[idx], nil
	}
	return VerboseResult{}, nil
}

func (m *mockProvider) Name() string { return m.name }

func silence(seconds float64) []byte {
	return make([]byte, int(seconds*float64(audio.BytesPerSecond)))
}

func TestTranscribeCompleteRejectsTooShort(t *testing.T) {
	f := NewFullAudio(&mockProvider{})
	_, err := f.TranscribeComplete(context.Background(), silence(0.1), Options{SampleRate: audio.SampleRate})
	if err != ErrAudioTooShort {
		t.Fatalf("expected ErrAudioTooShort, got %v", err)
	}
}

func TestTranscribeCompleteSingleRequest(t *testing.T) {
	mock := &mockProvider{responses: []VerboseResult{
		{Text: "hello world", Language: "en", Segments: []Segment{{Start: 0, End: 1, Text: "hello world", Speaker: "0"}}},
	}}
	f := NewFullAudio(mock)

	result, err := f.TranscribeComplete(context.Background(), silence(2), Options{SampleRate: audio.SampleRate})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "hello world" {
		t.Errorf("expected 'hello world', got %q", result.Text)
	}
	if mock.calls != 1 {
		t.Errorf("expected single request under the size cap, got %d calls", mock.calls)
	}
}

func TestTranscribeCompleteSplitsOversizedAudio(t *testing.T) {
	pcm := make([]byte, singleRequestWAVCap)
	chunks := splitPCM(pcm)
	if len(chunks) < 2 {
		t.Fatalf("expected oversized audio to be split, got %d chunk(s)", len(chunks))
	}
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	if total != len(pcm) {
		t.Errorf("expected chunks to cover all PCM bytes, got %d want %d", total, len(pcm))
	}
}

func TestTranscribeChunksStitchesOffsets(t *testing.T) {
	mock := &mockProvider{responses: []VerboseResult{
		{Text: "first", Segments: []Segment{{Start: 0, End: 1, Text: "first"}}},
		{Text: "second", Segments: []Segment{{Start: 0, End: 1, Text: "second"}}},
	}}
	f := NewFullAudio(mock)

	chunks := [][]byte{silence(1), silence(1)}
	result, err := f.transcribeChunks(context.Background(), chunks, Options{SampleRate: audio.SampleRate})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "first second" {
		t.Errorf("expected concatenated text, got %q", result.Text)
	}
	if len(result.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(result.Segments))
	}
	if result.Segments[1].Start != 1 {
		t.Errorf("expected second chunk's segment to be offset by 1s, got %v", result.Segments[1].Start)
	}
}

func TestTranscribeChunksAllFail(t *testing.T) {
	mock := &mockProvider{errs: []error{
		&StatusError{Status: 400, Body: "bad request"},
		&StatusError{Status: 400, Body: "bad request"},
	}}
	f := NewFullAudio(mock)

	chunks := [][]byte{silence(1), silence(1)}
	_, err := f.transcribeChunks(context.Background(), chunks, Options{SampleRate: audio.SampleRate})
	if err != ErrAllChunksFailed {
		t.Fatalf("expected ErrAllChunksFailed, got %v", err)
	}
}

func TestTranscribeChunksPartialFailurePreservesAlignment(t *testing.T) {
	mock := &mockProvider{
		responses: []VerboseResult{{}, {Text: "second", Segments: []Segment{{Start: 0, End: 1, Text: "second"}}}},
		errs:      []error{&StatusError{Status: 400, Body: "bad request"}, nil},
	}
	f := NewFullAudio(mock)

	chunks := [][]byte{silence(1), silence(1)}
	result, err := f.transcribeChunks(context.Background(), chunks, Options{SampleRate: audio.SampleRate})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Segments) != 2 {
		t.Fatalf("expected placeholder + real segment, got %d", len(result.Segments))
	}
	if result.Segments[0].Text != "[transcription unavailable]" {
		t.Errorf("expected placeholder text for failed chunk, got %q", result.Segments[0].Text)
	}
	if result.Segments[1].Start != 1 {
		t.Errorf("expected second segment offset by first chunk duration, got %v", result.Segments[1].Start)
	}
}

func TestSplitPCMMergesShortResidue(t *testing.T) {
	maxPCMBytes := chunkWAVCap - wavHeaderSize
	// Two full chunks plus a half-second residue that must merge into the
	// last chunk rather than standing alone.
	pcm := make([]byte, maxPCMBytes*2+audio.BytesPerSecond/2)
	chunks := splitPCM(pcm)
	if len(chunks) != 2 {
		t.Fatalf("expected residue merged into previous chunk yielding 2 chunks, got %d", len(chunks))
	}
	if len(chunks[1]) != maxPCMBytes+audio.BytesPerSecond/2 {
		t.Errorf("expected merged chunk size %d, got %d", maxPCMBytes+audio.BytesPerSecond/2, len(chunks[1]))
	}
}

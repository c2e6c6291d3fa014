package transcript

import (
	"context"
	"strings"

	"github.com/pitchloop-ai/session-orchestrator/pkg/audio"
)

const (
	singleRequestWAVCap = 25 << 20
	chunkWAVCap         = 20 << 20
	wavHeaderSize       = 44
	minChunkSeconds     = 1
)

// FullAudio produces the authoritative diarized transcript for an entire
// session's cumulative PCM at session close.
type FullAudio struct {
	provider Provider
}

func NewFullAudio(provider Provider) *FullAudio {
	return &FullAudio{provider: provider}
}

// TranscribeComplete validates the PCM length, wraps it as WAV, splits it if
// oversized, transcribes each chunk sequentially with retry, then stitches
// the results back into one timeline.
func (f *FullAudio) TranscribeComplete(ctx context.Context, pcm []byte, opts Options) (VerboseResult, error) {
	if f.provider == nil {
		return VerboseResult{}, ErrNilProvider
	}
	durationSeconds := float64(len(pcm)) / float64(audio.BytesPerSecond)
	if len(pcm) == 0 || durationSeconds < 0.25 {
		return VerboseResult{}, ErrAudioTooShort
	}

	opts.Diarize = true
	wav := audio.NewWavBuffer(pcm, opts.SampleRate)
	if len(wav) <= singleRequestWAVCap {
		result, err := withRetry(ctx, func() (VerboseResult, error) {
			return f.provider.TranscribeVerbose(ctx, wav, opts)
		})
		if err != nil {
			return VerboseResult{}, err
		}
		return result, nil
	}

	chunks := splitPCM(pcm)
	return f.transcribeChunks(ctx, chunks, opts)
}

// splitPCM divides pcm into chunks that, once WAV-wrapped, stay under
// chunkWAVCap, respecting a 1s minimum chunk size and merging a
// shorter-than-minimum trailing residue into the previous chunk.
func splitPCM(pcm []byte) [][]byte {
	maxPCMBytes := chunkWAVCap - wavHeaderSize
	minBytes := minChunkSeconds * audio.BytesPerSecond

	var chunks [][]byte
	for offset := 0; offset < len(pcm); offset += maxPCMBytes {
		end := offset + maxPCMBytes
		if end > len(pcm) {
			end = len(pcm)
		}
		chunks = append(chunks, pcm[offset:end])
	}

	if len(chunks) > 1 {
		last := chunks[len(chunks)-1]
		if len(last) < minBytes {
			prev := chunks[len(chunks)-2]
			merged := make([]byte, 0, len(prev)+len(last))
			merged = append(merged, prev...)
			merged = append(merged, last...)
			chunks = chunks[:len(chunks)-2]
			chunks = append(chunks, merged)
		}
	}
	return chunks
}

func (f *FullAudio) transcribeChunks(ctx context.Context, chunks [][]byte, opts Options) (VerboseResult, error) {
	var (
		texts      []string
		segments   []Segment
		offset     float64
		language   string
		anySucceed bool
	)

	for _, chunk := range chunks {
		chunkDuration := float64(len(chunk)) / float64(audio.BytesPerSecond)
		wav := audio.NewWavBuffer(chunk, opts.SampleRate)

		result, err := withRetry(ctx, func() (VerboseResult, error) {
			return f.provider.TranscribeVerbose(ctx, wav, opts)
		})
		if err != nil {
			segments = append(segments, Segment{
				Start: offset,
				End:   offset + chunkDuration,
				Text:  "[transcription unavailable]",
			})
			offset += chunkDuration
			continue
		}

		anySucceed = true
		if language == "" {
			language = result.Language
		}
		texts = append(texts, result.Text)
		for _, seg := range result.Segments {
			segments = append(segments, Segment{
				Start:   seg.Start + offset,
				End:     seg.End + offset,
				Text:    seg.Text,
				Speaker: seg.Speaker,
			})
		}
		offset += chunkDuration
	}

	if !anySucceed {
		return VerboseResult{}, ErrAllChunksFailed
	}

	return VerboseResult{
		Text:     strings.Join(texts, " "),
		Language: language,
		Duration: offset,
		Segments: segments,
	}, nil
}

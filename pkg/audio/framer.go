package audio

import "encoding/base64"

// MaxFrameBytes is the largest inbound frame the Framer accepts before
// silently dropping it. 1 MiB at 16 kHz mono 16-bit is ~32s of audio, far
// more than any single device frame should ever carry.
const MaxFrameBytes = 1 << 20 // 1 MiB

// Normalize converts an inbound device frame into a contiguous chunk of
// 16-bit little-endian mono PCM at 16 kHz. The device is required to send in
// this format already; Normalize never resamples, it only accepts the two
// wire shapes (raw bytes or a base64-encoded string) and rejects anything
// empty or oversized.
//
// A nil, false return means the frame was rejected and must be dropped
// silently (no error is surfaced to the caller — an oversize or empty frame
// is not a protocol violation worth tearing down the connection for).
func Normalize(frame any) ([]byte, bool) {
	var raw []byte

	switch v := frame.(type) {
	case string:
		decoded, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, false
		}
		raw = decoded
	case []byte:
		raw = v
	default:
		return nil, false
	}

	if len(raw) == 0 || len(raw) > MaxFrameBytes {
		return nil, false
	}

	return raw, true
}

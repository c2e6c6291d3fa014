// Package audio handles normalization of inbound device frames into
// contiguous 16-bit little-endian mono PCM and wrapping PCM into minimal WAV
// containers for provider submission.
package audio

import (
	"bytes"
	"encoding/binary"
)

const (
	// SampleRate is the only sample rate the wire protocol accepts; the
	// device is required to capture and downsample locally.
	SampleRate = 16000
	// Channels is fixed to mono.
	Channels = 1
	// BytesPerSample is fixed for 16-bit PCM.
	BytesPerSample = 2
	// BytesPerSecond is the number of PCM bytes representing one second of
	// audio at SampleRate/Channels/BytesPerSample.
	BytesPerSecond = SampleRate * Channels * BytesPerSample
)

// NewWavBuffer wraps raw 16-bit LE mono PCM in a 44-byte RIFF/WAVE header.
func NewWavBuffer(pcm []byte, sampleRate int) []byte {
	buf := new(bytes.Buffer)

	
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))           
	binary.Write(buf, binary.LittleEndian, uint16(1))            
	binary.Write(buf, binary.LittleEndian, uint16(1))            
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))   
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2)) 
	binary.Write(buf, binary.LittleEndian, uint16(2))            
	binary.Write(buf, binary.LittleEndian, uint16(16))           

	
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

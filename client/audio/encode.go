// Package audio implements the client-side audio pipeline: PCM16 frame
// encoding for the wire and strictly ordered playback of synthesized
// segments.
package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// Wire audio format: 24 kHz mono 16-bit linear PCM.
const (
	SampleRate    = 24000
	NumChannels   = 1
	BitsPerSample = 16
)

// Float32ToPCM16 converts normalized float samples to little-endian
// PCM16 bytes, clamping to [-1, 1].
func Float32ToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, sample := range samples {
		s := math.Max(-1, math.Min(1, float64(sample)))
		var v int16
		if s < 0 {
			v = int16(s * 0x8000)
		} else {
			v = int16(s * 0x7FFF)
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// EncodeFrame encodes raw PCM16 bytes into the transport-safe text
// encoding used by input_audio_buffer.append envelopes.
func EncodeFrame(pcm []byte) string {
	return base64.StdEncoding.EncodeToString(pcm)
}

// DecodeDelta decodes the base64 payload of a response.audio.delta
// envelope back into PCM16 bytes.
func DecodeDelta(delta string) ([]byte, error) {
	pcm, err := base64.StdEncoding.DecodeString(delta)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio delta: %w", err)
	}
	return pcm, nil
}

// WrapPCMInWAV prefixes raw PCM16 data with a RIFF/WAVE header so any
// standard decoder can play it.
func WrapPCMInWAV(pcm []byte) []byte {
	blockAlign := NumChannels * BitsPerSample / 8
	byteRate := SampleRate * blockAlign

	out := make([]byte, 44+len(pcm))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16) // PCM chunk size
	binary.LittleEndian.PutUint16(out[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(out[22:24], NumChannels)
	binary.LittleEndian.PutUint32(out[24:28], SampleRate)
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], BitsPerSample)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[44:], pcm)
	return out
}

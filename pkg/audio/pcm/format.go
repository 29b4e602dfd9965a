package pcm

import (
	"fmt"
	"time"
)

// Common formats.
var (
	// L16Mono16K represents audio/L16; rate=16000; channels=1.
	L16Mono16K = Format{SampleRate: 16000, Channels: 1}
	// L16Stereo44K1 represents audio/L16; rate=44100; channels=2.
	L16Stereo44K1 = Format{SampleRate: 44100, Channels: 2}
	// L16Stereo48K represents audio/L16; rate=48000; channels=2.
	L16Stereo48K = Format{SampleRate: 48000, Channels: 2}
)

// Format describes a PCM audio configuration. The zero value is invalid;
// a valid Format has a positive sample rate and 1 or 2 channels. Sample
// depth is always 16 bits.
type Format struct {
	SampleRate int
	Channels   int
}

// Valid reports whether the format is usable.
func (f Format) Valid() bool {
	return f.SampleRate > 0 && (f.Channels == 1 || f.Channels == 2)
}

// Depth returns the bit depth. Always 16.
func (f Format) Depth() int { return 16 }

// FrameBytes returns the number of bytes in one sample frame
// (one sample per channel).
func (f Format) FrameBytes() int {
	return f.Channels * 2
}

// Frames returns the number of sample frames in the given number of bytes.
func (f Format) Frames(bytes int64) int64 {
	return bytes / int64(f.FrameBytes())
}

// FramesInDuration returns the number of sample frames in the given duration.
func (f Format) FramesInDuration(d time.Duration) int64 {
	return int64(time.Duration(f.SampleRate) * d / time.Second)
}

// BytesInDuration returns the number of bytes in the given duration,
// aligned down to a whole sample frame.
func (f Format) BytesInDuration(d time.Duration) int64 {
	return f.FramesInDuration(d) * int64(f.FrameBytes())
}

// Duration returns the duration of the given number of bytes.
func (f Format) Duration(bytes int64) time.Duration {
	if f.SampleRate == 0 {
		return 0
	}
	return time.Duration(f.Frames(bytes)) * time.Second / time.Duration(f.SampleRate)
}

// BytesRate returns the byte rate of the audio data.
func (f Format) BytesRate() int {
	return f.SampleRate * f.FrameBytes()
}

// AlignDown truncates n down to a whole sample frame.
func (f Format) AlignDown(n int64) int64 {
	fb := int64(f.FrameBytes())
	return n / fb * fb
}

// String returns a human-readable representation of the format.
func (f Format) String() string {
	return fmt.Sprintf("audio/L16; rate=%d; channels=%d", f.SampleRate, f.Channels)
}

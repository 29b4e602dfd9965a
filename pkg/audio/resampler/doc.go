// Package resampler converts PCM audio between formats.
//
// It supports:
//   - Sample rate conversion (e.g., 44100Hz to 48000Hz)
//   - Channel conversion (mono to stereo or stereo to mono)
//   - Streaming interface via io.Reader
//
// Rate conversion is backed by github.com/tphakala/go-audio-resampling at
// high quality. Samples are 16-bit signed little-endian throughout.
//
// Example usage:
//
//	r, err := resampler.New(audioReader,
//	    pcm.Format{SampleRate: 44100, Channels: 2},
//	    pcm.Format{SampleRate: 48000, Channels: 1})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	io.Copy(output, r)
package resampler

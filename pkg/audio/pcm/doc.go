// Package pcm provides primitives for working with raw PCM audio:
// format math, the retained decode buffer shared between playback and
// transcription, and sample-level helpers such as gain application.
//
// All PCM data handled by this package is interleaved 16-bit signed
// little-endian samples.
package pcm

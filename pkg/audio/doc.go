// Package audio is an umbrella for the audio sub-packages:
//
//   - pcm: PCM format math, the retained decode buffer, sample helpers
//   - codec: container decoders (mp3, m4a, wav, flac) behind one interface
//   - resampler: sample-rate and channel-layout conversion
//   - portaudio: playback through the default output device (CGO)
package audio

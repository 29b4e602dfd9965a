// Package m4a registers an M4A/AAC decoder backed by the ffmpeg and
// ffprobe binaries. There is no production-quality pure Go AAC decoder;
// ffmpeg is invoked as a subprocess, emitting raw 16-bit PCM on stdout.
package m4a

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/verbatim-audio/verbatim/pkg/audio/codec"
	"github.com/verbatim-audio/verbatim/pkg/audio/pcm"
)

func init() {
	codec.Register(codec.M4a, open)
}

type decoder struct {
	cmd     *exec.Cmd
	out     io.ReadCloser
	format  pcm.Format
	frames  int64
	waitErr error
	waited  bool

	tmp string // spooled copy of a byte-backed source, removed on Close
}

func open(in codec.Input) (codec.Decoder, error) {
	path := in.Path
	tmp := ""
	if path == "" {
		// ffprobe needs seekable input; the moov atom may trail the
		// stream. Spool reader-backed sources to disk.
		f, err := os.CreateTemp("", "m4a-*.m4a")
		if err != nil {
			return nil, fmt.Errorf("m4a: %w", err)
		}
		if _, err := io.Copy(f, in.R); err != nil {
			f.Close()
			os.Remove(f.Name())
			return nil, fmt.Errorf("m4a: spool: %w", err)
		}
		f.Close()
		path = f.Name()
		tmp = path
	}

	info, err := probe(path)
	if err != nil {
		if tmp != "" {
			os.Remove(tmp)
		}
		return nil, err
	}

	channels := info.channels
	if channels > 2 {
		channels = 2 // downmix surround layouts
	}
	format := pcm.Format{SampleRate: info.sampleRate, Channels: channels}

	cmd := exec.Command("ffmpeg",
		"-v", "error",
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(format.SampleRate),
		"-ac", strconv.Itoa(format.Channels),
		"pipe:1",
	)
	out, err := cmd.StdoutPipe()
	if err != nil {
		if tmp != "" {
			os.Remove(tmp)
		}
		return nil, fmt.Errorf("m4a: %w", err)
	}
	if err := cmd.Start(); err != nil {
		if tmp != "" {
			os.Remove(tmp)
		}
		return nil, fmt.Errorf("m4a: ffmpeg: %w", err)
	}

	frames := int64(-1)
	if info.duration > 0 {
		frames = int64(info.duration * float64(format.SampleRate))
	}

	return &decoder{
		cmd:    cmd,
		out:    out,
		format: format,
		frames: frames,
		tmp:    tmp,
	}, nil
}

func (d *decoder) Format() pcm.Format { return d.format }

func (d *decoder) Frames() int64 { return d.frames }

func (d *decoder) Read(p []byte) (int, error) {
	n, err := d.out.Read(p)
	if err == io.EOF {
		// A non-zero ffmpeg exit means the stream broke mid-decode.
		if werr := d.wait(); werr != nil {
			return n, fmt.Errorf("%w: ffmpeg: %v", codec.ErrDecode, werr)
		}
	}
	return n, err
}

func (d *decoder) wait() error {
	if !d.waited {
		d.waited = true
		d.waitErr = d.cmd.Wait()
	}
	return d.waitErr
}

func (d *decoder) Close() error {
	d.out.Close()
	if !d.waited && d.cmd.Process != nil {
		d.cmd.Process.Kill()
	}
	d.wait()
	if d.tmp != "" {
		os.Remove(d.tmp)
	}
	return nil
}

type streamInfo struct {
	sampleRate int
	channels   int
	duration   float64 // seconds, 0 if unknown
}

// probe runs ffprobe over the audio stream and extracts rate, channel
// count and duration.
func probe(path string) (streamInfo, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate,channels,duration",
		"-of", "json",
		path,
	)
	raw, err := cmd.Output()
	if err != nil {
		return streamInfo{}, fmt.Errorf("m4a: %w: ffprobe: %v", codec.ErrUnsupportedFormat, err)
	}

	var parsed struct {
		Streams []struct {
			SampleRate string  `json:"sample_rate"`
			Channels   int     `json:"channels"`
			Duration   string  `json:"duration"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return streamInfo{}, fmt.Errorf("m4a: ffprobe output: %w", err)
	}
	if len(parsed.Streams) == 0 {
		return streamInfo{}, fmt.Errorf("m4a: %w: no audio stream", codec.ErrUnsupportedFormat)
	}

	s := parsed.Streams[0]
	rate, err := strconv.Atoi(s.SampleRate)
	if err != nil || rate <= 0 || s.Channels <= 0 {
		return streamInfo{}, fmt.Errorf("m4a: %w: bad stream parameters", codec.ErrUnsupportedFormat)
	}
	dur, _ := strconv.ParseFloat(s.Duration, 64)

	return streamInfo{sampleRate: rate, channels: s.Channels, duration: dur}, nil
}

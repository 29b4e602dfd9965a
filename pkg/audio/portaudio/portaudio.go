// Package portaudio plays PCM audio through the default output device.
//
// The package binds the PortAudio C library via CGO and exposes only the
// blocking output path: OutputStream paces its caller at the device rate,
// which is what the playback feed loop relies on for timing.
//
// Requires portaudio installed via pkg-config (brew install portaudio).
package portaudio

/*
#cgo pkg-config: portaudio-2.0

#include <portaudio.h>
#include <stdlib.h>
#include <string.h>

// Wrapper functions using void* to avoid CGO type issues with PaStream
static PaError pa_open_output(void **stream,
                              const PaStreamParameters *outputParams,
                              double sampleRate,
                              unsigned long framesPerBuffer,
                              PaStreamFlags streamFlags) {
    return Pa_OpenStream((PaStream**)stream, NULL, outputParams, sampleRate,
                         framesPerBuffer, streamFlags, NULL, NULL);
}

static PaError pa_start_stream(void *stream) {
    return Pa_StartStream((PaStream*)stream);
}

static PaError pa_stop_stream(void *stream) {
    return Pa_StopStream((PaStream*)stream);
}

static PaError pa_close_stream(void *stream) {
    return Pa_CloseStream((PaStream*)stream);
}

static PaError pa_write_stream(void *stream, const void *buffer, unsigned long frames) {
    return Pa_WriteStream((PaStream*)stream, buffer, frames);
}
*/
import "C"

import (
	"errors"
	"sync"
	"unsafe"
)

var (
	initOnce sync.Once
	initErr  error
)

// paError converts a PortAudio error code to a Go error.
func paError(code C.PaError) error {
	if code == C.paNoError {
		return nil
	}
	return errors.New(C.GoString(C.Pa_GetErrorText(code)))
}

// Initialize initializes the PortAudio library.
// It is safe to call multiple times.
func Initialize() error {
	initOnce.Do(func() {
		initErr = paError(C.Pa_Initialize())
	})
	return initErr
}

// Terminate terminates the PortAudio library.
func Terminate() error {
	return paError(C.Pa_Terminate())
}

// DeviceInfo describes an output-capable audio device.
type DeviceInfo struct {
	Index             int
	Name              string
	MaxOutputChannels int
	DefaultLatency    float64
	DefaultSampleRate float64
	IsDefault         bool
}

// OutputDevices returns the devices that can play audio.
func OutputDevices() ([]DeviceInfo, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	count := int(C.Pa_GetDeviceCount())
	if count < 0 {
		return nil, paError(C.PaError(count))
	}
	def := int(C.Pa_GetDefaultOutputDevice())

	var devices []DeviceInfo
	for i := 0; i < count; i++ {
		info := C.Pa_GetDeviceInfo(C.PaDeviceIndex(i))
		if info == nil || info.maxOutputChannels <= 0 {
			continue
		}
		devices = append(devices, DeviceInfo{
			Index:             i,
			Name:              C.GoString(info.name),
			MaxOutputChannels: int(info.maxOutputChannels),
			DefaultLatency:    float64(info.defaultLowOutputLatency),
			DefaultSampleRate: float64(info.defaultSampleRate),
			IsDefault:         i == def,
		})
	}
	return devices, nil
}

// DefaultOutputDevice returns the default output device.
func DefaultOutputDevice() (*DeviceInfo, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	idx := C.Pa_GetDefaultOutputDevice()
	if idx == C.paNoDevice {
		return nil, errors.New("no default output device")
	}
	info := C.Pa_GetDeviceInfo(idx)
	if info == nil {
		return nil, errors.New("failed to get device info")
	}

	return &DeviceInfo{
		Index:             int(idx),
		Name:              C.GoString(info.name),
		MaxOutputChannels: int(info.maxOutputChannels),
		DefaultLatency:    float64(info.defaultLowOutputLatency),
		DefaultSampleRate: float64(info.defaultSampleRate),
		IsDefault:         true,
	}, nil
}

// stream wraps a raw PortAudio output stream.
type stream struct {
	stream     unsafe.Pointer
	buffer     unsafe.Pointer
	bufferSize int
	channels   int
	closed     bool
	mu         sync.Mutex
}

// openStream opens an int16 output stream on the default device.
func openStream(channels int, sampleRate float64, framesPerBuffer int) (*stream, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	device := C.Pa_GetDefaultOutputDevice()
	if device == C.paNoDevice {
		return nil, errors.New("no default output device")
	}
	info := C.Pa_GetDeviceInfo(device)
	params := &C.PaStreamParameters{
		device:                    device,
		channelCount:              C.int(channels),
		sampleFormat:              C.paInt16,
		suggestedLatency:          info.defaultLowOutputLatency,
		hostApiSpecificStreamInfo: nil,
	}

	var paStream unsafe.Pointer
	err := paError(C.pa_open_output(
		&paStream,
		params,
		C.double(sampleRate),
		C.ulong(framesPerBuffer),
		C.paClipOff,
	))
	if err != nil {
		return nil, err
	}

	bufferSize := framesPerBuffer * channels * 2 // int16 = 2 bytes

	return &stream{
		stream:     paStream,
		buffer:     C.malloc(C.size_t(bufferSize)),
		bufferSize: bufferSize,
		channels:   channels,
	}, nil
}

func (s *stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("stream closed")
	}
	return paError(C.pa_start_stream(s.stream))
}

func (s *stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	C.pa_stop_stream(s.stream)
	err := paError(C.pa_close_stream(s.stream))
	C.free(s.buffer)
	return err
}

// Write blocks until the device has consumed the samples.
func (s *stream) Write(samples []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("stream closed")
	}
	if len(samples)*2 > s.bufferSize {
		return errors.New("portaudio: write exceeds stream buffer")
	}

	C.memcpy(s.buffer, unsafe.Pointer(&samples[0]), C.size_t(len(samples)*2))
	frames := len(samples) / s.channels
	return paError(C.pa_write_stream(s.stream, s.buffer, C.ulong(frames)))
}

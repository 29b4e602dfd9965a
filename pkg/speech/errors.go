package speech

import "errors"

// ErrUnsupportedFormat reports a source container that transcription does
// not accept (flac). It is permanent: no backend is invoked.
var ErrUnsupportedFormat = errors.New("speech: transcription unsupported for this format")

// TranscriptionError wraps a backend failure and records whether retrying
// the job can succeed. Transient failures (network, rate limits) may be
// retried by calling Start again; permanent ones (unintelligible or empty
// audio, misconfigured backend) leave the job Failed.
type TranscriptionError struct {
	Transient bool
	Err       error
}

func (e *TranscriptionError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return "speech: " + kind + ": " + e.Err.Error()
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// Transient wraps err as a retryable transcription failure.
func Transient(err error) *TranscriptionError {
	return &TranscriptionError{Transient: true, Err: err}
}

// Permanent wraps err as a non-retryable transcription failure.
func Permanent(err error) *TranscriptionError {
	return &TranscriptionError{Err: err}
}

// IsTransient reports whether err is a retryable transcription failure.
func IsTransient(err error) bool {
	var te *TranscriptionError
	return errors.As(err, &te) && te.Transient
}

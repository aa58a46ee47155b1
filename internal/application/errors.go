package application

import "errors"

var (
	ErrMissingInput   = errors.New("missing input")
	ErrInvalidContext = errors.New("invalid context")
	ErrNotConfigured  = errors.New("API key not configured")
	ErrAudioTooShort  = errors.New("audio too short")
	ErrNoTranscript   = errors.New("could not transcribe audio")
)

// UserError carries a client-facing message alongside a sentinel kind.
type UserError struct {
	Kind    error
	Message string
}

func (e *UserError) Error() string { return e.Message }

func (e *UserError) Unwrap() error { return e.Kind }

func userError(kind error, msg string) error {
	return &UserError{Kind: kind, Message: msg}
}

package engine

import "github.com/rs/zerolog"

// DefaultInteractionReference is the href identifying an MCQ interaction anchor.
const DefaultInteractionReference = "http://www.comprodls.com/m1.0/interaction/mcq"

const (
	resizeMode   = "auto"
	resizeHeight = "580"

	// endCurrentTest is reported on every result item.
	endCurrentTest = false
)

// Option configures a Renderer or Editor.
type Option func(*settings)

type settings struct {
	log        zerolog.Logger
	reference  string
	maxRetries int
}

func defaultSettings() settings {
	return settings{
		log:        zerolog.Nop(),
		reference:  DefaultInteractionReference,
		maxRetries: DefaultMaxRetries,
	}
}

func applyOptions(opts []Option) settings {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithLogger sets the logger used for save and retry diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(s *settings) { s.log = log }
}

// WithInteractionReference overrides the href that identifies interaction anchors.
func WithInteractionReference(ref string) Option {
	return func(s *settings) {
		if ref != "" {
			s.reference = ref
		}
	}
}

// WithMaxRetries overrides how many times a failed final submission is re-sent.
func WithMaxRetries(n int) Option {
	return func(s *settings) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

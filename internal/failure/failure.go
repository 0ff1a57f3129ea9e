package failure

import "errors"

var (
	ErrUnsupportedFormat  = errors.New("unsupported audio format")
	ErrUnintelligible     = errors.New("speech could not be recognized")
	ErrServiceUnavailable = errors.New("external service unavailable")
	ErrSynthesisFailed    = errors.New("speech synthesis failed")
)

type Kind int

const (
	KindNone Kind = iota
	KindUnsupportedFormat
	KindUnintelligible
	KindServiceUnavailable
	KindSynthesisFailed
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindUnsupportedFormat:
		return "unsupported_format"
	case KindUnintelligible:
		return "unintelligible"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindSynthesisFailed:
		return "synthesis_failed"
	default:
		return "unknown"
	}
}

// KindOf classifies err against the sentinel errors. A nil error is KindNone.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrUnsupportedFormat):
		return KindUnsupportedFormat
	case errors.Is(err, ErrUnintelligible):
		return KindUnintelligible
	case errors.Is(err, ErrServiceUnavailable):
		return KindServiceUnavailable
	case errors.Is(err, ErrSynthesisFailed):
		return KindSynthesisFailed
	default:
		return KindUnknown
	}
}

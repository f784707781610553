package audit

import "errors"

// Kind is the machine-readable classification of a pipeline failure.
type Kind string

const (
	// KindParseFailed: no search intent could be extracted from the
	// input; the caller should ask for manual fallback text.
	KindParseFailed Kind = "URL_PARSE_FAILED"
	// KindNotFound: the place directory has no matching business.
	KindNotFound Kind = "PLACE_NOT_FOUND"
	// KindInvalidGridSize: misconfigured sampling grid; a deployment
	// error, not a user-facing condition.
	KindInvalidGridSize Kind = "INVALID_GRID_SIZE"
	// KindNarrativeFailed: the narrative generator produced no parseable
	// structured output.
	KindNarrativeFailed Kind = "NARRATIVE_FAILED"
	// KindCacheUnavailable: the report store failed; generation is
	// aborted rather than producing an unpersistable report.
	KindCacheUnavailable Kind = "CACHE_UNAVAILABLE"
	// KindInternal: anything else.
	KindInternal Kind = "INTERNAL"
)

// Error is a tagged pipeline failure carrying a machine-readable kind
// and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the failure kind from an error chain, defaulting to
// KindInternal for untagged errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

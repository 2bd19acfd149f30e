package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrEmptyQuery is returned when the query is empty or whitespace only
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrNoCandidates is returned when the candidate list is empty
	ErrNoCandidates = errors.New("candidates cannot be empty")

	// ErrInvalidWeights is returned when a scoring weight is negative or unknown
	ErrInvalidWeights = errors.New("invalid scoring weights")

	// ErrUnknownProfile is returned when a request names a profile that is not configured
	ErrUnknownProfile = errors.New("unknown matching profile")

	// ErrExtractorUnavailable is returned when no component extractor is configured
	ErrExtractorUnavailable = errors.New("component extractor unavailable")

	// ErrEncoderUnavailable is returned when the text encoder cannot produce a vector
	ErrEncoderUnavailable = errors.New("text encoder unavailable")

	// ErrLLMFailure is returned when a language model request fails
	ErrLLMFailure = errors.New("language model request failed")
)

// IsValidationError reports whether err is a request-shape error that should be
// reported to the caller as a rejected request.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrEmptyQuery) ||
		errors.Is(err, ErrNoCandidates) ||
		errors.Is(err, ErrInvalidWeights) ||
		errors.Is(err, ErrUnknownProfile)
}

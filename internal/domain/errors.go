package domain

import "errors"

var (
	// ErrNotFound marks a read for an id that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable marks a persistence failure: nothing from the
	// attempted unit was written and the caller may retry.
	ErrUnavailable = errors.New("storage unavailable")
)

// ValidationError rejects an input before anything is written. Each
// rejected condition is a distinct package-level value, so callers can
// test with errors.Is and map Code to a wire response.
type ValidationError struct {
	Code string
	Msg  string
}

func (e *ValidationError) Error() string { return e.Msg }

var (
	ErrRatingOutOfRange = &ValidationError{Code: "rating_out_of_range", Msg: "rating must be an integer between 1 and 5"}
	ErrContentTooShort  = &ValidationError{Code: "content_too_short", Msg: "review content must be at least 10 characters"}
	ErrContentTooLong   = &ValidationError{Code: "content_too_long", Msg: "review content must be at most 2000 characters"}
	ErrUnknownVenue     = &ValidationError{Code: "unknown_venue", Msg: "venue does not exist"}
	ErrUnknownReview    = &ValidationError{Code: "unknown_review", Msg: "review does not exist"}
	ErrUnknownRecord    = &ValidationError{Code: "unknown_record", Msg: "recommendation record does not exist"}
	ErrScoreOutOfRange  = &ValidationError{Code: "score_out_of_range", Msg: "feedback score must be an integer between 1 and 5"}
	ErrEmptyEdit        = &ValidationError{Code: "empty_edit", Msg: "edit must change rating or content"}
	ErrBadCursor        = &ValidationError{Code: "bad_cursor", Msg: "cursor is not valid"}
)

// IsValidation reports whether err is (or wraps) any validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidationCode extracts the stable code, or "" for non-validation errors.
func ValidationCode(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}

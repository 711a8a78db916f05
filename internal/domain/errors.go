package domain

import "errors"

var (
	// ErrInvalidInput marks a reading or geometry rejected before computation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrClassifierUnavailable marks a missing, corrupt or mismatched
	// classifier artifact. It never escapes an evaluation; the assessment is
	// flagged instead.
	ErrClassifierUnavailable = errors.New("classifier unavailable")

	// ErrWeatherNotConfigured is returned when no weather credential is set.
	ErrWeatherNotConfigured = errors.New("weather service not configured")

	// ErrWeatherFetchFailed is returned when the weather service could not
	// produce a reading. The evaluation is skipped.
	ErrWeatherFetchFailed = errors.New("weather fetch failed")

	// ErrReferenceDataUnavailable is returned when the segment table is
	// missing or malformed.
	ErrReferenceDataUnavailable = errors.New("reference data unavailable")
)

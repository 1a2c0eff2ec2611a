package apperrors

import "net/http"

// ToHTTPStatus maps an error code to an HTTP status code.
func ToHTTPStatus(code string) int {
	switch code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrInvalidArgument, ErrConflict:
		// The API reports checkout conflicts as 400, matching the
		// provider-facing contract.
		return http.StatusBadRequest
	case ErrUnauthenticated:
		return http.StatusUnauthorized
	case ErrUnauthorized:
		return http.StatusForbidden
	case ErrUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HTTPStatus returns the HTTP status for err.
func HTTPStatus(err error) int {
	return ToHTTPStatus(CodeOf(err))
}

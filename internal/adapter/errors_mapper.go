package adapter

import (
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// mapHTTPError converts a non-2xx resty response into the shared
// SyncError classification used by every entity handler:
//
//	401 → unauthorized (re-authentication required)
//	404 → not found
//	409 → conflict (re-fetch before retrying)
//	any other status → server error, retryable iff >= 500
func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(resp.StatusCode())
	}

	switch resp.StatusCode() {
	case http.StatusUnauthorized:
		return UnauthorizedError()
	case http.StatusNotFound:
		return NotFoundError(body)
	case http.StatusConflict:
		return ConflictError(body)
	default:
		return ServerError(resp.StatusCode(), body)
	}
}

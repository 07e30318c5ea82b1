package timeout

import (
	"net/http"
	"time"
)

// Timeout cuts off requests that run longer than the given seconds.
func Timeout(seconds int) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, time.Duration(seconds)*time.Second, "request timed out")
	}
}

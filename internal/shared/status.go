package shared

import (
	"errors"
	"net/http"
	"strconv"
)

// statusCoder is satisfied by transport errors that still carry the real
// upstream status (e.g. *tna.UpstreamError).
type statusCoder interface{ StatusCode() int }

// StatusFromError recovers a plausible HTTP status from a failure. A
// transport error that preserved the real upstream status wins outright.
// Otherwise only the message text remains: some internal paths lose the
// transport status and keep a formatted string like "upstream failed
// with status 404", so the trailing standalone 3-digit token is the best
// signal left. Anything absent or outside [400,599] maps to 500.
func StatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		if s := sc.StatusCode(); s > 0 {
			return s
		}
	}

	// trailing token: the last run of exactly three digits
	msg := err.Error()
	token := 0
	for i := 0; i < len(msg); {
		if msg[i] < '0' || msg[i] > '9' {
			i++
			continue
		}
		j := i
		for j < len(msg) && msg[j] >= '0' && msg[j] <= '9' {
			j++
		}
		if j-i == 3 {
			if n, aerr := strconv.Atoi(msg[i:j]); aerr == nil {
				token = n
			}
		}
		i = j
	}
	if token >= 400 && token <= 599 {
		return token
	}
	return http.StatusInternalServerError
}

package pinboard

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// loggingTransport logs every round trip with credentials stripped.
type loggingTransport struct {
	next   http.RoundTripper
	logger Logger
}

func newLoggingTransport(next http.RoundTripper, l Logger) *loggingTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingTransport{next: next, logger: l}
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		t.logger.Warnf("%-7s %s failed after %s: %v", req.Method, redactURL(req.URL), time.Since(start), err)
		return nil, err
	}
	t.logger.Debugf("%-7s %s %d %s", req.Method, redactURL(req.URL), resp.StatusCode, time.Since(start))
	return resp, nil
}

// redactURL drops user-info and masks the token half of auth_token.
func redactURL(u *url.URL) string {
	clean := *u
	clean.User = nil
	q := clean.Query()
	if auth := q.Get("auth_token"); auth != "" {
		user, _, _ := strings.Cut(auth, ":")
		q.Set("auth_token", user+":REDACTED")
		clean.RawQuery = q.Encode()
	}
	return clean.String()
}

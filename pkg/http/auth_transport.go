package http

import "net/http"

// headerTransport stamps static headers on every outbound request
type headerTransport struct {
	headers   map[string]string
	transport http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	reqCopy := req.Clone(req.Context())

	for key, value := range t.headers {
		if reqCopy.Header.Get(key) == "" {
			reqCopy.Header.Set(key, value)
		}
	}

	return t.transport.RoundTrip(reqCopy)
}

// WithAuthToken adds a bearer token. An empty token is a no-op.
func WithAuthToken(token string) ClientOption {
	if token == "" {
		return func(*clientConfig) {}
	}
	return WithStaticHeader("Authorization", "Bearer "+token)
}

// WithUserAgent sets the User-Agent of requests that don't carry one
func WithUserAgent(userAgent string) ClientOption {
	return WithStaticHeader("User-Agent", userAgent)
}

func WithStaticHeader(key, value string) ClientOption {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &headerTransport{
			headers:   map[string]string{key: value},
			transport: rt,
		}
	})
}

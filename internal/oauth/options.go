// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package oauth

import (
	"net/http"
	"strings"
)

// Option configures an OAuth provider.
type Option func(*options)

type options struct {
	httpClient *http.Client
	apiBaseURL string
}

// WithHTTPClient sets the HTTP client used for token exchange and API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithAPIBaseURL points user API calls at another host, such as a GitHub
// Enterprise instance or a local test server.
func WithAPIBaseURL(baseURL string) Option {
	return func(o *options) {
		o.apiBaseURL = strings.TrimRight(baseURL, "/")
	}
}

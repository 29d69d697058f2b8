package telemetry

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// WrapHTTPTransport wraps a transport with OTEL instrumentation, keeping
// any existing configuration (proxy, timeouts) intact.
func WrapHTTPTransport(transport http.RoundTripper) http.RoundTripper {
	if !IsEnabled() {
		return transport
	}
	return otelhttp.NewTransport(transport)
}

// WrapHTTPClient instruments the client's transport in place and returns
// the client for convenience. The Sheets API client passes through here
// so every outgoing Google API request produces a child span.
func WrapHTTPClient(client *http.Client) *http.Client {
	if !IsEnabled() {
		return client
	}

	transport := client.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	client.Transport = otelhttp.NewTransport(transport)

	return client
}

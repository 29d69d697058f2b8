// Package httpclient builds the outbound HTTP clients used to reach Google
// endpoints. Corporate proxies are honoured via the standard environment
// variables, and transports carry OTEL instrumentation when tracing is
// enabled.
package httpclient

import (
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/duquesnay/google-sheets-mcp-server/internal/telemetry"
	"github.com/sirupsen/logrus"
)

// proxyEnvVars lists the proxy environment variables in order of preference,
// following the conventions used by curl, wget, and other tools.
var proxyEnvVars = []string{
	"HTTPS_PROXY",
	"https_proxy",
	"HTTP_PROXY",
	"http_proxy",
}

// New returns a client with proxy support and OTEL instrumentation, used for
// OAuth token exchanges and other calls outside the Sheets service transport.
func New(timeout time.Duration, logger *logrus.Logger) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: telemetry.WrapHTTPTransport(NewTransport(logger)),
	}
}

// NewTransport returns the proxy-aware base transport without instrumentation,
// for callers that layer their own.
func NewTransport(logger *logrus.Logger) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	proxyURL := getProxyURL()
	if proxyURL == "" {
		return transport
	}

	parsed, err := url.Parse(proxyURL)
	if err != nil {
		if logger != nil {
			logger.WithError(err).WithField("proxy_url", redactProxyCredentials(proxyURL)).Warn("Failed to parse proxy URL, using direct connection")
		}
		return transport
	}

	transport.Proxy = http.ProxyURL(parsed)
	if logger != nil {
		logger.WithField("proxy_url", redactProxyCredentials(proxyURL)).Debug("HTTP transport configured with proxy")
	}
	return transport
}

// getProxyURL returns the first valid proxy URL from environment variables.
// Returns empty string if no proxy is configured.
func getProxyURL() string {
	for _, envVar := range proxyEnvVars {
		if proxyURL := os.Getenv(envVar); proxyURL != "" {
			// Skip placeholder values that some tools use
			if proxyURL != "$HTTPS_PROXY" && proxyURL != "$HTTP_PROXY" {
				return proxyURL
			}
		}
	}
	return ""
}

// redactProxyCredentials removes credentials from a proxy URL for safe logging.
func redactProxyCredentials(proxyURL string) string {
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return "[invalid-url]"
	}
	if parsed.User != nil {
		parsed.User = url.UserPassword("***", "***")
	}
	return parsed.String()
}

// IsProxyConfigured returns true if any proxy environment variable is set.
func IsProxyConfigured() bool {
	return getProxyURL() != ""
}

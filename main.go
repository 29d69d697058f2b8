package main

import (
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	toolcli "github.com/duquesnay/google-sheets-mcp-server/internal/cli"
	"github.com/duquesnay/google-sheets-mcp-server/internal/config"
	"github.com/duquesnay/google-sheets-mcp-server/internal/gauth"
	"github.com/duquesnay/google-sheets-mcp-server/internal/registry"
	"github.com/duquesnay/google-sheets-mcp-server/internal/sheets"
	"github.com/duquesnay/google-sheets-mcp-server/internal/telemetry"
	"github.com/duquesnay/google-sheets-mcp-server/internal/tools"
	"github.com/duquesnay/google-sheets-mcp-server/internal/tools/googlesheets"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

// Version information (set during build)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Global resources that need cleanup
// Using atomic operations to prevent race conditions between signal handlers and cleanup
var (
	debugLogFile atomic.Pointer[os.File]
	isStdioMode  atomic.Bool
)

const (
	// DefaultMemoryLimit is the default memory limit for the Go application (1GB).
	// Sheet payloads are small; the limit mostly bounds pathological batch reads.
	DefaultMemoryLimit = 1 * 1024 * 1024 * 1024
)

// supportedProtocolVersions lists the MCP protocol revisions this server has
// been tested against.
var supportedProtocolVersions = []string{
	"2025-06-18",
	"2024-11-05",
}

// parseLogLevel reads the log level from the environment before the config
// layer is available. Defaults to WarnLevel if not set or invalid.
func parseLogLevel() logrus.Level {
	logLevelStr := os.Getenv(config.EnvPrefix + "LOG_LEVEL")
	if logLevelStr == "" {
		logLevelStr = os.Getenv("LOG_LEVEL")
	}
	if logLevelStr == "" {
		return logrus.WarnLevel
	}

	switch strings.ToLower(strings.TrimSpace(logLevelStr)) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.WarnLevel
	}
}

// setMemoryLimit configures the Go runtime memory limit
func setMemoryLimit() {
	memLimitStr := os.Getenv(config.EnvPrefix + "MEMORY_LIMIT")
	var memLimit int64 = DefaultMemoryLimit

	if memLimitStr != "" {
		if parsed, err := strconv.ParseInt(memLimitStr, 10, 64); err == nil && parsed > 0 {
			memLimit = parsed
		}
	}

	// Soft limit - the runtime adjusts GC behaviour to stay under it
	debug.SetMemoryLimit(memLimit)
}

func main() {
	setMemoryLimit()

	// Create context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initially discard output - reconfigured in Action once the transport
	// mode is known, because stdout belongs to the protocol in stdio mode
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(parseLogLevel())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// Initialise the registry
	registry.Init(logger)

	// Ensure cleanup runs on normal exit OR signal
	defer performCleanup(logger)

	app := &cli.Command{
		Name:    "google-sheets-mcp-server",
		Usage:   "MCP server for Google Sheets",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "transport",
				Aliases: []string{"t"},
				Value:   "stdio",
				Usage:   "Transport type (stdio, sse, or http)",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind for the sse and http transports (default: 127.0.0.1)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on for the sse and http transports (default: 8000)",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Base URL advertised to SSE clients (default: derived from host and port)",
			},
			&cli.StringFlag{
				Name:  "service-account",
				Usage: "Path to a Google service account key file",
			},
			&cli.StringFlag{
				Name:  "credentials-path",
				Usage: "Path to the OAuth client secrets file",
			},
			&cli.StringFlag{
				Name:  "token-path",
				Usage: "Path where the cached OAuth token is stored",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:    "auth-token",
				Usage:   "Bearer token required on http transport requests",
				Sources: cli.EnvVars("AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:  "endpoint-path",
				Value: "/mcp",
				Usage: "Endpoint path for the http transport",
			},
			&cli.DurationFlag{
				Name:  "session-timeout",
				Value: 30 * time.Minute,
				Usage: "Session timeout for the http transport",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Printf("google-sheets-mcp-server version %s\n", Version)
					fmt.Printf("Commit: %s\n", Commit)
					fmt.Printf("Built: %s\n", BuildDate)
					return nil
				},
			},
			{
				Name:  "auth",
				Usage: "Run the Google OAuth flow and cache the token",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					logger.SetOutput(os.Stderr)
					cfg, err := config.Load(logger)
					if err != nil {
						return err
					}
					applyFlags(cmd, cfg)
					logger.SetLevel(cfg.Level(logger))

					tokenSource, err := gauth.TokenSource(ctx, logger, credentialOptions(cfg))
					if err != nil {
						return err
					}
					// Force a fetch so an unusable credential fails here
					// rather than on the first tool call
					if _, err := tokenSource.Token(); err != nil {
						return fmt.Errorf("failed to obtain access token: %w", err)
					}
					fmt.Printf("Authentication successful, token cached at %s\n", cfg.TokenPath)
					return nil
				},
			},
			{
				Name:  "tools",
				Usage: "Inspect and run spreadsheet tools without an MCP client",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Value:   "text",
						Usage:   "Output format (text or json)",
					},
				},
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "List available tools",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							logger.SetOutput(os.Stderr)
							// Definitions never touch the backing service, so
							// listing does not need credentials
							registerSheetTools(nil, nil)
							return newRunner(cmd, logger).ListTools()
						},
					},
					{
						Name:      "help",
						Usage:     "Show the schema and usage for a tool",
						ArgsUsage: "<tool>",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							if cmd.Args().Len() != 1 {
								return fmt.Errorf("usage: google-sheets-mcp-server tools help <tool>")
							}
							logger.SetOutput(os.Stderr)
							registerSheetTools(nil, nil)
							return newRunner(cmd, logger).HelpTool(cmd.Args().First())
						},
					},
					{
						Name:      "run",
						Usage:     "Execute a tool directly",
						ArgsUsage: "<tool> [--param=value ...] ['{\"json\": \"args\"}']",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							if cmd.Args().Len() < 1 {
								return fmt.Errorf("usage: google-sheets-mcp-server tools run <tool> [args]")
							}
							logger.SetOutput(os.Stderr)
							cfg, err := config.Load(logger)
							if err != nil {
								return err
							}
							applyFlags(cmd, cfg)
							logger.SetLevel(cfg.Level(logger))

							client, inserter, err := buildSheetsBackend(ctx, logger, cfg)
							if err != nil {
								return err
							}
							registerSheetTools(client, inserter)
							return newRunner(cmd, logger).RunTool(ctx, cmd.Args().First(), cmd.Args().Tail())
						},
					},
				},
			},
		},
		Action: func(cliCtx context.Context, cmd *cli.Command) error {
			transport := cmd.String("transport")

			// Track stdio mode for error handling (atomic to prevent races
			// with signal handlers)
			isStdioMode.Store(transport == "stdio")

			cfg, err := config.Load(logger)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			applyFlags(cmd, cfg)

			level := cfg.Level(logger)
			if isStdioMode.Load() && level < logrus.WarnLevel {
				// Keep at least warnings in the log file for stdio sessions
				level = logrus.WarnLevel
			}
			configureFileLogging(logger, level)

			// Initialise tool error logger after logging is configured
			if err := tools.InitGlobalErrorLogger(logger); err != nil {
				logger.WithError(err).Debug("Failed to initialise tool error logger")
				if transport != "stdio" {
					logger.WithError(err).Warn("Failed to initialise tool error logger")
				}
			}

			// Only log startup info for non-stdio transports
			if transport != "stdio" {
				logger.Infof("Starting google-sheets-mcp-server version %s (commit: %s, built: %s)",
					Version, Commit, BuildDate)
			}

			// Telemetry stays inert unless an OTLP endpoint is configured
			shutdownTracer, err := telemetry.InitTracer(logger)
			if err != nil {
				logger.WithError(err).Warn("Failed to initialise tracing")
			} else {
				defer func() {
					if err := shutdownTracer(); err != nil {
						logger.WithError(err).Debug("Tracer shutdown failed")
					}
				}()
			}
			shutdownMetrics, err := telemetry.InitMetrics(logger)
			if err != nil {
				logger.WithError(err).Warn("Failed to initialise metrics")
			} else {
				defer func() {
					if err := shutdownMetrics(); err != nil {
						logger.WithError(err).Debug("Metrics shutdown failed")
					}
				}()
			}

			sessionID := telemetry.GenerateSessionID()
			ctx := telemetry.ContextWithSessionID(cliCtx, sessionID)
			ctx, _ = telemetry.StartSessionSpan(ctx, sessionID, transport)
			defer telemetry.EndSessionSpan()

			sessionStart := time.Now()
			telemetry.RecordSessionStart(ctx, transport)
			defer func() {
				telemetry.RecordSessionEnd(ctx, transport, time.Since(sessionStart).Seconds())
			}()

			// Resolving credentials may launch a browser flow; MCP clients
			// wait during connection, so blocking before the server starts
			// is fine
			client, inserter, err := buildSheetsBackend(ctx, logger, cfg)
			if err != nil {
				return err
			}
			registerSheetTools(client, inserter)

			logger.Debug("Creating MCP server")
			mcpSrv := mcpserver.NewMCPServer("google-sheets-mcp-server", Version)

			enabledTools := registry.GetEnabledTools()
			logger.WithField("tool_count", len(enabledTools)).Debug("MCP server created, registering tools")

			for toolName, toolImpl := range enabledTools {
				// Capture variables to avoid closure race condition
				name := toolName
				tool := toolImpl

				if transport != "stdio" {
					logger.Infof("Registering tool: %s", name)
				}

				mcpSrv.AddTool(tool.Definition(), func(toolCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
					// Get fresh reference from registry to ensure consistency
					currentTool, ok := registry.GetTool(name)
					if !ok {
						return nil, fmt.Errorf("tool not found: %s", name)
					}

					args, ok := request.Params.Arguments.(map[string]any)
					if !ok {
						return nil, fmt.Errorf("invalid arguments type: expected map[string]interface{}, got %T", request.Params.Arguments)
					}

					requestID := uuid.NewString()
					spanCtx, span := telemetry.StartToolSpan(toolCtx, name, args)
					started := time.Now()

					result, err := currentTool.Execute(spanCtx, registry.GetLogger(), args)

					telemetry.EndToolSpan(span, err)
					telemetry.RecordToolCall(spanCtx, name, transport, err == nil, float64(time.Since(started).Milliseconds()))
					if err != nil {
						telemetry.RecordToolError(spanCtx, name, telemetry.CategoriseToolError(err))

						if transport != "stdio" {
							logger.WithError(err).WithField("request_id", requestID).Errorf("Tool execution failed: %s", name)
						}
						if errorLogger := tools.GetGlobalErrorLogger(); errorLogger != nil && errorLogger.IsEnabled() {
							errorLogger.LogToolError(name, requestID, args, err, transport)
						}

						// Failures become structured tool results rather than
						// protocol errors, so MCP clients can read the error
						// kind and any partial outcome
						return googlesheets.ErrorResult(err), nil
					}

					return result, nil
				})
			}

			addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

			logger.WithField("transport", transport).Debug("Starting server")
			switch transport {
			case "stdio":
				logger.Debug("Starting stdio server")
				return mcpserver.ServeStdio(mcpSrv)
			case "sse":
				baseURL := cmd.String("base-url")
				if baseURL == "" {
					baseURL = "http://" + addr
				}
				logger.WithField("address", addr).Debug("Starting SSE server")
				sseServer := mcpserver.NewSSEServer(mcpSrv, mcpserver.WithBaseURL(baseURL))
				return sseServer.Start(addr)
			case "http":
				logger.WithField("address", addr).Debug("Starting HTTP server")
				return startStreamableHTTPServer(ctx, cmd, addr, mcpSrv, logger)
			default:
				return fmt.Errorf("unsupported transport: %s", transport)
			}
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		// In stdio mode stdout and stderr belong to the MCP protocol, so
		// initialisation failures must stay silent here
		if !isStdioMode.Load() {
			logger.Fatalf("Error: %v", err)
		}
		os.Exit(1)
	}
}

// applyFlags layers command-line flags over the loaded configuration. Flags
// win over environment variables and the config file.
func applyFlags(cmd *cli.Command, cfg *config.Settings) {
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}
	if cmd.IsSet("service-account") {
		cfg.ServiceAccountPath = cmd.String("service-account")
	}
	if cmd.IsSet("credentials-path") {
		cfg.CredentialsPath = cmd.String("credentials-path")
	}
	if cmd.IsSet("token-path") {
		cfg.TokenPath = cmd.String("token-path")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	} else if v := os.Getenv("LOG_LEVEL"); v != "" && os.Getenv(config.EnvPrefix+"LOG_LEVEL") == "" {
		// Unprefixed LOG_LEVEL is honoured for parity with other MCP servers
		cfg.LogLevel = v
	}

	// Paths given as flags bypass the config layer's tilde expansion
	if path, err := config.ExpandPath(cfg.ServiceAccountPath); err == nil {
		cfg.ServiceAccountPath = path
	}
	if path, err := config.ExpandPath(cfg.CredentialsPath); err == nil {
		cfg.CredentialsPath = path
	}
	if path, err := config.ExpandPath(cfg.TokenPath); err == nil {
		cfg.TokenPath = path
	}
}

// configureFileLogging sends all log output to a file so stdout stays clean
// for the MCP protocol. When no log file can be opened, stdio mode discards
// logs entirely and the other transports fall back to stderr.
func configureFileLogging(logger *logrus.Logger, level logrus.Level) {
	logger.SetLevel(level)
	logrus.SetLevel(level)

	var fallback io.Writer = io.Discard
	if !isStdioMode.Load() {
		fallback = os.Stderr
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		logger.SetOutput(fallback)
		logrus.SetOutput(fallback)
		return
	}
	logDir := filepath.Join(homeDir, ".google-sheets-mcp", "logs")
	if err := os.MkdirAll(logDir, 0700); err != nil {
		logger.SetOutput(fallback)
		logrus.SetOutput(fallback)
		return
	}
	file, err := os.OpenFile(filepath.Join(logDir, "google-sheets-mcp.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		logger.SetOutput(fallback)
		logrus.SetOutput(fallback)
		return
	}

	// Store file handle for cleanup (atomic to prevent races with signal
	// handlers)
	debugLogFile.Store(file)
	logger.SetOutput(file)
	logrus.SetOutput(file)
	logger.WithField("level", level.String()).Debug("Logging configured")
}

// credentialOptions maps the credential paths from the settings onto the
// auth layer's options.
func credentialOptions(cfg *config.Settings) gauth.Options {
	return gauth.Options{
		ServiceAccountPath: cfg.ServiceAccountPath,
		CredentialsPath:    cfg.CredentialsPath,
		TokenPath:          cfg.TokenPath,
	}
}

// buildSheetsBackend resolves Google credentials and constructs the API
// client plus the row-insertion workflow on top of it.
func buildSheetsBackend(ctx context.Context, logger *logrus.Logger, cfg *config.Settings) (*sheets.Client, *sheets.Inserter, error) {
	tokenSource, err := gauth.TokenSource(ctx, logger, credentialOptions(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve Google credentials: %w", err)
	}

	client, err := sheets.NewClient(ctx, logger, sheets.Options{
		TokenSource:   tokenSource,
		RatePerMinute: cfg.RatePerMinute,
		MetadataTTL:   cfg.MetadataTTL(logger),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Sheets client: %w", err)
	}
	return client, sheets.NewInserter(client, logger), nil
}

// registerSheetTools places every spreadsheet tool in the registry. The
// insert_rows tool runs the placement workflow; everything else calls the
// API client directly.
func registerSheetTools(service googlesheets.Service, inserter googlesheets.RowInserter) {
	registry.Register(googlesheets.NewInsertRowsTool(inserter))
	registry.Register(googlesheets.NewReadRangeTool(service))
	registry.Register(googlesheets.NewGetValuesTool(service))
	registry.Register(googlesheets.NewUpdateRangeTool(service))
	registry.Register(googlesheets.NewAppendRowsTool(service))
	registry.Register(googlesheets.NewWriteFormulaTool(service))
	registry.Register(googlesheets.NewCreateSheetTool(service))
	registry.Register(googlesheets.NewAddSheetTool(service))
	registry.Register(googlesheets.NewDeleteSheetTool(service))
	registry.Register(googlesheets.NewSheetPropertiesTool(service))
	registry.Register(googlesheets.NewFormatRangeTool(service))
}

// newRunner builds a CLI runner honouring the tools subcommand's output flag.
func newRunner(cmd *cli.Command, logger *logrus.Logger) *toolcli.Runner {
	output := toolcli.OutputText
	if cmd.String("output") == "json" {
		output = toolcli.OutputJSON
	}
	return toolcli.NewRunner(logger, output)
}

// performCleanup handles cleanup of resources on shutdown
func performCleanup(logger *logrus.Logger) {
	// Close the debug log file if it was opened (atomic load to prevent races)
	if file := debugLogFile.Load(); file != nil {
		// Silently close - stdio mode allows no output and in the other
		// modes the logger may be writing to this very file
		_ = file.Close()
	}

	// Close the tool error logger if it was initialised
	if errorLogger := tools.GetGlobalErrorLogger(); errorLogger != nil {
		if err := errorLogger.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close tool error logger")
		}
	}
}

// startStreamableHTTPServer configures and starts the Streamable HTTP server
// with graceful shutdown
func startStreamableHTTPServer(ctx context.Context, cmd *cli.Command, addr string, mcpServer *mcpserver.MCPServer, logger *logrus.Logger) error {
	authToken := cmd.String("auth-token")
	endpointPath := cmd.String("endpoint-path")
	sessionTimeout := cmd.Duration("session-timeout")

	logger.Infof("Starting Streamable HTTP server on %s with endpoint %s", addr, endpointPath)

	opts := []mcpserver.StreamableHTTPOption{
		mcpserver.WithEndpointPath(endpointPath),
	}

	if sessionTimeout > 0 {
		opts = append(opts, mcpserver.WithSessionIdManager(&timeoutSessionManager{
			timeout: sessionTimeout,
			logger:  logger,
		}))
	}

	// Warn on protocol revisions we have not been tested against; the
	// context func cannot reject the request
	opts = append(opts, mcpserver.WithHTTPContextFunc(func(ctx context.Context, req *http.Request) context.Context {
		if version := req.Header.Get("MCP-Protocol-Version"); version != "" && !slices.Contains(supportedProtocolVersions, version) {
			logger.Warnf("Unsupported MCP Protocol Version: %s", version)
		}
		return ctx
	}))

	// Heartbeat keeps idle connections alive at a quarter of the session
	// timeout
	heartbeatInterval := 30 * time.Second
	if sessionTimeout > 0 {
		heartbeatInterval = sessionTimeout / 4
	}
	opts = append(opts, mcpserver.WithHeartbeatInterval(heartbeatInterval))
	opts = append(opts, mcpserver.WithLogger(&logrusAdapter{logger: logger}))

	httpServer := mcpserver.NewStreamableHTTPServer(mcpServer, opts...)

	mux := http.NewServeMux()
	mux.Handle(endpointPath, httpServer)

	var handler http.Handler = mux
	if authToken != "" {
		handler = requireBearerToken(mux, authToken, logger)
		logger.Info("Bearer token authentication enabled")
	}

	// No WriteTimeout: streamable HTTP responses stay open for server push
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	logger.Infof("Heartbeat interval: %v", heartbeatInterval)

	// Start server in goroutine to allow graceful shutdown
	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case serverErr <- err:
			case <-ctx.Done():
			}
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping HTTP server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown failed")
		return err
	}

	logger.Info("HTTP server stopped gracefully")
	return nil
}

// requireBearerToken rejects requests that do not carry the expected
// Authorization header. The MCP HTTP context func cannot refuse a request,
// so authentication wraps the HTTP handler instead.
func requireBearerToken(next http.Handler, expectedToken string, logger *logrus.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
			logger.WithField("remote_addr", r.RemoteAddr).Warn("Rejected request with invalid bearer token")
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// timeoutSessionManager implements mcp-go's SessionIdManager. Sessions are
// identified but not tracked; liveness is handled by the heartbeat interval
// derived from the timeout.
type timeoutSessionManager struct {
	timeout time.Duration
	logger  *logrus.Logger
}

func (t *timeoutSessionManager) Generate() string {
	return uuid.NewString()
}

func (t *timeoutSessionManager) Validate(sessionID string) (isTerminated bool, err error) {
	if sessionID == "" {
		return false, fmt.Errorf("empty session ID")
	}
	return false, nil
}

func (t *timeoutSessionManager) Terminate(sessionID string) (isNotAllowed bool, err error) {
	t.logger.Debugf("Session terminated: %s", sessionID)
	return false, nil
}

// logrusAdapter adapts logrus.Logger to the mcp-go util.Logger interface
type logrusAdapter struct {
	logger *logrus.Logger
}

func (l *logrusAdapter) Debugf(format string, args ...any) {
	l.logger.Debugf(format, args...)
}

func (l *logrusAdapter) Infof(format string, args ...any) {
	l.logger.Infof(format, args...)
}

func (l *logrusAdapter) Warnf(format string, args ...any) {
	l.logger.Warnf(format, args...)
}

func (l *logrusAdapter) Errorf(format string, args ...any) {
	l.logger.Errorf(format, args...)
}

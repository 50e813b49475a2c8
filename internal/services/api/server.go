// Package api serves pagegen commands over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultListenAddress    = "127.0.0.1:0"
	defaultShutdownDuration = 5 * time.Second
	defaultMaxBodyBytes     = 4 << 20
	headerContentType       = "Content-Type"
	headerRequestID         = "X-Request-Id"
	mimeTypeJSON            = "application/json"
	capabilitiesPath        = "/capabilities"
	metricsPath             = "/metrics"
	rootPath                = "/"
	commandsPrefix          = "/commands/"
	errorFieldName          = "error"
	requestIDFieldName      = "requestId"
	errorCommandNotFound    = "command not found"
	logFieldCommand         = "command"
	logFieldRequestID       = "request_id"
	logFieldStatus          = "status"
	logFieldDuration        = "duration"
)

// HeaderNotionCredential carries a per-request Notion integration token.
const HeaderNotionCredential = "Notion-API-Key"

// Capability describes a command exposed by the server.
type Capability struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CommandRequest holds the raw payload and request metadata supplied by clients.
type CommandRequest struct {
	Payload    json.RawMessage
	Credential string
	RequestID  string
}

// CommandResponse contains the outcome of a command execution.
type CommandResponse struct {
	Output   interface{} `json:"output"`
	Format   string      `json:"format"`
	Warnings []string    `json:"warnings,omitempty"`
}

// CommandExecutor executes a command based on an incoming request.
type CommandExecutor interface {
	Execute(ctx context.Context, request CommandRequest) (CommandResponse, error)
}

// CommandExecutorFunc adapts a function into a CommandExecutor.
type CommandExecutorFunc func(context.Context, CommandRequest) (CommandResponse, error)

// Execute invokes the underlying function.
func (executor CommandExecutorFunc) Execute(ctx context.Context, request CommandRequest) (CommandResponse, error) {
	return executor(ctx, request)
}

// CommandExecutionError represents a failure accompanied by an HTTP status code.
type CommandExecutionError struct {
	statusCode int
	err        error
}

// Error returns the error string.
func (executionError CommandExecutionError) Error() string {
	return executionError.err.Error()
}

// Unwrap exposes the wrapped error.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.err
}

// StatusCode reports the associated HTTP status code.
func (executionError CommandExecutionError) StatusCode() int {
	return executionError.statusCode
}

// NewCommandExecutionError creates a new CommandExecutionError.
func NewCommandExecutionError(statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return CommandExecutionError{statusCode: statusCode, err: err}
}

// Config defines runtime options for the server.
type Config struct {
	Address         string
	Capabilities    []Capability
	Executors       map[string]CommandExecutor
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	Logger          *zap.Logger
	Metrics         *Metrics
}

// Server serves capability metadata, metrics and command execution over HTTP.
type Server struct {
	config Config
}

// NewServer creates a new Server with defaults applied.
func NewServer(config Config) Server {
	normalized := config
	if normalized.Address == "" {
		normalized.Address = defaultListenAddress
	}
	if normalized.ShutdownTimeout <= 0 {
		normalized.ShutdownTimeout = defaultShutdownDuration
	}
	if normalized.MaxBodyBytes <= 0 {
		normalized.MaxBodyBytes = defaultMaxBodyBytes
	}
	if normalized.Capabilities == nil {
		normalized.Capabilities = []Capability{}
	}
	if normalized.Executors == nil {
		normalized.Executors = map[string]CommandExecutor{}
	}
	if normalized.Logger == nil {
		normalized.Logger = zap.NewNop()
	}
	if normalized.Metrics == nil {
		normalized.Metrics = NewMetrics()
	}
	return Server{config: normalized}
}

// Handler returns the HTTP routes of the server.
func (server Server) Handler() http.Handler {
	router := http.NewServeMux()
	router.HandleFunc(capabilitiesPath, server.handleCapabilities)
	router.HandleFunc(rootPath, server.handleRoot)
	router.HandleFunc(commandsPrefix, server.handleCommand)
	router.Handle(metricsPath, promhttp.HandlerFor(server.config.Metrics.Gatherer(), promhttp.HandlerOpts{}))
	return router
}

// Run starts the server and blocks until the provided context is canceled.
// The notify callback receives the bound address once the listener is active.
func (server Server) Run(ctx context.Context, notify func(string)) error {
	listener, listenErr := net.Listen("tcp", server.config.Address)
	if listenErr != nil {
		return fmt.Errorf("listen on %s: %w", server.config.Address, listenErr)
	}
	actualAddress := listener.Addr().String()

	httpServer := &http.Server{Handler: server.Handler(), ReadHeaderTimeout: 10 * time.Second}
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		serveErr := httpServer.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP API: %w", serveErr)
		}
		return nil
	})

	if notify != nil {
		notify(actualAddress)
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.config.ShutdownTimeout)
		defer cancel()
		shutdownErr := httpServer.Shutdown(shutdownCtx)
		if shutdownErr != nil && !errors.Is(shutdownErr, context.Canceled) && !errors.Is(shutdownErr, http.ErrServerClosed) {
			return fmt.Errorf("shutdown HTTP API: %w", shutdownErr)
		}
		return nil
	})

	return group.Wait()
}

func (server Server) handleCapabilities(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	payload := struct {
		Capabilities []Capability `json:"capabilities"`
	}{Capabilities: server.config.Capabilities}
	server.writeJSON(writer, http.StatusOK, payload)
}

func (server Server) handleRoot(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if request.URL.Path != rootPath {
		server.writeJSON(writer, http.StatusNotFound, map[string]string{errorFieldName: http.StatusText(http.StatusNotFound)})
		return
	}
	writer.WriteHeader(http.StatusOK)
}

func (server Server) handleCommand(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	requestID := strings.TrimSpace(request.Header.Get(headerRequestID))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	writer.Header().Set(headerRequestID, requestID)

	commandName := strings.TrimPrefix(request.URL.Path, commandsPrefix)
	if commandName == "" || strings.Contains(commandName, "/") {
		server.writeJSON(writer, http.StatusNotFound, errorPayload(errorCommandNotFound, requestID))
		return
	}
	executor, found := server.config.Executors[commandName]
	if !found {
		server.writeJSON(writer, http.StatusNotFound, errorPayload(errorCommandNotFound, requestID))
		return
	}
	startedAt := time.Now()
	body, readErr := io.ReadAll(io.LimitReader(request.Body, server.config.MaxBodyBytes))
	if readErr != nil {
		server.writeJSON(writer, http.StatusBadRequest, errorPayload(fmt.Sprintf("read request body: %v", readErr), requestID))
		return
	}
	commandRequest := CommandRequest{
		Payload:    json.RawMessage(body),
		Credential: strings.TrimSpace(request.Header.Get(HeaderNotionCredential)),
		RequestID:  requestID,
	}
	commandResponse, executeErr := executor.Execute(request.Context(), commandRequest)
	statusCode := http.StatusOK
	if executeErr != nil {
		statusCode = server.statusCodeFromError(executeErr)
	}
	server.config.Metrics.ObserveCommand(commandName, statusCode)
	logger := server.config.Logger.With(
		zap.String(logFieldCommand, commandName),
		zap.String(logFieldRequestID, requestID),
		zap.Int(logFieldStatus, statusCode),
		zap.Duration(logFieldDuration, time.Since(startedAt)),
	)
	if executeErr != nil {
		logger.Warn("command failed", zap.Error(executeErr))
		server.writeJSON(writer, statusCode, errorPayload(executeErr.Error(), requestID))
		return
	}
	logger.Info("command completed")
	server.writeJSON(writer, http.StatusOK, commandResponse)
}

func errorPayload(message string, requestID string) map[string]string {
	payload := map[string]string{errorFieldName: message}
	if requestID != "" {
		payload[requestIDFieldName] = requestID
	}
	return payload
}

func (server Server) writeJSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	var buffer bytes.Buffer
	if encodeErr := json.NewEncoder(&buffer).Encode(payload); encodeErr != nil {
		fallback := map[string]string{errorFieldName: fmt.Sprintf("encode response: %v", encodeErr)}
		writer.Header().Set(headerContentType, mimeTypeJSON)
		writer.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(writer).Encode(fallback)
		return
	}
	writer.Header().Set(headerContentType, mimeTypeJSON)
	writer.WriteHeader(statusCode)
	_, _ = writer.Write(buffer.Bytes())
}

func (server Server) statusCodeFromError(err error) int {
	var executionError CommandExecutionError
	if errors.As(err, &executionError) {
		return executionError.StatusCode()
	}
	return http.StatusInternalServerError
}

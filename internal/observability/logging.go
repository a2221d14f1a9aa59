// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
)

// GlobalLogger is the logger repositories and hubs write audit lines to.
var GlobalLogger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

// SetLogger replaces GlobalLogger, typically with the request-context aware middleware logger.
func SetLogger(l *slog.Logger) {
	if l != nil {
		GlobalLogger = l
	}
}

// LoggingConfig defines which types of automated logging are enabled.
type LoggingConfig struct {
	EnableRepoLogging bool
	EnableWSLogging   bool
}

// Config holds the current logging configuration.
var Config = LoggingConfig{
	EnableRepoLogging: true,
	EnableWSLogging:   true,
}

// RepoLogger provides structured logging for repository operations.
type RepoLogger struct {
	tableName string
}

// NewRepoLogger creates a new RepoLogger for the given table.
func NewRepoLogger(tableName string) *RepoLogger {
	return &RepoLogger{tableName: tableName}
}

func (l *RepoLogger) log(ctx context.Context, operation string, fields map[string]any) {
	if !Config.EnableRepoLogging {
		return
	}
	attrs := []any{
		slog.String("table", l.tableName),
		slog.String("operation", operation),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	GlobalLogger.InfoContext(ctx, "repository "+operation, attrs...)
}

// LogCreate logs a repository create operation.
func (l *RepoLogger) LogCreate(ctx context.Context, fields map[string]any) {
	l.log(ctx, "create", fields)
}

// LogUpdate logs a repository update operation.
func (l *RepoLogger) LogUpdate(ctx context.Context, fields map[string]any) {
	l.log(ctx, "update", fields)
}

// LogDelete logs a repository delete operation.
func (l *RepoLogger) LogDelete(ctx context.Context, fields map[string]any) {
	l.log(ctx, "delete", fields)
}

// LogError logs a repository error.
func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	if !Config.EnableRepoLogging || err == nil {
		return
	}
	GlobalLogger.ErrorContext(ctx, "repository error",
		slog.String("table", l.tableName),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// WSLogger provides structured logging for WebSocket operations.
type WSLogger struct {
	hubName string
}

// NewWSLogger creates a new WSLogger for the given hub.
func NewWSLogger(hubName string) *WSLogger {
	return &WSLogger{hubName: hubName}
}

// LogConnect logs a WebSocket connection event.
func (l *WSLogger) LogConnect(ctx context.Context, userID, roomID uint) {
	if !Config.EnableWSLogging {
		return
	}
	GlobalLogger.InfoContext(ctx, "websocket connected",
		slog.String("hub", l.hubName),
		slog.Uint64("user_id", uint64(userID)),
		slog.Uint64("room_id", uint64(roomID)),
	)
}

// LogDisconnect logs a WebSocket disconnection event.
func (l *WSLogger) LogDisconnect(ctx context.Context, userID, roomID uint, reason string) {
	if !Config.EnableWSLogging {
		return
	}
	GlobalLogger.InfoContext(ctx, "websocket disconnected",
		slog.String("hub", l.hubName),
		slog.Uint64("user_id", uint64(userID)),
		slog.Uint64("room_id", uint64(roomID)),
		slog.String("reason", reason),
	)
}

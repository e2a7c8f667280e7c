package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/df07/go-sky-ratio/pkg/core"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
	RequestID string    `json:"requestId"`
}

// WebLogger implements core.Logger by forwarding messages to the SSE stream
// of one request as "console" events
type WebLogger struct {
	requestID    string
	ctx          context.Context
	sseEventChan chan<- SSEEvent
}

// NewWebLogger creates a new web logger for a specific request
func NewWebLogger(requestID string, ctx context.Context, sseEventChan chan<- SSEEvent) core.Logger {
	return &WebLogger{
		requestID:    requestID,
		ctx:          ctx,
		sseEventChan: sseEventChan,
	}
}

// Printf implements core.Logger interface
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	// Also write to the server log
	log.Printf("[%s] %s", wl.requestID, message)

	if wl.sseEventChan == nil || wl.ctx.Err() != nil {
		return
	}

	data, err := json.Marshal(ConsoleMessage{
		Message:   message,
		Timestamp: time.Now(),
		Level:     "info",
		RequestID: wl.requestID,
	})
	if err != nil {
		return
	}

	select {
	case wl.sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
	default:
		// Channel full, skip (don't block)
	}
}

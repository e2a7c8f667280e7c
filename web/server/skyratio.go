package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/df07/go-sky-ratio/pkg/accel"
	"github.com/df07/go-sky-ratio/pkg/catalog"
	"github.com/df07/go-sky-ratio/pkg/core"
	"github.com/df07/go-sky-ratio/pkg/parallel"
	"github.com/df07/go-sky-ratio/pkg/sky"
)

// CheckpointUpdate is sent via SSE as each checkpoint finishes. Updates
// arrive in completion order; Index places them.
type CheckpointUpdate struct {
	Index      int        `json:"index"`
	Checkpoint [3]float64 `json:"checkpoint"`
	Ratio      float64    `json:"ratio"`
	Completed  int        `json:"completed"`
	Total      int        `json:"total"`
	ElapsedMs  int64      `json:"elapsedMs"`
}

// SummaryUpdate is the final SSE payload of an evaluation
type SummaryUpdate struct {
	Scene      string      `json:"scene"`
	Resolution float64     `json:"resolution"`
	RayCount   int         `json:"rayCount"`
	Method     string      `json:"method"`
	Ratios     []float64   `json:"ratios"`
	Summary    sky.Summary `json:"summary"`
	ElapsedMs  int64       `json:"elapsedMs"`
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "progress", "summary", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// Evaluation contains the configured scene and checker for one request
type Evaluation struct {
	Source  *catalog.Source
	Checker *sky.Checker
}

// handleSkyRatio evaluates every checkpoint of a scene, streaming results via SSE
func (s *Server) handleSkyRatio(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)

	ctx := r.Context()

	// Single writer goroutine; the handler waits for it to drain
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		s.writeSSEEvents(w, ctx, sseEventChan)
		close(writerDone)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	req, err := s.parseEvalRequest(r)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	logger := NewWebLogger(fmt.Sprintf("skyratio-%d", time.Now().UnixNano()), ctx, sseEventChan)

	eval, err := s.setupEvaluation(req, logger)
	if err != nil {
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}

	if err := s.streamCheckpoints(ctx, sseEventChan, eval, req.Workers); err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Evaluation error: %v", err))
		return
	}

	s.sendEvent(ctx, sseEventChan, "complete", "Evaluation completed")
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// setupEvaluation opens and builds the scene and configures the checker
func (s *Server) setupEvaluation(req *EvalRequest, logger core.Logger) (*Evaluation, error) {
	accelerator, err := accel.ByName(req.Accelerator)
	if err != nil {
		return nil, err
	}

	src, err := s.catalog.Open(req.Scene, accelerator, logger)
	if err != nil {
		return nil, err
	}
	if err := src.Scene.Build(); err != nil {
		return nil, errors.Wrap(err, "failed to build scene")
	}

	resolution := req.Resolution
	if resolution == 0 {
		resolution = src.Resolution
	}

	checker := sky.NewChecker(logger)
	checker.SetScene(src.Scene)
	checker.SetResolution(resolution)
	checker.SetMethod(req.Method)
	if err := checker.SetCheckpoints(src.Checkpoints); err != nil {
		return nil, err
	}
	return &Evaluation{Source: src, Checker: checker}, nil
}

// streamCheckpoints runs the checkpoints on a worker pool and sends a
// progress event per finished checkpoint followed by the summary
func (s *Server) streamCheckpoints(ctx context.Context, sseEventChan chan SSEEvent, eval *Evaluation, numWorkers int) error {
	checkpoints := eval.Checker.Checkpoints()
	startTime := time.Now()

	pool := parallel.NewWorkerPool[float64](numWorkers, len(checkpoints))
	pool.Start()
	for i, cp := range checkpoints {
		pool.SubmitTask(parallel.Task[float64]{TaskID: i, Work: func() (float64, error) {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			return eval.Checker.CheckPoint(cp)
		}})
	}
	go pool.Stop()

	ratios := make([]float64, len(checkpoints))
	var firstErr error
	completed := 0
	for {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		if result.Error != nil {
			if firstErr == nil {
				firstErr = errors.Wrapf(result.Error, "checkpoint %d", result.TaskID)
			}
			continue
		}

		completed++
		ratios[result.TaskID] = result.Value
		cp := checkpoints[result.TaskID]
		s.sendJSON(ctx, sseEventChan, "progress", CheckpointUpdate{
			Index:      result.TaskID,
			Checkpoint: [3]float64{cp.X, cp.Y, cp.Z},
			Ratio:      result.Value,
			Completed:  completed,
			Total:      len(checkpoints),
			ElapsedMs:  time.Since(startTime).Milliseconds(),
		})
	}
	if firstErr != nil {
		return firstErr
	}

	grid := eval.Checker.Grid()
	s.sendJSON(ctx, sseEventChan, "summary", SummaryUpdate{
		Scene:      eval.Source.Info.ID,
		Resolution: grid.Resolution,
		RayCount:   grid.RayCount(),
		Method:     eval.Checker.Method().String(),
		Ratios:     ratios,
		Summary:    sky.Summarize(ratios),
		ElapsedMs:  time.Since(startTime).Milliseconds(),
	})
	return nil
}

// writeSSEEvents handles writing all SSE events in a single goroutine (thread-safe)
func (s *Server) writeSSEEvents(w http.ResponseWriter, ctx context.Context, sseEventChan chan SSEEvent) {
	for {
		select {
		case event, ok := <-sseEventChan:
			if !ok {
				return
			}

			_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data)
			if err != nil {
				// Client disconnected during write
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}

		case <-ctx.Done():
			// Client disconnected
			return
		}
	}
}

func (s *Server) sendJSON(ctx context.Context, sseEventChan chan SSEEvent, eventType string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error marshaling %s event: %v", eventType, err)
		return
	}
	s.sendEvent(ctx, sseEventChan, eventType, string(data))
}

func (s *Server) sendEvent(ctx context.Context, sseEventChan chan SSEEvent, eventType, data string) {
	select {
	case sseEventChan <- SSEEvent{Type: eventType, Data: data}:
	case <-ctx.Done():
		// Client disconnected, don't block
	}
}

// handleError sends an error event to the SSE channel
func (s *Server) handleError(ctx context.Context, sseEventChan chan SSEEvent, message string) {
	s.sendEvent(ctx, sseEventChan, "error", message)
}

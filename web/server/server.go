package server

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/df07/go-sky-ratio/pkg/accel"
	"github.com/df07/go-sky-ratio/pkg/catalog"
	"github.com/df07/go-sky-ratio/pkg/sky"
)

// Server handles web requests for sky ratio evaluation
type Server struct {
	port    int
	catalog *catalog.Catalog
}

// NewServer creates a new web server
func NewServer(port int, scenes *catalog.Catalog) *Server {
	return &Server{port: port, catalog: scenes}
}

// Handler returns the API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	mux.HandleFunc("/api/skyratio", s.handleSkyRatio)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// EvalRequest represents the sky ratio parameters shared by all endpoints
type EvalRequest struct {
	Scene       string     `json:"scene"`       // Scene ID or script name
	Resolution  float64    `json:"resolution"`  // Degrees; 0 uses the scene's
	Accelerator string     `json:"accelerator"` // Acceleration structure name
	Method      sky.Method `json:"method"`
	Workers     int        `json:"workers"`
}

const (
	defaultScene = "city"
	maxWorkers   = 64
)

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in samples and scene scripts
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	groups, err := s.catalog.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"groups": groups})
}

// handleSceneConfig returns the default evaluation settings for a scene
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	sceneName := r.URL.Query().Get("scene")
	if sceneName == "" {
		sceneName = defaultScene
	}

	src, err := s.catalog.Open(sceneName, nil, nil)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	resolution := src.Resolution
	if resolution == 0 {
		resolution = sky.DefaultResolution
	}
	checkpoints := make([][3]float64, len(src.Checkpoints))
	for i, cp := range src.Checkpoints {
		checkpoints[i] = [3]float64{cp.X, cp.Y, cp.Z}
	}

	response := map[string]interface{}{
		"scene":      src.Info,
		"primitives": src.Scene.Len(),
		"defaults": map[string]interface{}{
			"resolution":  resolution,
			"rayCount":    sky.Discretize(resolution).RayCount(),
			"checkpoints": checkpoints,
			"accelerator": accel.NameBVH,
			"method":      sky.MethodSolidAngle.String(),
		},
		"limits": map[string]interface{}{
			"resolution": map[string]float64{
				"min": 0,
				"max": sky.MaxResolution,
			},
			"workers": map[string]int{
				"min": 0,
				"max": maxWorkers,
			},
			"accelerators": accel.Names(),
		},
	}
	writeJSON(w, http.StatusOK, response)
}

// parseEvalRequest parses request parameters
func (s *Server) parseEvalRequest(r *http.Request) (*EvalRequest, error) {
	values := r.URL.Query()
	req := &EvalRequest{Scene: values.Get("scene")}
	if req.Scene == "" {
		req.Scene = defaultScene
	}

	var err error
	if req.Resolution, err = parseFloatParam(values, "resolution", 0, 0, sky.MaxResolution); err != nil {
		return nil, err
	}
	if req.Workers, err = parseIntParam(values, "workers", 0, 0, maxWorkers); err != nil {
		return nil, err
	}
	if req.Method, err = sky.ParseMethod(values.Get("method")); err != nil {
		return nil, err
	}

	req.Accelerator = strings.TrimSpace(values.Get("accel"))
	if _, err := accel.ByName(req.Accelerator); err != nil {
		return nil, err
	}
	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, errors.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, errors.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return 0, errors.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, errors.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sibexico/pagesim/commentary"
	"github.com/sibexico/pagesim/replacement"
	"github.com/sibexico/pagesim/timeline"
)

// WebServer hosts one navigator over HTTP and pushes its events over WebSocket
type WebServer struct {
	cfg         *replacement.Config
	compression replacement.CompressionType
	nav         *timeline.Navigator
	hub         *wsHub
	metrics     *replacement.Metrics
	commentary  *commentary.Client
	logger      *slog.Logger
	server      *http.Server

	mu         sync.RWMutex
	generation uint64 // bumped by every accepted simulate
	feedback   *commentary.Result
	runCtx     context.Context
	cancelRun  context.CancelFunc
}

// Frames is a pointer so an explicit 0 is rejected instead of defaulted
type simulateRequest struct {
	References string `json:"references"`
	Frames     *int   `json:"frames,omitempty"`
	Algorithm  string `json:"algorithm"`
}

func (req *simulateRequest) frameCount(fallback int) int {
	if req.Frames == nil {
		return fallback
	}
	return *req.Frames
}

type controlRequest struct {
	Action     string `json:"action"`
	IntervalMs int    `json:"intervalMs,omitempty"`
}

type stateResponse struct {
	State      timeline.State     `json:"state"`
	Narration  string             `json:"narration"`
	Commentary *commentary.Result `json:"commentary,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// NewWebServer creates a web server instance
func NewWebServer(cfg *replacement.Config, metrics *replacement.Metrics, client *commentary.Client, logger *slog.Logger, opts ...timeline.Option) (*WebServer, error) {
	compression, err := replacement.ParseCompressionType(cfg.HistoryCompression)
	if err != nil {
		return nil, err
	}

	ws := &WebServer{
		cfg:         cfg,
		compression: compression,
		hub:         newHub(logger),
		metrics:     metrics,
		commentary:  client,
		logger:      logger,
	}
	ws.runCtx, ws.cancelRun = context.WithCancel(context.Background())

	opts = append([]timeline.Option{timeline.WithLogger(logger)}, opts...)
	ws.nav = timeline.New(webPresenter{hub: ws.hub}, opts...)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/simulate", ws.handleSimulate)
	mux.HandleFunc("/api/control", ws.handleControl)
	mux.HandleFunc("/api/state", ws.handleState)
	mux.HandleFunc("/api/history", ws.handleHistory)
	mux.HandleFunc("/api/stats", ws.handleStats)
	mux.HandleFunc("/api/compare", ws.handleCompare)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.hub.handle(ws, w, r)
	})

	ws.server = &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return ws, nil
}

// Handler returns the HTTP handler
func (ws *WebServer) Handler() http.Handler {
	return ws.server.Handler
}

// ListenAndServe serves until ctx is cancelled, then shuts down
func (ws *WebServer) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		ws.logger.Info("HTTP host listening", "address", ws.server.Addr)
		if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		ws.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := ws.server.Shutdown(shutdownCtx)
	ws.Close()
	return err
}

// Close stops auto-play, pending commentary and the WebSocket hub
func (ws *WebServer) Close() error {
	ws.cancelRun()
	ws.nav.Close()
	ws.hub.close()
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{
		Error: err.Error(),
		Code:  replacement.GetErrorCode(err).String(),
	})
}

func (ws *WebServer) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	frames := req.frameCount(ws.cfg.DefaultFrameCount)
	algorithm := req.Algorithm
	if algorithm == "" {
		algorithm = ws.cfg.DefaultAlgorithm
	}

	result, err := startSimulation(ws.metrics, req.References, frames, algorithm)
	if err != nil {
		ws.logger.Info("Simulation rejected", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// the timeline swap and the generation bump happen together, so a
	// commentary reply is never stored against a different result
	ws.mu.Lock()
	ws.generation++
	gen := ws.generation
	ws.feedback = nil
	ws.nav.Reset(result)
	ws.mu.Unlock()

	ws.logger.Info("Simulation started",
		"algorithm", result.Algorithm,
		"frames", result.FrameCount,
		"references", len(result.References),
		"faults", result.TotalFaults)

	ws.requestCommentary(gen, result)

	writeJSON(w, http.StatusOK, struct {
		State  timeline.State                `json:"state"`
		Result *replacement.SimulationResult `json:"result"`
	}{ws.nav.State(), result})
}

// requestCommentary asks for feedback on result; a reply that arrives after
// another simulate is discarded
func (ws *WebServer) requestCommentary(gen uint64, result *replacement.SimulationResult) {
	if !ws.commentary.Enabled() {
		return
	}

	req := commentary.RequestFromResult(result)
	if cmp, err := replacement.CompareAlgorithms(result.References, result.FrameCount); err == nil {
		req.Comparison = &cmp
	}

	ws.commentary.RequestAsync(ws.runCtx, req, func(res commentary.Result) {
		ws.mu.Lock()
		current := ws.generation == gen
		if current {
			ws.feedback = &res
		}
		ws.mu.Unlock()

		if current {
			ws.hub.publish(wsEvent{Type: eventCommentary, Commentary: res.Text, Available: res.Available})
		}
	})
}

// applyControl performs one navigator action and returns the new state
func (ws *WebServer) applyControl(req *controlRequest) (timeline.State, error) {
	switch req.Action {
	case "next":
		ws.nav.Advance()
	case "prev":
		ws.nav.Retreat()
	case "play":
		interval := ws.cfg.AutoPlayInterval()
		if req.IntervalMs > 0 {
			interval = time.Duration(req.IntervalMs) * time.Millisecond
		}
		ws.nav.TogglePlay(interval)
	case "stop":
		ws.nav.Stop()
	case "reset":
		if result := ws.nav.Result(); result != nil {
			ws.nav.Reset(result)
		}
	default:
		return timeline.State{}, replacement.NewSimulationError(replacement.ErrCodeInvalidInput, "control",
			fmt.Sprintf("unknown action %q (must be next, prev, play, stop, or reset)", req.Action), nil)
	}
	return ws.nav.State(), nil
}

func (ws *WebServer) handleControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	state, err := ws.applyControl(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (ws *WebServer) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ws.mu.RLock()
	feedback := ws.feedback
	ws.mu.RUnlock()

	writeJSON(w, http.StatusOK, stateResponse{
		State:      ws.nav.State(),
		Narration:  ws.nav.Narration(),
		Commentary: feedback,
	})
}

func (ws *WebServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result := ws.nav.Result()
	if result == nil {
		http.Error(w, "No simulation available", http.StatusNotFound)
		return
	}

	if r.URL.Query().Get("format") != "binary" {
		writeJSON(w, http.StatusOK, result)
		return
	}

	data, err := replacement.EncodeHistory(result, ws.compression)
	if err != nil {
		ws.logger.Error("Failed to encode history", "error", err)
		http.Error(w, "Failed to encode history", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}

func (ws *WebServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result := ws.nav.Result()
	if result == nil {
		http.Error(w, "No simulation available", http.StatusNotFound)
		return
	}

	resp := struct {
		Statistics replacement.Statistics `json:"statistics"`
		Metrics    *metricsSnapshot       `json:"metrics,omitempty"`
	}{Statistics: replacement.ComputeStatistics(result)}
	if ws.cfg.EnableMetrics {
		snap := snapshotMetrics(ws.metrics)
		resp.Metrics = &snap
	}
	writeJSON(w, http.StatusOK, resp)
}

func (ws *WebServer) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	refs, err := replacement.ParseReferences(req.References)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	frames := req.frameCount(ws.cfg.DefaultFrameCount)

	cmp, err := replacement.CompareAlgorithms(refs, frames)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

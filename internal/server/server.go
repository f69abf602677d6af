// Package server exposes agent runs, stored briefs and the graph over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/geoagent/internal/model"
	"github.com/ppiankov/geoagent/internal/render"
	"github.com/ppiankov/geoagent/internal/store"
)

const maxRequestBodyBytes = 1 << 20

// Runner runs one brief generation, delivering events to sink
type Runner interface {
	Run(ctx context.Context, req model.RunRequest, sink model.EventSink) (*model.ContentBrief, error)
}

// Briefs looks up stored briefs
type Briefs interface {
	Get(id string) (*model.ContentBrief, error)
	List() ([]*model.ContentBrief, error)
}

// GraphViewer returns the visualization projection of the graph
type GraphViewer interface {
	View(ctx context.Context) (*model.GraphView, error)
}

// Server is the HTTP transport for the agent
type Server struct {
	runner Runner
	briefs Briefs
	graph  GraphViewer
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a new Server
func New(runner Runner, briefs Briefs, graph GraphViewer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{runner: runner, briefs: briefs, graph: graph, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/agent", s.handleAgent)
	s.mux.HandleFunc("GET /api/briefs", s.handleBriefs)
	s.mux.HandleFunc("GET /api/graph", s.handleGraph)
}

type agentRequest struct {
	Location       string   `json:"location"`
	Topic          string   `json:"topic"`
	ContentType    string   `json:"contentType"`
	TargetKeywords []string `json:"targetKeywords"`
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	var body agentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Location) == "" || strings.TrimSpace(body.Topic) == "" || body.ContentType == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: location, topic, contentType")
		return
	}
	ct, err := model.ParseContentType(body.ContentType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming is unsupported by response writer")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	closed := false
	sink := func(e model.Event) {
		if closed {
			return
		}
		if err := writeEvent(w, flusher, e); err != nil {
			closed = true
			s.logger.Debug("event stream closed", "error", err)
		}
	}

	req := model.RunRequest{
		Location:       body.Location,
		Topic:          body.Topic,
		ContentType:    ct,
		TargetKeywords: body.TargetKeywords,
	}
	start := time.Now()
	if _, err := s.runner.Run(r.Context(), req, sink); err != nil {
		s.logger.Warn("agent run failed", "location", req.Location, "topic", req.Topic, "error", err)
		sink(model.ErrorEvent(err.Error()))
		return
	}
	s.logger.Info("agent run finished", "location", req.Location, "topic", req.Topic, "duration", time.Since(start))
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, e model.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func (s *Server) handleBriefs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("id")
	format := q.Get("format")

	if id == "" {
		briefs, err := s.briefs.List()
		if err != nil {
			s.logger.Error("list briefs", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to list briefs")
			return
		}
		writeJSON(w, http.StatusOK, briefs)
		return
	}

	b, err := s.briefs.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Brief not found")
		return
	}
	if err != nil {
		s.logger.Error("get brief", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load brief")
		return
	}

	switch format {
	case "", "json":
		writeJSON(w, http.StatusOK, b)
	case "md", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(render.Markdown(b)))
	case "html":
		out, err := render.HTML(b)
		if err != nil {
			s.logger.Error("render brief", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to render brief")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(out))
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown format %q (supported: json, md, html)", format))
	}
}

type graphErrorResponse struct {
	Error string            `json:"error"`
	Nodes []model.GraphNode `json:"nodes"`
	Edges []model.GraphEdge `json:"edges"`
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	view, err := s.graph.View(r.Context())
	if err != nil {
		s.logger.Error("graph view", "error", err)
		writeJSON(w, http.StatusInternalServerError, graphErrorResponse{
			Error: err.Error(),
			Nodes: []model.GraphNode{},
			Edges: []model.GraphEdge{},
		})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Serve listens on addr until ctx is cancelled
func Serve(ctx context.Context, addr string, srv *Server) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.logger.Info("server listening", "addr", addr)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	}
}

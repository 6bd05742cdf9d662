package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/banshee-data/ringtrack/internal/ring"
	"github.com/banshee-data/ringtrack/internal/units"
	"github.com/banshee-data/ringtrack/internal/version"
	"tailscale.com/tsweb"
)

// FrameSource provides the latest simulation frame. *ring.Ring and
// *Board implement it.
type FrameSource interface {
	LastFrame() (ring.Frame, bool)
}

// WebServer serves the ring state over HTTP. It is the presentation
// collaborator of the simulation: it only reads frames.
type WebServer struct {
	address  string
	source   FrameSource
	hub      *Hub
	geometry ring.Geometry
	units    string
	server   *http.Server
}

// WebServerConfig contains configuration options for the web server
type WebServerConfig struct {
	Address  string
	Source   FrameSource
	Hub      *Hub // optional; without it /debug/tail is not mounted
	Geometry ring.Geometry
	Units    string // default display units for speeds
}

// NewWebServer creates a new web server with the provided configuration
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address:  config.Address,
		source:   config.Source,
		hub:      config.Hub,
		geometry: config.Geometry,
		units:    config.Units,
	}
	if !units.IsValid(ws.units) {
		ws.units = units.MPS
	}

	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}

	return ws
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// Start serves HTTP until ctx is cancelled, then shuts the server down.
func (ws *WebServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}

	log.Printf("HTTP server routine stopped")
	return nil
}

// Handler returns the configured routes.
func (ws *WebServer) Handler() http.Handler {
	return ws.server.Handler
}

func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/frame", ws.handleFrame)
	ws.AttachAdminRoutes(mux)
	return mux
}

// AttachAdminRoutes mounts the debug views under /debug/. These routes are
// accessible only over localhost or Tailscale.
func (ws *WebServer) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.Handle("ring", "Ring positions colored by covering track", http.HandlerFunc(ws.handleRingChart))
	if ws.hub != nil {
		debug.HandleSilent("tail", http.HandlerFunc(ws.handleTail))
	}
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": version.String(),
	})
}

// trackView is the JSON form of one track in a frame.
type trackView struct {
	Label      string            `json:"label"`
	Color      ring.Color        `json:"color"`
	Applied    bool              `json:"applied"`
	Distance   float64           `json:"distance_m"`
	Elapsed    float64           `json:"elapsed_s"`
	Laps       int               `json:"laps"`
	Speed      float64           `json:"speed"`
	Units      string            `json:"units"`
	Covered    []ring.IndexRange `json:"covered"`
	CoveredN   int               `json:"covered_count"`
	LastSample time.Time         `json:"last_sample"`
}

// frameView is the JSON form of a frame.
type frameView struct {
	RunID  string       `json:"run_id"`
	Seq    uint64       `json:"seq"`
	At     time.Time    `json:"at"`
	Colors []ring.Color `json:"colors"`
	Tracks []trackView  `json:"tracks"`
}

func (ws *WebServer) view(f ring.Frame, unit string) frameView {
	v := frameView{
		RunID:  f.RunID,
		Seq:    f.Seq,
		At:     f.At,
		Colors: f.Colors,
		Tracks: make([]trackView, 0, len(f.Hits)),
	}
	for _, h := range f.Hits {
		v.Tracks = append(v.Tracks, trackView{
			Label:      h.Track.Label(),
			Color:      h.Track.Color(),
			Applied:    h.Applied,
			Distance:   h.State.Distance,
			Elapsed:    h.State.Elapsed,
			Laps:       h.State.Laps(ws.geometry.CircleLength),
			Speed:      units.ConvertSpeed(h.Track.Profile().Lookup(h.State.Distance), unit),
			Units:      unit,
			Covered:    h.Coverage.Ranges(),
			CoveredN:   h.Coverage.Len(),
			LastSample: h.State.LastSample,
		})
	}
	return v
}

func (ws *WebServer) displayUnits(r *http.Request) (string, error) {
	u := r.URL.Query().Get("units")
	if u == "" {
		return ws.units, nil
	}
	if !units.IsValid(u) {
		return "", fmt.Errorf("invalid units %q (valid: %s)", u, units.GetValidUnitsString())
	}
	return u, nil
}

func (ws *WebServer) handleFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	unit, err := ws.displayUnits(r)
	if err != nil {
		ws.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	f, ok := ws.source.LastFrame()
	if !ok {
		ws.writeJSONError(w, http.StatusNotFound, "no frame yet")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ws.view(f, unit)); err != nil {
		log.Printf("failed to encode frame: %v", err)
	}
}

// handleTail streams frames as server-sent events.
func (ws *WebServer) handleTail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	unit, err := ws.displayUnits(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable buffering for nginx

	id, c := ws.hub.Subscribe()
	defer ws.hub.Unsubscribe(id)

	// Send initial ping to establish connection
	w.Write([]byte(": ping\n\n"))
	flusher.Flush()

	for {
		select {
		case f, ok := <-c:
			if !ok {
				return
			}
			data, err := json.Marshal(ws.view(f, unit))
			if err != nil {
				log.Printf("failed to encode frame %d: %v", f.Seq, err)
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %d\ndata: %s\n\n", f.Seq, data); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

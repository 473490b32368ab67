// Package httpapi exposes a read-only monitoring and output surface over
// the dispatch core: the vehicle/customer itinerary snapshots, a health
// check, a live SSE feed of scheduling-cycle decisions, and prometheus
// metrics. It never mutates scheduler or dispatcher state.
package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"drtdispatch/config"
	"drtdispatch/logging"
	"drtdispatch/model"
	"drtdispatch/scheduler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// CycleEvent is one scheduling-cycle decision broadcast to SSE
// subscribers: one entry per request committed or rejected in that cycle.
type CycleEvent struct {
	RequestID string  `json:"request_id"`
	VehicleID string  `json:"vehicle_id,omitempty"`
	Outcome   string  `json:"outcome"`
	CostDelta float64 `json:"cost_delta,omitempty"`
	At        string  `json:"at"`
}

// Server wraps a chi router over a scheduler snapshot. Reads go through
// the scheduler's own exported accessors; Server holds no itinerary
// state of its own.
type Server struct {
	router    chi.Router
	scheduler *scheduler.Scheduler
	cfg       config.ServerConfig
	log       *logging.Logger

	mu          sync.Mutex
	subscribers map[chan CycleEvent]struct{}
}

// New builds the router and registers every route. Call Publish after
// each scheduling cycle to feed the SSE stream.
func New(sched *scheduler.Scheduler, cfg config.ServerConfig, log *logging.Logger) *Server {
	s := &Server{
		scheduler:   sched,
		cfg:         cfg,
		log:         log,
		subscribers: map[chan CycleEvent]struct{}{},
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	corsMW := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	r.Use(corsMW.Handler)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/itineraries/vehicles", s.handleVehicleItineraries)
	r.Get("/itineraries/customers", s.handleCustomerItineraries)
	r.Get("/events", s.handleEvents)
	r.Handle("/metrics", metricsHandler())

	s.router = r
	return s
}

// ServeHTTP lets Server satisfy http.Handler directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

// ListenAndServe blocks serving on cfg.Addr.
func (s *Server) ListenAndServe() error {
	s.log.Infow("monitoring server listening", "addr", s.cfg.Addr)
	return http.ListenAndServe(s.cfg.Addr, s.router)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleVehicleItineraries serves the vehicle_itineraries.json shape
// live: vehicle_id -> ordered stop list.
func (s *Server) handleVehicleItineraries(w http.ResponseWriter, r *http.Request) {
	out := map[string][]*model.Stop{}
	for _, req := range append(s.scheduler.Scheduled(), s.scheduler.Pending()...) {
		if req.VehicleID == "" {
			continue
		}
		if _, ok := out[req.VehicleID]; ok {
			continue
		}
		it, ok := s.scheduler.Itinerary(req.VehicleID)
		if !ok {
			continue
		}
		out[req.VehicleID] = it.Stops
	}
	writeJSON(w, out)
}

// handleCustomerItineraries serves the customer_itineraries.json shape:
// passenger_id -> ordered segment, or an empty array if rejected.
func (s *Server) handleCustomerItineraries(w http.ResponseWriter, r *http.Request) {
	out := map[string][]*model.Stop{}
	for _, req := range s.scheduler.Scheduled() {
		out[req.PassengerID] = []*model.Stop{req.Spu, req.Ssd}
	}
	for _, req := range s.scheduler.Rejected() {
		out[req.PassengerID] = []*model.Stop{}
	}
	writeJSON(w, out)
}

// handleEvents streams CycleEvents as they're published, one SSE frame
// per event — the same flush-per-event idiom as a live position feed,
// re-themed from vehicle positions to scheduling decisions.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan CycleEvent, 32)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.subscribers, ch)
		s.mu.Unlock()
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			b, _ := json.Marshal(ev)
			_, _ = w.Write([]byte("event: cycle\ndata: "))
			_, _ = w.Write(b)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}

// PublishDecision converts one scheduler decision into a CycleEvent and
// fans it out, recording the corresponding prometheus counters too.
func (s *Server) PublishDecision(d scheduler.Decision, cycleSeconds float64) {
	outcome := "rejected"
	if d.Accepted {
		outcome = "accepted"
	}
	ObserveOutcome(outcome)
	ObserveCycle(time.Duration(cycleSeconds * float64(time.Second)))
	s.Publish(CycleEvent{
		RequestID: d.RequestID,
		VehicleID: d.VehicleID,
		Outcome:   outcome,
		CostDelta: d.CostDelta,
		At:        time.Now().UTC().Format(time.RFC3339),
	})
}

// Publish fans a cycle event out to every connected SSE subscriber,
// dropping it for any subscriber whose buffer is full rather than
// blocking the publisher.
func (s *Server) Publish(ev CycleEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

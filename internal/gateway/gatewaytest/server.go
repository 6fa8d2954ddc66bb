// Package gatewaytest provides an in-process place-status service for tests.
package gatewaytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"

	"parking-session-backend/internal/model"
)

// Server mimics the remote service: GET /places and POST /update, with
// last-write-wins updates and no locking.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	places      map[int]model.PlaceStatus
	listFails   bool
	updateFails bool
	listCalls   int
	updates     []model.Place
}

// NewServer starts a server with places 1..n, all free.
func NewServer(n int) *Server {
	s := &Server{places: make(map[int]model.PlaceStatus, n)}
	for i := 1; i <= n; i++ {
		s.places[i] = model.StatusFree
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/places", s.handlePlaces)
	mux.HandleFunc("/update", s.handleUpdate)
	s.Server = httptest.NewServer(mux)
	return s
}

func (s *Server) handlePlaces(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	s.listCalls++
	if s.listFails {
		s.mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	places := s.snapshotLocked()
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"places": places})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.Place
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResult(w, http.StatusBadRequest, false, "Invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateFails {
		writeResult(w, http.StatusServiceUnavailable, false, "Unavailable")
		return
	}
	if _, ok := s.places[req.ID]; !ok {
		writeResult(w, http.StatusBadRequest, false, "Invalid id")
		return
	}
	if !req.Status.Valid() {
		writeResult(w, http.StatusBadRequest, false, "Invalid status")
		return
	}
	s.places[req.ID] = req.Status
	s.updates = append(s.updates, req)
	writeResult(w, http.StatusOK, true, "Status updated")
}

func writeResult(w http.ResponseWriter, code int, ok bool, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": ok, "message": msg})
}

func (s *Server) snapshotLocked() []model.Place {
	places := make([]model.Place, 0, len(s.places))
	for id, st := range s.places {
		places = append(places, model.Place{ID: id, Status: st})
	}
	sort.Slice(places, func(i, j int) bool { return places[i].ID < places[j].ID })
	return places
}

// SetPlace changes a place directly, as another client would.
func (s *Server) SetPlace(id int, status model.PlaceStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.places[id] = status
}

// Status returns the server-side status of a place.
func (s *Server) Status(id int) model.PlaceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.places[id]
	if !ok {
		return model.StatusUnknown
	}
	return st
}

// FailList makes GET /places answer 500 while on is true.
func (s *Server) FailList(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listFails = on
}

// FailUpdate makes POST /update answer 503 while on is true.
func (s *Server) FailUpdate(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateFails = on
}

// ListCalls returns how many times GET /places was served.
func (s *Server) ListCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

// Updates returns the accepted POST /update bodies in order.
func (s *Server) Updates() []model.Place {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Place(nil), s.updates...)
}

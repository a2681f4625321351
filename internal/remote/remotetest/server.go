// Package remotetest provides an in-memory document store served over HTTP,
// used by tests that need a real remote gateway endpoint.
package remotetest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// Server is a minimal document store. Collection paths have an odd number of
// segments, document paths an even number (users/u1/workouts vs
// users/u1/workouts/w1).
type Server struct {
	httpServer *httptest.Server

	mu          sync.Mutex
	collections map[string]map[string]map[string]interface{}
	nextID      int

	// failure injection
	failRemaining int
	failStatus    int

	Version string
}

func NewServer() *Server {
	s := &Server{
		collections: map[string]map[string]map[string]interface{}{},
		Version:     "1.2.0",
	}

	r := chi.NewRouter()
	r.Get("/api/healthz", s.handleHealth)
	r.HandleFunc("/api/v1/*", s.handleStore)

	s.httpServer = httptest.NewServer(r)
	return s
}

func (s *Server) URL() string {
	return s.httpServer.URL
}

func (s *Server) Close() {
	s.httpServer.Close()
}

// FailNext makes the next n store requests respond with the given status.
func (s *Server) FailNext(n int, status int) {
	s.mu.Lock()
	s.failRemaining = n
	s.failStatus = status
	s.mu.Unlock()
}

// Seed places a document directly into a collection.
func (s *Server) Seed(collectionPath, id string, data map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll := s.collections[collectionPath]
	if coll == nil {
		coll = map[string]map[string]interface{}{}
		s.collections[collectionPath] = coll
	}
	coll[id] = data
}

// Document returns a stored document, or nil.
func (s *Server) Document(collectionPath, id string) map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll := s.collections[collectionPath]
	if coll == nil {
		return nil
	}
	return coll[id]
}

// CollectionSize reports the number of documents in a collection.
func (s *Server) CollectionSize(collectionPath string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.collections[collectionPath])
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok", "version": s.Version})
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.failRemaining > 0 {
		s.failRemaining--
		status := s.failStatus
		s.mu.Unlock()
		http.Error(w, http.StatusText(status), status)
		return
	}
	s.mu.Unlock()

	path := strings.Trim(chi.URLParam(r, "*"), "/")
	segments := strings.Split(path, "/")

	if len(segments)%2 == 0 {
		collection := strings.Join(segments[:len(segments)-1], "/")
		id := segments[len(segments)-1]
		s.handleDocument(w, r, collection, id)
		return
	}
	s.handleCollection(w, r, path)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request, collection, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.collections[collection]

	switch r.Method {
	case http.MethodGet:
		if coll == nil || coll[id] == nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		render.JSON(w, r, map[string]interface{}{"id": id, "data": coll[id]})

	case http.MethodPut:
		data := map[string]interface{}{}
		if err := render.DecodeJSON(r.Body, &data); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if coll == nil {
			coll = map[string]map[string]interface{}{}
			s.collections[collection] = coll
		}
		coll[id] = data
		w.WriteHeader(http.StatusNoContent)

	case http.MethodPatch:
		if coll == nil || coll[id] == nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		partial := map[string]interface{}{}
		if err := render.DecodeJSON(r.Body, &partial); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		for k, v := range partial {
			coll[id][k] = v
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		if coll == nil || coll[id] == nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		delete(coll, id)
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request, collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.collections[collection]

	switch r.Method {
	case http.MethodGet:
		docs := []map[string]interface{}{}
		for id, data := range coll {
			if matchesFilters(data, r.URL.Query()["where"]) {
				docs = append(docs, map[string]interface{}{"id": id, "data": data})
			}
		}
		render.JSON(w, r, map[string]interface{}{"documents": docs})

	case http.MethodPost:
		data := map[string]interface{}{}
		if err := render.DecodeJSON(r.Body, &data); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if coll == nil {
			coll = map[string]map[string]interface{}{}
			s.collections[collection] = coll
		}
		s.nextID++
		id := fmt.Sprintf("gen-%d", s.nextID)
		coll[id] = data
		render.JSON(w, r, map[string]string{"id": id})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func matchesFilters(data map[string]interface{}, wheres []string) bool {
	for _, where := range wheres {
		parts := strings.SplitN(where, ":", 3)
		if len(parts) != 3 {
			continue
		}
		field, op, want := parts[0], parts[1], parts[2]
		got := fmt.Sprint(data[field])
		switch op {
		case "==":
			if got != want {
				return false
			}
		case "<", "<=", ">", ">=":
			// lexicographic comparison is enough for the date strings used in tests
			if !compareStrings(got, op, want) {
				return false
			}
		}
	}
	return true
}

func compareStrings(got, op, want string) bool {
	switch op {
	case "<":
		return got < want
	case "<=":
		return got <= want
	case ">":
		return got > want
	case ">=":
		return got >= want
	}
	return false
}

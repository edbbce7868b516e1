// Package testutil provides a configurable mock Petfinder API for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
)

// MockPetfinder is a mock Petfinder API server. It serves the OAuth2 token
// endpoint and a paginated /animals endpoint fed from per-location page
// fixtures.
type MockPetfinder struct {
	server *httptest.Server

	mu       sync.Mutex
	pages    map[string][][]int64      // location -> pages of animal IDs
	failures map[string]map[int]int    // location -> page -> status code
	handlers map[string]http.HandlerFunc

	// Tracking
	TokenCount    int
	AnimalCount   int
	LastQuery     map[string]string
	QueriedPages  []string // "<location>:<page>" in request order
}

// NewMockPetfinder creates a mock server with a working token endpoint.
func NewMockPetfinder() *MockPetfinder {
	mock := &MockPetfinder{
		pages:    make(map[string][][]int64),
		failures: make(map[string]map[int]int),
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		handler, custom := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if custom {
			handler(w, r)
			return
		}

		switch r.URL.Path {
		case "/oauth2/token":
			mock.tokenHandler(w, r)
		case "/animals":
			mock.animalsHandler(w, r)
		default:
			http.NotFound(w, r)
		}
	}))

	return mock
}

// URL returns the mock server URL, used as the API base URL.
func (m *MockPetfinder) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockPetfinder) Close() {
	m.server.Close()
}

// SetHandler installs a custom handler for a path, overriding the built-in
// behavior.
func (m *MockPetfinder) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetPages configures the animal IDs served per page for a location.
// Locations with no fixture serve a single empty page.
func (m *MockPetfinder) SetPages(location string, pages ...[]int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[location] = pages
}

// SetFailure makes requests for the given location and page return the
// status code instead of a result page.
func (m *MockPetfinder) SetFailure(location string, page, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures[location] == nil {
		m.failures[location] = make(map[int]int)
	}
	m.failures[location][page] = status
}

func (m *MockPetfinder) tokenHandler(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.TokenCount++
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"access_token":"mock-token","token_type":"Bearer","expires_in":3600}`)
}

func (m *MockPetfinder) animalsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	location := query.Get("location")
	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}

	m.mu.Lock()
	m.AnimalCount++
	m.LastQuery = map[string]string{}
	for key := range query {
		m.LastQuery[key] = query.Get(key)
	}
	m.QueriedPages = append(m.QueriedPages, fmt.Sprintf("%s:%d", location, page))
	status := m.failures[location][page]
	pages := m.pages[location]
	m.mu.Unlock()

	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}

	totalPages := len(pages)
	if totalPages == 0 {
		totalPages = 1
	}

	var ids []int64
	if page <= len(pages) {
		ids = pages[page-1]
	}

	animals := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		animals = append(animals, map[string]any{
			"id":   id,
			"type": "Cat",
			"name": fmt.Sprintf("animal-%d", id),
			"colors": map[string]any{
				"primary": "Black",
			},
			"contact": map[string]any{
				"address": map[string]any{
					"state": location,
				},
			},
		})
	}

	body := map[string]any{
		"animals": animals,
		"pagination": map[string]any{
			"count_per_page": len(ids),
			"total_count":    0,
			"current_page":   page,
			"total_pages":    totalPages,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

// Counts returns the token and animal request counts.
func (m *MockPetfinder) Counts() (tokens, animals int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.TokenCount, m.AnimalCount
}

// Pages returns the "<location>:<page>" request log.
func (m *MockPetfinder) Pages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.QueriedPages))
	copy(out, m.QueriedPages)
	return out
}

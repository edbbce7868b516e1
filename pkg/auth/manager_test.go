package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewManager_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
	}{
		{
			name: "valid config",
			config: Config{
				BaseURL:      "https://api.petfinder.com/v2",
				ClientID:     "key",
				ClientSecret: "secret",
			},
			expectError: false,
		},
		{
			name: "missing base URL",
			config: Config{
				ClientID:     "key",
				ClientSecret: "secret",
			},
			expectError: true,
		},
		{
			name: "missing client ID",
			config: Config{
				BaseURL:      "https://api.petfinder.com/v2",
				ClientSecret: "secret",
			},
			expectError: true,
		},
		{
			name: "missing client secret",
			config: Config{
				BaseURL:  "https://api.petfinder.com/v2",
				ClientID: "key",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewManager(tt.config)
			if tt.expectError && err == nil {
				t.Error("Expected error but got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestAuthenticate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth2/token" {
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("Failed to parse form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q, want client_credentials", got)
		}
		if got := r.PostForm.Get("client_id"); got != "test-key" {
			t.Errorf("client_id = %q, want test-key", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-123","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	mgr, err := NewManager(Config{
		BaseURL:      server.URL,
		ClientID:     "test-key",
		ClientSecret: "test-secret",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	cred, err := mgr.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	if cred.AccessToken != "tok-123" {
		t.Errorf("AccessToken = %q, want tok-123", cred.AccessToken)
	}
	if !cred.Valid(5 * time.Minute) {
		t.Error("Expected fresh credential to be valid with 5m leeway")
	}
	if got := mgr.Token(); got.AccessToken != "tok-123" {
		t.Errorf("Token() = %q, want cached credential", got.AccessToken)
	}
}

func TestAuthenticate_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid credentials"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	mgr, err := NewManager(Config{
		BaseURL:      server.URL,
		ClientID:     "bad",
		ClientSecret: "bad",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	_, err = mgr.Authenticate(context.Background())
	if !errors.Is(err, ErrAuth) {
		t.Errorf("Expected ErrAuth, got %v", err)
	}
}

func TestAuthenticate_MalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing access_token", body: `{"token_type":"Bearer","expires_in":3600}`},
		{name: "invalid json", body: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			mgr, err := NewManager(Config{
				BaseURL:      server.URL,
				ClientID:     "key",
				ClientSecret: "secret",
			})
			if err != nil {
				t.Fatalf("NewManager failed: %v", err)
			}

			if _, err := mgr.Authenticate(context.Background()); !errors.Is(err, ErrAuth) {
				t.Errorf("Expected ErrAuth, got %v", err)
			}
		})
	}
}

func TestCredentialValid(t *testing.T) {
	tests := []struct {
		name   string
		cred   Credential
		leeway time.Duration
		want   bool
	}{
		{
			name:   "fresh token",
			cred:   Credential{AccessToken: "t", ExpiresAt: time.Now().Add(time.Hour)},
			leeway: 5 * time.Minute,
			want:   true,
		},
		{
			name:   "inside leeway window",
			cred:   Credential{AccessToken: "t", ExpiresAt: time.Now().Add(2 * time.Minute)},
			leeway: 5 * time.Minute,
			want:   false,
		},
		{
			name:   "expired",
			cred:   Credential{AccessToken: "t", ExpiresAt: time.Now().Add(-time.Minute)},
			leeway: 0,
			want:   false,
		},
		{
			name:   "empty token",
			cred:   Credential{ExpiresAt: time.Now().Add(time.Hour)},
			leeway: 0,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cred.Valid(tt.leeway); got != tt.want {
				t.Errorf("Valid(%v) = %v, want %v", tt.leeway, got, tt.want)
			}
		})
	}
}

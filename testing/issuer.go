// Package testing provides utilities for testing applications that use recipekit.
// It provides a mock auth service that signs Hasura-claims tokens, enabling
// client tests without a real auth server or database.
//
// Example usage:
//
//	issuer := testing.NewTestIssuer()
//	defer issuer.Close()
//
//	// Point the auth client at the test issuer
//	cfg.AuthURL = issuer.URL()
//
//	// Create tokens for testing
//	token := issuer.CreateToken("user-123", "test@example.com")
package testing

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	jwtkit "github.com/PaulFidika/recipekit/jwt"
	"github.com/google/uuid"
)

// Secret is the HS256 secret every TestIssuer signs with.
const Secret = "test-secret-0123456789abcdefghijklmnop"

// TestIssuer runs an HTTP server speaking the auth service's signup/login/refresh/logout
// protocol and can sign tokens directly.
type TestIssuer struct {
	server *httptest.Server
	signer *jwtkit.HS256Signer

	mu       sync.Mutex
	users    map[string]testUser // by email
	refresh  map[string]string   // refresh token -> email
	requests int
	revoked  []string
}

type testUser struct {
	ID       string
	Name     string
	Password string
}

// NewTestIssuer creates a new test issuer. Call Close() when done.
func NewTestIssuer() *TestIssuer {
	signer, err := jwtkit.NewHS256Signer([]byte(Secret))
	if err != nil {
		panic("failed to create signer: " + err.Error())
	}
	ti := &TestIssuer{
		signer:  signer,
		users:   map[string]testUser{},
		refresh: map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/signup", ti.handleSignup)
	mux.HandleFunc("/login", ti.handleLogin)
	mux.HandleFunc("/refresh", ti.handleRefresh)
	mux.HandleFunc("/logout", ti.handleLogout)

	ti.server = httptest.NewServer(mux)
	return ti
}

// URL returns the base URL of the test auth service.
func (ti *TestIssuer) URL() string {
	return ti.server.URL
}

// Signer exposes the signer so tests can verify issued tokens.
func (ti *TestIssuer) Signer() *jwtkit.HS256Signer { return ti.signer }

// Requests returns how many auth requests the server has handled.
func (ti *TestIssuer) Requests() int {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	return ti.requests
}

// Revoked returns the refresh tokens posted to /logout, in order.
func (ti *TestIssuer) Revoked() []string {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	return append([]string(nil), ti.revoked...)
}

// Close shuts down the test server.
func (ti *TestIssuer) Close() {
	if ti.server != nil {
		ti.server.Close()
	}
}

// AddUser registers a user that can log in and returns its id.
func (ti *TestIssuer) AddUser(name, email, password string) string {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	id := uuid.NewString()
	ti.users[email] = testUser{ID: id, Name: name, Password: password}
	return id
}

// CreateToken creates a signed access token with the Hasura claims.
func (ti *TestIssuer) CreateToken(userID, email string) string {
	token, err := jwtkit.Issue(context.Background(), ti.signer, userID, email, time.Hour)
	if err != nil {
		panic("failed to sign token: " + err.Error())
	}
	return token
}

// CreateTokenWithClaims creates a signed token with additional custom claims.
// The custom claims are merged over the standard ones.
func (ti *TestIssuer) CreateTokenWithClaims(userID, email string, extraClaims map[string]any) string {
	claims := jwtkit.AccessClaims(userID, email, time.Now(), time.Hour)
	for k, v := range extraClaims {
		claims[k] = v
	}
	token, err := ti.signer.Sign(context.Background(), claims)
	if err != nil {
		panic("failed to sign token: " + err.Error())
	}
	return token
}

// CreateExpiredToken creates a token that has already expired.
func (ti *TestIssuer) CreateExpiredToken(userID, email string) string {
	return ti.CreateTokenWithClaims(userID, email, map[string]any{
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
}

// UnsignedToken builds a three-segment token around an arbitrary payload.
// The signature segment is junk; nothing on the client side checks it.
func UnsignedToken(payload any) string {
	b, err := json.Marshal(payload)
	if err != nil {
		panic("failed to marshal payload: " + err.Error())
	}
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	return header + "." + base64.RawURLEncoding.EncodeToString(b) + ".sig"
}

// RawToken builds a token whose payload segment is exactly seg.
func RawToken(seg string) string {
	return strings.Join([]string{"eyJhbGciOiJub25lIn0", seg, "sig"}, ".")
}

func (ti *TestIssuer) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !ti.decode(w, r, &body) {
		return
	}
	if body.Name == "" || body.Email == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	ti.mu.Lock()
	if _, exists := ti.users[body.Email]; exists {
		ti.mu.Unlock()
		writeError(w, http.StatusBadRequest, "User already exists")
		return
	}
	ti.mu.Unlock()
	id := ti.AddUser(body.Name, body.Email, body.Password)
	ti.respond(w, id, body.Email, body.Name)
}

func (ti *TestIssuer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !ti.decode(w, r, &body) {
		return
	}
	ti.mu.Lock()
	u, ok := ti.users[body.Email]
	ti.mu.Unlock()
	if !ok || u.Password != body.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	ti.respond(w, u.ID, body.Email, u.Name)
}

func (ti *TestIssuer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !ti.decode(w, r, &body) {
		return
	}
	ti.mu.Lock()
	email, ok := ti.refresh[body.RefreshToken]
	u := ti.users[email]
	ti.mu.Unlock()
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": ti.CreateToken(u.ID, email)})
}

func (ti *TestIssuer) handleLogout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !ti.decode(w, r, &body) {
		return
	}
	ti.mu.Lock()
	delete(ti.refresh, body.RefreshToken)
	ti.revoked = append(ti.revoked, body.RefreshToken)
	ti.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (ti *TestIssuer) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	ti.mu.Lock()
	ti.requests++
	ti.mu.Unlock()
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (ti *TestIssuer) respond(w http.ResponseWriter, userID, email, name string) {
	rt := uuid.NewString()
	ti.mu.Lock()
	ti.refresh[rt] = email
	ti.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{
		"token":         ti.CreateToken(userID, email),
		"refresh_token": rt,
		"user_id":       userID,
		"email":         email,
		"name":          name,
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Package cosynighttest provides an in-process fake of the CosyNight cloud
// API for tests and demos. It speaks the real wire format, including the
// server's ".issued"/".expires" token keys and the "requieresUpdate"
// spelling.
package cosynighttest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/tj-smith47/cosynight-go"
)

// DefaultTokenTTL is the lifetime of issued access tokens.
const DefaultTokenTTL = 24 * time.Hour

type session struct {
	userID    string
	userEmail string
	expires   time.Time
}

// Server is a fake CosyNight API backed by an httptest.Server.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	now           func() time.Time
	tokenTTL      time.Duration
	passwords     map[string]string
	userIDs       map[string]string
	accessTokens  map[string]session
	refreshTokens map[string]session
	devices       []cosynight.Status
	quickstarts   []cosynight.QuickstartRequest
	hits          map[string]int
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the server's time source for token issue and expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithTokenTTL sets the lifetime of issued access tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.tokenTTL = ttl }
}

// NewServer starts a fake server. Callers must Close it.
func NewServer(opts ...Option) *Server {
	s := &Server{
		now:           time.Now,
		tokenTTL:      DefaultTokenTTL,
		passwords:     make(map[string]string),
		userIDs:       make(map[string]string),
		accessTokens:  make(map[string]session),
		refreshTokens: make(map[string]session),
		hits:          make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := mux.NewRouter()
	r.Use(s.countHits)
	r.HandleFunc("/token", s.handleToken).Methods(http.MethodPost)

	api := r.PathPrefix("/api/v1/Device").Subrouter()
	api.Use(s.requireBearer)
	api.HandleFunc("/List", s.handleList).Methods(http.MethodGet)
	api.HandleFunc("/GetStatus", s.handleGetStatus).Methods(http.MethodPost)
	api.HandleFunc("/Quickstart", s.handleQuickstart).Methods(http.MethodPost)

	s.Server = httptest.NewServer(r)
	return s
}

// AddUser registers an account.
func (s *Server) AddUser(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passwords[username] = password
	s.userIDs[username] = uuid.NewString()
}

// AddDevice registers a device and its current state.
func (s *Server) AddDevice(st cosynight.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = append(s.devices, st)
}

// Hits returns how many requests reached path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// Quickstarts returns the accepted quickstart commands in arrival order.
func (s *Server) Quickstarts() []cosynight.QuickstartRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]cosynight.QuickstartRequest(nil), s.quickstarts...)
}

// RevokeRefreshTokens invalidates every refresh token issued so far.
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshTokens = make(map[string]session)
}

// IssueToken registers a token pair for username that expires at expires,
// bypassing the password grant. Use it to seed a token store with a stale
// but refreshable token.
func (s *Server) IssueToken(username string, expires time.Time) *cosynight.Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := session{userID: s.userIDs[username], userEmail: username, expires: expires}
	access, refresh := uuid.NewString(), uuid.NewString()
	s.accessTokens[access] = sess
	s.refreshTokens[refresh] = sess

	issued := expires.Add(-s.tokenTTL).UTC().Truncate(time.Second)
	return &cosynight.Token{
		AccessToken:  access,
		TokenType:    "bearer",
		RefreshToken: refresh,
		Issued:       issued,
		Expires:      expires.UTC().Truncate(time.Second),
		ExpiresIn:    int(s.tokenTTL.Seconds()),
		UserID:       sess.userID,
		UserEmail:    sess.userEmail,
	}
}

func (s *Server) countHits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, access, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "bearer") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Authorization has been denied for this request."})
			return
		}

		s.mu.Lock()
		sess, found := s.accessTokens[access]
		now := s.now()
		s.mu.Unlock()

		if !found || !now.Before(sess.expires) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Authorization has been denied for this request."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, oauthError("invalid_request", err.Error()))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var sess session
	switch r.PostForm.Get("grant_type") {
	case cosynight.GrantPassword:
		username := r.PostForm.Get("username")
		want, ok := s.passwords[username]
		if !ok || want != r.PostForm.Get("password") {
			writeJSON(w, http.StatusBadRequest, oauthError("invalid_grant", "The user name or password is incorrect."))
			return
		}
		sess = session{userID: s.userIDs[username], userEmail: username}
	case cosynight.GrantRefreshToken:
		refresh := r.PostForm.Get("refresh_token")
		old, ok := s.refreshTokens[refresh]
		if !ok {
			writeJSON(w, http.StatusBadRequest, oauthError("invalid_grant", "Invalid refresh token."))
			return
		}
		delete(s.refreshTokens, refresh)
		sess = old
	default:
		writeJSON(w, http.StatusBadRequest, oauthError("unsupported_grant_type", ""))
		return
	}

	issued := s.now().UTC().Truncate(time.Second)
	sess.expires = issued.Add(s.tokenTTL)
	access, refresh := uuid.NewString(), uuid.NewString()
	s.accessTokens[access] = sess
	s.refreshTokens[refresh] = sess

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  access,
		"token_type":    "bearer",
		"expires_in":    int(s.tokenTTL.Seconds()),
		"refresh_token": refresh,
		"user_id":       sess.userID,
		"user_email":    sess.userEmail,
		".issued":       issued.Format(http.TimeFormat),
		".expires":      sess.expires.Format(http.TimeFormat),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	devices := make([]map[string]any, 0, len(s.devices))
	for _, d := range s.devices {
		devices = append(devices, map[string]any{
			"id":              d.ID,
			"name":            d.Name,
			"active":          d.Active,
			"requieresUpdate": d.RequiresUpdate,
		})
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"devices": devices})
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	s.mu.Lock()
	st, ok := s.findDevice(body.ID)
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Device not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":              st.ID,
		"name":            st.Name,
		"active":          st.Active,
		"bodySetting":     st.BodySetting,
		"feetSetting":     st.FeetSetting,
		"heartbeat":       st.Heartbeat,
		"timer":           st.Timer,
		"requieresUpdate": st.RequiresUpdate,
	})
}

func (s *Server) handleQuickstart(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID          string `json:"id"`
		BodySetting int    `json:"bodySetting"`
		FeetSetting int    `json:"feetSetting"`
		Timespan    int    `json:"timespan"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.devices {
		if s.devices[i].ID == body.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Device not found"})
		return
	}

	s.devices[idx].Active = true
	s.devices[idx].BodySetting = body.BodySetting
	s.devices[idx].FeetSetting = body.FeetSetting
	s.devices[idx].Timer = body.Timespan
	s.quickstarts = append(s.quickstarts, cosynight.QuickstartRequest{
		ID:          body.ID,
		BodySetting: body.BodySetting,
		FeetSetting: body.FeetSetting,
		Timespan:    time.Duration(body.Timespan) * time.Second,
	})
	w.WriteHeader(http.StatusOK)
}

// findDevice must be called with s.mu held.
func (s *Server) findDevice(id string) (cosynight.Status, bool) {
	for _, d := range s.devices {
		if d.ID == id {
			return d, true
		}
	}
	return cosynight.Status{}, false
}

func oauthError(code, description string) map[string]string {
	return map[string]string{"error": code, "error_description": description}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

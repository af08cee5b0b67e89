package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bookdesk/internal/app"
	"bookdesk/internal/ratelimit"
	"bookdesk/internal/util"
	"bookdesk/pkg/auth"
	"bookdesk/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App

	// Optional limiters for the credential endpoints; nil means unlimited.
	RegisterLimiter *ratelimit.FixedWindowLimiter
	LoginLimiter    *ratelimit.FixedWindowLimiter
}

// Server exposes the catalogue HTTP endpoints.
type Server struct {
	app             *app.App
	mux             *http.ServeMux
	registerLimiter *ratelimit.FixedWindowLimiter
	loginLimiter    *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:             cfg.App,
		mux:             http.NewServeMux(),
		registerLimiter: cfg.RegisterLimiter,
		loginLimiter:    cfg.LoginLimiter,
	}
	s.routes()
	return s
}

// Router returns the handler wrapped with the middleware chain.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/auth/register", s.handleRegister)
	s.mux.HandleFunc("/auth/token", s.handleLogin)
	s.mux.HandleFunc("/auth/logout", s.handleLogout)
	s.mux.Handle("/auth/me", s.authenticated(s.handleMe))

	// books
	s.mux.HandleFunc("/books", s.handleBooks)
	s.mux.HandleFunc("/books/", s.handleBookByID)

	// admin
	s.mux.Handle("/admin/users", s.adminOnly(s.handleAdminUsers))
	s.mux.Handle("/admin/books/", s.adminOnly(s.handleAdminBookStatus))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeUnauthorized(w)
			return
		}
		user, ok := s.app.UserFromToken(token)
		if !ok {
			writeUnauthorized(w)
			return
		}
		next(w, r, user)
	})
}

func (s *Server) adminOnly(next authHandler) http.Handler {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
		if user.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r, user)
	})
}

// optionalUser resolves the caller when an Authorization header is present.
// A missing header means anonymous access; a present-but-invalid token is a
// hard failure, never a silent fallback to anonymous.
func (s *Server) optionalUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	if strings.TrimSpace(r.Header.Get("Authorization")) == "" {
		return nil, true
	}
	token, ok := bearerToken(r)
	if !ok {
		writeUnauthorized(w)
		return nil, false
	}
	user, ok := s.app.UserFromToken(token)
	if !ok {
		writeUnauthorized(w)
		return nil, false
	}
	return &user, true
}

// auth handlers
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.registerLimiter != nil && !s.registerLimiter.Allow(util.ClientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}
	var req credentialsRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := s.app.Register(req.Email, req.Password)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.loginLimiter != nil && !s.loginLimiter.Allow(util.ClientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}
	email, password, ok := credentials(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid credentials body")
		return
	}
	user, token, err := s.app.Login(email, password)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		Role:        user.Role,
	})
}

// credentials reads the OAuth2 password form, falling back to a JSON body.
func credentials(r *http.Request) (email, password string, ok bool) {
	contentType := strings.ToLower(r.Header.Get("Content-Type"))
	if strings.Contains(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return "", "", false
		}
		return r.PostFormValue("username"), r.PostFormValue("password"), true
	}
	var req credentialsRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		return "", "", false
	}
	return req.Email, req.Password, true
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token, ok := bearerToken(r)
	if !ok {
		writeUnauthorized(w)
		return
	}
	if err := s.app.Logout(token); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// book handlers
func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		viewer, ok := s.optionalUser(w, r)
		if !ok {
			return
		}
		skip, limit := pagination(r)
		books, err := s.app.ListBooks(viewer, skip, limit)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": books,
			"count": len(books),
		})
	case http.MethodPost:
		s.authenticated(s.handleCreateBook).ServeHTTP(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request, user domain.User) {
	input, ok := decodeBookRequest(w, r)
	if !ok {
		return
	}
	book, err := s.app.CreateBook(user, input)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (s *Server) handleBookByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/books/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		viewer, ok := s.optionalUser(w, r)
		if !ok {
			return
		}
		book, err := s.app.GetBook(viewer, id)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, book)
	case http.MethodPut:
		s.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
			input, ok := decodeBookRequest(w, r)
			if !ok {
				return
			}
			book, err := s.app.UpdateBook(user, id, input)
			if err != nil {
				s.writeAppError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, book)
		}).ServeHTTP(w, r)
	case http.MethodDelete:
		s.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
			book, err := s.app.DeleteBook(user, id)
			if err != nil {
				s.writeAppError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, book)
		}).ServeHTTP(w, r)
	default:
		methodNotAllowed(w)
	}
}

// admin handlers
func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request, _ domain.User) {
	switch r.Method {
	case http.MethodGet:
		users, err := s.app.ListUsers()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": users,
			"count": len(users),
		})
	case http.MethodPost:
		var req credentialsRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		user, err := s.app.CreateAdmin(req.Email, req.Password)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleAdminBookStatus(w http.ResponseWriter, r *http.Request, user domain.User) {
	rest := strings.TrimPrefix(r.URL.Path, "/admin/books/")
	id, action, found := strings.Cut(rest, "/")
	if !found || id == "" || action != "status" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	var req statusRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	status, ok := domain.ParseBookStatus(req.Status)
	if !ok || status == domain.StatusPending {
		writeError(w, http.StatusBadRequest, "status must be approved or rejected")
		return
	}
	book, err := s.app.SetBookStatus(user, id, status, req.Reason)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrBookNotFound), errors.Is(err, app.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, app.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrEmailAlreadyExists),
		errors.Is(err, app.ErrISBNAlreadyExists),
		errors.Is(err, app.ErrEmailAndPasswordRequired),
		errors.Is(err, app.ErrInvalidInput),
		errors.Is(err, auth.ErrPasswordTooLong),
		errors.Is(err, auth.ErrPasswordRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, "unauthorized")
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string          `json:"accessToken"`
	TokenType   string          `json:"tokenType"`
	Role        domain.UserRole `json:"role"`
}

type statusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type bookRequest struct {
	ISBN            string `json:"isbn"`
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle"`
	Author          string `json:"author"`
	CoAuthor        string `json:"coAuthor"`
	Publisher       string `json:"publisher"`
	PublicationDate string `json:"publicationDate"`
	PrintLength     int    `json:"printLength"`
	Language        string `json:"language"`
	FrontCoverURL   string `json:"frontCoverUrl"`
	BackCoverURL    string `json:"backCoverUrl"`
	Synopsis        string `json:"synopsis"`
	CopyrightInfo   string `json:"copyrightInfo"`
	Category        string `json:"category"`
	Subcategory     string `json:"subcategory"`
}

func decodeBookRequest(w http.ResponseWriter, r *http.Request) (app.BookInput, bool) {
	var req bookRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return app.BookInput{}, false
	}
	pubDate, err := parseDate(req.PublicationDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "publicationDate must be YYYY-MM-DD")
		return app.BookInput{}, false
	}
	return app.BookInput{
		ISBN:            req.ISBN,
		Title:           req.Title,
		Subtitle:        req.Subtitle,
		Author:          req.Author,
		CoAuthor:        req.CoAuthor,
		Publisher:       req.Publisher,
		PublicationDate: pubDate,
		PrintLength:     req.PrintLength,
		Language:        req.Language,
		FrontCoverURL:   req.FrontCoverURL,
		BackCoverURL:    req.BackCoverURL,
		Synopsis:        req.Synopsis,
		CopyrightInfo:   req.CopyrightInfo,
		Category:        req.Category,
		Subcategory:     req.Subcategory,
	}, true
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse("2006-01-02", raw); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func pagination(r *http.Request) (skip, limit int) {
	query := r.URL.Query()
	skip = atoiDefault(query.Get("skip"), 0)
	limit = atoiDefault(query.Get("limit"), 100)
	if skip < 0 {
		skip = 0
	}
	if limit < 0 {
		limit = 0
	}
	return skip, limit
}

func atoiDefault(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	n := 0
	for _, c := range raw {
		if c < '0' || c > '9' {
			return def
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

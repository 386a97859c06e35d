package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"bookshop/internal/app"
	"bookshop/internal/util"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
}

// Server exposes the HTTP endpoints of the bookshop service.
type Server struct {
	app *app.App
	mux *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app: cfg.App,
		mux: http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/register", s.handleRegister)
	s.mux.HandleFunc("/login", s.handleLogin)

	// catalog
	s.mux.HandleFunc("/", s.handleCatalog)
	s.mux.HandleFunc("/isbn/", s.handleBookByISBN)
	s.mux.HandleFunc("/author/", s.handleBooksByAuthor)
	s.mux.HandleFunc("/title/", s.handleBooksByTitle)
	s.mux.HandleFunc("/review/", s.handleReviews)

	// reviews (auth required)
	s.mux.HandleFunc("/auth/review/", s.handleAuthReview)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth handlers
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req authRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}
	if err := s.app.Register(req.Username, req.Password); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req authRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}
	token, err := s.app.Login(req.Username, req.Password)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Login successful",
		"token":   token,
	})
}

// catalog handlers
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	books, err := s.app.Catalog()
	if err != nil {
		slog.Error("catalog fetch failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Error fetching book list")
		return
	}
	// The catalog listing is pretty-printed; everything else is compact JSON.
	payload, err := json.MarshalIndent(books, "", "    ")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching book list")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (s *Server) handleBookByISBN(w http.ResponseWriter, r *http.Request) {
	isbn, ok := pathParam(w, r, "/isbn/")
	if !ok {
		return
	}
	book, err := s.app.BookByISBN(isbn)
	if err != nil {
		if errors.Is(err, app.ErrBookNotFound) {
			writeError(w, http.StatusNotFound, "Book not found")
			return
		}
		slog.Error("book fetch failed", "isbn", isbn, "err", err)
		writeError(w, http.StatusInternalServerError, "Error fetching book by ISBN")
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (s *Server) handleBooksByAuthor(w http.ResponseWriter, r *http.Request) {
	author, ok := pathParam(w, r, "/author/")
	if !ok {
		return
	}
	books, err := s.app.BooksByAuthor(author)
	if err != nil {
		slog.Error("author search failed", "author", author, "err", err)
		writeError(w, http.StatusInternalServerError, "Error fetching books by author")
		return
	}
	if len(books) == 0 {
		writeError(w, http.StatusNotFound, "No books found for this author")
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (s *Server) handleBooksByTitle(w http.ResponseWriter, r *http.Request) {
	title, ok := pathParam(w, r, "/title/")
	if !ok {
		return
	}
	books, err := s.app.BooksByTitle(title)
	if err != nil {
		slog.Error("title search failed", "title", title, "err", err)
		writeError(w, http.StatusInternalServerError, "Error fetching books by title")
		return
	}
	if len(books) == 0 {
		writeError(w, http.StatusNotFound, "No books found with this title")
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (s *Server) handleReviews(w http.ResponseWriter, r *http.Request) {
	isbn, ok := pathParam(w, r, "/review/")
	if !ok {
		return
	}
	reviews, err := s.app.Reviews(isbn)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// review handlers (auth required)
func (s *Server) handleAuthReview(w http.ResponseWriter, r *http.Request) {
	isbn := strings.TrimPrefix(r.URL.Path, "/auth/review/")
	if isbn == "" || strings.Contains(isbn, "/") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPut && r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}

	// Unknown ISBNs report 404 before the identity check.
	if _, err := s.app.BookByISBN(isbn); err != nil {
		writeAppError(w, err)
		return
	}
	username, ok := s.identity(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized: please login first")
		return
	}

	switch r.Method {
	case http.MethodPut:
		reviews, err := s.app.UpsertReview(isbn, username, r.URL.Query().Get("review"))
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Review added/updated successfully",
			"reviews": reviews,
		})
	case http.MethodDelete:
		reviews, err := s.app.DeleteReview(isbn, username)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Review deleted successfully",
			"reviews": reviews,
		})
	}
}

// identity resolves the caller's username from the bearer token.
func (s *Server) identity(r *http.Request) (string, bool) {
	token, ok := bearerToken(r)
	if !ok {
		return "", false
	}
	return s.app.UsernameFromToken(token)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// pathParam extracts the single trailing path segment after prefix.
func pathParam(w http.ResponseWriter, r *http.Request, prefix string) (string, bool) {
	param := strings.TrimPrefix(r.URL.Path, prefix)
	if param == "" || strings.Contains(param, "/") {
		http.NotFound(w, r)
		return "", false
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return "", false
	}
	return param, true
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		slog.Warn("missing bearer prefix", "path", r.URL.Path)
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		slog.Warn("empty bearer token", "path", r.URL.Path)
		return "", false
	}
	return token, true
}

func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrCredentialsRequired),
		errors.Is(err, app.ErrInvalidUsername),
		errors.Is(err, app.ErrReviewRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrBookNotFound),
		errors.Is(err, app.ErrReviewNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrUsernameTaken):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

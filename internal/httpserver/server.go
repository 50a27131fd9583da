// internal/httpserver/server.go
//
// HTTP server wiring for the Jeopardy board.
// Responsibilities:
//   - Router + middleware (request IDs, access log, panic recovery, CORS,
//     JSON content type and timeouts on the API).
//   - Public endpoints: "/" (client page), "/static/*", "/health".
//   - Game endpoints under /api/games. Creating a game issues a session
//     token; every other game route requires the token for that game.
//   - Live updates over a websocket at /api/games/{id}/ws.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - The websocket route sits outside the API timeout; it is long-lived.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/jeopardy/assets"
	"github.com/robalobadob/jeopardy/internal/game"
	"github.com/robalobadob/jeopardy/internal/session"
	"github.com/robalobadob/jeopardy/internal/store"
)

// Options configures a Server.
type Options struct {
	Shape          session.Shape
	Secret         string        // HS256 key for session tokens
	TokenTTL       time.Duration // token and cookie lifetime
	ClientOrigin   string        // allowed CORS / websocket origin
	Secure         bool          // production cookies (Secure, SameSite=None)
	RequestTimeout time.Duration // bound on API handlers, board loads included
}

// Server bundles the router, the session store and the board loader.
type Server struct {
	r      *chi.Mux
	store  store.Store
	loader session.Loader
	opts   Options
	newID  func() string
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, l session.Loader, opts Options) *Server {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = time.Minute
	}
	if opts.Secret == "" {
		opts.Secret = "dev_secret_change_me"
	}
	s := &Server{r: chi.NewRouter(), store: st, loader: l, opts: opts, newID: uuid.NewString}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)   // one access log line per request
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(s.cors)          // credentials-friendly CORS

	// --- client ---
	static, err := fs.Sub(assets.FS, "web")
	if err != nil {
		log.Fatal().Err(err).Msg("embedded client assets missing")
	}
	s.r.Get("/", s.handleIndex)
	s.r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	// --- API ---
	s.r.Group(func(r chi.Router) {
		r.Use(jsonContentType)

		// Start bounds its own load and always answers with a view.
		r.With(s.requireSession).Post("/api/games/{id}/start", s.handleStart)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(s.opts.RequestTimeout))

			r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "sessions": s.store.Len()})
			})

			r.Post("/api/games", s.handleCreate)
			r.With(s.requireSession).Get("/api/games/{id}", s.handleGet)
			r.With(s.requireSession).Delete("/api/games/{id}", s.handleDelete)
			r.With(s.requireSession).Post("/api/games/{id}/activate", s.handleActivate)
		})
	})

	s.r.With(s.requireSession).Get("/api/games/{id}/ws", s.handleWS)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.r.ServeHTTP(w, r) }

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.opts.ClientOrigin
	if origin == "" {
		origin = "http://localhost:5175"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ client -------------------------------------

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := assets.FS.ReadFile("web/index.html")
	if err != nil {
		http.Error(w, "client unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// ------------------------------ GAME ---------------------------------------

// createRes is the POST /api/games payload: the idle view plus the token
// for clients that prefer a bearer header to the cookie.
type createRes struct {
	session.View
	Token string `json:"token"`
}

// handleCreate registers a new idle session and issues its token.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess := session.New(s.newID(), s.loader, s.opts.Shape)
	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save session")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	tok, exp, err := s.signToken(sess.ID())
	if err != nil {
		log.Error().Err(err).Msg("sign session token")
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	s.setSessionCookie(w, tok, exp)
	log.Info().Str("session", sess.ID()).Msg("session created")
	writeJSON(w, http.StatusCreated, createRes{View: sess.View(), Token: tok})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r).View())
}

// handleDelete ends the game and clears its cookie.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := s.store.Delete(r.Context(), sess.ID()); err != nil {
		writeError(w, http.StatusInternalServerError, "delete_failed")
		return
	}
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleStart runs the start/restart control. A load that fails still
// answers with the view so the client can show the error and re-enable
// the control.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()
	res, err := sess.Dispatch(ctx, session.Event{Kind: session.EventStart})
	switch {
	case errors.Is(err, session.ErrStaleLoad):
		writeError(w, http.StatusConflict, "stale_load")
	case err != nil:
		writeJSON(w, http.StatusBadGateway, res.View)
	default:
		writeJSON(w, http.StatusOK, res.View)
	}
}

// activateReq addresses a cell either by coordinate or by its "c-i" id.
type activateReq struct {
	ID         string `json:"id"`
	Category   *int   `json:"category"`
	Clue       *int   `json:"clue"`
	Generation uint64 `json:"generation"`
}

func (req activateReq) coord() (game.Coord, error) {
	if req.ID != "" {
		return game.ParseCoord(req.ID)
	}
	if req.Category == nil || req.Clue == nil {
		return game.Coord{}, errors.New("category and clue are required")
	}
	return game.Coord{Category: *req.Category, Clue: *req.Clue}, nil
}

// handleActivate advances one clue. 204 means nothing changed: no board, an
// old generation, an out-of-range cell, or an answer already showing.
func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	var req activateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	at, err := req.coord()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_cell")
		return
	}
	res, err := sessionFrom(r).Dispatch(r.Context(), session.Event{
		Kind:       session.EventActivate,
		At:         at,
		Generation: req.Generation,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "activate_failed")
		return
	}
	if res.Cell == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, res.Cell)
}

// ------------------------------- util --------------------------------------

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// Package web serves the armoury and dice HTTP API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/cory-johannsen/omnissiah/internal/armoury"
	"github.com/cory-johannsen/omnissiah/internal/config"
	"github.com/cory-johannsen/omnissiah/internal/game/weapon"
	"github.com/cory-johannsen/omnissiah/internal/gameserver"
)

const maxBodyBytes = 1 << 20

// Server is the HTTP front end. It implements server.Service.
type Server struct {
	cfg    config.HTTPConfig
	svc    *gameserver.CombatService
	feed   http.Handler
	logger *zap.Logger
	router *mux.Router
	http   *http.Server
}

// NewServer builds the router. feed serves the websocket dice feed and may
// be nil to disable it.
//
// Precondition: svc and logger must be non-nil.
func NewServer(cfg config.HTTPConfig, svc *gameserver.CombatService, feed http.Handler, logger *zap.Logger) *Server {
	s := &Server{cfg: cfg, svc: svc, feed: feed, logger: logger}
	s.router = s.routes()
	s.http = &http.Server{
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/actions", s.handleActions).Methods(http.MethodGet)
	api.HandleFunc("/weapons", s.handlePresets).Methods(http.MethodGet)
	api.HandleFunc("/armoury/{owner}/weapons", s.handleListWeapons).Methods(http.MethodGet)
	api.HandleFunc("/armoury/{owner}/weapons", s.handleAddWeapon).Methods(http.MethodPost)
	api.HandleFunc("/armoury/{owner}/weapons/{id}", s.handleGetWeapon).Methods(http.MethodGet)
	api.HandleFunc("/armoury/{owner}/weapons/{id}", s.handleDeleteWeapon).Methods(http.MethodDelete)
	api.HandleFunc("/roll/weapon", s.handleRollWeapon).Methods(http.MethodPost)
	api.HandleFunc("/roll/dice", s.handleRollDice).Methods(http.MethodPost)
	if s.feed != nil {
		api.Handle("/dice/feed", s.feed).Methods(http.MethodGet)
	}
	return r
}

// Start listens on the configured address and serves until Stop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Stop. A clean shutdown returns nil.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("http listening", zap.String("addr", ln.Addr().String()))
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down, waiting up to five seconds for requests.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Warn("http shutdown", zap.Error(err))
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleActions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, gameserver.ActionViews(s.svc.Actions()))
}

func (s *Server) handlePresets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Presets().All())
}

func (s *Server) handleListWeapons(w http.ResponseWriter, r *http.Request) {
	recs, err := s.svc.Armoury().List(r.Context(), mux.Vars(r)["owner"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleAddWeapon(w http.ResponseWriter, r *http.Request) {
	var inst weapon.Instance
	if err := decodeBody(w, r, &inst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err))
		return
	}
	id, err := s.svc.Armoury().Add(r.Context(), mux.Vars(r)["owner"], inst)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (s *Server) handleGetWeapon(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	rec, err := s.svc.Armoury().Get(r.Context(), mux.Vars(r)["owner"], id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteWeapon(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	deleted, err := s.svc.Armoury().Delete(r.Context(), mux.Vars(r)["owner"], id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !deleted {
		s.writeError(w, armoury.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRollWeapon(w http.ResponseWriter, r *http.Request) {
	req := gameserver.AttackRequest{Publish: true}
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err))
		return
	}
	res, err := s.svc.Attack(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type rollDiceRequest struct {
	Actor      string `json:"actor"`
	Expression string `json:"expression"`
}

func (s *Server) handleRollDice(w http.ResponseWriter, r *http.Request) {
	var req rollDiceRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err))
		return
	}
	res, err := s.svc.Roll(req.Actor, req.Expression, true)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"expression": res.Expression,
		"dice":       res.Dice,
		"modifier":   res.Modifier,
		"total":      res.Total(),
		"text":       res.String(),
	})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case gameserver.IsNotFound(err):
		code = http.StatusNotFound
	case gameserver.IsInvalidInput(err):
		code = http.StatusBadRequest
	}
	if code == http.StatusInternalServerError {
		s.logger.Error("http: internal error", zap.Error(err))
		writeJSON(w, code, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, code, errorBody(err))
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid weapon id"})
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func errorBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/m-mizutani/pokecopilot/pkg/guardrail"
	"github.com/m-mizutani/pokecopilot/pkg/model"
	"github.com/m-mizutani/pokecopilot/pkg/repository"
	"github.com/m-mizutani/pokecopilot/pkg/usecase/agent"
	"github.com/m-mizutani/pokecopilot/pkg/utils/logging"
)

// Server exposes the REST surface: the three collection route pairs, the
// liveness probe and the conversational /ai endpoint.
type Server struct {
	repo     repository.Repository
	sessions *agent.SessionRegistry
	guard    *guardrail.Guardrail

	// oracleTimeout bounds one full /ai request including all tool-call
	// iterations.
	oracleTimeout time.Duration
}

type Option func(*Server)

// WithGuardrail installs a deny policy on /ai requests
func WithGuardrail(g *guardrail.Guardrail) Option {
	return func(s *Server) {
		s.guard = g
	}
}

// WithOracleTimeout overrides the per-request deadline for /ai
func WithOracleTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.oracleTimeout = d
		}
	}
}

// New creates the server over a repository and a session registry
func New(repo repository.Repository, sessions *agent.SessionRegistry, opts ...Option) *Server {
	s := &Server{
		repo:          repo,
		sessions:      sessions,
		oracleTimeout: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the route table
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/pokemon", s.handleListPokemon).Methods(http.MethodGet)
	r.HandleFunc("/api/pokemon/{id:[0-9]+}", s.handleGetPokemon).Methods(http.MethodGet)
	r.HandleFunc("/api/moves", s.handleListMoves).Methods(http.MethodGet)
	r.HandleFunc("/api/moves/{id}", s.handleGetMove).Methods(http.MethodGet)
	r.HandleFunc("/api/abilities", s.handleListAbilities).Methods(http.MethodGet)
	r.HandleFunc("/api/abilities/{id}", s.handleGetAbility).Methods(http.MethodGet)
	r.HandleFunc("/ai", s.handleAI).Methods(http.MethodPost)

	r.Use(requestLogMiddleware)

	// CORS wraps the router itself so OPTIONS preflights are answered even
	// when no GET/POST route matches.
	return corsMiddleware(r)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleListPokemon(w http.ResponseWriter, r *http.Request) {
	pokemon, err := s.repo.ListPokemon(r.Context())
	if err != nil {
		writeError(w, r, err, "Error fetching Pokémon")
		return
	}
	writeJSON(w, http.StatusOK, pokemon)
}

func (s *Server) handleGetPokemon(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeMessage(w, http.StatusNotFound, "Pokémon not found")
		return
	}

	pokemon, err := s.repo.GetPokemon(r.Context(), model.PokedexID(id))
	if err != nil {
		if errors.Is(err, model.ErrRecordNotFound) {
			writeMessage(w, http.StatusNotFound, "Pokémon not found")
			return
		}
		writeError(w, r, err, "Error fetching Pokémon")
		return
	}
	writeJSON(w, http.StatusOK, pokemon)
}

func (s *Server) handleListMoves(w http.ResponseWriter, r *http.Request) {
	moves, err := s.repo.ListMoves(r.Context())
	if err != nil {
		writeError(w, r, err, "Error fetching moves")
		return
	}
	writeJSON(w, http.StatusOK, moves)
}

func (s *Server) handleGetMove(w http.ResponseWriter, r *http.Request) {
	move, err := s.repo.GetMove(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, model.ErrRecordNotFound) {
			writeMessage(w, http.StatusNotFound, "Move not found")
			return
		}
		writeError(w, r, err, "Error fetching move")
		return
	}
	writeJSON(w, http.StatusOK, move)
}

func (s *Server) handleListAbilities(w http.ResponseWriter, r *http.Request) {
	abilities, err := s.repo.ListAbilities(r.Context())
	if err != nil {
		writeError(w, r, err, "Error fetching abilities")
		return
	}
	writeJSON(w, http.StatusOK, abilities)
}

func (s *Server) handleGetAbility(w http.ResponseWriter, r *http.Request) {
	ability, err := s.repo.GetAbility(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, model.ErrRecordNotFound) {
			writeMessage(w, http.StatusNotFound, "Ability not found")
			return
		}
		writeError(w, r, err, "Error fetching ability")
		return
	}
	writeJSON(w, http.StatusOK, ability)
}

type aiRequest struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"session_id"`
}

type aiResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleAI(w http.ResponseWriter, r *http.Request) {
	var req aiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sessionID := model.SessionID(req.SessionID)
	if sessionID == "" {
		sessionID = model.NewSessionID()
	}

	if err := s.guard.Check(r.Context(), guardrail.Input{
		Prompt:    req.Prompt,
		SessionID: string(sessionID),
	}); err != nil {
		if errors.Is(err, guardrail.ErrDenied) {
			writeMessage(w, http.StatusUnprocessableEntity, "Request rejected by policy")
			return
		}
		writeError(w, r, err, "Error running agent")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.oracleTimeout)
	defer cancel()

	session := s.sessions.GetOrCreate(sessionID)
	answer, err := session.Ask(ctx, req.Prompt)
	if err != nil {
		// Loop failure modes all map to a generic 500; the classified
		// error only reaches the log.
		writeError(w, r, err, "Error running agent")
		return
	}

	writeJSON(w, http.StatusOK, aiResponse{Message: answer})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Default().Warn("failed to encode response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"message": message})
}

func writeError(w http.ResponseWriter, r *http.Request, err error, message string) {
	logging.From(r.Context()).Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeMessage(w, http.StatusInternalServerError, message)
}

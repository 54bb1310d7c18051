package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"luxury-leads-backend/internal/assistant"
	"luxury-leads-backend/internal/cache"
	"luxury-leads-backend/internal/config"
	"luxury-leads-backend/internal/db"
	"luxury-leads-backend/internal/leads"
	"luxury-leads-backend/internal/store"
	"luxury-leads-backend/internal/types"
	"luxury-leads-backend/internal/widget"
)

const (
	errInvalidAgency    = "Invalid agency ID"
	errMissingFields    = "Missing name or prompt"
	errMessageRequired  = "message is required"
	errAssistantDown    = "assistant unavailable"
	errInvalidBody      = "invalid JSON body"
	errInternal         = "internal error"
	homeText            = "Luxury Leads AI SaaS is Running"
	maxRequestBodyBytes = 1 << 20
	scriptCacheControl  = "no-cache, no-store, must-revalidate"
	javascriptType      = "application/javascript; charset=utf-8"
)

type Server struct {
	router    *chi.Mux
	cfg       config.Config
	store     store.Store
	agencies  cache.Agencies
	responder assistant.Responder
	scripts   map[widget.Variant][]byte
	checks    []func(context.Context) error
	closers   []io.Closer
}

// NewServer wires the database, agency cache and OpenAI responder from cfg.
func NewServer(cfg config.Config) (*Server, error) {
	var (
		st      store.Store
		closers []io.Closer
		checks  []func(context.Context) error
	)
	if cfg.DatabaseURL != "" {
		database, err := db.New(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		log.Info().Str("dialect", string(database.Dialect())).Msg("database connection established")
		if err := database.RunMigrations(); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		st = store.NewDatabaseStore(database)
		closers = append(closers, database)
		checks = append(checks, func(context.Context) error { return database.HealthCheck() })
	} else {
		log.Warn().Msg("DB_URL not provided, agencies and leads are kept in memory only")
		st = store.NewMemoryStore(500)
	}

	var agencyCache cache.AgencyCache
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(cfg.RedisURL, cfg.RedisPassword, cfg.AgencyCacheTTL)
		if err != nil {
			closeAll(closers)
			return nil, fmt.Errorf("failed to initialize redis cache: %w", err)
		}
		if err := rc.Ping(context.Background()); err != nil {
			log.Warn().Err(err).Msg("redis not reachable, agency lookups will fall through to the store")
		}
		agencyCache = rc
		closers = append(closers, rc)
		checks = append(checks, rc.Ping)
	} else {
		agencyCache = cache.NewMemory(cfg.AgencyCacheTTL)
	}

	persona, err := assistant.LoadPersona(cfg.PromptsFile)
	if err != nil {
		closeAll(closers)
		return nil, fmt.Errorf("failed to load assistant persona: %w", err)
	}
	responder := assistant.NewOpenAIResponder(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model, persona)

	s, err := New(cfg, st, agencyCache, responder)
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	s.checks = checks
	s.closers = closers
	return s, nil
}

// New builds the HTTP handler around already constructed dependencies.
// agencyCache may be nil.
func New(cfg config.Config, st store.Store, agencyCache cache.AgencyCache, responder assistant.Responder) (*Server, error) {
	scripts := make(map[widget.Variant][]byte, len(widget.Variants))
	for _, v := range widget.Variants {
		js, err := widget.Script(widget.ScriptConfig{Variant: v, BaseURL: cfg.PublicBaseURL})
		if err != nil {
			return nil, fmt.Errorf("failed to render %s widget script: %w", v, err)
		}
		scripts[v] = js
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.AllowedOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	}))

	s := &Server{
		router:    r,
		cfg:       cfg,
		store:     st,
		agencies:  cache.Agencies{Store: st, Cache: agencyCache},
		responder: responder,
		scripts:   scripts,
	}
	s.routes(newIPLimiter(cfg.ChatRatePerMinute))
	return s, nil
}

func (s *Server) routes(limiter *ipLimiter) {
	s.router.Get("/", s.handleHome)
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/widget.js", s.handleWidgetScript)
	s.router.Get("/agency/{id}", s.handleAgencyInfo)
	s.router.Post("/create-agency", s.handleCreateAgency)
	s.router.Get("/leads/{agency_id}", s.handleListLeads)
	s.router.With(limiter.middleware).Post("/chat", s.handleChat)
}

func (s *Server) Router() http.Handler { return s.router }

// Close releases the database and cache connections opened by NewServer.
func (s *Server) Close() error {
	return closeAll(s.closers)
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, homeText)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	for _, check := range s.checks {
		if err := check(r.Context()); err != nil {
			log.Error().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWidgetScript(w http.ResponseWriter, r *http.Request) {
	v, err := widget.ParseVariant(r.URL.Query().Get("variant"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", javascriptType)
	w.Header().Set("Cache-Control", scriptCacheControl)
	_, _ = w.Write(s.scripts[v])
}

func (s *Server) handleAgencyInfo(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, errInvalidAgency)
		return
	}
	agency, err := s.agencies.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, errInvalidAgency)
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("agency_id", id).Msg("agency lookup failed")
		writeError(w, http.StatusInternalServerError, errInternal)
		return
	}
	writeJSON(w, http.StatusOK, types.AgencyInfo{Name: agency.Name, Assistant: agency.AssistantName})
}

func (s *Server) handleCreateAgency(w http.ResponseWriter, r *http.Request) {
	var req types.CreateAgencyRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidBody)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Name == "" || req.Prompt == "" {
		writeError(w, http.StatusBadRequest, errMissingFields)
		return
	}
	id, err := s.store.CreateAgency(r.Context(), store.Agency{
		Name:          req.Name,
		Prompt:        req.Prompt,
		AssistantName: strings.TrimSpace(req.Assistant),
	})
	if err != nil {
		log.Error().Err(err).Str("name", req.Name).Msg("failed to create agency")
		writeError(w, http.StatusInternalServerError, errInternal)
		return
	}
	log.Info().Int64("agency_id", id).Str("name", req.Name).Msg("agency created")
	writeJSON(w, http.StatusOK, types.CreateAgencyResponse{AgencyID: id})
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "agency_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, errInvalidAgency)
		return
	}
	list, err := s.store.ListLeads(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Int64("agency_id", id).Msg("failed to list leads")
		writeError(w, http.StatusInternalServerError, errInternal)
		return
	}
	out := make([]types.LeadResponse, 0, len(list))
	for _, l := range list {
		out = append(out, types.LeadResponse{
			Email:   optional(l.Email),
			Phone:   optional(l.Phone),
			Message: l.Message,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidBody)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, errMessageRequired)
		return
	}
	id, ok := req.AgencyID.Int()
	if !ok {
		writeError(w, http.StatusBadRequest, errInvalidAgency)
		return
	}
	agency, err := s.agencies.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusBadRequest, errInvalidAgency)
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("agency_id", id).Msg("agency lookup failed")
		writeError(w, http.StatusInternalServerError, errInternal)
		return
	}

	s.captureLead(r.Context(), id, req.Message)

	ctx := r.Context()
	if s.cfg.ChatTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ChatTimeout)
		defer cancel()
	}
	reply, err := s.responder.Reply(ctx, *agency, req.Message)
	if err != nil {
		log.Error().Err(err).Int64("agency_id", id).Msg("assistant reply failed")
		writeError(w, http.StatusBadGateway, errAssistantDown)
		return
	}
	writeJSON(w, http.StatusOK, types.ChatReply{Reply: reply})
}

// captureLead stores contact details found in message. Failures are logged
// only; the visitor still gets a reply.
func (s *Server) captureLead(ctx context.Context, agencyID int64, message string) {
	contact, found := leads.Extract(message)
	if !found {
		return
	}
	id, err := s.store.SaveLead(ctx, store.Lead{
		AgencyID: agencyID,
		Email:    contact.Email,
		Phone:    contact.Phone,
		Message:  message,
	})
	if err != nil {
		log.Error().Err(err).Int64("agency_id", agencyID).Msg("failed to save lead")
		return
	}
	log.Info().Int64("agency_id", agencyID).Int64("lead_id", id).Msg("lead captured")
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(v)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, types.ErrorResponse{Error: msg})
}

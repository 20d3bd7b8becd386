// Package catalog provides a read-only HTTP API over the loaded skill and
// agent profile catalog, for dashboards and the orchestrator's loader.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/agent42-ai/agent42/pkg/agents"
	"github.com/agent42-ai/agent42/pkg/logger"
	"github.com/agent42-ai/agent42/pkg/skills"
	"github.com/agent42-ai/agent42/pkg/tasktypes"
)

// ServerConfig holds the configuration for the catalog server
type ServerConfig struct {
	Host string
	Port int
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

// Server serves the catalog API
type Server struct {
	router *mux.Router
	skills map[string]*skills.Skill
	agents *agents.Manager
	config *ServerConfig
	server *http.Server
}

// SkillSummary is the API representation of a skill
type SkillSummary struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Directory    string   `json:"directory"`
	Always       bool     `json:"always"`
	TaskTypes    []string `json:"taskTypes,omitempty"`
	RequiredBins []string `json:"requiredBins,omitempty"`
	RequiredEnv  []string `json:"requiredEnv,omitempty"`
}

// SkillDetail adds the instruction body to the summary
type SkillDetail struct {
	SkillSummary
	Content string `json:"content"`
}

// ProfileSummary is the API representation of an agent profile
type ProfileSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Role        string   `json:"role,omitempty"`
	TaskTypes   []string `json:"taskTypes,omitempty"`
	Default     bool     `json:"default"`
}

// ProfileDetail adds the persona text to the summary
type ProfileDetail struct {
	ProfileSummary
	Persona string `json:"persona"`
}

// NewServer creates a catalog server over the given skills and profiles
func NewServer(config *ServerConfig, skillSet map[string]*skills.Skill, agentManager *agents.Manager) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server configuration")
	}

	s := &Server{
		router: mux.NewRouter(),
		skills: skillSet,
		agents: agentManager,
		config: config,
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/skills", s.handleListSkills).Methods("GET")
	// Skill names may contain slashes (plugin prefixes)
	api.HandleFunc("/skills/{name:.+}", s.handleGetSkill).Methods("GET")
	api.HandleFunc("/agents", s.handleListAgents).Methods("GET")
	api.HandleFunc("/agents/{name}", s.handleGetAgent).Methods("GET")
	api.HandleFunc("/tasktypes", s.handleListTaskTypes).Methods("GET")
}

// Handler returns the server's HTTP handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.G(ctx).WithField("addr", addr).Info("Catalog API listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "catalog server failed")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return errors.Wrap(s.server.Shutdown(shutdownCtx), "failed to shut down catalog server")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListSkills(w http.ResponseWriter, _ *http.Request) {
	summaries := make([]SkillSummary, 0, len(s.skills))
	for _, skill := range s.skills {
		summaries = append(summaries, summarizeSkill(skill))
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Name < summaries[j].Name
	})
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	skill, exists := s.skills[name]
	if !exists {
		writeError(w, http.StatusNotFound, fmt.Sprintf("skill '%s' not found", name))
		return
	}
	writeJSON(w, http.StatusOK, SkillDetail{
		SkillSummary: summarizeSkill(skill),
		Content:      skill.Content,
	})
}

func (s *Server) handleListAgents(w http.ResponseWriter, _ *http.Request) {
	profiles := s.agents.Profiles()
	summaries := make([]ProfileSummary, 0, len(profiles))
	for _, profile := range profiles {
		summaries = append(summaries, summarizeProfile(profile))
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	profile, err := s.agents.Get(name)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("agent profile '%s' not found", name))
		return
	}
	writeJSON(w, http.StatusOK, ProfileDetail{
		ProfileSummary: summarizeProfile(profile),
		Persona:        profile.Persona,
	})
}

func (s *Server) handleListTaskTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, tasktypes.Names())
}

func summarizeSkill(skill *skills.Skill) SkillSummary {
	var taskTypes []string
	for _, t := range skill.TaskTypes {
		taskTypes = append(taskTypes, t.String())
	}
	return SkillSummary{
		Name:         skill.Name,
		Description:  skill.Description,
		Directory:    skill.Directory,
		Always:       skill.Always,
		TaskTypes:    taskTypes,
		RequiredBins: skill.RequiredBins,
		RequiredEnv:  skill.RequiredEnv,
	}
}

func summarizeProfile(profile *agents.Profile) ProfileSummary {
	var taskTypes []string
	for _, t := range profile.Metadata.TaskTypes {
		taskTypes = append(taskTypes, t.String())
	}
	return ProfileSummary{
		Name:        profile.Metadata.Name,
		Description: profile.Metadata.Description,
		Role:        profile.Metadata.Role,
		TaskTypes:   taskTypes,
		Default:     profile.Metadata.Default,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nanobot-dev/nanobridge/internal/bridge"
)

// A skill is a directory under the skills dir whose SKILL.md teaches the
// agent a reusable procedure. The bridge does not interpret the file; it
// asks the agent to use the skill by name and lets the agent load it.

type skillRequest struct {
	Args string `json:"args,omitempty"`
}

type skillResponse struct {
	Skill    string `json:"skill"`
	Success  bool   `json:"success"`
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

type skillInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type skillListResponse struct {
	Skills []skillInfo `json:"skills"`
}

func (s *Server) handleSkill(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid skill name"})
		return
	}

	if s.skillsDir == "" {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("skill not found: %s", name)})
		return
	}

	skillDir := filepath.Join(s.skillsDir, name)
	if info, err := os.Stat(skillDir); err != nil || !info.IsDir() {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("skill not found: %s", name)})
		return
	}
	if _, err := os.Stat(filepath.Join(skillDir, "SKILL.md")); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: fmt.Sprintf("skill %s has no SKILL.md", name)})
		return
	}

	// The body is optional: an empty one runs the skill bare, but a
	// malformed one is a client error.
	var req skillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	prompt := fmt.Sprintf("Use the %s skill", name)
	if strings.TrimSpace(req.Args) != "" {
		prompt += ": " + req.Args
	}

	lock, _ := s.locks.LoadOrStore(s.session, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	resp, err := s.driver.Ask(r.Context(), s.session, prompt, s.defaultTimeout)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, bridge.ErrSessionNotFound) {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, skillResponse{Skill: name, Error: err.Error()})

		return
	}

	writeJSON(w, http.StatusOK, skillResponse{
		Skill:    name,
		Success:  true,
		Response: resp.Text(),
	})
}

func (s *Server) handleSkills(w http.ResponseWriter, _ *http.Request) {
	resp := skillListResponse{Skills: []skillInfo{}}

	entries, err := os.ReadDir(s.skillsDir)
	if err != nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(s.skillsDir, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, "SKILL.md")); err != nil {
			continue
		}
		resp.Skills = append(resp.Skills, skillInfo{Name: entry.Name(), Path: dir})
	}

	writeJSON(w, http.StatusOK, resp)
}

package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fpang/tubescript-ai/internal/credential"
	"github.com/fpang/tubescript-ai/internal/source"
	"github.com/fpang/tubescript-ai/internal/storyboard"
	"github.com/fpang/tubescript-ai/internal/structure"
	"github.com/fpang/tubescript-ai/internal/workflow"
)

const machineKey = "machine"

type sessionResponse struct {
	ID    string         `json:"id"`
	State workflow.State `json:"state"`
}

type analyzeRequest struct {
	Input    string `json:"input"`
	Keywords string `json:"keywords"`
}

type regenerateRequest struct {
	Keywords string `json:"keywords"`
}

type selectTopicRequest struct {
	Index *int `json:"index"`
}

type structureRequest struct {
	Structure string `json:"structure"`
}

type credentialRequest struct {
	Key string `json:"key"`
}

type credentialStatus struct {
	Name   string `json:"name"`
	Saved  bool   `json:"saved"`
	Source string `json:"source"`
}

// loadSession resolves :id to a live machine for the session routes.
func (s *Server) loadSession(c *gin.Context) {
	m, err := s.opts.Registry.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.Set(machineKey, m)
	c.Next()
}

func machineFrom(c *gin.Context) *workflow.Machine {
	return c.MustGet(machineKey).(*workflow.Machine)
}

// respondState writes the outcome of a machine operation.
func respondState(c *gin.Context, m *workflow.Machine, state workflow.State, err error) {
	if err != nil {
		respondError(c, err, &state)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{ID: m.ID(), State: state})
}

func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respondError(c, fmt.Errorf("%w: %v", errBadRequest, err), nil)
		return false
	}
	return true
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.opts.Registry.Len()})
}

func (s *Server) handleStructures(c *gin.Context) {
	templates := append(structure.All(), structure.Template{
		ID:      structure.Original,
		Name:    "Keep Original",
		Summary: "Reuse the structure analysed from the reference.",
	})
	c.JSON(http.StatusOK, gin.H{"structures": templates})
}

func (s *Server) handleStoryboardOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"styles":       storyboard.Styles(),
		"engines":      storyboard.Engines(),
		"aspectRatios": storyboard.AspectRatios(),
		"minScenes":    storyboard.MinScenes,
		"maxScenes":    storyboard.MaxScenes,
		"defaults":     storyboard.DefaultSettings(),
	})
}

// --- Credentials ---

func (s *Server) credentialStatus(c *gin.Context, name string) credentialStatus {
	src := s.opts.Credentials.Source(c.Request.Context(), name)
	return credentialStatus{Name: name, Saved: src != "", Source: src}
}

func (s *Server) handleCredentialStatus(c *gin.Context) {
	name, err := credential.ParseName(c.Param("name"))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, s.credentialStatus(c, name))
}

func (s *Server) handleCredentialSave(c *gin.Context) {
	name, err := credential.ParseName(c.Param("name"))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	var req credentialRequest
	if !bind(c, &req) {
		return
	}
	if c.Query("check") == "true" && name == credential.GeminiAPIKey && s.opts.KeyChecker != nil {
		if err := s.opts.KeyChecker.ValidateKey(c.Request.Context(), req.Key); err != nil {
			respondError(c, err, nil)
			return
		}
	}
	if err := s.opts.Credentials.Save(c.Request.Context(), name, req.Key); err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, s.credentialStatus(c, name))
}

func (s *Server) handleCredentialClear(c *gin.Context) {
	name, err := credential.ParseName(c.Param("name"))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	if err := s.opts.Credentials.Clear(c.Request.Context(), name); err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, s.credentialStatus(c, name))
}

// --- Sessions ---

func (s *Server) handleCreateSession(c *gin.Context) {
	m, err := s.opts.Registry.Create(c.Request.Context())
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, sessionResponse{ID: m.ID(), State: m.State()})
}

func (s *Server) handleGetSession(c *gin.Context) {
	m := machineFrom(c)
	c.JSON(http.StatusOK, sessionResponse{ID: m.ID(), State: m.State()})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	m := machineFrom(c)
	var req analyzeRequest
	if !bind(c, &req) {
		return
	}
	state, err := m.Submit(c.Request.Context(), req.Input, req.Keywords)
	respondState(c, m, state, err)
}

// handleFiles accepts up to source.MaxFiles multipart "files" parts. The
// count is checked before any file is read.
func (s *Server) handleFiles(c *gin.Context) {
	m := machineFrom(c)
	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, fmt.Errorf("%w: %v", errBadRequest, err), nil)
		return
	}
	headers := form.File["files"]
	if len(headers) > source.MaxFiles {
		state := m.State()
		respondError(c, source.ErrTooManyFiles, &state)
		return
	}

	files := make([]source.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			respondError(c, fmt.Errorf("%w: open %s: %v", errBadRequest, fh.Filename, err), nil)
			return
		}
		file, err := source.Read(fh.Filename, f)
		f.Close()
		if err != nil {
			state := m.State()
			respondError(c, err, &state)
			return
		}
		files = append(files, file)
	}

	state, err := m.SubmitFiles(c.Request.Context(), files, c.PostForm("keywords"))
	respondState(c, m, state, err)
}

func (s *Server) handleRegenerateTopics(c *gin.Context) {
	m := machineFrom(c)
	var req regenerateRequest
	if !bind(c, &req) {
		return
	}
	state, err := m.RegenerateTopics(c.Request.Context(), req.Keywords)
	respondState(c, m, state, err)
}

func (s *Server) handleSelectTopic(c *gin.Context) {
	m := machineFrom(c)
	var req selectTopicRequest
	if !bind(c, &req) {
		return
	}
	if req.Index == nil {
		respondError(c, fmt.Errorf("%w: index is required", errBadRequest), nil)
		return
	}
	state, err := m.SelectTopic(*req.Index)
	respondState(c, m, state, err)
}

func (s *Server) handleSelectStructure(c *gin.Context) {
	m := machineFrom(c)
	var req structureRequest
	if !bind(c, &req) {
		return
	}
	state, err := m.SelectStructure(c.Request.Context(), structure.ID(req.Structure))
	respondState(c, m, state, err)
}

func (s *Server) handleOpenStoryboard(c *gin.Context) {
	m := machineFrom(c)
	state, err := m.OpenStoryboard()
	respondState(c, m, state, err)
}

func (s *Server) handleChangeSettings(c *gin.Context) {
	m := machineFrom(c)
	var patch storyboard.SettingsPatch
	if !bind(c, &patch) {
		return
	}
	if patch.Empty() {
		respondError(c, fmt.Errorf("%w: no settings to change", errBadRequest), nil)
		return
	}
	state, err := m.ChangeSettings(patch)
	respondState(c, m, state, err)
}

func (s *Server) handleGenerateStoryboard(c *gin.Context) {
	m := machineFrom(c)
	state, err := m.GenerateStoryboard(c.Request.Context())
	if err == nil && s.opts.WaitForImages {
		m.Wait()
		state = m.State()
	}
	respondState(c, m, state, err)
}

func (s *Server) handleBack(c *gin.Context) {
	m := machineFrom(c)
	state, err := m.Back()
	respondState(c, m, state, err)
}

func (s *Server) handleReset(c *gin.Context) {
	m := machineFrom(c)
	state, err := m.Reset()
	respondState(c, m, state, err)
}

// handleScript returns the script as plain text for clipboard copy.
func (s *Server) handleScript(c *gin.Context) {
	script, err := machineFrom(c).Script()
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(script))
}

package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/aelfread/wordhoard/core/errors"
	"github.com/aelfread/wordhoard/internal/editor"
	"github.com/aelfread/wordhoard/internal/exchange"
	"github.com/aelfread/wordhoard/internal/formats"
	"github.com/aelfread/wordhoard/internal/search"
	"github.com/aelfread/wordhoard/internal/store"
)

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	response := APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	response := APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// respondFromError maps the error taxonomy onto HTTP statuses.
func respondFromError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errors.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, errors.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, errors.ErrAlreadyExists):
		respondError(w, http.StatusConflict, "ALREADY_EXISTS", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
	}
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewValidation("id", "must be a positive integer")
	}
	return id, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	var projects []store.Project
	err := s.store.View(r.Context(), func(tx *store.Tx) error {
		var err error
		projects, err = tx.ListProjects(r.Context())
		return err
	})
	if err != nil {
		respondFromError(w, err)
		return
	}
	respond(w, http.StatusOK, projects)
}

// ImportRequest is the body of POST /api/v1/projects. Text carries
// the raw document; Format selects a handler ("text", "tei"), with
// detection by Filename when empty.
type ImportRequest struct {
	Name     string `json:"name"`
	Text     string `json:"text"`
	Format   string `json:"format,omitempty"`
	Filename string `json:"filename,omitempty"`
}

func (s *Server) handleImportProject(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "malformed JSON body")
		return
	}
	if req.Name == "" || req.Text == "" {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "name and text are required")
		return
	}

	text := req.Text
	if req.Format != "" {
		h, ok := formats.Lookup(req.Format)
		if !ok {
			respondError(w, http.StatusBadRequest, "INVALID_INPUT", "unknown format "+req.Format)
			return
		}
		extracted, err := h.ExtractText([]byte(req.Text))
		if err != nil {
			respondFromError(w, err)
			return
		}
		text = extracted
	} else if req.Filename != "" {
		extracted, _, err := formats.Extract(req.Filename, []byte(req.Text))
		if err != nil {
			respondFromError(w, err)
			return
		}
		text = extracted
	}

	project, err := s.editor.ImportText(r.Context(), req.Name, text, editor.ImportOptions{Normalize: true})
	if err != nil {
		respondFromError(w, err)
		return
	}

	s.hub.Publish(Event{Type: EventProjectImported, ProjectID: project.ID,
		Data: map[string]interface{}{"name": project.Name}})
	respond(w, http.StatusCreated, project)
}

// ProjectDetail is a project with its sentence list.
type ProjectDetail struct {
	store.Project
	Sentences []store.Sentence `json:"sentences"`
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondFromError(w, err)
		return
	}

	var detail ProjectDetail
	err = s.store.View(r.Context(), func(tx *store.Tx) error {
		p, err := tx.GetProject(r.Context(), id)
		if err != nil {
			return err
		}
		detail.Project = *p
		detail.Sentences, err = tx.ListSentences(r.Context(), id)
		return err
	})
	if err != nil {
		respondFromError(w, err)
		return
	}
	respond(w, http.StatusOK, detail)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondFromError(w, err)
		return
	}
	err = s.store.WithTx(r.Context(), func(tx *store.Tx) error {
		return tx.DeleteProject(r.Context(), id)
	})
	if err != nil {
		respondFromError(w, err)
		return
	}
	// Sentence ids are project-scoped; dropping the whole view cache
	// is simpler than tracking which entries belonged to the project.
	s.views.Clear()
	respond(w, http.StatusOK, map[string]int64{"deleted": id})
}

func (s *Server) handleExportProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondFromError(w, err)
		return
	}
	env, err := exchange.Export(r.Context(), s.store, id)
	if err != nil {
		respondFromError(w, err)
		return
	}
	respond(w, http.StatusOK, env)
}

func (s *Server) handleGetSentence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondFromError(w, err)
		return
	}
	view, err := s.sentenceView(r.Context(), id)
	if err != nil {
		respondFromError(w, err)
		return
	}
	respond(w, http.StatusOK, view)
}

// EditRequest is the body of PUT /api/v1/sentences/{id}/text.
type EditRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleEditSentence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondFromError(w, err)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "cannot read body")
		return
	}
	var req EditRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "malformed JSON body")
		return
	}

	result, err := s.editor.EditSentence(r.Context(), id, req.Text)
	if err != nil {
		respondFromError(w, err)
		return
	}
	s.views.Remove(id)

	view, err := s.sentenceView(r.Context(), id)
	if err != nil {
		respondFromError(w, err)
		return
	}
	s.hub.Publish(Event{Type: EventSentenceEdited, ProjectID: view.ProjectID, SentenceID: id,
		Data: map[string]interface{}{
			"reused": result.Reused, "created": result.Created, "deleted": result.Deleted,
		}})
	respond(w, http.StatusOK, map[string]interface{}{"result": result, "sentence": view})
}

func (s *Server) handleMergeSentence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondFromError(w, err)
		return
	}
	result, err := s.editor.MergeSentences(r.Context(), id)
	if err != nil {
		respondFromError(w, err)
		return
	}
	// The merge removed a sentence and renumbered the rest.
	s.views.Clear()

	view, err := s.sentenceView(r.Context(), id)
	if err != nil {
		respondFromError(w, err)
		return
	}
	s.hub.Publish(Event{Type: EventSentencesMerged, ProjectID: view.ProjectID, SentenceID: id})
	respond(w, http.StatusOK, map[string]interface{}{"result": result, "sentence": view})
}

func (s *Server) handleAnnotateToken(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondFromError(w, err)
		return
	}
	var ann store.Annotation
	if err := json.NewDecoder(r.Body).Decode(&ann); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "malformed JSON body")
		return
	}
	ann.TokenID = id

	if err := s.editor.Annotate(r.Context(), &ann); err != nil {
		respondFromError(w, err)
		return
	}

	var sentenceID, projectID int64
	err = s.store.View(r.Context(), func(tx *store.Tx) error {
		tok, err := tx.GetToken(r.Context(), id)
		if err != nil {
			return err
		}
		sentenceID = tok.SentenceID
		sent, err := tx.GetSentence(r.Context(), sentenceID)
		if err != nil {
			return err
		}
		projectID = sent.ProjectID
		return nil
	})
	if err != nil {
		respondFromError(w, err)
		return
	}
	s.views.Remove(sentenceID)

	s.hub.Publish(Event{Type: EventTokenAnnotated, ProjectID: projectID, SentenceID: sentenceID,
		Data: map[string]interface{}{"token_id": id}})
	respond(w, http.StatusOK, ann)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	var projectID int64
	if raw := r.URL.Query().Get("project"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_INPUT", "project must be an integer")
			return
		}
		projectID = id
	}

	results, err := search.Execute(r.Context(), s.store, projectID, q)
	if err != nil {
		respondFromError(w, err)
		return
	}
	response := APIResponse{
		Success: true,
		Data:    results,
		Meta: &APIMeta{
			Total:     len(results),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

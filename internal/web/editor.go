package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/the-archive-writer/internal/api"
	"github.com/debemdeboas/the-archive-writer/internal/config"
	"github.com/debemdeboas/the-archive-writer/internal/draft"
	"github.com/debemdeboas/the-archive-writer/internal/model"
	"github.com/debemdeboas/the-archive-writer/internal/routes"
	"github.com/debemdeboas/the-archive-writer/internal/sse"
	"github.com/debemdeboas/the-archive-writer/internal/upload"
)

// editor is one open draft: its composer and the coordinator feeding
// uploaded snippets into it.
type editor struct {
	composer *draft.Composer
	uploads  *upload.Coordinator
}

// editorFor returns the editor of id, opening it and restoring its autosave
// on first use.
func (s *Server) editorFor(id model.DraftID) *editor {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ed, ok := s.editors[string(id)]; ok {
		return ed
	}

	opts := []draft.Option{
		draft.WithRepository(s.Drafts),
		draft.WithNavigator(s.navigate(id)),
	}
	if s.RedirectDelay >= 0 {
		opts = append(opts, draft.WithRedirectDelay(s.RedirectDelay))
	}
	if s.LivePreview {
		opts = append(opts, draft.WithPreviewListener(s.pushPreview))
	}

	composer := draft.New(id, s.Renderer, s.Poster, opts...)
	if _, err := composer.Restore(); err != nil {
		webLogger.Error().Err(err).Str("draft_id", string(id)).Msg("Failed to restore draft")
	}

	ed := &editor{
		composer: composer,
		uploads:  upload.New(s.Uploader, composer),
	}
	s.editors[string(id)] = ed
	return ed
}

func (s *Server) lookupEditor(w http.ResponseWriter, r *http.Request, id string) (*editor, bool) {
	if id == "" {
		http.Error(w, config.ErrDraftNotFound, http.StatusBadRequest)
		return nil, false
	}
	if _, err := uuid.Parse(id); err != nil {
		http.Error(w, config.ErrDraftNotFound, http.StatusNotFound)
		return nil, false
	}
	return s.editorFor(model.DraftID(id)), true
}

func (s *Server) navigate(id model.DraftID) draft.Navigator {
	return func(post model.PostID) {
		s.clients.Broadcast(id, sse.Event{Name: sse.EventNavigate, Data: routes.Post(string(post))})
	}
}

func (s *Server) pushPreview(id model.DraftID, preview []byte) {
	s.clients.Broadcast(id, sse.Event{Name: sse.EventPreview, Data: string(preview)})
}

type editorData struct {
	*model.PageData
	Draft       model.Draft
	Preview     template.HTML
	LivePreview bool
	Upload      string
	Uploading   bool
}

func (d editorData) Base() *model.PageData { return d.PageData }

func (s *Server) serveEditor(w http.ResponseWriter, r *http.Request) {
	var id model.DraftID
	if cookie, err := r.Cookie(config.CookieDraftID); err == nil {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			id = model.DraftID(cookie.Value)
		}
	}

	if id == "" {
		created, err := s.Drafts.CreateDraft()
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to create draft")
			http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
			return
		}
		id = created.ID

		http.SetCookie(w, &http.Cookie{
			Name:     config.CookieDraftID,
			Value:    string(id),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	ed := s.editorFor(id)
	data := editorData{
		PageData:    s.pageData(r, "New Post"),
		Draft:       ed.composer.Draft(),
		Preview:     template.HTML(ed.composer.Preview()),
		LivePreview: s.LivePreview,
		Upload:      ed.uploads.Message(),
		Uploading:   ed.uploads.Busy(),
	}
	s.render(w, r, http.StatusOK, config.TemplateEditor, data)
}

func (s *Server) servePreview(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.lookupEditor(w, r, r.FormValue("draft-id"))
	if !ok {
		return
	}

	ed.composer.SetTitle(r.FormValue("title"))
	ed.composer.SetAuthor(r.FormValue("author"))
	ed.composer.SetContent(r.FormValue("content"))

	w.Header().Set(config.HCType, config.CTypeHTML)
	w.WriteHeader(http.StatusOK)
	if err := s.pages[config.TemplatePreview].Execute(w, template.HTML(ed.composer.Preview())); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to render preview")
	}
}

type uploadResponse struct {
	State    string   `json:"state"`
	Message  string   `json:"message"`
	Partial  bool     `json:"partial,omitempty"`
	Snippets []string `json:"snippets,omitempty"`
	Content  string   `json:"content"`
}

func (s *Server) serveUpload(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.lookupEditor(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUpload)
	if err := r.ParseMultipartForm(s.MaxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, fmt.Sprintf(config.ErrParseUploadFmt, err), http.StatusBadRequest)
		return
	}

	syncFields(ed, r)

	files, err := formFiles(r, "files")
	if err != nil {
		http.Error(w, fmt.Sprintf(config.ErrParseUploadFmt, err), http.StatusBadRequest)
		return
	}
	status := http.StatusOK
	resp := uploadResponse{}

	outcome, err := ed.uploads.UploadFiles(r.Context(), files...)
	switch {
	case errors.Is(err, upload.ErrBusy):
		status = http.StatusConflict
		resp.Message = err.Error()
	case errors.Is(err, upload.ErrNoFiles):
		status = http.StatusBadRequest
		resp.Message = err.Error()
	case err != nil:
		status = http.StatusBadGateway
		if code := api.StatusCode(err); code == http.StatusUnauthorized {
			status = code
		}
		resp.Message = ed.uploads.Message()
	default:
		resp.Message = outcome.Message
		resp.Partial = outcome.Partial
		resp.Snippets = outcome.Snippets
	}
	resp.State = ed.uploads.State().String()
	resp.Content = ed.composer.Draft().Content

	writeJSON(w, r, status, resp)
}

// syncFields copies the editor fields sent with a request into the draft,
// so typing not yet seen by a preview request is kept.
func syncFields(ed *editor, r *http.Request) {
	if _, ok := r.Form["content"]; !ok {
		return
	}
	ed.composer.SetTitle(r.FormValue("title"))
	ed.composer.SetAuthor(r.FormValue("author"))
	ed.composer.SetContent(r.FormValue("content"))
}

func formFiles(r *http.Request, field string) ([]model.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	headers := r.MultipartForm.File[field]
	files := make([]model.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}

		files = append(files, model.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get(config.HCType),
			Data:        data,
		})
	}
	return files, nil
}

type submitResponse struct {
	Message  string `json:"message"`
	PostID   string `json:"id,omitempty"`
	Redirect string `json:"redirect,omitempty"`
	DelayMs  int64  `json:"delayMs,omitempty"`
}

func (s *Server) serveSubmit(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.lookupEditor(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	syncFields(ed, r)

	created, err := ed.composer.Submit(r.Context())
	if err != nil {
		status := http.StatusBadGateway
		var ve *draft.ValidationError
		switch {
		case errors.As(err, &ve):
			status = http.StatusBadRequest
		case api.StatusCode(err) != 0:
			status = api.StatusCode(err)
		}
		writeJSON(w, r, status, submitResponse{Message: draft.ErrorMessage(err)})
		return
	}

	writeJSON(w, r, http.StatusCreated, submitResponse{
		Message:  draft.SuccessMessage(created),
		PostID:   string(created.ID),
		Redirect: routes.Post(string(created.ID)),
		DelayMs:  s.RedirectDelay.Milliseconds(),
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to write response")
	}
}

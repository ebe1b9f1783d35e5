// Package web serves the local writer UI: the post list and detail pages,
// the login form and the editor with live preview and uploads.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/debemdeboas/the-archive-writer/internal/cache"
	"github.com/debemdeboas/the-archive-writer/internal/config"
	"github.com/debemdeboas/the-archive-writer/internal/draft"
	"github.com/debemdeboas/the-archive-writer/internal/reader"
	"github.com/debemdeboas/the-archive-writer/internal/repository"
	"github.com/debemdeboas/the-archive-writer/internal/routes"
	"github.com/debemdeboas/the-archive-writer/internal/session"
	"github.com/debemdeboas/the-archive-writer/internal/sse"
	"github.com/debemdeboas/the-archive-writer/internal/upload"
	"github.com/debemdeboas/the-archive-writer/internal/util"
)

//go:embed static/* templates/*
var content embed.FS

var webLogger zerolog.Logger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	webLogger = l.With().Str("component", "web").Logger()
}

// Deps are the components the UI drives.
type Deps struct {
	Reader   *reader.Reader
	Session  *session.Store
	Auth     session.Authenticator
	Renderer draft.Previewer
	Poster   draft.Poster
	Uploader upload.Uploader
	Drafts   repository.DraftRepository

	RedirectDelay time.Duration
	MaxUpload     int64
	LivePreview   bool
}

type Server struct {
	Deps

	clients *sse.SSEClients
	static  fs.FS
	pages   map[string]*template.Template

	mu      sync.Mutex
	editors map[string]*editor
}

func New(d Deps) (*Server, error) {
	if d.MaxUpload <= 0 {
		d.MaxUpload = 32 << 20
	}
	if d.Drafts == nil {
		d.Drafts = repository.NewMemoryDraftRepository()
	}

	static, err := fs.Sub(content, config.StaticLocalDir)
	if err != nil {
		return nil, err
	}

	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	// ETags for static files
	fs.WalkDir(static, ".", func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		data, err := fs.ReadFile(static, path)
		if err != nil {
			return err
		}
		cache.SetStaticHash(config.StaticUrlPath+path, util.ContentHash(data))
		return nil
	})

	return &Server{
		Deps:    d,
		clients: sse.NewSSEClients(),
		static:  static,
		pages:   pages,
		editors: make(map[string]*editor),
	}, nil
}

func parseTemplates() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{
		config.TemplateIndex,
		config.TemplatePost,
		config.TemplatePage,
		config.TemplateLogin,
		config.TemplateEditor,
	} {
		files := []string{
			config.TemplatesLocalDir + "/" + config.TemplateLayout,
			config.TemplatesLocalDir + "/" + name,
		}
		if name == config.TemplateEditor {
			files = append(files, config.TemplatesLocalDir+"/"+config.TemplatePreview)
		}

		tmpl, err := template.ParseFS(content, files...)
		if err != nil {
			return nil, err
		}
		pages[name] = tmpl
	}

	preview, err := template.ParseFS(content, config.TemplatesLocalDir+"/"+config.TemplatePreview)
	if err != nil {
		return nil, err
	}
	pages[config.TemplatePreview] = preview
	return pages, nil
}

// Clients exposes the SSE hub so other parts of the process can push
// events to open editors.
func (s *Server) Clients() *sse.SSEClients {
	return s.clients
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(hlog.NewHandler(webLogger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request")
	}))
	r.Use(secureHeaders)
	r.Use(cacheIt)

	r.Get(routes.RobotsPath, serveRobots)
	r.Handle(routes.StaticPath, http.StripPrefix(config.StaticUrlPath, http.FileServer(http.FS(s.static))))

	r.Post(routes.ThemeToggle, serveThemeToggle)
	r.Post(routes.SyntaxThemeSet, serveSyntaxThemeSet)
	r.Get(routes.SyntaxThemeGet, serveSyntaxThemeGet)

	r.Get(routes.RootPath, s.serveIndex)
	r.Get(routes.PostPath, s.servePost)
	r.Get(routes.AboutPath, s.servePage("about"))
	r.Get(routes.ContactPath, s.servePage("contact"))

	r.Get(routes.LoginPath, s.serveLogin)
	r.Post(routes.LoginPath, s.submitLogin)
	r.Get(routes.LogoutPath, s.serveLogout)
	r.Post(routes.LogoutPath, s.serveLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)

		r.Get(routes.NewPost, s.serveEditor)
		r.Post(routes.PartialsDraftPreview, s.servePreview)
		r.Post(routes.DraftUpload, s.serveUpload)
		r.Post(routes.DraftSubmit, s.serveSubmit)
		r.Get(routes.SSEPath, s.serveEvents)
	})

	return r
}

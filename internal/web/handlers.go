package web

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/the-archive-writer/internal/config"
	"github.com/debemdeboas/the-archive-writer/internal/model"
	"github.com/debemdeboas/the-archive-writer/internal/reader"
	"github.com/debemdeboas/the-archive-writer/internal/routes"
	"github.com/debemdeboas/the-archive-writer/internal/session"
	"github.com/debemdeboas/the-archive-writer/internal/theme"
	"github.com/debemdeboas/the-archive-writer/internal/util"
)

func serveRobots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(config.HCType, "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("User-agent: *\nDisallow: /"))
}

func (s *Server) pageData(r *http.Request, title string) *model.PageData {
	pd := model.NewPageData(r, s.Session != nil && s.Session.IsAuthenticated())
	pd.Title = title
	return pd
}

// view is the data of a full page; every one carries the layout state.
type view interface {
	Base() *model.PageData
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data view) {
	tmpl, ok := s.pages[name]
	if !ok {
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
		return
	}

	w.Header().Set(config.HCType, config.CTypeHTML)
	w.WriteHeader(status)

	if err := tmpl.ExecuteTemplate(w, config.TemplateLayout, data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("Failed to render template")
	}
}

type indexData struct {
	*model.PageData
	View reader.ListView
}

func (d indexData) Base() *model.PageData { return d.PageData }

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		PageData: s.pageData(r, ""),
		View:     s.Reader.List(r.Context()),
	}

	status := http.StatusOK
	if data.View.State == reader.Error {
		status = http.StatusBadGateway
	}
	s.render(w, r, status, config.TemplateIndex, data)
}

type postData struct {
	*model.PageData
	View reader.PostView
}

func (d postData) Base() *model.PageData { return d.PageData }

func (s *Server) servePost(w http.ResponseWriter, r *http.Request) {
	id := model.PostID(chi.URLParam(r, "id"))
	if id == "" {
		http.NotFound(w, r)
		return
	}

	data := postData{
		PageData: s.pageData(r, ""),
		View:     s.Reader.Get(r.Context(), id),
	}

	status := http.StatusOK
	switch data.View.State {
	case reader.NotFound:
		status = http.StatusNotFound
	case reader.Error:
		status = http.StatusBadGateway
	case reader.Loaded:
		data.Title = data.View.Post.Title
	}
	s.render(w, r, status, config.TemplatePost, data)
}

type infoPageData struct {
	*model.PageData
	View reader.PageView
}

func (d infoPageData) Base() *model.PageData { return d.PageData }

func (s *Server) servePage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := infoPageData{
			PageData: s.pageData(r, ""),
			View:     s.Reader.Page(r.Context(), name),
		}

		status := http.StatusOK
		switch data.View.State {
		case reader.NotFound:
			status = http.StatusNotFound
		case reader.Error:
			status = http.StatusBadGateway
		case reader.Loaded:
			data.Title = data.View.Page.Title
		}
		s.render(w, r, status, config.TemplatePage, data)
	}
}

type loginData struct {
	*model.PageData
	Username string
}

func (d loginData) Base() *model.PageData { return d.PageData }

func (s *Server) serveLogin(w http.ResponseWriter, r *http.Request) {
	if s.Session != nil && s.Session.IsAuthenticated() {
		http.Redirect(w, r, routes.NewPost, http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, config.TemplateLogin, loginData{PageData: s.pageData(r, "Login")})
}

func (s *Server) submitLogin(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	_, err := s.Session.Login(r.Context(), s.Auth, username, password)
	if err != nil {
		data := loginData{PageData: s.pageData(r, "Login"), Username: username}
		data.Message = session.ErrorMessage(err)
		s.render(w, r, http.StatusUnauthorized, config.TemplateLogin, data)
		return
	}

	if r.Header.Get("HX-Request") != "" {
		w.Header().Set(config.HHxRedirect, routes.NewPost)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, routes.NewPost, http.StatusSeeOther)
}

func (s *Server) serveLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.Session.Logout(); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to log out")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, routes.RootPath, http.StatusSeeOther)
}

func serveThemeToggle(w http.ResponseWriter, r *http.Request) {
	newTheme := theme.Toggle(theme.GetThemeFromRequest(r))

	http.SetCookie(w, &http.Cookie{
		Name:  config.CookieTheme,
		Value: newTheme,
		Path:  "/",
	})

	syntaxTheme := theme.GetDefaultSyntaxTheme(newTheme)
	if cookie, err := r.Cookie(config.CookieSyntaxTheme); err == nil && theme.HasSyntaxTheme(cookie.Value) {
		syntaxTheme = cookie.Value
	}

	w.Header().Set(config.HHxTrigger, fmt.Sprintf(`{"themeChanged":{"value":%q,"syntaxTheme":%q}}`, newTheme, syntaxTheme))
	w.Header().Set(config.HCType, config.CTypeHTML)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(theme.GetThemeIcon(newTheme)))
}

func serveSyntaxThemeSet(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("syntax-theme-select")
	if name == "" || !theme.HasSyntaxTheme(name) {
		http.Error(w, "theme required", http.StatusBadRequest)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     config.CookieSyntaxTheme,
		Value:    name,
		Path:     "/",
		HttpOnly: true,
	})

	writeSyntaxCSS(w, theme.GenerateSyntaxCSS(name))
}

func serveSyntaxThemeGet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "theme")
	if !theme.HasSyntaxTheme(name) {
		http.NotFound(w, r)
		return
	}
	writeSyntaxCSS(w, theme.GenerateSyntaxCSS(name))
}

func writeSyntaxCSS(w http.ResponseWriter, css template.CSS) {
	style := []byte(css)
	w.Header().Set(config.HCType, config.CTypeCSS)
	w.Header().Set(config.HETag, util.ContentHash(style))
	w.WriteHeader(http.StatusOK)
	w.Write(style)
}

package model

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/debemdeboas/the-archive-writer/internal/config"
	"github.com/debemdeboas/the-archive-writer/internal/theme"
)

// PageData is the shared layout state every page template receives.
type PageData struct {
	SiteName string
	Tagline  string

	PageURL string
	Title   string

	Theme string

	SyntaxCSS    template.CSS
	SyntaxTheme  string
	SyntaxThemes []string

	Authenticated bool
	Message       string
}

func NewPageData(r *http.Request, authenticated bool) *PageData {
	syntaxTheme := theme.GetSyntaxThemeFromRequest(r)
	return &PageData{
		SiteName:      config.AppConfig.Site.Name,
		Tagline:       config.AppConfig.Site.Tagline,
		PageURL:       r.URL.Path,
		Theme:         theme.GetThemeFromRequest(r),
		SyntaxTheme:   syntaxTheme,
		SyntaxThemes:  theme.GetSyntaxThemes(),
		SyntaxCSS:     theme.GenerateSyntaxCSS(syntaxTheme),
		Authenticated: authenticated,
	}
}

// IsActive reports whether the navigation entry for prefix should be highlighted.
func (pd *PageData) IsActive(prefix string) bool {
	if prefix == "/" {
		return pd.PageURL == "/"
	}
	return strings.HasPrefix(pd.PageURL, prefix)
}

// Package routes defines HTTP route constants for the local writer UI.
package routes

const (
	// Static and assets
	RobotsPath     = "/robots.txt"
	StaticPath     = "/static/*"
	ThemeToggle    = "/theme/toggle"
	SyntaxThemeSet = "/syntax-theme/set"
	SyntaxThemeGet = "/syntax-theme/{theme}"

	// SSE
	SSEPath = "/sse"

	// Reader
	RootPath    = "/"
	PostsPrefix = "/posts/"
	PostPath    = PostsPrefix + "{id}"
	AboutPath   = "/about"
	ContactPath = "/contact"

	// Session
	LoginPath  = "/login"
	LogoutPath = "/logout"

	// Editor
	NewPost              = "/new-post"
	PartialsDraftPreview = "/partials/draft/preview"
	DraftUpload          = "/drafts/{id}/upload"
	DraftSubmit          = "/drafts/{id}/submit"
)

// Post returns the local detail path for a post id.
func Post(id string) string {
	return PostsPrefix + id
}

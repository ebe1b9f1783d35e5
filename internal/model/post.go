// Package model defines core data structures shared by the client components.
package model

import (
	"html/template"
	"time"
)

type PostID string

// Post is a stored post as returned by the remote API. The client never
// mutates one; it is created once through a draft submission.
type Post struct {
	ID          PostID    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Content     string    `json:"content,omitempty"`
	ContentHTML string    `json:"contentHtml"`
	CreatedAt   time.Time `json:"createdAt"`
	FileName    string    `json:"fileName,omitempty"`
}

// HTML returns the server-rendered content. It is trusted as-is.
func (p *Post) HTML() template.HTML {
	return template.HTML(p.ContentHTML)
}

// NewPost is the creation request body.
type NewPost struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

// CreatedPost is the creation response.
type CreatedPost struct {
	ID      PostID `json:"id"`
	Message string `json:"message,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Page is a standalone content page such as about or contact.
type Page struct {
	Title       string `json:"title"`
	ContentHTML string `json:"contentHtml"`
}

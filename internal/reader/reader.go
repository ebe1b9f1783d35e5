// Package reader loads posts and pages from the blog API into view models.
package reader

import (
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/debemdeboas/the-archive-writer/internal/api"
	"github.com/debemdeboas/the-archive-writer/internal/model"
	"github.com/debemdeboas/the-archive-writer/internal/render"
	"github.com/debemdeboas/the-archive-writer/internal/routes"
	"github.com/rs/zerolog"
)

const (
	MsgLoadingPosts = "Loading posts..."
	MsgLoadingPost  = "Loading post..."
	MsgNoPosts      = "No posts found. Be the first to write one!"
	MsgPostNotFound = "Post not found."
	MsgPageNotFound = "Page not found."

	DateLayout = "Jan 2, 2006"
)

var readerLogger zerolog.Logger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	readerLogger = l.With().Str("component", "reader").Logger()
}

type State int

const (
	Loading State = iota
	Error
	NotFound
	Loaded
)

func (s State) String() string {
	switch s {
	case Error:
		return "error"
	case NotFound:
		return "not-found"
	case Loaded:
		return "loaded"
	default:
		return "loading"
	}
}

type PostSource interface {
	ListPosts(ctx context.Context) ([]model.Post, error)
	GetPost(ctx context.Context, id model.PostID) (*model.Post, error)
	Page(ctx context.Context, name string) (*model.Page, error)
}

// Card is one entry of the post list.
type Card struct {
	ID      model.PostID
	Title   string
	Author  string
	Date    string
	URL     string
	Content template.HTML
}

type ListView struct {
	State   State
	Message string
	Cards   []Card
}

type PostView struct {
	State   State
	Message string
	Post    *model.Post
	Date    string
	Content template.HTML
}

type PageView struct {
	State   State
	Message string
	Page    *model.Page
	Content template.HTML
}

type Reader struct {
	src         PostSource
	highlighter render.Highlighter
}

type Option func(*Reader)

// WithHighlighter runs h over the server HTML of a single post.
func WithHighlighter(h render.Highlighter) Option {
	return func(r *Reader) { r.highlighter = h }
}

func New(src PostSource, opts ...Option) *Reader {
	r := &Reader{src: src, highlighter: render.NoopHighlighter{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reader) List(ctx context.Context) ListView {
	posts, err := r.src.ListPosts(ctx)
	if err != nil {
		readerLogger.Error().Err(err).Msg("Failed to list posts")
		return ListView{State: Error, Message: errorMessage(err)}
	}

	view := ListView{State: Loaded, Cards: make([]Card, 0, len(posts))}
	for i := range posts {
		view.Cards = append(view.Cards, cardOf(&posts[i]))
	}
	if len(view.Cards) == 0 {
		view.Message = MsgNoPosts
	}
	return view
}

func (r *Reader) Get(ctx context.Context, id model.PostID) PostView {
	post, err := r.src.GetPost(ctx, id)
	switch {
	case errors.Is(err, api.ErrNotFound):
		return PostView{State: NotFound, Message: MsgPostNotFound}
	case err != nil:
		readerLogger.Error().Err(err).Str("post_id", string(id)).Msg("Failed to load post")
		return PostView{State: Error, Message: errorMessage(err)}
	case post == nil:
		return PostView{State: NotFound, Message: MsgPostNotFound}
	}

	return PostView{
		State:   Loaded,
		Post:    post,
		Date:    formatDate(post),
		Content: template.HTML(r.highlighter.Highlight([]byte(post.ContentHTML))),
	}
}

func (r *Reader) Page(ctx context.Context, name string) PageView {
	page, err := r.src.Page(ctx, name)
	switch {
	case errors.Is(err, api.ErrNotFound):
		return PageView{State: NotFound, Message: MsgPageNotFound}
	case err != nil:
		readerLogger.Error().Err(err).Str("page", name).Msg("Failed to load page")
		return PageView{State: Error, Message: errorMessage(err)}
	case page == nil:
		return PageView{State: NotFound, Message: MsgPageNotFound}
	}

	return PageView{State: Loaded, Page: page, Content: template.HTML(page.ContentHTML)}
}

func cardOf(p *model.Post) Card {
	return Card{
		ID:      p.ID,
		Title:   p.Title,
		Author:  p.Author,
		Date:    formatDate(p),
		URL:     routes.Post(string(p.ID)),
		Content: p.HTML(),
	}
}

func formatDate(p *model.Post) string {
	if p.CreatedAt.IsZero() {
		return ""
	}
	return p.CreatedAt.Local().Format(DateLayout)
}

func errorMessage(err error) string {
	if code := api.StatusCode(err); code != 0 {
		return fmt.Sprintf("HTTP error! status: %d", code)
	}
	return err.Error()
}

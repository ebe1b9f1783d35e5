// Package draft holds the post being composed: its fields, its live preview
// and its submission to the blog API.
package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/debemdeboas/the-archive-writer/internal/api"
	"github.com/debemdeboas/the-archive-writer/internal/model"
	"github.com/debemdeboas/the-archive-writer/internal/repository"
	"github.com/debemdeboas/the-archive-writer/internal/slug"
	"github.com/rs/zerolog"
)

const (
	MsgMissingFields = "Please fill in all fields (Title, Author, Content)."
	MsgGenericTitle  = "Title is too generic or contains only invalid characters. Cannot create post ID."

	DefaultRedirectDelay = 1500 * time.Millisecond
)

var draftLogger zerolog.Logger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	draftLogger = l.With().Str("component", "draft").Logger()
}

// ValidationError is returned by Submit before any request is made.
type ValidationError struct {
	Missing []string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Previewer renders Markdown into preview HTML.
type Previewer interface {
	Render(md []byte) []byte
}

// Poster creates a post under the given slug.
type Poster interface {
	CreatePost(ctx context.Context, slug string, post model.NewPost) (*model.CreatedPost, error)
}

// Navigator is called with the new post id once the redirect delay passes.
type Navigator func(id model.PostID)

// PreviewListener receives every re-rendered preview.
type PreviewListener func(id model.DraftID, preview []byte)

type Option func(*Composer)

func WithRepository(repo repository.DraftRepository) Option {
	return func(c *Composer) { c.repo = repo }
}

func WithNavigator(n Navigator) Option {
	return func(c *Composer) { c.navigate = n }
}

func WithRedirectDelay(d time.Duration) Option {
	return func(c *Composer) { c.delay = d }
}

func WithPreviewListener(l PreviewListener) Option {
	return func(c *Composer) { c.listeners = append(c.listeners, l) }
}

type Composer struct {
	id        model.DraftID
	renderer  Previewer
	poster    Poster
	repo      repository.DraftRepository
	navigate  Navigator
	delay     time.Duration
	listeners []PreviewListener

	mu      sync.Mutex
	draft   model.Draft
	preview []byte
}

func New(id model.DraftID, renderer Previewer, poster Poster, opts ...Option) *Composer {
	c := &Composer{
		id:       id,
		renderer: renderer,
		poster:   poster,
		delay:    DefaultRedirectDelay,
		draft:    model.Draft{ID: id},
		preview:  []byte{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Composer) ID() model.DraftID {
	return c.id
}

// Restore loads the autosaved draft, if any. It reports whether one was found.
func (c *Composer) Restore() (bool, error) {
	if c.repo == nil {
		return false, nil
	}

	saved, err := c.repo.GetDraft(c.id)
	if errors.Is(err, repository.ErrDraftNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to restore draft %s: %w", c.id, err)
	}

	c.mu.Lock()
	c.draft = *saved
	c.draft.ID = c.id
	preview := c.render()
	c.mu.Unlock()

	c.notify(preview)
	return true, nil
}

func (c *Composer) SetTitle(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Title = title
	c.autosave()
}

func (c *Composer) SetAuthor(author string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Author = author
	c.autosave()
}

// SetContent replaces the Markdown and re-renders the preview.
func (c *Composer) SetContent(content string) {
	c.mu.Lock()
	c.draft.Content = content
	preview := c.render()
	c.autosave()
	c.mu.Unlock()

	c.notify(preview)
}

// AppendContent adds each snippet on its own line after the current content.
func (c *Composer) AppendContent(snippets ...string) {
	if len(snippets) == 0 {
		return
	}

	c.mu.Lock()
	var sb strings.Builder
	sb.WriteString(c.draft.Content)
	if c.draft.Content != "" && !strings.HasSuffix(c.draft.Content, "\n") {
		sb.WriteByte('\n')
	}
	for _, s := range snippets {
		sb.WriteString(s)
		sb.WriteByte('\n')
	}
	c.draft.Content = sb.String()
	preview := c.render()
	c.autosave()
	c.mu.Unlock()

	c.notify(preview)
}

func (c *Composer) Preview() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.preview...)
}

func (c *Composer) Draft() model.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Reset clears every field and the preview.
func (c *Composer) Reset() {
	c.mu.Lock()
	c.draft = model.Draft{ID: c.id}
	c.preview = []byte{}
	c.mu.Unlock()

	c.notify([]byte{})
}

// Submit validates the draft and creates the post. Validation failures
// return a *ValidationError without contacting the server. On success the
// draft is cleared and, after the redirect delay, the navigator is called.
func (c *Composer) Submit(ctx context.Context) (*model.CreatedPost, error) {
	d := c.Draft()

	if missing := d.Missing(); len(missing) > 0 {
		return nil, &ValidationError{Missing: missing, Message: MsgMissingFields}
	}

	postSlug := slug.Generate(d.Title)
	if !slug.IsUsable(postSlug) {
		return nil, &ValidationError{Message: MsgGenericTitle}
	}

	log := draftLogger.With().Str("draft_id", string(d.ID)).Str("slug", postSlug).Logger()
	log.Debug().Msg("Submitting post")

	created, err := c.poster.CreatePost(ctx, postSlug, model.NewPost{
		Title:   d.Title,
		Content: d.Content,
		Author:  d.Author,
	})
	if err != nil {
		log.Error().Err(err).Msg("Post submission failed")
		return nil, fmt.Errorf("failed to create post %s: %w", postSlug, err)
	}
	if created.ID == "" {
		created.ID = model.PostID(postSlug)
	}

	log.Info().Str("post_id", string(created.ID)).Msg("Post created")

	c.Reset()
	if c.repo != nil {
		if err := c.repo.DeleteDraft(d.ID); err != nil {
			log.Warn().Err(err).Msg("Failed to delete autosaved draft")
		}
	}

	if c.navigate != nil {
		id := created.ID
		time.AfterFunc(c.delay, func() { c.navigate(id) })
	}
	return created, nil
}

// SuccessMessage describes a created post for the status line.
func SuccessMessage(created *model.CreatedPost) string {
	msg := created.Message
	if msg == "" {
		msg = "No specific message."
	}
	return fmt.Sprintf("Post %q submitted successfully! Message: %s", created.ID, msg)
}

// ErrorMessage turns a Submit error into the status line shown to the user,
// preferring what the server said over the bare status.
func ErrorMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}

	var se *api.StatusError
	if errors.As(err, &se) {
		return "Error submitting post: " + se.UserMessage()
	}
	return fmt.Sprintf("Network error: %v.", err)
}

// render must be called with mu held.
func (c *Composer) render() []byte {
	c.preview = c.renderer.Render([]byte(c.draft.Content))
	return c.preview
}

// autosave must be called with mu held.
func (c *Composer) autosave() {
	c.draft.UpdatedAt = time.Now().UTC()
	if c.repo == nil {
		return
	}
	if err := c.repo.SaveDraft(c.draft); err != nil {
		draftLogger.Error().Err(err).Str("draft_id", string(c.draft.ID)).Msg("Failed to autosave draft")
	}
}

func (c *Composer) notify(preview []byte) {
	for _, l := range c.listeners {
		l(c.id, preview)
	}
}

// Package app wires the client components from configuration. The web UI
// and the CLI share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/the-archive-writer/internal/api"
	"github.com/debemdeboas/the-archive-writer/internal/config"
	"github.com/debemdeboas/the-archive-writer/internal/db"
	"github.com/debemdeboas/the-archive-writer/internal/draft"
	"github.com/debemdeboas/the-archive-writer/internal/logger"
	"github.com/debemdeboas/the-archive-writer/internal/model"
	"github.com/debemdeboas/the-archive-writer/internal/reader"
	"github.com/debemdeboas/the-archive-writer/internal/render"
	"github.com/debemdeboas/the-archive-writer/internal/repository"
	"github.com/debemdeboas/the-archive-writer/internal/session"
	"github.com/debemdeboas/the-archive-writer/internal/storage"
	"github.com/debemdeboas/the-archive-writer/internal/upload"
	"github.com/debemdeboas/the-archive-writer/internal/web"
)

type App struct {
	Config *config.Config

	DB     db.Db
	KV     repository.KVStore
	Drafts repository.DraftRepository

	Session     *session.Store
	API         *api.Client
	Highlighter *render.ChromaHighlighter
	Renderer    *render.Renderer
	Reader      *reader.Reader
	Uploader    upload.Uploader
}

// SetLoggers hands l to every package that logs.
func SetLoggers(l zerolog.Logger) {
	config.SetLogger(logger.Component(l, "config"))
	db.SetLogger(logger.Component(l, "db"))
	repository.SetLogger(l)
	api.SetLogger(l)
	render.SetLogger(l)
	reader.SetLogger(l)
	session.SetLogger(l)
	upload.SetLogger(l)
	draft.SetLogger(l)
	storage.SetLogger(l)
	web.SetLogger(l)
}

// Open builds every component from cfg. The caller owns the returned App
// and must Close it.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	engine, err := render.ParseEngine(cfg.Markdown.Engine)
	if err != nil {
		return nil, err
	}

	store := db.NewSQLite(cfg.Storage.Path)
	if err := store.InitDb(); err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		DB:     store,
		KV:     repository.NewDBKV(store),
	}
	if cfg.Editor.Autosave {
		a.Drafts = repository.NewDBDraftRepository(store)
	} else {
		a.Drafts = repository.NewMemoryDraftRepository()
	}

	a.Session, err = session.Open(a.KV)
	if err != nil {
		store.Close()
		return nil, err
	}

	a.API = api.NewFromConfig(cfg,
		api.WithTokenSource(a.Session),
		api.WithUnauthorizedHook(a.Session.Invalidate),
	)

	a.Highlighter = render.NewChromaHighlighter(cfg.Theme.SyntaxHighlighting.DefaultDark)
	a.Renderer = render.New(engine, a.Highlighter)
	a.Reader = reader.New(a.API, reader.WithHighlighter(a.Highlighter))

	a.Uploader, err = newUploader(ctx, cfg, a.API)
	if err != nil {
		store.Close()
		return nil, err
	}

	return a, nil
}

func newUploader(ctx context.Context, cfg *config.Config, client *api.Client) (upload.Uploader, error) {
	switch cfg.Upload.Backend {
	case config.UploadBackendAPI:
		return client, nil
	case config.UploadBackendS3:
		u, err := storage.NewS3Uploader(ctx, cfg.Upload.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to set up s3 uploads: %w", err)
		}
		return u, nil
	default:
		return nil, fmt.Errorf(config.ErrUnknownBackendFmt, cfg.Upload.Backend)
	}
}

// RedirectDelay is the configured pause between a successful submission and
// navigation to the new post.
func (a *App) RedirectDelay() time.Duration {
	return time.Duration(a.Config.Editor.RedirectDelayMillis) * time.Millisecond
}

// Composer opens the draft id for the CLI. Autosaved content is restored.
func (a *App) Composer(id string, opts ...draft.Option) (*draft.Composer, error) {
	if id == "" {
		created, err := a.Drafts.CreateDraft()
		if err != nil {
			return nil, err
		}
		id = string(created.ID)
	}

	base := []draft.Option{draft.WithRepository(a.Drafts), draft.WithRedirectDelay(a.RedirectDelay())}
	c := draft.New(model.DraftID(id), a.Renderer, a.API, append(base, opts...)...)
	if _, err := c.Restore(); err != nil {
		return nil, err
	}
	return c, nil
}

// Web builds the local UI server.
func (a *App) Web() (*web.Server, error) {
	return web.New(web.Deps{
		Reader:        a.Reader,
		Session:       a.Session,
		Auth:          a.API,
		Renderer:      a.Renderer,
		Poster:        a.API,
		Uploader:      a.Uploader,
		Drafts:        a.Drafts,
		RedirectDelay: a.RedirectDelay(),
		MaxUpload:     int64(a.Config.Upload.MaxBytes),
		LivePreview:   a.Config.Editor.LivePreview,
	})
}

func (a *App) Close() error {
	var errs []error
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

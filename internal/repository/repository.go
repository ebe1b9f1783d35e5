// Package repository persists client-local state: draft autosaves and the
// small key/value entries such as the session marker.
package repository

import (
	"errors"

	"github.com/debemdeboas/the-archive-writer/internal/config"
	"github.com/debemdeboas/the-archive-writer/internal/model"
	"github.com/rs/zerolog"
)

var ErrDraftNotFound = errors.New(config.ErrDraftNotFound)

var repoLogger zerolog.Logger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}

type DraftRepository interface {
	CreateDraft() (*model.Draft, error)
	SaveDraft(draft model.Draft) error
	GetDraft(id model.DraftID) (*model.Draft, error)
	DeleteDraft(id model.DraftID) error

	// ListDrafts returns the non-empty drafts, most recently updated first.
	ListDrafts() ([]model.Draft, error)
}

// KVStore is the client's equivalent of browser local storage.
type KVStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

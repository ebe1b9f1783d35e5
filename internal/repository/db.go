package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/debemdeboas/the-archive-writer/internal/db"
	"github.com/debemdeboas/the-archive-writer/internal/model"
	"github.com/debemdeboas/the-archive-writer/internal/util"
	"github.com/debemdeboas/the-archive-writer/internal/util/compression"
	"github.com/google/uuid"
)

// DBDraftRepository stores drafts in SQLite with zstd-compressed content.
type DBDraftRepository struct {
	db         db.Db
	compressor compression.Compressor
}

func NewDBDraftRepository(db db.Db) *DBDraftRepository {
	return &DBDraftRepository{
		db:         db,
		compressor: compression.NewZstdCompressor(),
	}
}

// CreateDraft allocates an id. Nothing is written until the draft has content.
func (r *DBDraftRepository) CreateDraft() (*model.Draft, error) {
	return &model.Draft{
		ID:        model.DraftID(uuid.New().String()),
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func (r *DBDraftRepository) SaveDraft(draft model.Draft) error {
	if draft.UpdatedAt.IsZero() {
		draft.UpdatedAt = time.Now().UTC()
	}

	hash := util.ContentHashString(draft.Content)

	var storedHash sql.NullString
	var storedTitle, storedAuthor string
	err := r.db.QueryRow(`SELECT content_hash, title, author FROM drafts WHERE id = ?`, string(draft.ID)).
		Scan(&storedHash, &storedTitle, &storedAuthor)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if draft.IsEmpty() {
			return nil
		}
	case err != nil:
		return fmt.Errorf("error reading draft %s: %w", draft.ID, err)
	case storedHash.String == hash && storedTitle == draft.Title && storedAuthor == draft.Author:
		repoLogger.Debug().Str("draft_id", string(draft.ID)).Msg("Draft unchanged, skipping save")
		return nil
	}

	compressed, err := r.compressor.Compress([]byte(draft.Content))
	if err != nil {
		return fmt.Errorf("error compressing draft content: %w", err)
	}

	_, err = r.db.Exec(`
INSERT INTO drafts (id, title, author, content, content_hash, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    title = excluded.title,
    author = excluded.author,
    content = excluded.content,
    content_hash = excluded.content_hash,
    updated_at = excluded.updated_at`,
		string(draft.ID), draft.Title, draft.Author, compressed, hash, draft.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error saving draft %s: %w", draft.ID, err)
	}

	repoLogger.Debug().Str("draft_id", string(draft.ID)).Int("bytes", len(compressed)).Msg("Draft saved")
	return nil
}

func (r *DBDraftRepository) GetDraft(id model.DraftID) (*model.Draft, error) {
	row := r.db.QueryRow(`SELECT id, title, author, content, updated_at FROM drafts WHERE id = ?`, string(id))

	draft, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}
	return draft, nil
}

func (r *DBDraftRepository) DeleteDraft(id model.DraftID) error {
	if _, err := r.db.Exec(`DELETE FROM drafts WHERE id = ?`, string(id)); err != nil {
		return fmt.Errorf("error deleting draft %s: %w", id, err)
	}
	return nil
}

func (r *DBDraftRepository) ListDrafts() ([]model.Draft, error) {
	rows, err := r.db.Query(`SELECT id, title, author, content, updated_at FROM drafts ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("error querying drafts: %w", err)
	}
	defer rows.Close()

	drafts := make([]model.Draft, 0)
	for rows.Next() {
		draft, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		if !draft.IsEmpty() {
			drafts = append(drafts, *draft)
		}
	}
	return drafts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *DBDraftRepository) scan(s scanner) (*model.Draft, error) {
	var draft model.Draft
	var id string
	var compressed []byte
	var updatedAt sql.NullTime

	if err := s.Scan(&id, &draft.Title, &draft.Author, &compressed, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("error scanning draft: %w", err)
	}

	content, err := r.compressor.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("error decompressing draft %s: %w", id, err)
	}

	draft.ID = model.DraftID(id)
	draft.Content = string(content)
	draft.UpdatedAt = updatedAt.Time
	return &draft, nil
}

// DBKV is a KVStore over the kv table.
type DBKV struct {
	db db.Db
}

func NewDBKV(db db.Db) *DBKV {
	return &DBKV{db: db}
}

func (k *DBKV) Get(key string) (string, bool, error) {
	var value string
	err := k.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("error reading %s: %w", key, err)
	}
	return value, true, nil
}

func (k *DBKV) Set(key, value string) error {
	_, err := k.db.Exec(`
INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("error writing %s: %w", key, err)
	}
	return nil
}

func (k *DBKV) Delete(key string) error {
	if _, err := k.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("error deleting %s: %w", key, err)
	}
	return nil
}

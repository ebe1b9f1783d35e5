// Package upload coordinates sending the selected files to storage and
// splicing the resulting embed snippets into the draft.
package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/debemdeboas/the-archive-writer/internal/media"
	"github.com/debemdeboas/the-archive-writer/internal/model"
	"github.com/rs/zerolog"
)

var uploadLogger zerolog.Logger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	uploadLogger = l.With().Str("component", "upload").Logger()
}

var (
	ErrBusy    = errors.New("an upload is already in progress")
	ErrNoFiles = errors.New("please select files to upload")
)

const (
	MsgUploading = "Uploading..."
	MsgSucceeded = "Files uploaded successfully."
	MsgPartial   = "Some files failed to upload. Successful uploads were added to the post."
)

type State int

const (
	Idle State = iota
	Uploading
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Uploading:
		return "uploading"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Uploader stores a batch of files in one request.
type Uploader interface {
	Upload(ctx context.Context, files []model.File) (*model.UploadBatch, error)
}

// ContentSink receives the generated snippets, one per line.
type ContentSink interface {
	AppendContent(snippets ...string)
}

type Outcome struct {
	Results  []model.UploadResult
	Snippets []string
	Partial  bool
	Message  string
}

type Coordinator struct {
	uploader Uploader
	sink     ContentSink

	mu        sync.Mutex
	selection []model.File
	state     State
	message   string
}

func New(u Uploader, sink ContentSink) *Coordinator {
	return &Coordinator{uploader: u, sink: sink}
}

// Select replaces the current selection. A finished attempt returns the
// coordinator to idle. While an upload is in flight the selection is
// refused with ErrBusy.
func (c *Coordinator) Select(files ...model.File) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Uploading {
		return ErrBusy
	}
	c.selection = append([]model.File(nil), files...)
	c.state = Idle
	c.message = ""
	return nil
}

func (c *Coordinator) Selection() []model.File {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.File(nil), c.selection...)
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) Busy() bool {
	return c.State() == Uploading
}

// Message is the status line of the last attempt.
func (c *Coordinator) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// Upload sends the whole selection in one request and appends a snippet for
// every stored file to the sink. The selection is cleared whatever the
// outcome.
func (c *Coordinator) Upload(ctx context.Context) (*Outcome, error) {
	c.mu.Lock()
	files := c.selection
	c.selection = nil
	err := c.begin(len(files))
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.run(ctx, files)
}

// UploadFiles selects files and uploads them in one step, so concurrent
// callers never send each other's selection.
func (c *Coordinator) UploadFiles(ctx context.Context, files ...model.File) (*Outcome, error) {
	files = append([]model.File(nil), files...)

	c.mu.Lock()
	c.selection = nil
	err := c.begin(len(files))
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.run(ctx, files)
}

// begin moves to uploading. c.mu must be held.
func (c *Coordinator) begin(n int) error {
	if c.state == Uploading {
		return ErrBusy
	}
	if n == 0 {
		c.state = Idle
		c.message = ErrNoFiles.Error()
		return ErrNoFiles
	}
	c.state = Uploading
	c.message = MsgUploading
	return nil
}

func (c *Coordinator) run(ctx context.Context, files []model.File) (*Outcome, error) {
	log := uploadLogger.With().Int("files", len(files)).Logger()
	log.Debug().Msg("Uploading selection")

	batch, err := c.uploader.Upload(ctx, files)
	if err != nil {
		log.Error().Err(err).Msg("Upload failed")
		err = fmt.Errorf("upload failed: %w", err)
		c.finish(Failed, err.Error())
		return nil, err
	}

	out := &Outcome{
		Results:  batch.Results,
		Snippets: Snippets(files, batch.Results),
		Partial:  batch.Partial,
		Message:  MsgSucceeded,
	}
	if out.Partial {
		out.Message = MsgPartial
		log.Warn().Int("stored", len(batch.Results)).Msg("Upload partially succeeded")
	}

	if len(out.Snippets) > 0 && c.sink != nil {
		c.sink.AppendContent(out.Snippets...)
	}

	c.finish(Succeeded, out.Message)
	return out, nil
}

func (c *Coordinator) finish(s State, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
	c.message = msg
}

// Snippets builds one embed snippet per result. Each result is matched to
// the file it came from by name, falling back to its position in the batch.
func Snippets(files []model.File, results []model.UploadResult) []string {
	byName := make(map[string]model.File, len(files))
	for _, f := range files {
		if _, seen := byName[f.Name]; !seen {
			byName[f.Name] = f
		}
	}

	snippets := make([]string, 0, len(results))
	for i, r := range results {
		if r.URL == "" {
			continue
		}

		f, ok := byName[r.FileName]
		if !ok && i < len(files) {
			f = files[i]
		}

		name := r.FileName
		if name == "" {
			name = f.Name
		}

		category := media.CategoryOf(name, f.ContentType)
		snippets = append(snippets, media.Snippet(category, name, r.URL))
	}
	return snippets
}

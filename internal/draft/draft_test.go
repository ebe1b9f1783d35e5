package draft

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/debemdeboas/the-archive-writer/internal/api"
	"github.com/debemdeboas/the-archive-writer/internal/model"
	"github.com/debemdeboas/the-archive-writer/internal/render"
	"github.com/debemdeboas/the-archive-writer/internal/repository"
	"github.com/debemdeboas/the-archive-writer/internal/upload"
)

type spyPoster struct {
	mu      sync.Mutex
	calls   int
	slugs   []string
	posts   []model.NewPost
	created *model.CreatedPost
	err     error
}

func (s *spyPoster) CreatePost(ctx context.Context, slug string, post model.NewPost) (*model.CreatedPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.slugs = append(s.slugs, slug)
	s.posts = append(s.posts, post)
	if s.err != nil {
		return nil, s.err
	}
	created := *s.created
	return &created, nil
}

func newComposer(poster Poster, opts ...Option) *Composer {
	return New("draft-1", render.New(render.EngineGFM, render.NoopHighlighter{}), poster, opts...)
}

func fill(c *Composer, title, author, content string) {
	c.SetTitle(title)
	c.SetAuthor(author)
	c.SetContent(content)
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		author      string
		content     string
		wantMessage string
		wantMissing []string
	}{
		{"all empty", "", "", "", MsgMissingFields, []string{"title", "author", "content"}},
		{"missing author", "Hello", "", "body", MsgMissingFields, []string{"author"}},
		{"missing content", "Hello", "ana", "", MsgMissingFields, []string{"content"}},
		{"generic title", "!!!", "ana", "body", MsgGenericTitle, nil},
		{"sentinel title", "Untitled Post", "ana", "body", MsgGenericTitle, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			poster := &spyPoster{}
			c := newComposer(poster)
			fill(c, tt.title, tt.author, tt.content)

			_, err := c.Submit(context.Background())
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if ve.Message != tt.wantMessage {
				t.Errorf("Expected message %q, got %q", tt.wantMessage, ve.Message)
			}
			if strings.Join(ve.Missing, ",") != strings.Join(tt.wantMissing, ",") {
				t.Errorf("Expected missing %v, got %v", tt.wantMissing, ve.Missing)
			}
			if poster.calls != 0 {
				t.Errorf("Expected no request, got %d", poster.calls)
			}
			if ErrorMessage(err) != tt.wantMessage {
				t.Errorf("Unexpected user message %q", ErrorMessage(err))
			}
		})
	}
}

func TestSubmitSuccess(t *testing.T) {
	poster := &spyPoster{created: &model.CreatedPost{ID: "hello-world", Message: "Post created successfully"}}
	navigated := make(chan model.PostID, 1)
	repo := repository.NewMemoryDraftRepository()

	c := newComposer(poster,
		WithRepository(repo),
		WithRedirectDelay(10*time.Millisecond),
		WithNavigator(func(id model.PostID) { navigated <- id }),
	)
	fill(c, "Hello, World!", "ana", "# Hi")

	created, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if poster.calls != 1 || poster.slugs[0] != "hello-world" {
		t.Errorf("Expected one request for hello-world, got %v", poster.slugs)
	}
	want := model.NewPost{Title: "Hello, World!", Content: "# Hi", Author: "ana"}
	if poster.posts[0] != want {
		t.Errorf("Expected body %+v, got %+v", want, poster.posts[0])
	}

	if d := c.Draft(); !d.IsEmpty() {
		t.Errorf("Expected cleared draft, got %+v", d)
	}
	if len(c.Preview()) != 0 {
		t.Errorf("Expected cleared preview, got %q", c.Preview())
	}
	if _, err := repo.GetDraft("draft-1"); !errors.Is(err, repository.ErrDraftNotFound) {
		t.Errorf("Expected autosave removed, got %v", err)
	}

	select {
	case id := <-navigated:
		if id != "hello-world" {
			t.Errorf("Expected navigation to hello-world, got %q", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected navigation after the redirect delay")
	}

	if got := SuccessMessage(created); got != `Post "hello-world" submitted successfully! Message: Post created successfully` {
		t.Errorf("Unexpected success message %q", got)
	}
}

func TestSubmitFallsBackToSlugID(t *testing.T) {
	poster := &spyPoster{created: &model.CreatedPost{}}
	c := newComposer(poster)
	fill(c, "My Trip", "ana", "text")

	created, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if created.ID != "my-trip" {
		t.Errorf("Expected slug id, got %q", created.ID)
	}
	if SuccessMessage(created) != `Post "my-trip" submitted successfully! Message: No specific message.` {
		t.Errorf("Unexpected message %q", SuccessMessage(created))
	}
}

func TestSubmitServerError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server message", &api.StatusError{StatusCode: 409, Message: "A post with the ID 'x' already exists."}, "Error submitting post: A post with the ID 'x' already exists."},
		{"status only", &api.StatusError{StatusCode: 500}, "Error submitting post: Internal Server Error (status 500)"},
		{"transport", errors.New("dial tcp: connection refused"), "Network error:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newComposer(&spyPoster{err: tt.err})
			fill(c, "Title", "ana", "body")

			_, err := c.Submit(context.Background())
			if err == nil {
				t.Fatal("Expected error")
			}
			if got := ErrorMessage(err); !strings.HasPrefix(got, tt.want) {
				t.Errorf("Expected message starting %q, got %q", tt.want, got)
			}
			if d := c.Draft(); d.Title != "Title" || d.Content != "body" {
				t.Errorf("Expected draft kept on failure, got %+v", d)
			}
		})
	}
}

func TestPreviewFollowsContent(t *testing.T) {
	var mu sync.Mutex
	var pushed [][]byte
	c := newComposer(&spyPoster{}, WithPreviewListener(func(id model.DraftID, preview []byte) {
		mu.Lock()
		defer mu.Unlock()
		if id != "draft-1" {
			t.Errorf("Unexpected draft id %q", id)
		}
		pushed = append(pushed, preview)
	}))

	c.SetContent("**bold**")
	if !strings.Contains(string(c.Preview()), "<strong>bold</strong>") {
		t.Errorf("Expected rendered preview, got %q", c.Preview())
	}

	c.SetContent("")
	if len(c.Preview()) != 0 {
		t.Errorf("Expected empty preview for empty content, got %q", c.Preview())
	}

	c.SetTitle("title changes do not re-render")

	mu.Lock()
	defer mu.Unlock()
	if len(pushed) != 2 {
		t.Errorf("Expected 2 preview pushes, got %d", len(pushed))
	}
}

func TestAppendContent(t *testing.T) {
	c := newComposer(&spyPoster{})

	c.AppendContent("![a.png](https://cdn/a.png)")
	if got := c.Draft().Content; got != "![a.png](https://cdn/a.png)\n" {
		t.Errorf("Unexpected content %q", got)
	}

	c.SetContent("intro")
	c.AppendContent("one", "two")
	if got := c.Draft().Content; got != "intro\none\ntwo\n" {
		t.Errorf("Unexpected content %q", got)
	}
	if !strings.Contains(string(c.Preview()), "one") {
		t.Errorf("Expected preview refreshed, got %q", c.Preview())
	}
}

func TestUploadSplicesIntoDraft(t *testing.T) {
	c := newComposer(&spyPoster{})
	c.SetContent("Look:")

	u := fakeUploader{batch: &model.UploadBatch{Results: []model.UploadResult{{URL: "https://cdn/cat.png", FileName: "cat.png"}}}}
	coord := upload.New(u, c)
	coord.Select(model.File{Name: "cat.png", ContentType: "image/png"})

	if _, err := coord.Upload(context.Background()); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if got := c.Draft().Content; got != "Look:\n![cat.png](https://cdn/cat.png)\n" {
		t.Errorf("Unexpected content %q", got)
	}
	if !strings.Contains(string(c.Preview()), `<img src="https://cdn/cat.png" alt="cat.png"`) {
		t.Errorf("Expected image in preview, got %q", c.Preview())
	}
}

type fakeUploader struct {
	batch *model.UploadBatch
}

func (f fakeUploader) Upload(ctx context.Context, files []model.File) (*model.UploadBatch, error) {
	return f.batch, nil
}

func TestAutosaveAndRestore(t *testing.T) {
	repo := repository.NewMemoryDraftRepository()

	c := newComposer(&spyPoster{}, WithRepository(repo))
	fill(c, "Saved", "ana", "*kept*")

	restored := newComposer(&spyPoster{}, WithRepository(repo))
	found, err := restored.Restore()
	if err != nil || !found {
		t.Fatalf("Expected draft restored, found=%v err=%v", found, err)
	}
	d := restored.Draft()
	if d.Title != "Saved" || d.Author != "ana" || d.Content != "*kept*" {
		t.Errorf("Unexpected restored draft %+v", d)
	}
	if !strings.Contains(string(restored.Preview()), "<em>kept</em>") {
		t.Errorf("Expected preview rendered on restore, got %q", restored.Preview())
	}

	fresh := New("other", render.New(render.EngineGFM, nil), &spyPoster{}, WithRepository(repo))
	if found, _ := fresh.Restore(); found {
		t.Error("Expected no draft for an unknown id")
	}
}

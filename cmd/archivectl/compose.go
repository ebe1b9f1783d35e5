package main

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/debemdeboas/the-archive-writer/internal/api"
	"github.com/debemdeboas/the-archive-writer/internal/draft"
	"github.com/debemdeboas/the-archive-writer/internal/media"
	"github.com/debemdeboas/the-archive-writer/internal/model"
	"github.com/debemdeboas/the-archive-writer/internal/render"
	"github.com/debemdeboas/the-archive-writer/internal/slug"
	"github.com/debemdeboas/the-archive-writer/internal/upload"
	"github.com/debemdeboas/the-archive-writer/internal/util"
)

func (c *cli) slugCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slug <title>",
		Short: "Print the post id a title would be created under",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := slug.Generate(strings.Join(args, " "))
			if !slug.IsUsable(s) {
				return errors.New(draft.MsgGenericTitle)
			}
			c.printer(cmd.OutOrStdout()).raw(s)
			return nil
		},
	}
}

func (c *cli) previewCmd() *cobra.Command {
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Render a Markdown draft file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read draft: %w", err)
			}
			fm, body := util.SplitFrontMatter(data)

			p := c.printer(cmd.OutOrStdout())
			if fm.Title != "" {
				p.line(titleStyle, "%s", fm.Title)
			}
			if fm.Author != "" {
				p.line(metaStyle, "By %s", fm.Author)
			}

			if !asHTML {
				return c.printMarkdown(p, string(body))
			}

			engine, err := render.ParseEngine(c.cfg.Markdown.Engine)
			if err != nil {
				return err
			}
			r := render.New(engine, render.NewChromaHighlighter(c.cfg.Theme.SyntaxHighlighting.DefaultDark))
			p.raw(string(r.Render(body)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asHTML, "html", false, "print the rendered HTML instead of highlighted Markdown")
	return cmd
}

// collector keeps the snippets an upload produced so they can be printed.
type collector struct {
	snippets []string
}

func (s *collector) AppendContent(snippets ...string) {
	s.snippets = append(s.snippets, snippets...)
}

// byKind sends each file to the endpoint of its media category. Failed
// files make the batch partial instead of failing it.
type byKind struct {
	client *api.Client
}

func (b byKind) Upload(ctx context.Context, files []model.File) (*model.UploadBatch, error) {
	out := &model.UploadBatch{}
	var lastErr error
	for _, f := range files {
		batch, err := b.client.UploadAs(ctx, media.CategoryOf(f.Name, f.ContentType), f)
		if err != nil {
			lastErr = err
			out.Partial = true
			continue
		}
		out.Results = append(out.Results, batch.Results...)
		out.Partial = out.Partial || batch.Partial
	}
	if len(out.Results) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

func (c *cli) uploadCmd() *cobra.Command {
	var perKind bool

	cmd := &cobra.Command{
		Use:   "upload <files...>",
		Short: "Upload files and print their embed snippets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}

			files, err := readFiles(args)
			if err != nil {
				return err
			}

			var u upload.Uploader = a.Uploader
			if perKind {
				u = byKind{client: a.API}
			}

			sink := &collector{}
			coord := upload.New(u, sink)
			out, err := coord.UploadFiles(cmd.Context(), files...)
			if err != nil {
				return err
			}

			p := c.printer(cmd.OutOrStdout())
			for _, s := range sink.snippets {
				p.line(snippetStyle, "%s", s)
			}
			if out.Partial {
				p.line(warnStyle, "%s", out.Message)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&perKind, "by-kind", false, "upload each file to the endpoint for its media type")
	return cmd
}

func (c *cli) newCmd() *cobra.Command {
	var (
		title, author, file, draftID string
		attach                       []string
	)

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Compose and submit a post",
		Long:  "new fills a draft from flags and an optional Markdown file, uploads attachments into it and submits it. A file's front matter supplies a missing title or author.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}

			comp, err := a.Composer(draftID)
			if err != nil {
				return err
			}

			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read draft: %w", err)
				}
				fm, body := util.SplitFrontMatter(data)
				if title == "" {
					title = fm.Title
				}
				if author == "" {
					author = fm.Author
				}
				comp.SetContent(string(body))
			}
			if title != "" {
				comp.SetTitle(title)
			}
			if author != "" {
				comp.SetAuthor(author)
			}

			p := c.printer(cmd.OutOrStdout())

			if len(attach) > 0 {
				files, err := readFiles(attach)
				if err != nil {
					return err
				}
				coord := upload.New(a.Uploader, comp)
				out, err := coord.UploadFiles(cmd.Context(), files...)
				if err != nil {
					return err
				}
				if out.Partial {
					p.line(warnStyle, "%s", out.Message)
				}
			}

			created, err := comp.Submit(cmd.Context())
			if err != nil {
				c.log.Debug().Err(err).Str("draft_id", string(comp.ID())).Msg("Draft kept for a later attempt")
				return errors.New(draft.ErrorMessage(err))
			}

			p.line(successStyle, "%s", draft.SuccessMessage(created))
			if created.URL != "" {
				p.line(linkStyle, "%s", created.URL)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "post title")
	cmd.Flags().StringVarP(&author, "author", "a", "", "post author")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Markdown file with the post body")
	cmd.Flags().StringSliceVar(&attach, "attach", nil, "files to upload and append to the body")
	cmd.Flags().StringVar(&draftID, "draft", "", "continue an autosaved draft")
	return cmd
}

func (c *cli) draftsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Manage autosaved drafts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List autosaved drafts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			drafts, err := a.Drafts.ListDrafts()
			if err != nil {
				return err
			}

			p := c.printer(cmd.OutOrStdout())
			if len(drafts) == 0 {
				p.line(metaStyle, "No drafts.")
				return nil
			}
			for _, d := range drafts {
				title := d.Title
				if title == "" {
					title = "(untitled)"
				}
				p.line(titleStyle, "%s", title)
				p.line(metaStyle, "  %s  %s", d.ID, d.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <id...>",
		Short: "Delete autosaved drafts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range args {
				if err := a.Drafts.DeleteDraft(model.DraftID(id)); err != nil {
					return fmt.Errorf("failed to delete draft %s: %w", id, err)
				}
			}
			return nil
		},
	}

	cmd.AddCommand(list, rm)
	return cmd
}

func readFiles(paths []string) ([]model.File, error) {
	files := make([]model.File, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		name := filepath.Base(path)
		ct := mime.TypeByExtension(filepath.Ext(name))
		if ct == "" {
			ct = http.DetectContentType(data)
		}
		files = append(files, model.File{Name: name, ContentType: ct, Data: data})
	}
	return files, nil
}

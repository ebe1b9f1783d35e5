package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/debemdeboas/the-archive-writer/internal/model"
	"github.com/debemdeboas/the-archive-writer/internal/reader"
	"github.com/debemdeboas/the-archive-writer/internal/render"
)

func (c *cli) postsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List and read posts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every post, newest first as the server orders them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}

			view := a.Reader.List(cmd.Context())
			p := c.printer(cmd.OutOrStdout())
			if view.State == reader.Error {
				return errors.New(view.Message)
			}
			if view.Message != "" {
				p.line(metaStyle, "%s", view.Message)
				return nil
			}

			for _, card := range view.Cards {
				p.line(titleStyle, "%s", card.Title)
				p.line(metaStyle, "  %s", byline(card.Author, card.Date))
				p.line(linkStyle, "  %s", card.ID)
			}
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one post as Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}

			view := a.Reader.Get(cmd.Context(), model.PostID(args[0]))
			if view.State != reader.Loaded {
				return errors.New(view.Message)
			}

			p := c.printer(cmd.OutOrStdout())
			p.line(titleStyle, "%s", view.Post.Title)
			p.line(metaStyle, "%s", byline(view.Post.Author, view.Date))
			p.raw("")

			md, err := htmlToMarkdown(view.Post.ContentHTML)
			if err != nil {
				return err
			}
			return c.printMarkdown(p, md)
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

func (c *cli) pageCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "page <about|contact>",
		Short:     "Print a standalone page",
		ValidArgs: []string{"about", "contact"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}

			view := a.Reader.Page(cmd.Context(), args[0])
			if view.State != reader.Loaded {
				return errors.New(view.Message)
			}

			p := c.printer(cmd.OutOrStdout())
			p.line(titleStyle, "%s", view.Page.Title)
			p.raw("")

			md, err := htmlToMarkdown(view.Page.ContentHTML)
			if err != nil {
				return err
			}
			return c.printMarkdown(p, md)
		},
	}
}

func (c *cli) printMarkdown(p printer, md string) error {
	if c.plain {
		p.raw(md)
		return nil
	}

	out, err := render.HighlightMarkdown(md, c.cfg.Theme.SyntaxHighlighting.DefaultDark)
	if err != nil {
		c.log.Debug().Err(err).Msg("Falling back to plain Markdown")
	}
	p.raw(strings.TrimRight(out, "\n"))
	return nil
}

func byline(author, date string) string {
	if date == "" {
		return fmt.Sprintf("By %s", author)
	}
	return fmt.Sprintf("By %s on %s", author, date)
}

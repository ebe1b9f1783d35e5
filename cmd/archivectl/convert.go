package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/JohannesKaufmann/dom"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"golang.org/x/net/html"
)

var (
	mdConverter     *converter.Converter
	mdConverterOnce sync.Once
)

// markdownConverter turns server-rendered post HTML back into Markdown for
// the terminal. Embedded media without a text form become link lines.
func markdownConverter() *converter.Converter {
	mdConverterOnce.Do(func() {
		mdConverter = converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		)

		media := func(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
			src := dom.GetAttributeOr(n, "src", "")
			if src == "" {
				if source := dom.FindFirstNode(n, func(c *html.Node) bool { return dom.NodeName(c) == "source" }); source != nil {
					src = dom.GetAttributeOr(source, "src", "")
				}
			}
			if src == "" {
				return converter.RenderTryNext
			}
			name := dom.NodeName(n)
			label := strings.ToUpper(name[:1]) + name[1:]
			w.WriteString(fmt.Sprintf("\n\n[%s: %s](%s)\n\n", label, src, src))
			return converter.RenderSuccess
		}
		mdConverter.Register.RendererFor("video", converter.TagTypeBlock, media, converter.PriorityEarly)
		mdConverter.Register.RendererFor("audio", converter.TagTypeBlock, media, converter.PriorityEarly)
	})
	return mdConverter
}

func htmlToMarkdown(s string) (string, error) {
	md, err := markdownConverter().ConvertString(s)
	if err != nil {
		return "", fmt.Errorf("markdown conversion: %w", err)
	}
	return strings.TrimSpace(md), nil
}

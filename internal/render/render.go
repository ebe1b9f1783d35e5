// Package render turns draft Markdown into preview HTML and highlights the
// code blocks inside it.
package render

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/debemdeboas/the-archive-writer/internal/config"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	md_html "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/mmarkdown/mmark/v2/lang"
	"github.com/mmarkdown/mmark/v2/mast"
	"github.com/mmarkdown/mmark/v2/mparser"
	"github.com/mmarkdown/mmark/v2/render/mhtml"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gm_html "github.com/yuin/goldmark/renderer/html"
)

// Engine names a Markdown dialect.
type Engine string

const (
	EngineGFM     Engine = config.EngineGFM
	EngineClassic Engine = config.EngineClassic
	EngineMmark   Engine = config.EngineMmark
)

func ParseEngine(name string) (Engine, error) {
	switch e := Engine(strings.ToLower(strings.TrimSpace(name))); e {
	case EngineGFM, EngineClassic, EngineMmark:
		return e, nil
	case "":
		return EngineGFM, nil
	default:
		return "", fmt.Errorf(config.ErrUnknownEngineFmt, name)
	}
}

type Renderer struct {
	engine      Engine
	convert     func(md []byte) ([]byte, error)
	highlighter Highlighter
}

// New returns a renderer for engine. Unknown engines fall back to GFM and a
// nil highlighter leaves code blocks as the engine emitted them.
func New(engine Engine, h Highlighter) *Renderer {
	if h == nil {
		h = NoopHighlighter{}
	}

	r := &Renderer{engine: engine, highlighter: h}
	switch engine {
	case EngineClassic:
		r.convert = convertClassic
	case EngineMmark:
		r.convert = convertMmark
	default:
		r.engine = EngineGFM
		r.convert = newGFM()
	}
	return r
}

func (r *Renderer) Engine() Engine {
	return r.engine
}

// Render returns the preview HTML for md, wrapped in a preview-content div.
// Blank input yields no output.
func (r *Renderer) Render(md []byte) (out []byte) {
	if len(bytes.TrimSpace(md)) == 0 {
		return []byte{}
	}

	defer func() {
		if rec := recover(); rec != nil {
			renderLogger.Error().
				Str("engine", string(r.engine)).
				Interface("panic", rec).
				Msg("Markdown engine panicked, showing raw source")
			out = rawSource(md)
		}
	}()

	body, err := r.convert(md)
	if err != nil {
		renderLogger.Error().Err(err).Str("engine", string(r.engine)).Msg("Failed to render markdown")
		return rawSource(md)
	}

	var buf bytes.Buffer
	buf.Grow(len(body) + 48)
	buf.WriteString(`<div class="preview-content">`)
	buf.Write(body)
	buf.WriteString(`</div>`)

	return r.highlighter.Highlight(buf.Bytes())
}

func rawSource(md []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<div class="preview-content"><pre class="preview-raw">`)
	buf.WriteString(html.EscapeString(string(md)))
	buf.WriteString(`</pre></div>`)
	return buf.Bytes()
}

func newGFM() func([]byte) ([]byte, error) {
	gm := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			gm_html.WithHardWraps(),
			gm_html.WithUnsafe(),
		),
	)

	return func(md []byte) ([]byte, error) {
		var buf bytes.Buffer
		if err := gm.Convert(md, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

// writeCodeBlock emits a fenced block the same way goldmark does, leaving
// highlighting to the Highlighter.
func writeCodeBlock(w io.Writer, info, literal []byte) {
	language := ""
	if fields := strings.Fields(string(info)); len(fields) > 0 {
		language = fields[0]
	}

	if language == "" {
		io.WriteString(w, "<pre><code>")
	} else {
		fmt.Fprintf(w, `<pre><code class="language-%s">`, html.EscapeString(language))
	}
	io.WriteString(w, html.EscapeString(string(literal)))
	io.WriteString(w, "</code></pre>\n")
}

func codeBlockHook(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
	if code, ok := node.(*ast.CodeBlock); ok && entering {
		writeCodeBlock(w, code.Info, code.Literal)
		return ast.GoToNext, true
	}
	return ast.GoToNext, false
}

func convertClassic(md []byte) ([]byte, error) {
	opts := md_html.RendererOptions{
		Flags:          md_html.CommonFlags | md_html.HrefTargetBlank,
		RenderNodeHook: codeBlockHook,
	}

	doc := parser.NewWithExtensions(
		parser.Tables | parser.FencedCode | parser.Autolink | parser.Strikethrough |
			parser.SpaceHeadings | parser.HardLineBreak | parser.NoEmptyLineBeforeBlock,
	).Parse(markdown.NormalizeNewlines(md))

	return markdown.Render(doc, md_html.NewRenderer(opts)), nil
}

func convertMmark(md []byte) ([]byte, error) {
	md = markdown.NormalizeNewlines(md)

	p := parser.NewWithExtensions(mparser.Extensions | parser.NoIntraEmphasis)

	init := mparser.NewInitial("")
	var info *mast.TitleData

	p.Opts = parser.Options{
		ParserHook: func(data []byte) (ast.Node, []byte, int) {
			node, data, consumed := mparser.Hook(data)
			if t, ok := node.(*mast.Title); ok {
				info = t.TitleData
			}
			return node, data, consumed
		},
		ReadIncludeFn: init.ReadInclude,
		Flags:         parser.FlagsNone,
	}

	doc := markdown.Parse(md, p)
	mparser.AddIndex(doc)

	language := "en"
	if info != nil && info.Language != "" {
		language = info.Language
	}

	mhtmlOpts := mhtml.RendererOptions{
		Language: lang.New(language),
	}

	opts := md_html.RendererOptions{
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if status, ok := codeBlockHook(w, node, entering); ok {
				return status, ok
			}
			return mhtmlOpts.RenderHook(w, node, entering)
		},
		Flags: md_html.CommonFlags | md_html.FootnoteNoHRTag | md_html.FootnoteReturnLinks,
	}

	return markdown.Render(doc, md_html.NewRenderer(opts)), nil
}

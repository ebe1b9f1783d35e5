package render

import (
	"bytes"
	"strings"

	"github.com/JohannesKaufmann/dom"
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	chroma_html "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/debemdeboas/the-archive-writer/internal/cache"
	"github.com/debemdeboas/the-archive-writer/internal/theme"
	"github.com/debemdeboas/the-archive-writer/internal/util"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	highlightedAttr = "data-highlighted"
	markHighlighted = "true"
	markPlain       = "plain"
)

// Highlighter decorates the code blocks of a rendered fragment.
type Highlighter interface {
	Highlight(fragment []byte) []byte
}

type NoopHighlighter struct{}

func (NoopHighlighter) Highlight(fragment []byte) []byte {
	return fragment
}

// ChromaHighlighter highlights <pre><code> blocks in place using chroma CSS
// classes. Blocks it has visited carry a data-highlighted marker and are
// skipped on later passes.
type ChromaHighlighter struct {
	style     string
	formatter *chroma_html.Formatter
}

func NewChromaHighlighter(style string) *ChromaHighlighter {
	return &ChromaHighlighter{
		style:     style,
		formatter: theme.GetFormatter(),
	}
}

func (h *ChromaHighlighter) Style() string {
	return h.style
}

func (h *ChromaHighlighter) Highlight(fragment []byte) []byte {
	if !bytes.Contains(fragment, []byte("<code")) {
		return fragment
	}

	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(bytes.NewReader(fragment), root)
	if err != nil {
		renderLogger.Warn().Err(err).Msg("Failed to parse fragment for highlighting")
		return fragment
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	blocks := dom.FindAllNodes(root, isPendingCodeBlock)
	if len(blocks) == 0 {
		return fragment
	}
	for _, code := range blocks {
		h.highlightBlock(code)
	}

	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			renderLogger.Warn().Err(err).Msg("Failed to serialize highlighted fragment")
			return fragment
		}
	}
	return buf.Bytes()
}

func isPendingCodeBlock(n *html.Node) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.Code {
		return false
	}
	if n.Parent == nil || n.Parent.DataAtom != atom.Pre {
		return false
	}
	return dom.GetAttributeOr(n, highlightedAttr, "") == ""
}

func languageOf(code *html.Node) string {
	for _, class := range strings.Fields(dom.GetAttributeOr(code, "class", "")) {
		if lang, ok := strings.CutPrefix(class, "language-"); ok && lang != "" {
			return lang
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func addClass(n *html.Node, class string) {
	current := dom.GetAttributeOr(n, "class", "")
	for _, c := range strings.Fields(current) {
		if c == class {
			return
		}
	}
	setAttr(n, "class", strings.TrimSpace(current+" "+class))
}

func (h *ChromaHighlighter) highlightBlock(code *html.Node) {
	language := languageOf(code)
	source := textOf(code)

	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		setAttr(code, highlightedAttr, markPlain)
		return
	}

	hash := util.ContentHashString(source)
	highlighted, ok := cache.GetHighlightedBlock(h.style, language, hash)
	if !ok {
		var err error
		highlighted, err = h.format(lexer, source)
		if err != nil {
			renderLogger.Warn().Err(err).Str("language", language).Msg("Failed to highlight code block")
			setAttr(code, highlightedAttr, markPlain)
			return
		}
		cache.SetHighlightedBlock(h.style, language, hash, highlighted)
	}

	children, err := html.ParseFragment(strings.NewReader(highlighted), code)
	if err != nil {
		setAttr(code, highlightedAttr, markPlain)
		return
	}

	for code.FirstChild != nil {
		code.RemoveChild(code.FirstChild)
	}
	for _, c := range children {
		code.AppendChild(c)
	}

	addClass(code.Parent, "chroma")
	setAttr(code, highlightedAttr, markHighlighted)
}

func (h *ChromaHighlighter) format(lexer chroma.Lexer, source string) (string, error) {
	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, source)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if err := h.formatter.Format(&sb, styles.Get(h.style), iterator); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// HighlightMarkdown colours Markdown source for a 256-colour terminal.
func HighlightMarkdown(markdown string, styleName string) (string, error) {
	lexer := lexers.Get("markdown")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, markdown)
	if err != nil {
		return markdown, err
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return markdown, err
	}
	return buf.String(), nil
}

// Package render turns blog markdown into preview HTML with highlighted code.
package render

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	md_html "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/rs/zerolog"

	"github.com/mmarkdown/mmark/v2/lang"
	"github.com/mmarkdown/mmark/v2/mast"
	"github.com/mmarkdown/mmark/v2/mparser"
	"github.com/mmarkdown/mmark/v2/render/mhtml"

	"github.com/debemdeboas/folio/internal/cache"
	"github.com/debemdeboas/folio/internal/util"
)

const (
	RendererMmark   = "mmark"
	RendererClassic = "classic"
)

var renderLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	renderLogger = l
}

var regexCallout = regexp.MustCompile(`//\s*&lt;&lt;(\d+)&gt;&gt;|//\s*<<(\d+)>>`)

// RenderedContent is cached rendered markdown with its title block, if any.
type RenderedContent struct {
	HTML  []byte
	Title *mast.TitleData
}

var renderedMarkdownCache = cache.NewCache[string, *RenderedContent]()

func ClearRenderedMarkdownCache() {
	renderedMarkdownCache.Clear()
}

func codeFormatter() *chromahtml.Formatter {
	return chromahtml.New(
		chromahtml.WithClasses(true),
		chromahtml.TabWidth(4),
		chromahtml.WithLineNumbers(true),
		chromahtml.WrapLongLines(true),
	)
}

func HighlightCode(code, language, highlightTheme string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return html.EscapeString(code)
	}

	var buf strings.Builder
	if err := codeFormatter().Format(&buf, styles.Get(highlightTheme), iterator); err != nil {
		return html.EscapeString(code)
	}

	return regexCallout.ReplaceAllStringFunc(buf.String(), func(m string) string {
		sub := regexCallout.FindStringSubmatch(m)
		n := sub[1]
		if n == "" {
			n = sub[2]
		}
		return `<span class="callout">` + n + `</span>`
	})
}

func codeBlockHook(highlightTheme string) func(io.Writer, ast.Node, bool) (ast.WalkStatus, bool) {
	return func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
		code, ok := node.(*ast.CodeBlock)
		if !ok || !entering {
			return ast.GoToNext, false
		}
		var lang string
		if info := code.Info; info != nil {
			lang = string(info)
		}
		fmt.Fprintf(w, "<div class=\"highlight\">%s</div>", HighlightCode(string(code.Literal), lang, highlightTheme))
		return ast.GoToNext, true
	}
}

// RenderMarkdown renders with the named renderer; unknown names use mmark.
func RenderMarkdown(md []byte, renderer, highlightTheme string) ([]byte, *mast.TitleData) {
	if renderer == RendererClassic {
		return RenderMarkdownClassic(md, highlightTheme), nil
	}
	return RenderMarkdownMmark(md, highlightTheme)
}

// Mutex to protect the check-render-set operation in RenderMarkdownCached
var renderCacheMutex sync.Mutex

// RenderMarkdownCached keys the cache on content hash, renderer and theme, so edits
// to a draft never serve stale previews.
func RenderMarkdownCached(md []byte, renderer, highlightTheme string) ([]byte, *mast.TitleData) {
	key := util.ContentHash(md) + ":" + renderer + ":" + highlightTheme

	if cached, found := renderedMarkdownCache.Get(key); found {
		renderLogger.Debug().Str("key", key).Msg("Cache hit for rendered markdown")
		return cached.HTML, cached.Title
	}

	renderCacheMutex.Lock()
	defer renderCacheMutex.Unlock()

	if cached, found := renderedMarkdownCache.Get(key); found {
		return cached.HTML, cached.Title
	}

	out, title := RenderMarkdown(md, renderer, highlightTheme)
	renderedMarkdownCache.Set(key, &RenderedContent{HTML: out, Title: title})
	return out, title
}

func RenderMarkdownClassic(md []byte, highlightTheme string) []byte {
	hook := codeBlockHook(highlightTheme)
	opts := md_html.RendererOptions{
		Flags:    md_html.CommonFlags | md_html.HrefTargetBlank | md_html.FootnoteReturnLinks | md_html.SkipHTML,
		Comments: [][]byte{[]byte("//"), []byte("#")},
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if status, handled := hook(w, node, entering); handled {
				return status, true
			}
			if callout, ok := node.(*ast.Callout); ok && entering {
				fmt.Fprintf(w, "<span class=\"callout\">%s</span>", callout.ID)
				return ast.GoToNext, true
			}
			return ast.GoToNext, false
		},
	}

	doc := parser.NewWithExtensions(
		parser.Tables | parser.FencedCode | parser.Autolink | parser.Strikethrough | parser.SpaceHeadings |
			parser.HeadingIDs | parser.BackslashLineBreak | parser.SuperSubscript | parser.DefinitionLists | parser.MathJax |
			parser.AutoHeadingIDs | parser.Footnotes | parser.OrderedListStart | parser.Attributes | parser.NonBlockingSpace,
	).Parse(markdown.NormalizeNewlines(md))

	return markdown.Render(doc, md_html.NewRenderer(opts))
}

// RenderMarkdownMmark also understands a %%% TOML title block and returns it.
func RenderMarkdownMmark(md []byte, highlightTheme string) ([]byte, *mast.TitleData) {
	md = markdown.NormalizeNewlines(md)

	p := parser.NewWithExtensions(mparser.Extensions | parser.NoIntraEmphasis)

	var info *mast.TitleData
	p.Opts = parser.Options{
		ParserHook: func(data []byte) (ast.Node, []byte, int) {
			node, data, consumed := mparser.Hook(data)
			if t, ok := node.(*mast.Title); ok {
				info = t.TitleData
			}
			return node, data, consumed
		},
		// Previews never read include files from the server's disk.
		ReadIncludeFn: func(from, path string, address []byte) []byte { return nil },
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

	hook := codeBlockHook(highlightTheme)
	opts := md_html.RendererOptions{
		Comments: [][]byte{[]byte("//"), []byte("#")},
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if status, handled := hook(w, node, entering); handled {
				return status, true
			}
			return mhtmlOpts.RenderHook(w, node, entering)
		},
		Flags: md_html.CommonFlags | md_html.FootnoteNoHRTag | md_html.FootnoteReturnLinks | md_html.SkipHTML,
	}

	return markdown.Render(doc, md_html.NewRenderer(opts)), info
}

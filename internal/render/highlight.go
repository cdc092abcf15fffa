package render

import (
	"io"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// HighlightTerminal writes source highlighted with ANSI escapes, for the CLI's
// record and preview output.
func HighlightTerminal(w io.Writer, source, language, theme string) error {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(theme)
	if style == nil {
		style = styles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		_, werr := io.WriteString(w, source)
		return werr
	}
	return formatter.Format(w, style, iterator)
}

func ValidTheme(theme string) bool {
	_, ok := styles.Registry[theme]
	return ok
}

package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/debemdeboas/folio/internal/cache"
)

var syntaxCSSCache = cache.NewCache[string, string]()

// SyntaxCSS returns the stylesheet for class-based highlighting in theme.
// Unknown themes fall back to chroma's default style.
func SyntaxCSS(theme string) (string, error) {
	if css, ok := syntaxCSSCache.Get(theme); ok {
		return css, nil
	}

	var buf strings.Builder
	style := styles.Get(theme)

	bg := style.Get(chroma.Background)
	if !bg.Colour.IsSet() {
		// Themes without a text colour get one contrasting their background
		luminance := (0.299*float64(bg.Background.Red()) +
			0.587*float64(bg.Background.Green()) +
			0.114*float64(bg.Background.Blue())) / 255
		if luminance > 0.5 {
			buf.WriteString(".chroma { color: #181818; }\n")
		}
	}

	if err := codeFormatter().WriteCSS(&buf, style); err != nil {
		return "", err
	}
	css := buf.String()
	syntaxCSSCache.Set(theme, css)
	return css, nil
}

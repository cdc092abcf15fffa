package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/debemdeboas/folio/internal/admin"
	"github.com/debemdeboas/folio/internal/content"
	"github.com/debemdeboas/folio/internal/model"
	"github.com/debemdeboas/folio/internal/render"
)

const (
	colorAccent  = lipgloss.Color("63")
	colorSuccess = lipgloss.Color("42")
	colorError   = lipgloss.Color("203")
	colorMuted   = lipgloss.Color("245")
)

// toaster prints notifications as one styled line each.
type toaster struct {
	mu       sync.Mutex
	w        io.Writer
	renderer *lipgloss.Renderer
}

func newToaster(w io.Writer) *toaster {
	return &toaster{w: w, renderer: lipgloss.NewRenderer(w)}
}

func (t *toaster) Notify(n admin.Notification) {
	badge, color := "•", colorAccent
	switch n.Level {
	case admin.LevelSuccess:
		badge, color = "✓", colorSuccess
	case admin.LevelError:
		badge, color = "✗", colorError
	}
	style := t.renderer.NewStyle().Foreground(color).Bold(true)

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, style.Render(badge+" "+n.Message))
}

func (t *toaster) info(format string, args ...any) {
	t.Notify(admin.Notification{Level: admin.LevelInfo, Message: fmt.Sprintf(format, args...)})
}

// violations lists each failing constraint on its own line.
func (t *toaster) violations(vs []content.Violation) {
	for _, v := range vs {
		t.Notify(admin.Notification{Level: admin.LevelError, Message: v.Message})
	}
}

// tableColumns picks what a list shows: id, the title, then the kind's filter
// fields.
func tableColumns(schema *content.Schema) []string {
	cols := []string{"id"}
	if schema.TitleField != "" {
		cols = append(cols, schema.TitleField)
	}
	for _, f := range schema.Filters {
		if f != schema.TitleField {
			cols = append(cols, f)
		}
	}
	return append(cols, "updated")
}

func cellValue(r model.ContentRecord, col string) string {
	switch col {
	case "id":
		return string(r.ID)
	case "updated":
		if r.UpdatedAt == nil {
			return ""
		}
		return r.UpdatedAt.Local().Format("2006-01-02 15:04")
	}
	return strings.ReplaceAll(r.Fields.String(col), ",", ", ")
}

func writeTable(w io.Writer, schema *content.Schema, records []model.ContentRecord) {
	renderer := lipgloss.NewRenderer(w)
	headerStyle := renderer.NewStyle().Foreground(colorAccent).Bold(true).Padding(0, 1)
	cellStyle := renderer.NewStyle().Padding(0, 1)

	cols := tableColumns(schema)
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := make([]string, len(cols))
		for i, col := range cols {
			row[i] = cellValue(r, col)
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(renderer.NewStyle().Foreground(colorMuted)).
		Headers(cols...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.String())
}

// writeRecord prints r as indented JSON, highlighted when w is a terminal.
func writeRecord(w io.Writer, r *model.ContentRecord, theme string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	if !isTerminal(w) {
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	if err := render.HighlightTerminal(w, string(data), "json", theme); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w)
	return err
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

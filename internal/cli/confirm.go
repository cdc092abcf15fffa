package cli

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var errNoTerminal = errors.New("confirmation needs an interactive terminal; pass --yes to skip it")

// confirmModel is a yes/no prompt. "No" is preselected.
type confirmModel struct {
	question string
	yes      bool
	answered bool
}

func newConfirmModel(question string) confirmModel {
	return confirmModel{question: question}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.yes, m.answered = true, true
		return m, tea.Quit
	case "n", "N", "q", "esc", "ctrl+c":
		m.yes, m.answered = false, true
		return m, tea.Quit
	case "enter":
		m.answered = true
		return m, tea.Quit
	case "left", "right", "h", "l", "tab":
		m.yes = !m.yes
	}
	return m, nil
}

var (
	promptStyle   = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(colorError).Padding(0, 1)
	optionStyle   = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1)
)

func (m confirmModel) View() string {
	if m.answered {
		return ""
	}
	yes, no := optionStyle.Render("Yes"), selectedStyle.Render("No")
	if m.yes {
		yes, no = selectedStyle.Render("Yes"), optionStyle.Render("No")
	}
	return promptStyle.Render(m.question) + "\n\n" + yes + " " + no + "\n"
}

// Confirmed is only true for an explicit yes.
func (m confirmModel) Confirmed() bool {
	return m.answered && m.yes
}

func askConfirm(in io.Reader, out io.Writer, question string) (bool, error) {
	if !isTerminal(in) {
		return false, errNoTerminal
	}
	final, err := tea.NewProgram(newConfirmModel(question), tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return false, err
	}
	m, ok := final.(confirmModel)
	return ok && m.Confirmed(), nil
}

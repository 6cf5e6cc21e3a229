package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/wippyai/mathkernel/kernel"
	"github.com/wippyai/mathkernel/opset"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	docStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// listHeight is how many operations are visible at once.
const listHeight = 15

type interactiveModel struct {
	err      error
	kernel   *kernel.Kernel
	result   string
	status   string
	ops      []opset.Op
	inputs   []textinput.Model
	selected int
	offset   int
	focusIdx int
	state    modelState
}

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateShowResult
)

func newInteractiveModel(k *kernel.Kernel) *interactiveModel {
	return &interactiveModel{
		kernel: k,
		state:  stateSelectFunc,
	}
}

type loadedMsg struct {
	err error
	ops []opset.Op
}

type callResultMsg struct {
	err    error
	result string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadKernel
}

func (m *interactiveModel) loadKernel() tea.Msg {
	if err := m.kernel.Init(context.Background()); err != nil {
		return loadedMsg{err: err}
	}
	var ops []opset.Op
	for _, op := range opset.All() {
		if m.kernel.Has(op.Name) {
			ops = append(ops, op)
		}
	}
	return loadedMsg{ops: ops}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == stateInputArgs && msg.String() == "q" {
				break
			}
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
				if m.selected < m.offset {
					m.offset = m.selected
				}
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.ops)-1 {
				m.selected++
				if m.selected >= m.offset+listHeight {
					m.offset = m.selected - listHeight + 1
				}
			}

		case "enter":
			switch m.state {
			case stateSelectFunc:
				if len(m.ops) == 0 {
					break
				}
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callOperation
				}
				m.state = stateInputArgs

			case stateInputArgs:
				return m, m.callOperation

			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectFunc
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.ops = msg.ops
		info := m.kernel.Info()
		m.status = fmt.Sprintf("%s module, %d ops", info.Variant, info.Ops)

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) prepareInputs() {
	op := m.ops[m.selected]
	m.inputs = make([]textinput.Model, len(op.Params))
	for i, p := range op.Params {
		ti := textinput.New()
		ti.Placeholder = opset.TypeName(p.Type)
		ti.Prompt = p.Name + ": "
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *interactiveModel) callOperation() tea.Msg {
	op := m.ops[m.selected]
	raw := make([]string, len(m.inputs))
	for i, input := range m.inputs {
		raw[i] = input.Value()
	}

	result, err := callOp(context.Background(), m.kernel, op.Name, raw)
	if err != nil {
		return callResultMsg{err: err}
	}
	return callResultMsg{result: formatResult(result)}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.ops == nil {
		return "Compiling kernel..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("mathkernel"))
	b.WriteString(" ")
	b.WriteString(m.status)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		b.WriteString("Select an operation:\n\n")
		end := min(m.offset+listHeight, len(m.ops))
		for i := m.offset; i < end; i++ {
			op := m.ops[i]
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + op.Name))
				b.WriteString(strings.TrimPrefix(m.formatOp(op), funcStyle.Render(op.Name)))
				b.WriteString("  ")
				b.WriteString(docStyle.Render(op.Doc))
			} else {
				b.WriteString("  " + m.formatOp(op))
			}
			b.WriteString("\n")
		}
		if len(m.ops) > listHeight {
			b.WriteString(helpStyle.Render(fmt.Sprintf("  %d-%d of %d", m.offset+1, end, len(m.ops))))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		op := m.ops[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(op.Name)))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(opset.TypeName(op.Params[i].Type)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		op := m.ops[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(op.Name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatOp(op opset.Op) string {
	var params []string
	for _, p := range op.Params {
		params = append(params, p.Name+": "+typeStyle.Render(opset.TypeName(p.Type)))
	}
	result := ""
	if op.Result != nil {
		result = " -> " + typeStyle.Render(opset.TypeName(op.Result))
	}
	return funcStyle.Render(op.Name) + "(" + strings.Join(params, ", ") + ")" + result
}

func runInteractive(ctx context.Context, opts options) error {
	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return fmt.Errorf("interactive mode needs a terminal")
	}

	cfg, log, err := setup(opts)
	if err != nil {
		return err
	}
	defer log.Sync()

	kc, err := cfg.KernelConfig()
	if err != nil {
		return err
	}
	k := kernel.New(&kc)
	defer k.Close(ctx)

	p := tea.NewProgram(newInteractiveModel(k), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

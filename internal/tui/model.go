package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/domain"
)

// Asker is the TUI-facing subset of the query pipeline.
type Asker interface {
	Answer(ctx context.Context, question string) (*domain.Answer, error)
}

type answerMsg struct {
	answer *domain.Answer
	err    error
}

// Model is the Bubble Tea model for the terminal chatbot.
type Model struct {
	asker       Asker
	timeout     time.Duration
	input       textinput.Model
	viewport    viewport.Model
	spinner     spinner.Model
	answer      *domain.Answer
	summary     string
	status      string
	busy        bool
	showContext bool
	cursor      int
	ready       bool
}

// New creates a new TUI model. timeout bounds each question; zero means none.
func New(asker Asker, summary string, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "Your Question > "
	ti.Placeholder = "Ask a medical question related to the content of the PDF"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		asker:    asker,
		timeout:  timeout,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		summary:  summary,
		status:   "Index loaded. Type a question and press Enter.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if m.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, m.timeout)
			defer cancel()
		}
		ans, err := m.asker.Answer(ctx, question)
		return answerMsg{answer: ans, err: err}
	}
}

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header and summary, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.render())
		return m, nil

	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.answer = msg.answer
			m.cursor = 0
			m.status = fmt.Sprintf("Answered by %s in %s. Tab shows the retrieved context.",
				msg.answer.Model, msg.answer.Elapsed.Round(time.Millisecond))
		}
		m.viewport.SetContent(m.render())
		m.viewport.GotoTop()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Processing your question..."
			return m, tea.Batch(m.spinner.Tick, m.ask(q))
		case "tab":
			if m.answer != nil {
				m.showContext = !m.showContext
				m.viewport.SetContent(m.render())
				m.viewport.GotoTop()
			}
			return m, nil
		case "down":
			if m.showContext && m.answer != nil && len(m.answer.Sources) > 0 {
				m.cursor = (m.cursor + 1) % len(m.answer.Sources)
				m.viewport.SetContent(m.render())
				return m, nil
			}
		case "up":
			if m.showContext && m.answer != nil && len(m.answer.Sources) > 0 {
				m.cursor = (m.cursor - 1 + len(m.answer.Sources)) % len(m.answer.Sources)
				m.viewport.SetContent(m.render())
				return m, nil
			}
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the header, the answer box, the input and the status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("Medical Chatbot")
	summary := summaryStyle.Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	if m.busy {
		status = m.spinner.View() + " " + status
	} else if strings.HasPrefix(m.status, "Error: ") {
		status = errorStyle.Render(m.status)
	}
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) render() string {
	if m.answer == nil {
		return "Ask a medical question related to the content of the PDF."
	}
	width := max(20, m.viewport.Width-4)
	wrap := lipgloss.NewStyle().Width(width)
	if !m.showContext {
		return labelStyle.Render("Answer") + "\n\n" + wrap.Render(m.answer.Text)
	}
	if len(m.answer.Sources) == 0 {
		return "No context was retrieved."
	}
	r := m.answer.Sources[m.cursor]
	title := fmt.Sprintf("Context %d/%d  page %d  score=%.3f", m.cursor+1, len(m.answer.Sources), r.Chunk.Page, r.Score)
	return labelStyle.Render(title) + "\n\n" + wrap.Render(highlightBestSentence(r.Chunk.Text, m.answer.Question))
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe     = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// highlightBestSentence emphasizes the sentence sharing the most words
// with the question.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	bestIdx, bestScore := -1, 0
	for i, s := range sentences {
		if score := overlap(qTokens, toTokenSet(s)); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sent = highlightStyle.Render(sent)
		}
		sentences[i] = sent
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func overlap(a, b map[string]struct{}) int {
	n := 0
	for t := range b {
		if _, ok := a[t]; ok {
			n++
		}
	}
	return n
}

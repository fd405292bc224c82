// Package render formats tasks and session details for the terminal.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/term"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

const (
	defaultWidth      = 80
	descriptionIndent = 4
	dueLayout         = "Jan 2, 2006"
	createdLayout     = "2006-01-02 15:04"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	idStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	doneStyle      = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("244"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	overdueStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	successStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	dangerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	priorityStyles = map[types.Priority]lipgloss.Style{
		types.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		types.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		types.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	}
)

// Severity selects how a Message is styled.
type Severity int

// Message severities.
const (
	SeverityDefault Severity = iota
	SeverityDestructive
)

// Printer writes human-readable output.
type Printer struct {
	out   io.Writer
	color bool
	width int
	now   func() time.Time
}

// Option configures a Printer.
type Option func(*Printer)

// WithColor enables or disables ANSI styling.
func WithColor(enabled bool) Option {
	return func(p *Printer) { p.color = enabled }
}

// WithWidth sets the wrap width for descriptions.
func WithWidth(width int) Option {
	return func(p *Printer) {
		if width > 0 {
			p.width = width
		}
	}
}

// WithClock sets the time source used for overdue checks.
func WithClock(now func() time.Time) Option {
	return func(p *Printer) { p.now = now }
}

// New returns a Printer writing to out. Color and width are detected when out
// is a terminal; options override detection.
func New(out io.Writer, opts ...Option) *Printer {
	p := &Printer{out: out, width: defaultWidth, now: time.Now}
	if f, ok := out.(*os.File); ok {
		p.color = ColorEnabled(f)
		p.width = TerminalWidth(f)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ColorEnabled reports whether f is a terminal that should receive ANSI styles.
// NO_COLOR and TERM=dumb disable styling.
func ColorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the column count of f, or 80 when it is not a terminal.
func TerminalWidth(f *os.File) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

// TaskList prints one line per task in the given order, followed by its tags.
// An empty list prints a hint instead.
func (p *Printer) TaskList(tasks []types.Task) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintf(p.out, "%s\n%s\n",
			p.style(headerStyle, "No tasks found"),
			p.style(mutedStyle, "Add a new task or try changing your filters."))
		return err
	}

	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	prefixes := UniqueIDPrefixLengths(ids)
	now := p.now()

	var b strings.Builder
	for _, t := range tasks {
		b.WriteString(p.taskLine(t, prefixes[strings.ToLower(t.ID)], now))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(p.out, b.String())
	return err
}

func (p *Printer) taskLine(t types.Task, prefixLen int, now time.Time) string {
	check := "[ ]"
	title := t.Title
	if t.Completed {
		check = "[x]"
		title = p.style(doneStyle, title)
	}

	parts := []string{check, p.highlightID(t.ID, prefixLen), title, p.priority(t.Priority)}
	if t.DueDate != nil {
		parts = append(parts, p.due(t, now))
	}
	for _, tag := range t.Tags {
		parts = append(parts, p.style(mutedStyle, "#"+tag))
	}
	return strings.Join(parts, "  ")
}

func (p *Printer) highlightID(id string, prefixLen int) string {
	if prefixLen <= 0 || prefixLen > len(id) {
		return id
	}
	return p.style(idStyle, id[:prefixLen]) + id[prefixLen:]
}

func (p *Printer) priority(pr types.Priority) string {
	label := string(pr)
	if label != "" {
		label = strings.ToUpper(label[:1]) + label[1:]
	}
	if s, ok := priorityStyles[pr]; ok {
		return p.style(s, label)
	}
	return label
}

func (p *Printer) due(t types.Task, now time.Time) string {
	text := "Due: " + t.DueDate.Format(dueLayout)
	if t.IsOverdue(now) {
		return p.style(overdueStyle, text+" (overdue)")
	}
	return text
}

// Task prints every field of a single task.
func (p *Printer) Task(t types.Task) error {
	var b strings.Builder
	status := "open"
	if t.Completed {
		status = "completed"
	}

	fmt.Fprintf(&b, "%s\n", p.style(headerStyle, t.Title))
	fmt.Fprintf(&b, "  ID:        %s\n", t.ID)
	fmt.Fprintf(&b, "  Status:    %s\n", status)
	fmt.Fprintf(&b, "  Priority:  %s\n", p.priority(t.Priority))
	fmt.Fprintf(&b, "  Created:   %s\n", t.CreatedAt.Local().Format(createdLayout))
	if t.DueDate != nil {
		fmt.Fprintf(&b, "  %s\n", p.due(t, p.now()))
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(&b, "  Tags:      %s\n", strings.Join(t.Tags, ", "))
	}
	if t.Description != "" {
		b.WriteString("\n")
		b.WriteString(p.wrap(t.Description))
		b.WriteString("\n")
	}
	_, err := io.WriteString(p.out, b.String())
	return err
}

func (p *Printer) wrap(text string) string {
	width := p.width - descriptionIndent
	if width < 20 {
		width = 20
	}
	paragraphs := strings.Split(strings.TrimSpace(text), "\n\n")
	for i, para := range paragraphs {
		para = strings.Join(strings.Fields(para), " ")
		paragraphs[i] = wordwrap.String(para, width)
	}
	return indent.String(strings.Join(paragraphs, "\n\n"), descriptionIndent)
}

// Message prints a short notification with an optional detail line.
func (p *Printer) Message(severity Severity, title, detail string) error {
	s := successStyle
	if severity == SeverityDestructive {
		s = dangerStyle
	}
	line := p.style(s, title)
	if detail != "" {
		line += ": " + detail
	}
	_, err := fmt.Fprintln(p.out, line)
	return err
}

// Session prints who is signed in.
func (p *Printer) Session(s types.Session) error {
	name := s.Email
	if s.DisplayName != "" {
		name = fmt.Sprintf("%s <%s>", s.DisplayName, s.Email)
	}
	_, err := fmt.Fprintf(p.out, "Signed in as %s\n  Session expires %s\n",
		p.style(headerStyle, name), s.ExpiresAt.Local().Format(createdLayout))
	return err
}

// JSON writes v as indented JSON followed by a newline.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// UniqueIDPrefixLengths returns the shortest unique prefix length for each ID,
// keyed by the lower-cased ID.
func UniqueIDPrefixLengths(ids []string) map[string]int {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.ToLower(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	lengths := make(map[string]int, len(unique))
	for _, id := range unique {
		lengths[id] = uniquePrefixLength(id, unique)
	}
	return lengths
}

func uniquePrefixLength(id string, ids []string) int {
	for n := 1; n <= len(id); n++ {
		prefix := id[:n]
		clash := false
		for _, other := range ids {
			if other != id && strings.HasPrefix(other, prefix) {
				clash = true
				break
			}
		}
		if !clash {
			return n
		}
	}
	return len(id)
}

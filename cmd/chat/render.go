package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/petasbytes/streamchat/internal/transcript"
)

var (
	userLabel      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true).Render("You")
	assistantLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true).Render("Assistant")
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

// renderer prints the open assistant turn as it grows. Content normally only
// gains a suffix; a replaced body is printed again on a fresh line.
type renderer struct {
	mu      sync.Mutex
	w       io.Writer
	index   int
	printed string
	active  bool
}

func newRenderer(w io.Writer) *renderer { return &renderer{w: w, index: -1} }

func (r *renderer) observe(ev transcript.Event) {
	if ev.Turn.Role != transcript.RoleAssistant {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Kind {
	case transcript.EventAppended:
		r.index, r.printed, r.active = ev.Index, "", true
		fmt.Fprintf(r.w, "%s: ", assistantLabel)
		r.show(ev.Turn.Content)
	case transcript.EventUpdated:
		if r.active && ev.Index == r.index {
			r.show(ev.Turn.Content)
		}
	case transcript.EventClosed:
		if r.active && ev.Index == r.index {
			r.show(ev.Turn.Content)
			fmt.Fprintln(r.w)
			r.active = false
		}
	}
}

func (r *renderer) show(content string) {
	if strings.HasPrefix(content, r.printed) {
		io.WriteString(r.w, content[len(r.printed):])
	} else {
		fmt.Fprintf(r.w, "\n%s", content)
	}
	r.printed = content
}

func (r *renderer) prompt() {
	fmt.Fprintf(r.w, "%s: ", userLabel)
}

func (r *renderer) notice(format string, args ...any) {
	fmt.Fprintln(r.w, noticeStyle.Render(fmt.Sprintf(format, args...)))
}

// replay prints turns loaded from history.
func (r *renderer) replay(turns []transcript.Turn) {
	for _, t := range turns {
		label := userLabel
		if t.Role == transcript.RoleAssistant {
			label = assistantLabel
		}
		fmt.Fprintf(r.w, "%s: %s\n", label, t.Content)
	}
}

package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// Translator maps an English label to a localized one.
type Translator func(key string) string

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the label translator.
func WithTranslator(t Translator) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.t = t
	}
}

// MarkdownFormatter renders a Summary as a Markdown report.
type MarkdownFormatter struct {
	t Translator
}

// NewMarkdownFormatter creates a MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{t: func(key string) string { return key }}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements the Formatter interface.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", f.t("Playback Summary"))
	fmt.Fprintf(&b, "%s: %s\n\n", f.t("Generated"), s.GeneratedAt.Format(time.RFC3339))

	f.section(&b, "Media")
	title := s.Media.Title
	if title == "" {
		title = f.t("N/A")
	}
	f.row(&b, "Title", title)
	f.row(&b, "URL", s.Media.URL)
	f.row(&b, "Engine", s.Media.Engine)
	f.row(&b, "Frame Size", fmt.Sprintf("%dx%d", s.Media.Width, s.Media.Height))
	if s.Media.Length > 0 {
		f.row(&b, "Length", formatDuration(s.Media.Length))
	} else {
		f.row(&b, "Length", f.t("Unknown"))
	}
	if s.Media.FPS > 0 {
		f.row(&b, "Frame Rate", fmt.Sprintf("%.2f fps", s.Media.FPS))
	}
	b.WriteString("\n")

	f.section(&b, "Session")
	f.row(&b, "Session ID", s.Session.ID)
	f.row(&b, "End Reason", f.t(s.Session.EndReason))
	f.row(&b, "Final State", f.t(s.Session.FinalState))
	f.row(&b, "Elapsed", formatDuration(s.Session.Elapsed))
	b.WriteString("\n")

	f.section(&b, "Frame Queue")
	f.row(&b, "Slots", fmt.Sprintf("%d x %s", s.Queue.Capacity, formatBytes(int64(s.Queue.FrameBytes))))
	f.row(&b, "Allocator", s.Queue.Allocator)
	f.row(&b, "Published", fmt.Sprintf("%d", s.Queue.Published))
	f.row(&b, "Consumed", fmt.Sprintf("%d", s.Queue.Consumed))
	f.row(&b, "Resets", fmt.Sprintf("%d", s.Queue.Resets))
	b.WriteString("\n")

	f.section(&b, "Display")
	f.row(&b, "Mode", s.Playback.Mode)
	f.row(&b, "Frames", fmt.Sprintf("%d", s.Playback.Frames))
	f.row(&b, "Display Rate", fmt.Sprintf("%.2f fps", s.DisplayFPS()))
	if s.Playback.Mode == "poll" {
		f.row(&b, "Empty Ticks", fmt.Sprintf("%d", s.Playback.EmptyTicks))
	}
	if s.Playback.SinkErrors > 0 {
		f.row(&b, "Sink Errors", fmt.Sprintf("%d", s.Playback.SinkErrors))
	}
	b.WriteString("\n")

	f.section(&b, "Output")
	f.row(&b, "Sink", s.Output.Sink)
	if s.Output.Path != "" {
		f.row(&b, "Path", s.Output.Path)
	}
	if len(s.Output.Files) > 0 {
		f.row(&b, "Files", fmt.Sprintf("%d", len(s.Output.Files)))
	}

	return b.String()
}

func (f *MarkdownFormatter) section(b *strings.Builder, name string) {
	fmt.Fprintf(b, "## %s\n\n", f.t(name))
	fmt.Fprintf(b, "| %s | %s |\n|---|---|\n", f.t("Item"), f.t("Value"))
}

func (f *MarkdownFormatter) row(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", f.t(label), strings.ReplaceAll(value, "|", `\|`))
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%d ms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2f s", d.Seconds())
}

func formatBytes(n int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case n >= mb:
		return fmt.Sprintf("%.2f MB", float64(n)/mb)
	case n >= kb:
		return fmt.Sprintf("%.2f KB", float64(n)/kb)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// Package report renders a flattened media overlay timeline as a Markdown
// table, optionally converted to HTML.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dgallion1/smilq/internal/overlay"
	"github.com/dgallion1/smilq/internal/timeline"
)

// Options controls what the report includes.
type Options struct {
	Title       string
	IncludeText bool // add a column with the fragment text
}

var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown
)

func renderer() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdown
}

// Markdown writes the timeline report as GitHub-flavored Markdown.
func Markdown(w io.Writer, tl *timeline.Timeline, opts Options) error {
	var b strings.Builder

	title := opts.Title
	if title == "" {
		title = tl.SpineItemID
	}
	fmt.Fprintf(&b, "# %s\n\n", escapeInline(title))

	audible := 0
	for _, e := range tl.Entries {
		if e.Qualifies && e.DurationMs() > 0 {
			audible++
		}
	}
	fmt.Fprintf(&b, "- Spine item: `%s`\n", tl.SpineItemID)
	fmt.Fprintf(&b, "- Duration: %s\n", FormatClock(tl.DurationMs))
	fmt.Fprintf(&b, "- Pars: %d (%d audible)\n", len(tl.Entries), audible)
	if wpm := tl.WordsPerMinute(); wpm > 0 {
		fmt.Fprintf(&b, "- Narration rate: %.0f words/min\n", wpm)
	}
	b.WriteString("\n")

	if len(tl.Entries) == 0 {
		b.WriteString("_No pars._\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString("| # | Par | Begin | End | Text | Audio | Flags |")
	if opts.IncludeText {
		b.WriteString(" Content |")
	}
	b.WriteString("\n|---|---|---|---|---|---|---|")
	if opts.IncludeText {
		b.WriteString("---|")
	}
	b.WriteString("\n")

	for _, e := range tl.Entries {
		textRef := e.TextSrc
		if e.Fragment != "" {
			textRef += "#" + e.Fragment
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s |",
			e.Ordinal,
			cell(e.XMLID),
			FormatClock(e.BeginMs),
			FormatClock(e.EndMs),
			cell(textRef),
			cell(audioCell(e)),
			cell(flags(e)),
		)
		if opts.IncludeText {
			fmt.Fprintf(&b, " %s |", cell(e.Text))
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// HTML writes the report rendered to an HTML fragment.
func HTML(w io.Writer, tl *timeline.Timeline, opts Options) error {
	var md bytes.Buffer
	if err := Markdown(&md, tl, opts); err != nil {
		return err
	}
	if err := renderer().Convert(md.Bytes(), w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// FormatClock formats milliseconds as h:mm:ss.mmm.
func FormatClock(ms float64) string {
	if ms < 0 {
		ms = 0
	}
	total := int64(ms + 0.5)
	h := total / 3600000
	m := total / 60000 % 60
	s := total / 1000 % 60
	frac := total % 1000
	return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, frac)
}

func audioCell(e timeline.Entry) string {
	if e.Synthetic {
		return "(synthetic)"
	}
	end := "end"
	if e.ClipEnd < overlay.ClipEndOpen {
		end = fmt.Sprintf("%gs", e.ClipEnd)
	}
	return fmt.Sprintf("%s %gs-%s", e.AudioSrc, e.ClipBegin, end)
}

func flags(e timeline.Entry) string {
	var out []string
	if !e.Qualifies {
		out = append(out, "excluded")
	}
	if e.Escapable {
		out = append(out, "escapable")
	}
	if e.Skippable {
		out = append(out, "skippable")
	}
	return strings.Join(out, ", ")
}

func cell(s string) string {
	if s == "" {
		return " "
	}
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func escapeInline(s string) string {
	return strings.NewReplacer("*", `\*`, "_", `\_`, "`", "\\`").Replace(s)
}

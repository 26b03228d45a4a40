package cmd

import (
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/youxinddd/dappctl/codec"
	"github.com/youxinddd/dappctl/contracts"
	"github.com/youxinddd/dappctl/events"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Faint(true)
)

func heading(w io.Writer, format string, a ...any) {
	fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf(format, a...)))
}

func field(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "  %s %v\n", labelStyle.Render(label+":"), value)
}

// formatRecord renders a decoded event on one line, arguments in ABI order.
func formatRecord(r events.Record) string {
	fields := r.Fields()
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Name, f.Value)
	}
	return fmt.Sprintf("[block %d] %s {%s}", r.Block, r.Event, strings.Join(parts, ", "))
}

func printRecords(w io.Writer, records []events.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No events found")
		return
	}
	for _, r := range records {
		fmt.Fprintln(w, formatRecord(r))
	}
	fmt.Fprintf(w, "%d events\n", len(records))
}

func formatTimestamp(ts *big.Int) string {
	if ts == nil || !ts.IsInt64() || ts.Sign() <= 0 {
		return contracts.FormatValue(ts)
	}
	return time.Unix(ts.Int64(), 0).UTC().Format(time.RFC3339)
}

func printPosts(w io.Writer, posts []contracts.Post, decode bool) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "No posts")
		return
	}
	for _, p := range posts {
		heading(w, "Post #%s: %s", p.Id, p.Title)
		field(w, "Author", p.Author.Hex())
		field(w, "Time", formatTimestamp(p.Timestamp))
		if p.ImageUrl != "" {
			field(w, "Image", p.ImageUrl)
		}
		content := p.Content
		if decode {
			content = codec.DecodeOrRaw(content)
		}
		field(w, "Content", content)
	}
}

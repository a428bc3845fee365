package parser

import (
	"regexp"
	"strings"
)

// urlSpanPatterns are applied in order, each one only to text left unmasked
// by the patterns before it. Markdown links go first so a '#' inside a link
// label stays part of the link.
var urlSpanPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[.*?\]\([^)]*\)`),
	regexp.MustCompile(`<[^>]*>`),
	regexp.MustCompile(`(?i)https?://[^\s\]]+`),
	regexp.MustCompile(`(?i)www\.[^\s\]]+`),
}

// Span is one piece of a masked body.
type Span struct {
	Text   string
	Masked bool
}

// Masked is a body split into plain and URL-like spans. Joining the spans in
// order reproduces the input byte for byte, so duplicate URLs never collide.
type Masked []Span

// Mask splits body into spans, flagging every URL-like span as masked.
func Mask(body string) Masked {
	spans := Masked{{Text: body}}
	for _, re := range urlSpanPatterns {
		next := make(Masked, 0, len(spans))
		for _, s := range spans {
			if s.Masked {
				next = append(next, s)
				continue
			}
			last := 0
			for _, loc := range re.FindAllStringIndex(s.Text, -1) {
				if loc[0] > last {
					next = append(next, Span{Text: s.Text[last:loc[0]]})
				}
				next = append(next, Span{Text: s.Text[loc[0]:loc[1]], Masked: true})
				last = loc[1]
			}
			if last < len(s.Text) {
				next = append(next, Span{Text: s.Text[last:]})
			}
		}
		spans = next
	}
	return spans
}

// String restores the masked spans and returns the full text.
func (m Masked) String() string {
	var b strings.Builder
	for _, s := range m {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Plain returns the unmasked spans in document order.
func (m Masked) Plain() []string {
	out := make([]string, 0, len(m))
	for _, s := range m {
		if !s.Masked {
			out = append(out, s.Text)
		}
	}
	return out
}

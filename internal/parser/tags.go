package parser

import (
	"regexp"
	"sort"
	"strings"
)

const tagWord = `[\p{L}\p{N}_]+`

var (
	tagRe         = regexp.MustCompile(`#(` + tagWord + `(?:-` + tagWord + `)*)`)
	stripRe       = regexp.MustCompile(`#` + tagWord + `(?:-` + tagWord + `)*\s*`)
	categoryTagRe = regexp.MustCompile(`(?i)#cat-(` + tagWord + `)`)
	priorityTagRe = regexp.MustCompile(`(?i)#p(\d+)`)
	priorityRe    = regexp.MustCompile(`^p\d+$`)
	multiSpaceRe  = regexp.MustCompile(` {2,}`)
)

// ExtractSubcategory returns the first #cat-<word> value, lower-cased.
func ExtractSubcategory(body string) string {
	return firstMatch(body, categoryTagRe, strings.ToLower)
}

// ExtractPriority returns the digits of the first #p<digits> tag.
func ExtractPriority(body string) string {
	return firstMatch(body, priorityTagRe, nil)
}

func firstMatch(body string, re *regexp.Regexp, norm func(string) string) string {
	for _, text := range Mask(body).Plain() {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if norm != nil {
			return norm(m[1])
		}
		return m[1]
	}
	return ""
}

// ExtractRemainingTags returns every free-form #tag in body: neither a
// category nor a priority tag. The result is lower-cased, de-duplicated and
// sorted.
func ExtractRemainingTags(body string) []string {
	var tags []string
	for _, text := range Mask(body).Plain() {
		for _, m := range tagRe.FindAllStringSubmatch(text, -1) {
			t := strings.ToLower(m[1])
			if strings.HasPrefix(t, "cat-") || priorityRe.MatchString(t) {
				continue
			}
			tags = append(tags, t)
		}
	}
	return MergeTags(tags)
}

// MergeTags unions the given lists: lower-cased, de-duplicated, sorted.
// Blank entries are dropped. The result is never nil.
func MergeTags(lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, list := range lists {
		for _, t := range list {
			t = strings.ToLower(strings.TrimSpace(t))
			if t == "" {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// StripTags removes every inline #tag outside URL-like spans, except tags
// that look like URL artifacts: those are never promoted into frontmatter
// and stay in the text. Horizontal whitespace after a removed tag collapses
// into one space, runs of spaces shrink to one (leading indentation aside)
// and spaces before a newline are dropped. A line holding only tags is
// dropped. Masked spans come back unchanged.
func StripTags(body string) string {
	m := Mask(body)
	for i := range m {
		if m[i].Masked {
			continue
		}
		atLineStart := i == 0 || strings.HasSuffix(m[i-1].Text, "\n")
		m[i].Text = collapseSpaces(stripSpan(m[i].Text, atLineStart), atLineStart)
	}
	return m.String()
}

func stripSpan(text string, atLineStart bool) string {
	var b strings.Builder
	last := 0
	for _, loc := range stripRe.FindAllStringIndex(text, -1) {
		b.WriteString(text[last:loc[0]])
		last = loc[1]
		match := text[loc[0]:loc[1]]
		name := strings.TrimRightFunc(match[1:], isSpace)
		if keptInBody(name) {
			b.WriteString(match)
			continue
		}
		ws := match[1+len(name):]
		atStart := onlyIndentSinceBreak(b.String(), atLineStart)
		if atStart && strings.Contains(ws, "\n") {
			// the tag line goes away, indentation included
			cur := strings.TrimRight(b.String(), " \t")
			b.Reset()
			b.WriteString(cur)
		}
		b.WriteString(tagReplacement(ws, atStart))
	}
	b.WriteString(text[last:])
	return b.String()
}

// onlyIndentSinceBreak reports whether out ends at the start of a line,
// ignoring indentation.
func onlyIndentSinceBreak(out string, atLineStart bool) bool {
	i := strings.LastIndex(out, "\n")
	if i < 0 && !atLineStart {
		return false
	}
	return strings.TrimLeft(out[i+1:], " \t") == ""
}

// keptInBody reports whether a tag is left in place by StripTags.
func keptInBody(name string) bool {
	t := strings.ToLower(name)
	if strings.HasPrefix(t, "cat-") || priorityRe.MatchString(t) {
		return false
	}
	return IsURLArtifact(t)
}

// tagReplacement is what replaces the whitespace ws that followed a removed
// tag. Line breaks survive, as does the indentation of the next line. A tag
// at the start of a line takes its own line break with it.
func tagReplacement(ws string, atStart bool) string {
	if ws == "" {
		return ""
	}
	nl := strings.LastIndex(ws, "\n")
	if nl < 0 {
		if atStart {
			return ""
		}
		return " "
	}
	var b strings.Builder
	for _, r := range ws[:nl+1] {
		if r == '\n' || r == '\r' {
			b.WriteRune(r)
		}
	}
	breaks := b.String()
	if atStart {
		breaks = breaks[strings.Index(breaks, "\n")+1:]
	}
	return breaks + ws[nl+1:]
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func collapseSpaces(text string, atLineStart bool) string {
	lines := strings.Split(text, "\n")
	last := len(lines) - 1
	for i, line := range lines {
		indent := ""
		if i > 0 || atLineStart {
			rest := strings.TrimLeft(line, " ")
			if rest != "" || i == last {
				indent = line[:len(line)-len(rest)]
			}
			line = rest
		}
		line = multiSpaceRe.ReplaceAllString(line, " ")
		if i < last {
			line = strings.TrimRight(line, " ")
		}
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}

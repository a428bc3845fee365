// Package parser handles the fixed-schema frontmatter block and inline
// #tags of PARA notes.
//
// The block is not general YAML: it is scanned line by line against a
// closed set of keys, so rendering is deterministic and Reorder is stable.
package parser

import (
	"regexp"
	"strings"
)

// Delimiter is the line that opens and closes the frontmatter block.
const Delimiter = "---"

// Canonical keys.
const (
	KeyCreated     = "created"
	KeyPara        = "para"
	KeyCategory    = "category"
	KeySubcategory = "subcategory"
	KeyPriority    = "priority"
	KeyTags        = "tags"
	KeyArchived    = "archived"
)

// CanonicalKeys lists the known keys in canonical order.
var CanonicalKeys = []string{
	KeyCreated, KeyPara, KeyCategory, KeySubcategory, KeyPriority, KeyTags, KeyArchived,
}

var legacyKeys = map[string]struct{}{
	"project":  {},
	"resource": {},
	"area":     {},
}

var keyLineRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_-]*):(.*)$`)

// HasFrontmatter reports whether content starts, after leading whitespace,
// with the block delimiter.
func HasFrontmatter(content string) bool {
	return strings.HasPrefix(strings.TrimLeft(content, " \t\r\n"), Delimiter)
}

// SplitFrontmatter separates the block from the body. The opening delimiter
// line must be the first line; ok is false when it is not or when no
// closing delimiter line follows.
func SplitFrontmatter(content string) (fm, body string, ok bool) {
	first, rest, found := strings.Cut(content, "\n")
	if !found || !isDelimiter(first) {
		return "", "", false
	}
	var lines []string
	for rest != "" {
		line, after, _ := strings.Cut(rest, "\n")
		if isDelimiter(line) {
			return strings.Join(lines, "\n"), after, true
		}
		lines = append(lines, line)
		rest = after
	}
	return "", "", false
}

func isDelimiter(line string) bool {
	return strings.TrimRight(line, "\r") == Delimiter
}

// CleanAndMigrate deletes the legacy project, resource and area keys (with
// any indented lines belonging to them). A meaningful area value is
// returned lower-cased as the subcategory migration candidate.
func CleanAndMigrate(fm string) (cleaned, migrated string) {
	var kept []string
	dropping := false
	for _, line := range strings.Split(fm, "\n") {
		key, value, isKey := splitKeyLine(line)
		if isKey {
			_, dropping = legacyKeys[key]
			if key == "area" && migrated == "" {
				migrated = migrationValue(value)
			}
		}
		if dropping {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n"), migrated
}

func migrationValue(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "", "none", "null":
		return ""
	}
	return v
}

// Reorder re-emits the known keys of fm in canonical order, discarding
// unknown keys and keys that were never present. Reorder is stable:
// Reorder(Reorder(x)) == Reorder(x).
func Reorder(fm string) string {
	return ParseFrontmatter(fm).String()
}

// Frontmatter is the parsed form of a frontmatter block, restricted to the
// canonical keys. The zero value is an empty block.
type Frontmatter struct {
	order  []string
	values map[string]string
	tags   []string
}

// ParseFrontmatter scans fm line by line. The first occurrence of a key
// wins; lines that start with whitespace or '-' belong to the key above
// them. tags accepts a block of "- item" lines or an inline "[a, b]" list.
func ParseFrontmatter(fm string) *Frontmatter {
	f := &Frontmatter{}
	current := ""
	for _, line := range strings.Split(fm, "\n") {
		key, value, isKey := splitKeyLine(line)
		if isKey {
			current = ""
			if !isCanonical(key) || f.Has(key) {
				continue
			}
			current = key
			if key == KeyTags {
				f.SetTags(parseInlineList(value))
			} else {
				f.Set(key, value)
			}
			continue
		}
		if current != KeyTags {
			continue
		}
		if item, ok := listItem(line); ok {
			f.tags = append(f.tags, item)
		}
	}
	return f
}

func splitKeyLine(line string) (key, value string, ok bool) {
	m := keyLineRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimSpace(m[2]), true
}

func isCanonical(key string) bool {
	for _, k := range CanonicalKeys {
		if k == key {
			return true
		}
	}
	return false
}

func listItem(line string) (string, bool) {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, "-") {
		return "", false
	}
	item := unquote(strings.TrimSpace(t[1:]))
	return item, item != ""
}

func parseInlineList(v string) []string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "[")
	v = strings.TrimSuffix(v, "]")
	var out []string
	for _, part := range strings.Split(v, ",") {
		if item := unquote(strings.TrimSpace(part)); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// Has reports whether key is present, even with an empty value.
func (f *Frontmatter) Has(key string) bool {
	_, ok := f.values[key]
	return ok
}

// Get returns the scalar value of key.
func (f *Frontmatter) Get(key string) string {
	return f.values[key]
}

// Set stores a scalar value, adding key if absent.
func (f *Frontmatter) Set(key, value string) {
	if f.values == nil {
		f.values = make(map[string]string)
	}
	if _, ok := f.values[key]; !ok {
		f.order = append(f.order, key)
	}
	f.values[key] = strings.TrimSpace(value)
}

// Tags returns the tag list.
func (f *Frontmatter) Tags() []string {
	return f.tags
}

// SetTags replaces the tag list, adding the tags key if absent.
func (f *Frontmatter) SetTags(tags []string) {
	f.Set(KeyTags, "")
	f.tags = append([]string(nil), tags...)
}

// Keys returns the present keys in document order.
func (f *Frontmatter) Keys() []string {
	return append([]string(nil), f.order...)
}

// Missing returns the canonical keys that are absent, in canonical order.
func (f *Frontmatter) Missing() []string {
	var out []string
	for _, k := range CanonicalKeys {
		if !f.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// InCanonicalOrder reports whether the present keys already appear in
// canonical relative order.
func (f *Frontmatter) InCanonicalOrder() bool {
	want := make([]string, 0, len(f.order))
	for _, k := range CanonicalKeys {
		if f.Has(k) {
			want = append(want, k)
		}
	}
	for i, k := range f.order {
		if want[i] != k {
			return false
		}
	}
	return true
}

// String renders the present keys in canonical order without delimiters.
// Empty values render as a bare "key:" line.
func (f *Frontmatter) String() string {
	var lines []string
	for _, k := range CanonicalKeys {
		if !f.Has(k) {
			continue
		}
		if k == KeyTags {
			lines = append(lines, renderTags(f.tags)...)
			continue
		}
		if v := f.values[k]; v != "" {
			lines = append(lines, k+": "+v)
		} else {
			lines = append(lines, k+":")
		}
	}
	return strings.Join(lines, "\n")
}

func renderTags(tags []string) []string {
	lines := []string{KeyTags + ":"}
	for _, t := range tags {
		lines = append(lines, "  - "+t)
	}
	return lines
}

// Fields holds the values of a complete canonical block.
type Fields struct {
	Created     string
	Para        string
	Category    string
	Subcategory string
	Priority    string
	Tags        []string
	Archived    bool
}

// Render builds the canonical text of a block carrying every key.
func Render(v Fields) string {
	f := &Frontmatter{}
	f.Set(KeyCreated, v.Created)
	f.Set(KeyPara, v.Para)
	f.Set(KeyCategory, v.Category)
	f.Set(KeySubcategory, v.Subcategory)
	f.Set(KeyPriority, v.Priority)
	f.SetTags(v.Tags)
	f.Set(KeyArchived, FormatBool(v.Archived))
	return f.String()
}

// FormatBool renders the archived flag.
func FormatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Wrap joins a rendered block and a body into note content.
func Wrap(fm, body string) string {
	return Delimiter + "\n" + fm + "\n" + Delimiter + "\n" + body
}

// Package reconcile decides what frontmatter a note should carry and
// rewrites it into canonical form.
package reconcile

import (
	"fmt"

	"github.com/starford/parasync/internal/apperr"
	"github.com/starford/parasync/internal/parser"
	"github.com/starford/parasync/internal/taxonomy"
)

// DefaultCreatedTemplate is written into a missing created key; Obsidian's
// Templater plugin expands it on the next open.
const DefaultCreatedTemplate = "<% tp.file.creation_date() %>"

// Engine reconciles note content. It holds no per-file state and is safe
// to reuse across files.
type Engine struct {
	createdTemplate string
}

// Option configures an Engine.
type Option func(*Engine)

// WithCreatedTemplate sets the value written into a missing created key.
func WithCreatedTemplate(tmpl string) Option {
	return func(e *Engine) {
		e.createdTemplate = tmpl
	}
}

// New returns an Engine with the given options applied.
func New(opts ...Option) *Engine {
	e := &Engine{createdTemplate: DefaultCreatedTemplate}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of reconciling one note.
type Result struct {
	Content     string
	Changed     bool
	Placement   taxonomy.Placement
	Frontmatter *parser.Frontmatter
}

// Reconcile returns the canonical content for a note at notePath (relative
// to the vault root). The same content and path always yield the same
// result, and reconciling a result again changes nothing.
func (e *Engine) Reconcile(content, notePath string) (Result, error) {
	placement := taxonomy.Classify(taxonomy.Segments(notePath))
	if !parser.HasFrontmatter(content) {
		return e.create(content, placement), nil
	}
	return e.update(content, placement)
}

// create handles a note without frontmatter.
func (e *Engine) create(content string, placement taxonomy.Placement) Result {
	fields := parser.Fields{
		Created:     e.createdTemplate,
		Para:        string(placement.Para),
		Category:    placement.Category,
		Subcategory: parser.ExtractSubcategory(content),
		Priority:    parser.ExtractPriority(content),
		Tags:        parser.CleanURLTags(parser.ExtractRemainingTags(content)),
		Archived:    placement.Archived,
	}
	fm := parser.Render(fields)
	return Result{
		Content:     parser.Wrap(fm, "\n"+parser.StripTags(content)),
		Changed:     true,
		Placement:   placement,
		Frontmatter: parser.ParseFrontmatter(fm),
	}
}

// update handles a note that already has frontmatter.
func (e *Engine) update(content string, placement taxonomy.Placement) (Result, error) {
	raw, body, ok := parser.SplitFrontmatter(content)
	if !ok {
		return Result{}, apperr.ErrMalformedFrontmatter
	}

	cleaned, migrated := parser.CleanAndMigrate(raw)
	hadLegacyKeys := cleaned != raw

	fm := parser.ParseFrontmatter(cleaned)
	missing := fm.Missing()
	needsReorder := !fm.InCanonicalOrder()

	existingTags := fm.Tags()
	keptTags := parser.CleanURLTags(existingTags)
	bodyTags := parser.CleanURLTags(parser.ExtractRemainingTags(body))
	needsTagUpdate := fm.Has(parser.KeyTags) &&
		(len(bodyTags) > 0 || len(keptTags) != len(existingTags))

	if len(missing) == 0 && !needsTagUpdate && !hadLegacyKeys && !needsReorder {
		return Result{
			Content:     content,
			Placement:   placement,
			Frontmatter: fm,
		}, nil
	}

	merged := parser.CleanURLTags(parser.MergeTags(keptTags, bodyTags))
	if needsTagUpdate {
		fm.SetTags(merged)
	}

	subcategory := parser.ExtractSubcategory(body)
	if subcategory == "" {
		subcategory = migrated
	}
	if migrated != "" && fm.Has(parser.KeySubcategory) && fm.Get(parser.KeySubcategory) == "" {
		fm.Set(parser.KeySubcategory, migrated)
	}

	stripBody := needsTagUpdate
	for _, key := range missing {
		switch key {
		case parser.KeyCreated:
			fm.Set(key, e.createdTemplate)
		case parser.KeyPara:
			fm.Set(key, string(placement.Para))
		case parser.KeyCategory:
			fm.Set(key, placement.Category)
		case parser.KeySubcategory:
			fm.Set(key, subcategory)
			stripBody = true
		case parser.KeyPriority:
			fm.Set(key, parser.ExtractPriority(body))
			stripBody = true
		case parser.KeyTags:
			fm.SetTags(merged)
			stripBody = true
		case parser.KeyArchived:
			fm.Set(key, parser.FormatBool(placement.Archived))
		default:
			return Result{}, fmt.Errorf("reconcile: unhandled key %q", key)
		}
	}

	if stripBody {
		body = parser.StripTags(body)
	}

	// Round-trip through Reorder so the output is canonical whichever
	// branch fired.
	out := parser.Reorder(fm.String())
	next := parser.Wrap(out, body)
	return Result{
		Content:     next,
		Changed:     next != content,
		Placement:   placement,
		Frontmatter: parser.ParseFrontmatter(out),
	}, nil
}

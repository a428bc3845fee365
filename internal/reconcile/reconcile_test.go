package reconcile

import (
	"errors"
	"reflect"
	"testing"

	"github.com/starford/parasync/internal/apperr"
	"github.com/starford/parasync/internal/parser"
)

const canonical = "---\ncreated: 2024-01-01\npara: area\ncategory: family\nsubcategory: kids\npriority: 1\ntags:\n  - school\narchived: false\n---\nBody text\n"

func TestReconcileCreatesFrontmatter(t *testing.T) {
	e := New()
	res, err := e.Reconcile("Some text #cat-Family #p2 #Go\n", "02 - Areas/Family/note.md")
	if err != nil {
		t.Fatal(err)
	}
	want := "---\n" +
		"created: <% tp.file.creation_date() %>\n" +
		"para: area\n" +
		"category: family\n" +
		"subcategory: family\n" +
		"priority: 2\n" +
		"tags:\n  - go\n" +
		"archived: false\n" +
		"---\n\nSome text\n"
	if res.Content != want {
		t.Fatalf("content:\n%s\nwant:\n%s", res.Content, want)
	}
	if !res.Changed {
		t.Error("expected Changed")
	}
	if got := res.Frontmatter.Get(parser.KeyCategory); got != "family" {
		t.Errorf("category = %q", got)
	}
}

func TestReconcileMeetingNote(t *testing.T) {
	res, err := New().Reconcile("Meeting notes #cat-work #p2 #followup https://x.com/#cat-fake", "02 - Areas/Family/note.md")
	if err != nil {
		t.Fatal(err)
	}
	want := "---\n" +
		"created: <% tp.file.creation_date() %>\n" +
		"para: area\n" +
		"category: family\n" +
		"subcategory: work\n" +
		"priority: 2\n" +
		"tags:\n  - followup\n" +
		"archived: false\n" +
		"---\n\nMeeting notes https://x.com/#cat-fake"
	if res.Content != want {
		t.Fatalf("content:\n%q\nwant:\n%q", res.Content, want)
	}
}

func TestReconcileKeepsURLArtifactTagsInBody(t *testing.T) {
	e := New()
	res, err := e.Reconcile("commit #deadbeef12 and #real\n", "02 - Areas/Code/n.md")
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Frontmatter.Tags(); !reflect.DeepEqual(got, []string{"real"}) {
		t.Errorf("tags = %v", got)
	}
	_, body, _ := parser.SplitFrontmatter(res.Content)
	if body != "\ncommit #deadbeef12 and\n" {
		t.Errorf("body = %q", body)
	}
	again, err := e.Reconcile(res.Content, "02 - Areas/Code/n.md")
	if err != nil {
		t.Fatal(err)
	}
	if again.Changed {
		t.Errorf("second pass changed:\n%s", again.Content)
	}
}

func TestReconcileCreatedTemplateOption(t *testing.T) {
	e := New(WithCreatedTemplate("{{date}}"))
	res, err := e.Reconcile("text", "note.md")
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Frontmatter.Get(parser.KeyCreated); got != "{{date}}" {
		t.Errorf("created = %q", got)
	}
}

func TestReconcileCanonicalIsNoOp(t *testing.T) {
	res, err := New().Reconcile(canonical, "02 - Areas/Family/note.md")
	if err != nil {
		t.Fatal(err)
	}
	if res.Changed || res.Content != canonical {
		t.Errorf("canonical note changed:\n%s", res.Content)
	}
}

func TestReconcileMigratesLegacyKeys(t *testing.T) {
	in := "---\narea: Family\ntitle: kept out\n---\nBody #cat-Home\n"
	res, err := New().Reconcile(in, "03 - Resources/Cooking/r.md")
	if err != nil {
		t.Fatal(err)
	}
	want := "---\n" +
		"created: <% tp.file.creation_date() %>\n" +
		"para: resource\n" +
		"category: cooking\n" +
		"subcategory: home\n" +
		"priority:\n" +
		"tags:\n" +
		"archived: false\n" +
		"---\nBody\n"
	if res.Content != want {
		t.Fatalf("content:\n%s\nwant:\n%s", res.Content, want)
	}
}

func TestReconcileMigratedAreaFillsSubcategory(t *testing.T) {
	in := "---\nsubcategory:\narea: Garden\n---\nBody\n"
	res, err := New().Reconcile(in, "02 - Areas/Home/n.md")
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Frontmatter.Get(parser.KeySubcategory); got != "garden" {
		t.Errorf("subcategory = %q, want garden", got)
	}
}

func TestReconcileReordersOnly(t *testing.T) {
	in := "---\npara: area\ncreated: x\ncategory: c\nsubcategory: s\npriority: 1\ntags:\n  - a\narchived: false\n---\nbody\n"
	want := "---\ncreated: x\npara: area\ncategory: c\nsubcategory: s\npriority: 1\ntags:\n  - a\narchived: false\n---\nbody\n"
	res, err := New().Reconcile(in, "02 - Areas/c/n.md")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Changed || res.Content != want {
		t.Errorf("content:\n%s\nwant:\n%s", res.Content, want)
	}
}

func TestReconcileMergesBodyTags(t *testing.T) {
	in := "---\ncreated: x\npara: area\ncategory: c\nsubcategory:\npriority:\ntags:\n  - b\n  - utm_source\narchived: false\n---\nText #a #B\n"
	res, err := New().Reconcile(in, "02 - Areas/c/n.md")
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Frontmatter.Tags(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("tags = %v", got)
	}
	_, body, _ := parser.SplitFrontmatter(res.Content)
	if body != "Text\n" {
		t.Errorf("body = %q", body)
	}
}

func TestReconcileExistingFieldsWin(t *testing.T) {
	in := "---\npara: resource\n---\nbody #cat-x\n"
	res, err := New().Reconcile(in, "02 - Areas/Family/n.md")
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Frontmatter.Get(parser.KeyPara); got != "resource" {
		t.Errorf("para overwritten: %q", got)
	}
	if got := res.Frontmatter.Get(parser.KeyCategory); got != "family" {
		t.Errorf("category = %q", got)
	}
	if got := res.Frontmatter.Get(parser.KeySubcategory); got != "x" {
		t.Errorf("subcategory = %q", got)
	}
}

func TestReconcileMalformed(t *testing.T) {
	_, err := New().Reconcile("---\npara: area\nnever closed\n", "n.md")
	if !errors.Is(err, apperr.ErrMalformedFrontmatter) {
		t.Errorf("err = %v, want ErrMalformedFrontmatter", err)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	inputs := []struct{ content, path string }{
		{"plain note", "note.md"},
		{"Some text #cat-Family #p2 #Go\n  - item #x\n", "02 - Areas/Family/note.md"},
		{"link [#x](http://a.b/#c) and https://d.e/#f #real\n", "03 - Resources/Web/clip.md"},
		{"---\narea: Family\nproject:\n  - a\n---\nBody #cat-Home #p3\n", "01 - Projects/Site/x.md"},
		{"---\ntags: [b, A]\npara: area\n---\ntext #c\n", "02 - Areas/x.md"},
		{"---\n---\nempty block #t\n", "04 - Archive/old/x.md"},
		{"#solo\n\nParagraph #two", "05 - Journal/2024/d.md"},
		{canonical, "02 - Areas/Family/note.md"},
	}
	e := New()
	for _, in := range inputs {
		first, err := e.Reconcile(in.content, in.path)
		if err != nil {
			t.Fatalf("%q: %v", in.content, err)
		}
		second, err := e.Reconcile(first.Content, in.path)
		if err != nil {
			t.Fatalf("%q second pass: %v", in.content, err)
		}
		if second.Changed || second.Content != first.Content {
			t.Errorf("not idempotent for %q:\nfirst:\n%s\nsecond:\n%s", in.content, first.Content, second.Content)
		}
	}
}

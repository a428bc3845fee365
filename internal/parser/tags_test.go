package parser

import (
	"reflect"
	"testing"
)

func TestExtractSubcategory(t *testing.T) {
	if got := ExtractSubcategory("notes #cat-Family and #cat-work"); got != "family" {
		t.Errorf("got %q, want family", got)
	}
	if got := ExtractSubcategory("no tags"); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestExtractPriority(t *testing.T) {
	if got := ExtractPriority("#p2 then #p5"); got != "2" {
		t.Errorf("got %q, want 2", got)
	}
	if got := ExtractPriority("see https://x.io/#p1 only"); got != "" {
		t.Errorf("priority inside URL extracted: %q", got)
	}
}

func TestExtractRemainingTags(t *testing.T) {
	got := ExtractRemainingTags("#Go and #go, #cat-home #p1 #multi-word #ünicode")
	want := []string{"go", "multi-word", "ünicode"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTagsInsideURLsArePreserved(t *testing.T) {
	body := "See https://example.com/page#section and [#label](http://a.b/#frag) <https://c.d/#e> www.x.org/#y #real"
	if got := ExtractRemainingTags(body); !reflect.DeepEqual(got, []string{"real"}) {
		t.Errorf("tags = %v, want [real]", got)
	}
	want := "See https://example.com/page#section and [#label](http://a.b/#frag) <https://c.d/#e> www.x.org/#y "
	if got := StripTags(body); got != want {
		t.Errorf("StripTags:\n%q\nwant:\n%q", got, want)
	}
}

func TestStripTagsKeepsLines(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Line one #a\nLine two #b #c\n", "Line one\nLine two\n"},
		{"  - item #x\n", "  - item\n"},
		{"#solo\n\nParagraph", "\nParagraph"},
		{"word #tag word", "word word"},
		{"#a#b c", "c"},
		{"#a #b\nnext", "next"},
		{"text\n#tag\nmore", "text\nmore"},
		{"Line one #a\n  - item", "Line one\n  - item"},
		{"  #lead rest", "  rest"},
		{"a\n  #only\nb", "a\nb"},
		{"hash #deadbeef12 and #real here", "hash #deadbeef12 and here"},
		{"#utm_source only", "#utm_source only"},
		{"no tags here\n", "no tags here\n"},
	}
	for _, c := range cases {
		if got := StripTags(c.in); got != c.want {
			t.Errorf("StripTags(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMaskRoundTrip(t *testing.T) {
	body := "a https://x.y/#1 b https://x.y/#1 c"
	m := Mask(body)
	if m.String() != body {
		t.Errorf("round trip = %q", m.String())
	}
	if got := m.Plain(); !reflect.DeepEqual(got, []string{"a ", " b ", " c"}) {
		t.Errorf("plain = %q", got)
	}
}

func TestMergeTags(t *testing.T) {
	got := MergeTags([]string{"B", "a"}, []string{"b", " ", "c"})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("got %v", got)
	}
	if MergeTags() == nil {
		t.Error("MergeTags should never return nil")
	}
}

func TestCleanURLTags(t *testing.T) {
	in := []string{"golang", "utm_source", "pdp-main", "post-123", "deadbeef12", "12345678", "header-wrapper", "page-section", "ref-home", "notes"}
	got := CleanURLTags(in)
	if !reflect.DeepEqual(got, []string{"golang", "notes"}) {
		t.Errorf("got %v", got)
	}
}

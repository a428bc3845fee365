// Package taxonomy maps note paths onto the PARA folder taxonomy and plans
// relocations to canonical folders.
package taxonomy

import (
	"path"
	"strings"
)

// Para is the top-level placement of a note.
type Para string

const (
	ParaNone     Para = ""
	ParaProject  Para = "project"
	ParaArea     Para = "area"
	ParaResource Para = "resource"
	ParaJournal  Para = "journal"
	ParaInbox    Para = "inbox"
)

// Root describes one taxonomy root folder. A folder is the root when its
// name contains both Marker and Keyword (case-insensitive), e.g.
// "01 - Projects".
type Root struct {
	Marker  string
	Keyword string
	Para    Para
	// Categorized roots take the next folder as the note's category.
	Categorized bool
	Archive     bool
	Journal     bool
}

// Roots are checked in this order; the first match wins.
var Roots = []Root{
	{Marker: "01", Keyword: "project", Para: ParaProject, Categorized: true},
	{Marker: "02", Keyword: "area", Para: ParaArea, Categorized: true},
	{Marker: "03", Keyword: "resource", Para: ParaResource, Categorized: true},
	{Marker: "04", Keyword: "archive", Para: ParaProject, Archive: true},
	{Marker: "05", Keyword: "journal", Para: ParaJournal, Journal: true},
	{Marker: "00", Keyword: "inbox", Para: ParaInbox},
}

// Match returns the taxonomy root named by segment, if any.
func Match(segment string) (Root, bool) {
	lower := strings.ToLower(segment)
	for _, r := range Roots {
		if strings.Contains(segment, r.Marker) && strings.Contains(lower, r.Keyword) {
			return r, true
		}
	}
	return Root{}, false
}

// Placement is the classification derived from a note's path.
type Placement struct {
	Para     Para
	Category string
	Archived bool
}

// Segments splits a slash- or OS-separated relative path into its parts.
func Segments(p string) []string {
	p = strings.ReplaceAll(p, "\\", "/")
	var out []string
	for _, s := range strings.Split(path.Clean(p), "/") {
		if s != "" && s != "." {
			out = append(out, s)
		}
	}
	return out
}

// Classify derives the placement of the file whose path is segments, the
// last segment being the filename. Only the first root decides para and
// category; the archived flag looks at every segment.
func Classify(segments []string) Placement {
	p := Placement{Archived: IsArchived(segments)}
	for i, seg := range segments {
		root, ok := Match(seg)
		if !ok {
			continue
		}
		p.Para = root.Para
		if root.Categorized && i+1 < len(segments)-1 {
			p.Category = strings.ToLower(segments[i+1])
		}
		break
	}
	return p
}

// IsArchived reports whether any segment is the archive root.
func IsArchived(segments []string) bool {
	for _, seg := range segments {
		if root, ok := Match(seg); ok && root.Archive {
			return true
		}
	}
	return false
}

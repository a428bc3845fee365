package taxonomy

import (
	"fmt"
	"path"
	"strings"
)

// PlanRelocation returns the canonical path for a note sitting in a folder
// beneath a taxonomy root: the one folder between the root and the rest of
// the path is dropped. Journal roots keep their sub-folders. ok is false
// when the note is already in place.
func PlanRelocation(segments []string) (target []string, ok bool) {
	for i, seg := range segments {
		root, matched := Match(seg)
		if !matched || root.Journal {
			continue
		}
		if i+1 >= len(segments)-1 {
			return nil, false
		}
		target = make([]string, 0, len(segments)-1)
		target = append(target, segments[:i+1]...)
		target = append(target, segments[i+2:]...)
		return target, true
	}
	return nil, false
}

// ResolveCollision returns p itself when it is free, otherwise the first of
// stem_1.ext, stem_2.ext, … for which exists reports false.
func ResolveCollision(p string, exists func(string) bool) string {
	if !exists(p) {
		return p
	}
	dir, name := path.Split(p)
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		candidate := dir + fmt.Sprintf("%s_%d%s", stem, n, ext)
		if !exists(candidate) {
			return candidate
		}
	}
}

// Join renders segments as a slash-separated relative path.
func Join(segments []string) string {
	return strings.Join(segments, "/")
}

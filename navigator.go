package mp4box

import (
	"strconv"
	"strings"

	"ktkr.us/pkg/mp4box/boxval"
)

// FindAtom resolves a dotted path (spec.md §4.7 grammar:
// segment ("." segment)*, segment := name ["[" index "]"]) to an atom
// under root, or nil if no atom along the path matches. An unmatched
// first segment is "not found, no error" per spec.
func FindAtom(root *Atom, path string) *Atom {
	segs := splitPath(path)
	if len(segs) == 0 {
		return nil
	}
	return resolveAtomPath(root, segs)
}

// FindProperty resolves a dotted path whose final segment names a
// property rather than an atom.
func FindProperty(root *Atom, path string) boxval.Property {
	segs := splitPath(path)
	if len(segs) < 2 {
		return nil
	}
	atomSegs, propName := segs[:len(segs)-1], segs[len(segs)-1].name
	a := resolveAtomPath(root, atomSegs)
	if a == nil {
		return nil
	}
	return a.Property(propName)
}

// FindAll returns every direct child of root matching typ, in order.
func FindAll(root *Atom, typ string) []*Atom {
	return root.ChildrenOfType(typ)
}

// TypePath renders a's ancestor chain as a dotted type path for the dump
// format (spec.md §6), e.g. "moov.trak.mdia.hdlr".
func TypePath(a *Atom) string {
	var parts []string
	for n := a; n != nil && n.Type != ""; n = n.Parent {
		parts = append([]string{n.Type}, parts...)
	}
	return strings.Join(parts, ".")
}

type pathSegment struct {
	name     string
	hasIndex bool
	index    int
}

func splitPath(path string) []pathSegment {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	segs := make([]pathSegment, 0, len(parts))
	for _, part := range parts {
		seg := pathSegment{name: part}
		if i := strings.IndexByte(part, '['); i >= 0 && strings.HasSuffix(part, "]") {
			idxStr := part[i+1 : len(part)-1]
			n, err := strconv.Atoi(idxStr)
			if err == nil {
				seg.name = part[:i]
				seg.hasIndex = true
				seg.index = n
			}
		}
		segs = append(segs, seg)
	}
	return segs
}

// resolveAtomPath walks segs starting from root: each segment selects a
// child of the current node by type (and, if present, by sibling index
// among same-typed children). root's own (typically empty) type is never
// matched against a segment — per spec.md §4.7, "an empty type (root)
// matches any first segment" simply means descent begins at root's
// children, not at root itself.
func resolveAtomPath(root *Atom, segs []pathSegment) *Atom {
	cur := root
	for _, seg := range segs {
		matches := cur.ChildrenOfType(normalizeType(seg.name))
		idx := 0
		if seg.hasIndex {
			idx = seg.index
		}
		if idx >= len(matches) {
			return nil
		}
		cur = matches[idx]
	}
	return cur
}

// normalizeType space-pads a short segment name to 4 characters, so path
// segments like "url" or "trak" both resolve against 4-byte atom types
// ("url " included).
func normalizeType(s string) string {
	for len(s) < 4 {
		s += " "
	}
	return s
}

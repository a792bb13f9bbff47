package compiler

import (
	"go/ast"
	"go/token"
	"strings"
	"unicode"
)

const directivePrefix = "//seeded:"

type family int

const (
	familyDerive family = iota
	familyGenerics
	familyArgs
	familySeed
)

var familyNames = [...]string{
	familyDerive:   "derive",
	familyGenerics: "generics",
	familyArgs:     "args",
	familySeed:     "seed",
}

func (f family) String() string { return familyNames[f] }

func (f family) fieldLevel() bool { return f == familySeed }

// direction selects the generated code a marker applies to.
type direction int

const (
	both direction = iota
	decode
	encode
)

func (d direction) String() string {
	switch d {
	case decode:
		return "de"
	case encode:
		return "ser"
	default:
		return "de, ser"
	}
}

// marker is one //seeded: directive.
type marker struct {
	family family
	dir    direction
	name   string // as written, e.g. "seed-de"
	pos    token.Pos

	hasPayload bool
	payload    string
	payloadPos token.Pos // position of the first byte of payload
}

func (m *marker) String() string { return directivePrefix + m.name }

func (m *marker) appliesTo(dir direction) bool {
	return m.dir == both || m.dir == dir
}

// at returns the position of the payload byte at offset, clamped to the
// payload.
func (m *marker) at(offset int) token.Pos {
	offset = max(0, min(offset, len(m.payload)))
	return m.payloadPos + token.Pos(offset)
}

// parseMarkers extracts the //seeded: directives of comment groups. Unknown
// and malformed directives are reported and left out.
func parseMarkers(diags *diagnostics, groups ...*ast.CommentGroup) (markers []*marker) {
	for _, group := range groups {
		if group == nil {
			continue
		}
		for _, c := range group.List {
			if m := parseMarker(diags, c); m != nil {
				markers = append(markers, m)
			}
		}
	}
	return markers
}

func parseMarker(diags *diagnostics, c *ast.Comment) *marker {
	rest, ok := strings.CutPrefix(c.Text, directivePrefix)
	if !ok {
		return nil
	}
	end := strings.IndexFunc(rest, func(r rune) bool {
		return r == '(' || unicode.IsSpace(r)
	})
	if end < 0 {
		end = len(rest)
	}
	m := &marker{name: rest[:end], pos: c.Slash}

	base, suffix, _ := strings.Cut(m.name, "-")
	switch suffix {
	case "":
		m.dir = both
	case "de":
		m.dir = decode
	case "ser":
		m.dir = encode
	default:
		diags.errorf(m.pos, "unknown marker %s", m)
		return nil
	}
	found := false
	for f, name := range familyNames {
		if name == base {
			m.family, found = family(f), true
		}
	}
	// derive takes its direction as payload.
	if !found || (m.family == familyDerive && suffix != "") {
		diags.errorf(m.pos, "unknown marker %s", m)
		return nil
	}

	tail := strings.TrimRightFunc(rest[end:], unicode.IsSpace)
	lead := len(tail)
	tail = strings.TrimLeftFunc(tail, unicode.IsSpace)
	lead -= len(tail)
	if tail == "" {
		return m
	}
	if tail[0] != '(' || tail[len(tail)-1] != ')' {
		diags.errorf(m.pos, "malformed marker %s: expected a parenthesized payload", m)
		return nil
	}
	m.hasPayload = true
	m.payload = tail[1 : len(tail)-1]
	m.payloadPos = c.Slash + token.Pos(len(directivePrefix)+end+lead+1)
	return m
}

// deriveDirections returns the directions a derive marker requests.
func deriveDirections(diags *diagnostics, m *marker) (de, ser bool) {
	if !m.hasPayload {
		return true, true
	}
	offset := 0
	for _, item := range strings.Split(m.payload, ",") {
		switch strings.TrimSpace(item) {
		case "de":
			de = true
		case "ser":
			ser = true
		default:
			diags.errorf(m.at(offset), "malformed marker %s: expected de or ser, found %q", m, strings.TrimSpace(item))
		}
		offset += len(item) + 1
	}
	return de, ser
}

// markerSet holds the markers of one entity, grouped by family.
type markerSet map[family][]*marker

func newMarkerSet(markers []*marker) markerSet {
	set := markerSet{}
	for _, m := range markers {
		set[m.family] = append(set[m.family], m)
	}
	return set
}

// lookup returns the marker of family f applying to dir. Repeated markers
// are reported once and the first one wins.
func (s markerSet) lookup(diags *diagnostics, f family, dir direction, entity string) *marker {
	var found []*marker
	for _, m := range s[f] {
		if m.appliesTo(dir) {
			found = append(found, m)
		}
	}
	switch len(found) {
	case 0:
		return nil
	case 1:
	default:
		diags.duplicates("repeated "+directivePrefix+f.String()+" markers on "+entity, found)
	}
	return found[0]
}

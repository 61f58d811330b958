package mcq

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Parse extracts every well-formed question from a model reply.
//
// An item has the shape
//
//	<digits>. <question>
//	A) <option>
//	B) <option>
//	C) <option>
//	D) <option>
//
// where the question and options A-C may span several lines and option D ends at
// the first newline. Items are matched left to right without overlap; text that
// does not fit the shape is skipped. Fields are trimmed, and items whose question
// is blank are dropped. Parse never fails: a reply with nothing usable yields nil.
func Parse(raw string) []Parsed {
	p := &replyParser{s: raw, memo: make(map[tailKey]tail)}

	var out []Parsed
	for pos := 0; pos < len(raw); {
		item, end, ok := p.itemAt(pos)
		if !ok {
			_, size := utf8.DecodeRuneInString(raw[pos:])
			pos += size
			continue
		}
		if item.Question != "" {
			out = append(out, item)
		}
		pos = end
	}
	return out
}

// markers[i] introduces option i.
var markers = [4]string{"\nA)", "\nB)", "\nC)", "\nD)"}

type tailKey struct {
	label int
	pos   int
}

// tail is the result of matching options label..D starting at a marker.
type tail struct {
	ok      bool
	end     int
	options [4]string
}

type replyParser struct {
	s    string
	memo map[tailKey]tail
}

func (p *replyParser) itemAt(pos int) (Parsed, int, bool) {
	d := pos
	for d < len(p.s) {
		r, size := utf8.DecodeRuneInString(p.s[d:])
		if !unicode.IsDigit(r) {
			break
		}
		d += size
	}
	if d == pos || d >= len(p.s) || p.s[d] != '.' {
		return Parsed{}, 0, false
	}

	q := d + 1
	start, end, t, ok := p.field(q, 0)
	if !ok {
		return Parsed{}, 0, false
	}

	item := Parsed{
		Number:   parseNumber(p.s[pos:d]),
		Question: strings.TrimFunc(p.s[start:end], isSpace),
	}
	for i, opt := range t.options {
		item.Options[i] = strings.TrimFunc(opt, isSpace)
	}
	return item, t.end, true
}

// field matches one or more whitespace characters at q followed by the shortest
// span after which marker next starts and the rest of the item matches. It
// returns the span bounds and the matched tail.
//
// The whitespace run is greedy. When no span works after the full run, the run
// may give back its last character if that is the newline of the next marker;
// the field is then empty.
func (p *replyParser) field(q, next int) (int, int, tail, bool) {
	k := p.skipSpace(q)
	if k == q {
		return 0, 0, tail{}, false
	}

	marker := markers[next]
	for f := k; f < len(p.s); {
		idx := strings.Index(p.s[f:], marker)
		if idx < 0 {
			break
		}
		f += idx
		if t := p.optionsAt(next, f); t.ok {
			return k, f, t, true
		}
		f++
	}

	if k-q >= 2 && p.s[k-1] == '\n' && strings.HasPrefix(p.s[k:], marker[1:]) {
		if t := p.optionsAt(next, k-1); t.ok {
			return k - 1, k - 1, t, true
		}
	}
	return 0, 0, tail{}, false
}

// optionsAt matches options label..D given that marker label starts at pos.
func (p *replyParser) optionsAt(label, pos int) tail {
	key := tailKey{label: label, pos: pos}
	if t, ok := p.memo[key]; ok {
		return t
	}
	t := p.matchOptions(label, pos)
	p.memo[key] = t
	return t
}

func (p *replyParser) matchOptions(label, pos int) tail {
	q := pos + len(markers[label])

	if label == len(markers)-1 {
		k := p.skipSpace(q)
		if k == q {
			return tail{}
		}
		t := tail{ok: true, end: len(p.s)}
		if nl := strings.IndexByte(p.s[k:], '\n'); nl >= 0 {
			t.options[label] = p.s[k : k+nl]
			t.end = k + nl + 1
		} else {
			t.options[label] = p.s[k:]
		}
		return t
	}

	start, end, rest, ok := p.field(q, label+1)
	if !ok {
		return tail{}
	}
	rest.options[label] = p.s[start:end]
	return rest
}

func (p *replyParser) skipSpace(i int) int {
	for i < len(p.s) {
		r, size := utf8.DecodeRuneInString(p.s[i:])
		if !isSpace(r) {
			break
		}
		i += size
	}
	return i
}

// isSpace also treats the ASCII file, group, record and unit separators as
// whitespace, as most regex engines do for Unicode text.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// parseNumber returns the printed question number, or 0 when it is not plain
// ASCII or does not fit an int.
func parseNumber(digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

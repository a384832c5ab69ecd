package markup

import (
	"html"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

type spanKind int

const (
	spanNone spanKind = iota
	spanBraceBold
	spanStarBold
	spanItalic
	spanCode
	spanLink
	spanPlusBold
)

// span is one recognised inline construct. inner is the text between the
// delimiters (the label for links) and end is the offset just past the
// closing delimiter.
type span struct {
	kind  spanKind
	inner string
	href  string
	end   int
}

func inline(s string) string {
	var b strings.Builder
	renderInline(&b, s, spanNone)
	return b.String()
}

// scanner holds one run of inline text. closers[k][p] is the first offset
// at or after p where a construct of kind k may close, or -1. The tables
// are built on first use so every run is scanned in linear time.
type scanner struct {
	s         string
	enclosing spanKind
	closers   [spanPlusBold + 1][]int
}

// renderInline scans s left to right. At each offset the constructs are
// tried in precedence order; text that starts no construct is literal.
// A construct is not re-entered inside itself.
func renderInline(b *strings.Builder, s string, enclosing spanKind) {
	sc := &scanner{s: s, enclosing: enclosing}
	lit := 0
	for i := 0; i < len(s); {
		sp, ok := sc.match(i)
		if !ok {
			i++
			continue
		}
		b.WriteString(html.EscapeString(s[lit:i]))
		writeSpan(b, sp)
		i = sp.end
		lit = i
	}
	b.WriteString(html.EscapeString(s[lit:]))
}

func (sc *scanner) match(i int) (span, bool) {
	s := sc.s
	rest := s[i:]
	var (
		sp span
		ok bool
	)
	switch {
	case strings.HasPrefix(rest, "{*}"):
		sp, ok = sc.matchBraceBold(i)
	case strings.HasPrefix(rest, "{{"):
		sp, ok = sc.matchCode(i)
	case s[i] == '*':
		sp, ok = sc.matchStarBold(i)
	case s[i] == '_':
		sp, ok = sc.matchItalic(i)
	case s[i] == '[':
		sp, ok = sc.matchLink(i)
	case s[i] == '+':
		sp, ok = sc.matchPlusBold(i)
	}
	if !ok || sp.kind == sc.enclosing {
		return span{}, false
	}
	return sp, true
}

func (sc *scanner) closer(kind spanKind, from int) int {
	if from >= len(sc.s) {
		return -1
	}
	if sc.closers[kind] == nil {
		sc.closers[kind] = closerTable(sc.s, kind)
	}
	return sc.closers[kind][from]
}

func closerTable(s string, kind spanKind) []int {
	next := make([]int, len(s))
	found, bracket := -1, -1
	for j := len(s) - 1; j >= 0; j-- {
		if s[j] == ']' {
			bracket = j
		}
		if closes(s, j, kind, bracket) {
			found = j
		}
		next[j] = found
	}
	return next
}

// closes reports whether a construct of kind may end at j. bracket is the
// first ']' at or after j.
func closes(s string, j int, kind spanKind, bracket int) bool {
	switch kind {
	case spanBraceBold:
		return strings.HasPrefix(s[j:], "{*}")
	case spanCode:
		return strings.HasPrefix(s[j:], "}}")
	case spanStarBold:
		return s[j] == '*' && j > 0 && !unicode.IsSpace(lastRune(s[:j])) &&
			(j+1 == len(s) || unicode.IsSpace(firstRune(s[j+1:])))
	case spanItalic:
		return s[j] == '_' && j > 0 && !unicode.IsSpace(lastRune(s[:j]))
	case spanLink:
		// a pipe followed by a non-empty url and a closing bracket
		return s[j] == '|' && bracket > j+1
	case spanPlusBold:
		return s[j] == '+'
	}
	return false
}

func (sc *scanner) matchBraceBold(i int) (span, bool) {
	end := sc.closer(spanBraceBold, i+3)
	if end < 0 {
		return span{}, false
	}
	return span{kind: spanBraceBold, inner: sc.s[i+3 : end], end: end + 3}, true
}

func (sc *scanner) matchCode(i int) (span, bool) {
	end := sc.closer(spanCode, i+2)
	if end < 0 {
		return span{}, false
	}
	return span{kind: spanCode, inner: sc.s[i+2 : end], end: end + 2}, true
}

// matchStarBold handles *text*. The opening asterisk must start the run or
// follow whitespace, the text must not start or end with whitespace, and the
// closing asterisk must be followed by whitespace or the end of the run.
func (sc *scanner) matchStarBold(i int) (span, bool) {
	s := sc.s
	if i > 0 && !unicode.IsSpace(lastRune(s[:i])) {
		return span{}, false
	}
	if i+1 >= len(s) || unicode.IsSpace(firstRune(s[i+1:])) {
		return span{}, false
	}
	j := sc.closer(spanStarBold, i+2)
	if j < 0 {
		return span{}, false
	}
	return span{kind: spanStarBold, inner: s[i+1 : j], end: j + 1}, true
}

func (sc *scanner) matchItalic(i int) (span, bool) {
	s := sc.s
	if i+1 >= len(s) || unicode.IsSpace(firstRune(s[i+1:])) {
		return span{}, false
	}
	j := sc.closer(spanItalic, i+2)
	if j < 0 {
		return span{}, false
	}
	return span{kind: spanItalic, inner: s[i+1 : j], end: j + 1}, true
}

// matchLink handles [label|url]. The label is the shortest non-empty prefix
// that is followed by a pipe and a non-empty url without a closing bracket.
// Links to anything but web or mail addresses stay literal text.
func (sc *scanner) matchLink(i int) (span, bool) {
	s := sc.s
	k := sc.closer(spanLink, i+2)
	if k < 0 {
		return span{}, false
	}
	m := k + 1 + strings.IndexByte(s[k+1:], ']')
	href := s[k+1 : m]
	if !allowedHref(href) {
		return span{}, false
	}
	return span{kind: spanLink, inner: s[i+1 : k], href: href, end: m + 1}, true
}

func allowedHref(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto":
		return true
	}
	return false
}

func (sc *scanner) matchPlusBold(i int) (span, bool) {
	j := sc.closer(spanPlusBold, i+1)
	if j <= i+1 {
		return span{}, false
	}
	return span{kind: spanPlusBold, inner: strings.TrimSpace(sc.s[i+1 : j]), end: j + 1}, true
}

func writeSpan(b *strings.Builder, sp span) {
	switch sp.kind {
	case spanBraceBold, spanStarBold, spanPlusBold:
		b.WriteString("<b>")
		renderInline(b, sp.inner, sp.kind)
		b.WriteString("</b>")
	case spanItalic:
		b.WriteString("<i>")
		renderInline(b, sp.inner, sp.kind)
		b.WriteString("</i>")
	case spanCode:
		b.WriteString("<code>")
		b.WriteString(html.EscapeString(sp.inner))
		b.WriteString("</code>")
	case spanLink:
		b.WriteString(`<a href="`)
		b.WriteString(html.EscapeString(sp.href))
		b.WriteString(`" target="_blank" rel="noopener noreferrer">`)
		renderInline(b, sp.inner, sp.kind)
		b.WriteString("</a>")
	}
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

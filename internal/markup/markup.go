// Package markup converts Jira-style wiki markup into HTML and into an
// indented plain-text form for display next to an estimation round.
//
// Both conversions are total: any input, including the empty string,
// produces output and never an error.
package markup

import (
	"fmt"
	"strings"
	"unicode"
)

// Result holds both renderings of one markup string.
type Result struct {
	HTML string `json:"html"`
	Text string `json:"text"`
}

func Convert(src string) Result {
	return Result{HTML: ToHTML(src), Text: ToIndentedText(src)}
}

type blockKind int

const (
	blockBlank blockKind = iota
	blockHeading
	blockListItem
	blockParagraph
)

// block is one classified source line. level is the heading level for
// headings and the nesting depth for list items.
type block struct {
	kind  blockKind
	level int
	text  string
}

func splitLines(src string) []string {
	return strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
}

func parseLine(line string) block {
	if strings.TrimSpace(line) == "" {
		return block{kind: blockBlank}
	}
	if level, text, ok := heading(line); ok {
		return block{kind: blockHeading, level: level, text: text}
	}
	if depth, text, ok := listItem(line); ok {
		return block{kind: blockListItem, level: depth, text: text}
	}
	return block{kind: blockParagraph, text: line}
}

// heading recognises "hN. title" (N in 1..6) and a line fully wrapped in
// plus signs, which renders as a level 3 heading.
func heading(line string) (int, string, bool) {
	if len(line) >= 3 && line[0] == 'h' && line[1] >= '1' && line[1] <= '6' && line[2] == '.' {
		return int(line[1] - '0'), strings.TrimSpace(line[3:]), true
	}
	if len(line) >= 3 && line[0] == '+' && line[len(line)-1] == '+' {
		return 3, strings.TrimSpace(line[1 : len(line)-1]), true
	}
	return 0, "", false
}

// listItem matches one or more leading asterisks followed by whitespace.
// The asterisk count is the nesting depth.
func listItem(line string) (int, string, bool) {
	depth := 0
	for depth < len(line) && line[depth] == '*' {
		depth++
	}
	if depth == 0 || depth == len(line) {
		return 0, "", false
	}
	rest := line[depth:]
	if !unicode.IsSpace(firstRune(rest)) {
		return 0, "", false
	}
	return depth, strings.TrimLeftFunc(rest, unicode.IsSpace), true
}

// ToHTML renders markup as an HTML fragment. Text is escaped; nested list
// levels are opened inside the enclosing <li>.
func ToHTML(src string) string {
	if src == "" {
		return ""
	}
	var r htmlRenderer
	for _, line := range splitLines(src) {
		r.render(parseLine(line))
	}
	r.closeLists(0)
	return r.b.String()
}

type listLevel struct {
	itemOpen bool
}

type htmlRenderer struct {
	b     strings.Builder
	stack []listLevel
}

func (r *htmlRenderer) render(bl block) {
	if bl.kind == blockListItem {
		r.item(bl.level, bl.text)
		return
	}

	// Anything that is not a list item ends every open list.
	r.closeLists(0)

	switch bl.kind {
	case blockHeading:
		fmt.Fprintf(&r.b, "<h%d>%s</h%d>", bl.level, inline(bl.text), bl.level)
	case blockParagraph:
		content := inline(bl.text)
		if strings.TrimSpace(content) == "" {
			return
		}
		r.b.WriteString("<p>")
		r.b.WriteString(content)
		r.b.WriteString("</p>")
	}
}

func (r *htmlRenderer) item(depth int, text string) {
	r.closeLists(depth)
	if n := len(r.stack); n == depth && r.stack[n-1].itemOpen {
		r.b.WriteString("</li>")
		r.stack[n-1].itemOpen = false
	}
	for len(r.stack) < depth {
		// A deeper level needs a parent item to live in.
		if n := len(r.stack); n > 0 && !r.stack[n-1].itemOpen {
			r.b.WriteString("<li>")
			r.stack[n-1].itemOpen = true
		}
		r.b.WriteString("<ul>")
		r.stack = append(r.stack, listLevel{})
	}
	r.b.WriteString("<li>")
	r.b.WriteString(inline(text))
	r.stack[depth-1].itemOpen = true
}

func (r *htmlRenderer) closeLists(depth int) {
	for len(r.stack) > depth {
		top := r.stack[len(r.stack)-1]
		if top.itemOpen {
			r.b.WriteString("</li>")
		}
		r.b.WriteString("</ul>")
		r.stack = r.stack[:len(r.stack)-1]
	}
}

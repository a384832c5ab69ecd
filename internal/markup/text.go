package markup

import "strings"

// ToIndentedText renders markup for plain-text display. Each list line
// becomes its content prefixed by one tab per nesting level below the
// first; every other line is passed through unchanged.
func ToIndentedText(src string) string {
	if src == "" {
		return ""
	}
	lines := splitLines(src)
	out := make([]string, len(lines))
	for i, line := range lines {
		depth, content, ok := listItem(line)
		if !ok {
			out[i] = line
			continue
		}
		out[i] = strings.Repeat("\t", depth-1) + stripMarkers(content)
	}
	return strings.Join(out, "\n")
}

// stripMarkers drops stray leading asterisks, as in "* *Mandatory".
func stripMarkers(content string) string {
	if !strings.HasPrefix(content, "*") {
		return content
	}
	return strings.TrimLeft(strings.TrimLeft(content, "*"), " \t")
}

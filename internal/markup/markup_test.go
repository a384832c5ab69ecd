package markup

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToHTML_NestedList(t *testing.T) {
	got := ToHTML("* a\n** b\n* c")

	assert.Equal(t, "<ul><li>a<ul><li>b</li></ul></li><li>c</li></ul>", got)
	assert.Equal(t, 3, strings.Count(got, "<li>"))
	assert.Equal(t, 2, strings.Count(got, "<ul>"))
}

func TestToHTML(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "blank lines only", in: "\n  \n", want: ""},
		{name: "paragraph", in: "plain text", want: "<p>plain text</p>"},
		{name: "bold at line start", in: "*Mandatory* field", want: "<p><b>Mandatory</b> field</p>"},
		{name: "bold mid line", in: "this is *very* important", want: "<p>this is <b>very</b> important</p>"},
		{name: "asterisk inside word", in: "a*b*c", want: "<p>a*b*c</p>"},
		{name: "brace bold", in: "{*}Note:{*} read this", want: "<p><b>Note:</b> read this</p>"},
		{name: "italic", in: "an _emphasised_ word", want: "<p>an <i>emphasised</i> word</p>"},
		{name: "code is literal", in: "run {{make a_b_c}}", want: "<p>run <code>make a_b_c</code></p>"},
		{
			name: "link url is literal",
			in:   "see [the docs|https://example.com/a_b_c]",
			want: `<p>see <a href="https://example.com/a_b_c" target="_blank" rel="noopener noreferrer">the docs</a></p>`,
		},
		{
			name: "mailto link",
			in:   "[mail us|mailto:team@example.com]",
			want: `<p><a href="mailto:team@example.com" target="_blank" rel="noopener noreferrer">mail us</a></p>`,
		},
		{name: "javascript link stays literal", in: "[click|javascript:alert(document.cookie)]", want: "<p>[click|javascript:alert(document.cookie)]</p>"},
		{name: "padded scheme stays literal", in: "[click| javascript:alert(1)]", want: "<p>[click| javascript:alert(1)]</p>"},
		{name: "data link stays literal", in: "[x|data:text/html,<b>hi</b>]", want: "<p>[x|data:text/html,&lt;b&gt;hi&lt;/b&gt;]</p>"},
		{name: "relative link stays literal", in: "[x|/browse/POKER-1]", want: "<p>[x|/browse/POKER-1]</p>"},
		{
			name: "rejected link does not hide a later one",
			in:   "[a|javascript:x] [b|https://example.com]",
			want: `<p>[a|javascript:x] <a href="https://example.com" target="_blank" rel="noopener noreferrer">b</a></p>`,
		},
		{name: "plus bold inline", in: "a + b + c", want: "<p>a <b>b</b> c</p>"},
		{name: "italic inside bold", in: "*_both_* here", want: "<p><b><i>both</i></b> here</p>"},
		{name: "unterminated delimiters", in: "{*}open _and [x|", want: "<p>{*}open _and [x|</p>"},
		{name: "escapes html", in: "<script>x</script>", want: "<p>&lt;script&gt;x&lt;/script&gt;</p>"},
		{name: "h marker", in: "h2.  Scope  ", want: "<h2>Scope</h2>"},
		{name: "h marker without space", in: "h6.tiny", want: "<h6>tiny</h6>"},
		{name: "plus wrapped line", in: "+Acceptance+", want: "<h3>Acceptance</h3>"},
		{name: "heading inline", in: "h1. The {{api}}", want: "<h1>The <code>api</code></h1>"},
		{name: "blank line closes list", in: "* a\n\nafter", want: "<ul><li>a</li></ul><p>after</p>"},
		{name: "heading closes list", in: "* a\n** b\nh3. next", want: "<ul><li>a<ul><li>b</li></ul></li></ul><h3>next</h3>"},
		{name: "jump in depth", in: "*** deep", want: "<ul><li><ul><li><ul><li>deep</li></ul></li></ul></li></ul>"},
		{name: "list item inline", in: "* *Mandatory* field", want: "<ul><li><b>Mandatory</b> field</li></ul>"},
		{name: "crlf", in: "* a\r\n* b", want: "<ul><li>a</li><li>b</li></ul>"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToHTML(tc.in))
		})
	}
}

func TestToIndentedText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "nested list", in: "* a\n** b\n* c", want: "a\n\tb\nc"},
		{name: "plain lines pass through", in: "h1. Title\nsome text", want: "h1. Title\nsome text"},
		{name: "continuation lines are not indented", in: "** b\ncontinued", want: "\tb\ncontinued"},
		{name: "stray marker stripped", in: "* *Mandatory field", want: "Mandatory field"},
		{name: "deep", in: "*** deep", want: "\t\tdeep"},
		{name: "crlf", in: "* a\r\n** b", want: "a\n\tb"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToIndentedText(tc.in))
		})
	}
}

func TestConvert_BothPasses(t *testing.T) {
	res := Convert("* a\n** b\n* c")
	assert.Equal(t, ToHTML("* a\n** b\n* c"), res.HTML)
	assert.Equal(t, "a\n\tb\nc", res.Text)
}

func TestToHTML_UnclosedDelimitersScaleLinearly(t *testing.T) {
	const size = 64 << 10
	for _, unit := range []string{"[|", "[|]", "[[", "{{", "{*}x", "x _y", "a * b", "a+"} {
		in := strings.Repeat(unit, size/len(unit))
		start := time.Now()
		res := Convert(in)
		assert.Less(t, time.Since(start), 2*time.Second, "converting %q x%d", unit, size/len(unit))
		assert.NotEmpty(t, res.HTML)
	}

	in := strings.Repeat("[|", 4096)
	assert.Equal(t, "<p>"+in+"</p>", ToHTML(in))
}

package speech

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanMarkdownReferenceExample(t *testing.T) {
	t.Parallel()

	in := "### IPC Sections:\n- **Section 302**: murder\n[see](http://x)"
	require.Equal(t, "IPC Sections:\nSection 302: murder\nsee", CleanMarkdown(in))
}

func TestCleanMarkdownStripsMarkup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "heading with closing hashes", in: "## Applicable Sections ##", want: "Applicable Sections"},
		{name: "italic stars", in: "This is *serious* theft", want: "This is serious theft"},
		{name: "italic underscores", in: "an _urgent_ matter", want: "an urgent matter"},
		{name: "snake case untouched", in: "see section_379_ipc", want: "see section_379_ipc"},
		{name: "bold underscores", in: "__Section 420__ cheating", want: "Section 420 cheating"},
		{name: "strikethrough", in: "~~old~~ new", want: "old new"},
		{name: "inline code", in: "use `Section 154` CrPC", want: "use Section 154 CrPC"},
		{name: "image to alt", in: "![seal](http://x/seal.png) attached", want: "seal attached"},
		{name: "ordered list", in: "1. Section 379\n2. Section 411", want: "Section 379\nSection 411"},
		{name: "nested bullets", in: "* Theft\n    + Section 379", want: "Theft\nSection 379"},
		{name: "blockquote", in: "> Note: file within 24 hours", want: "Note: file within 24 hours"},
		{name: "fenced code", in: "Before\n```\ncode\n```\nAfter", want: "Before\ncode\nAfter"},
		{name: "horizontal rule", in: "One\n---\nTwo", want: "One\nTwo"},
		{name: "trailing whitespace", in: "line one   \nline two\t", want: "line one\nline two"},
		{name: "blank runs collapse", in: "a\n\n\n\nb", want: "a\n\nb"},
		{name: "arithmetic stars kept", in: "2 * 3 * 4", want: "2 * 3 * 4"},
		{name: "italic at line edges", in: "*Urgent*", want: "Urgent"},
		{name: "italic before punctuation", in: "a *serious*, repeated offence", want: "a serious, repeated offence"},
		{name: "carriage returns", in: "first\rsecond\r\nthird", want: "first\nsecond\nthird"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, CleanMarkdown(tt.in))
		})
	}
}

func TestCleanMarkdownPlainProseUnchanged(t *testing.T) {
	t.Parallel()

	for _, prose := range []string{
		"The complainant reported that his motorcycle was stolen from the market.\nHe saw two men near it.",
		"Fine of Rs 5*3*2 imposed",
		"Vehicle KA*01*1234 was seen near the toll booth",
	} {
		require.Equal(t, prose, CleanMarkdown(prose))
	}
}

func TestCleanMarkdownIsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"### IPC Sections:\n- **Section 302**: murder\n[see](http://x)",
		"- - nested marker",
		"1. 2. double ordered",
		"[[inner](a)](b)",
		"> > quoted twice",
		"**_mixed_ emphasis**",
		"# \n\n\n\n## ",
		"* * *",
		"`**not bold**`",
		"***very***",
		"_a_ _b_ _c_",
		"*a* *b* *c*",
		"a\r \nb",
		"line\rbreak\r\n\r\nend",
		"",
	}
	for _, in := range inputs {
		once := CleanMarkdown(in)
		require.Equal(t, once, CleanMarkdown(once), "input %q", in)
	}
}

package speech

import (
	"regexp"
	"strings"
)

var (
	fenceLine      = regexp.MustCompile("^\\s*(```|~~~)")
	ruleLine       = regexp.MustCompile(`^\s*([-*_=])(\s*[-*_=]){2,}\s*$`)
	headingPrefix  = regexp.MustCompile(`^\s{0,3}#{1,6}(\s+|$)`)
	headingSuffix  = regexp.MustCompile(`\s+#+\s*$`)
	quotePrefix    = regexp.MustCompile(`^\s*>\s?`)
	bulletPrefix   = regexp.MustCompile(`^\s*[-*+]\s+`)
	orderedPrefix  = regexp.MustCompile(`^\s*\d+[.)]\s+`)
	imagePattern   = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkPattern    = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	strongStars    = regexp.MustCompile(`\*\*(.+?)\*\*`)
	strongUnders   = regexp.MustCompile(`__(.+?)__`)
	strike         = regexp.MustCompile(`~~(.+?)~~`)
	emphasisStar   = regexp.MustCompile(`(^|[^\w*])\*([^*\s](?:[^*]*[^*\s])?)\*([^\w*]|$)`)
	emphasisUnder  = regexp.MustCompile(`(^|[^\w])_([^_\s](?:[^_]*[^_\s])?)_([^\w]|$)`)
	inlineCode     = regexp.MustCompile("`([^`]+)`")
	extraBlankRuns = regexp.MustCompile(`\n{3,}`)
)

// CleanMarkdown reduces Markdown to plain prose suitable for speech synthesis. The result is a
// fixed point: cleaning it again returns it unchanged.
func CleanMarkdown(text string) string {
	out := strings.TrimSpace(text)
	// Every pass only removes characters, so this terminates.
	for {
		next := cleanOnce(out)
		if next == out {
			return out
		}
		out = next
	}
}

func cleanOnce(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if fenceLine.MatchString(line) || ruleLine.MatchString(line) {
			continue
		}
		kept = append(kept, cleanLine(line))
	}
	out := strings.Join(kept, "\n")
	out = extraBlankRuns.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

func cleanLine(line string) string {
	if headingPrefix.MatchString(line) {
		line = headingPrefix.ReplaceAllString(line, "")
		line = headingSuffix.ReplaceAllString(line, "")
	}
	line = quotePrefix.ReplaceAllString(line, "")
	line = bulletPrefix.ReplaceAllString(line, "")
	line = orderedPrefix.ReplaceAllString(line, "")

	line = imagePattern.ReplaceAllString(line, "$1")
	line = linkPattern.ReplaceAllString(line, "$1")
	line = inlineCode.ReplaceAllString(line, "$1")
	line = strongStars.ReplaceAllString(line, "$1")
	line = strongUnders.ReplaceAllString(line, "$1")
	line = strike.ReplaceAllString(line, "$1")
	line = emphasisStar.ReplaceAllString(line, "$1$2$3")
	line = emphasisUnder.ReplaceAllString(line, "$1$2$3")

	return strings.TrimRight(line, " \t")
}

package workflow

// Formats understood by ApplyFormat.
const (
	FormatBold    = "bold"
	FormatItalic  = "italic"
	FormatCode    = "code"
	FormatLink    = "link"
	FormatHeading = "heading"
)

type formatRule struct {
	prefix, suffix, placeholder string
}

var formatRules = map[string]formatRule{
	FormatBold:    {prefix: "**", suffix: "**", placeholder: "bold text"},
	FormatItalic:  {prefix: "_", suffix: "_", placeholder: "italic text"},
	FormatCode:    {prefix: "`", suffix: "`", placeholder: "code"},
	FormatLink:    {prefix: "[", suffix: "](url)", placeholder: "link text"},
	FormatHeading: {prefix: "## ", suffix: "", placeholder: "Heading"},
}

// ApplyFormat wraps the selection [selStart, selEnd) of content in markdown
// for format, or inserts a placeholder when the selection is empty. It
// returns the new content and the cursor offset, which sits just inside the
// opening markup. Offsets count runes and are clamped to the content.
func ApplyFormat(content string, selStart, selEnd int, format string) (string, int) {
	runes := []rune(content)
	clamp := func(i int) int {
		if i < 0 {
			return 0
		}
		if i > len(runes) {
			return len(runes)
		}
		return i
	}
	start, end := clamp(selStart), clamp(selEnd)
	if start > end {
		start, end = end, start
	}

	rule, ok := formatRules[format]
	if !ok {
		return content, start
	}

	selected := string(runes[start:end])
	if selected == "" {
		selected = rule.placeholder
	}
	out := string(runes[:start]) + rule.prefix + selected + rule.suffix + string(runes[end:])
	return out, start + len([]rune(rule.prefix))
}

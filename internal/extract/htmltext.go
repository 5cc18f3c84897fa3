package extract

import (
	"regexp"
	"strings"
)

// Description cleaning pipeline, compiled once. The patterns run in a fixed
// order; several depend on the output of earlier steps.
var (
	reMainContent   = regexp.MustCompile(`(?s)<div class="description__text[^>]*>(.*?)</div>\s*</section>`)
	reButtonBlock   = regexp.MustCompile(`(?s)<button.*?</button>`)
	reIconBlock     = regexp.MustCompile(`(?s)<icon.*?</icon>`)
	reScriptBlock   = regexp.MustCompile(`(?s)<script.*?>.*?</script>`)
	reStyleBlock    = regexp.MustCompile(`(?s)<style.*?>.*?</style>`)
	reLineBreak     = regexp.MustCompile(`<br\s*/?>`)
	reListItemOpen  = regexp.MustCompile(`<li.*?>`)
	reListItemClose = regexp.MustCompile(`</li>`)
	reBlockClose    = regexp.MustCompile(`</(p|div|h\d|ul|ol)>`)
	reBlockOpen     = regexp.MustCompile(`<(p|div|h\d|ul|ol)[^>]*>`)
	reAnyTag        = regexp.MustCompile(`<[^>]*>`)
	reManyNewlines  = regexp.MustCompile(`\n{3,}`)
	reManySpaces    = regexp.MustCompile(` {2,}`)
)

// entityReplacer decodes the five entities job descriptions actually carry.
var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&nbsp;", " ",
)

// CleanHTML converts a job-description fragment to readable plain text.
// Scripts, styles and interactive controls are dropped, line breaks and
// list items become newlines and bullets, remaining tags are stripped and
// whitespace is collapsed. Deterministic and total: unexpected input
// degrades to tag stripping, never to a failure.
func CleanHTML(fragment string) string {
	if fragment == "" {
		return ""
	}
	if m := reMainContent.FindStringSubmatch(fragment); m != nil {
		fragment = m[1]
	}
	fragment = reButtonBlock.ReplaceAllString(fragment, "")
	fragment = reIconBlock.ReplaceAllString(fragment, "")
	fragment = reScriptBlock.ReplaceAllString(fragment, "")
	fragment = reStyleBlock.ReplaceAllString(fragment, "")
	fragment = reLineBreak.ReplaceAllString(fragment, "\n")
	fragment = reListItemOpen.ReplaceAllString(fragment, "• ")
	fragment = reListItemClose.ReplaceAllString(fragment, "\n")
	fragment = reBlockClose.ReplaceAllString(fragment, "\n")
	fragment = reBlockOpen.ReplaceAllString(fragment, "")
	fragment = reAnyTag.ReplaceAllString(fragment, "")
	fragment = entityReplacer.Replace(fragment)
	fragment = reManyNewlines.ReplaceAllString(fragment, "\n\n")
	fragment = reManySpaces.ReplaceAllString(fragment, " ")
	return strings.TrimSpace(fragment)
}

// StripTags removes every tag without further formatting. CleanHTML's last
// resort, also useful for one-line snippets.
func StripTags(fragment string) string {
	return strings.TrimSpace(reAnyTag.ReplaceAllString(fragment, ""))
}

// CleanText collapses all whitespace runs to single spaces and trims.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

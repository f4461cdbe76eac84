// Package textprep normalizes social-media style text before it reaches the
// classifiers, the same way the models' training data was normalized.
package textprep

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/russross/blackfriday/v2"
)

const (
	USER_TOKEN = "@USER"
	URL_TOKEN  = "HTTPURL"

	maxRepeatedChars = 3
)

var (
	urlPattern      = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern      = regexp.MustCompile(`<[^>]*>`)
	handlePattern   = regexp.MustCompile(`\B@\w+`)
	listPattern     = regexp.MustCompile(`(?m)^([ \t]*)(\d+)([.)])([ \t])`)
	hashtagPattern  = regexp.MustCompile(`(^|\s)#(\w+)`)
	camelCaseSplit  = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	markdownOptions = []blackfriday.Option{
		blackfriday.WithExtensions(blackfriday.SpaceHeadings | blackfriday.NoIntraEmphasis),
		blackfriday.WithRenderer(blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
			Flags: blackfriday.UseXHTML,
		})),
	}
)

// Preprocess runs the full normalization chain. Input that normalizes to
// nothing (e.g. markup only) falls back to the trimmed original.
func Preprocess(input string) string {
	out := NormalizeTweet(ConvertMarkdownToText(input))
	if out == "" {
		return strings.TrimSpace(input)
	}
	return out
}

// NormalizeTweet replaces URLs and user handles with placeholder tokens, splits
// hashtags into words and shortens long character runs.
func NormalizeTweet(input string) string {
	input = urlPattern.ReplaceAllString(input, URL_TOKEN)
	input = handlePattern.ReplaceAllString(input, USER_TOKEN)
	input = hashtagPattern.ReplaceAllStringFunc(input, splitHashtag)
	input = ShortenRepeats(input, maxRepeatedChars)
	return strings.Join(strings.Fields(input), " ")
}

// ConvertMarkdownToText renders markdown and strips the resulting markup,
// keeping link text and collapsing whitespace. Ordered-list numbers are kept
// as text.
func ConvertMarkdownToText(input string) string {
	input = listPattern.ReplaceAllString(input, `$1$2\$3$4`)
	output := blackfriday.Run([]byte(input), markdownOptions...)
	plain := tagPattern.ReplaceAllString(string(output), " ")
	plain = html.UnescapeString(plain)
	return strings.Join(strings.Fields(plain), " ")
}

func splitHashtag(match string) string {
	sub := hashtagPattern.FindStringSubmatch(match)
	if len(sub) < 3 {
		return match
	}
	words := camelCaseSplit.ReplaceAllString(sub[2], "$1 $2")
	words = strings.ReplaceAll(words, "_", " ")
	return sub[1] + strings.ToLower(words)
}

// ShortenRepeats caps every run of the same rune at max occurrences.
func ShortenRepeats(input string, max int) string {
	if max < 1 || utf8.RuneCountInString(input) <= max {
		return input
	}

	var b strings.Builder
	b.Grow(len(input))

	var prev rune
	run := 0
	for i, r := range input {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		prev = r
		if run <= max {
			b.WriteRune(r)
		}
	}
	return b.String()
}

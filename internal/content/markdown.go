// Package content renders product markdown for delivery. Authoring-only
// front matter is stripped before anything reaches a buyer.
package content

import (
	"bytes"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	// Leading YAML front-matter block.
	reFrontMatter = regexp.MustCompile(`(?s)\A\s*---\n.*?\n---\n`)
	// HTML comments used for editorial notes.
	reAuthorComment = regexp.MustCompile(`(?s)<!--.*?-->\n?`)
	// @meta/@draft/@internal directive lines.
	reDirective = regexp.MustCompile(`(?m)^@(meta|draft|internal)\b[^\n]*\n?`)
	// Collapse the blank-line runs the removals leave behind.
	reBlankRuns = regexp.MustCompile(`\n{3,}`)
)

// StripAuthoringPreamble removes authoring-only markup from product content.
func StripAuthoringPreamble(md string) string {
	out := reFrontMatter.ReplaceAllString(md, "")
	out = reAuthorComment.ReplaceAllString(out, "")
	out = reDirective.ReplaceAllString(out, "")
	out = reBlankRuns.ReplaceAllString(out, "\n\n")
	return out
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// ToHTML converts product markdown to HTML after stripping the preamble.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(StripAuthoringPreamble(source)), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Package htmlstrip converts an HTML email body to display text.
package htmlstrip

import (
	"strings"

	"golang.org/x/net/html"
)

// skipElements are elements whose text content is discarded.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"head":     true,
}

// blockElements are elements separated by a line break in the output.
var blockElements = map[string]bool{
	"p": true, "div": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "li": true, "blockquote": true,
	"pre": true, "table": true, "tr": true, "section": true,
	"article": true, "header": true, "footer": true,
}

// Text converts an HTML fragment to plain text. Block elements and <br>
// become newlines so the result reads naturally inside a chat embed; runs
// of whitespace collapse.
func Text(source string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(source))

	var b strings.Builder
	skipDepth := 0
	pendingBreak := false
	pendingSpace := false

	flush := func() {
		if b.Len() == 0 {
			pendingBreak = false
			pendingSpace = false
			return
		}
		if pendingBreak {
			b.WriteByte('\n')
		} else if pendingSpace {
			b.WriteByte(' ')
		}
		pendingBreak = false
		pendingSpace = false
	}

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if skipElements[tag] && tt == html.StartTagToken {
				skipDepth++
				continue
			}
			if tag == "br" || blockElements[tag] {
				pendingBreak = true
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if skipElements[tag] && skipDepth > 0 {
				skipDepth--
				continue
			}
			if blockElements[tag] {
				pendingBreak = true
			}

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			text := string(tokenizer.Text())
			if text == "" {
				continue
			}
			fields := strings.Fields(text)
			if len(fields) == 0 {
				pendingSpace = true
				continue
			}
			if isSpace(text[0]) {
				pendingSpace = true
			}
			flush()
			b.WriteString(strings.Join(fields, " "))
			if isSpace(text[len(text)-1]) {
				pendingSpace = true
			}
		}
	}

	return b.String()
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}

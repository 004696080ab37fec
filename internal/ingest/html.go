package ingest

import (
	"strings"

	"golang.org/x/net/html"
)

// skippedElements are containers whose text is never part of a posting body.
var skippedElements = map[string]bool{
	"script": true,
	"style":  true,
	"head":   true,
}

// blockElements get a paragraph break so the extracted text keeps the
// document's visual structure.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"tr": true, "table": true, "section": true, "article": true,
}

// HTMLToText strips markup from an HTML fragment and returns readable plain
// text. Block boundaries become paragraph breaks; runs of whitespace inside
// a block collapse to single spaces. Invalid markup is tolerated, the
// tokenizer recovers the way browsers do.
func HTMLToText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	var (
		blocks  []string
		current strings.Builder
		skip    int
	)

	flush := func() {
		text := strings.Join(strings.Fields(current.String()), " ")
		if text != "" {
			blocks = append(blocks, text)
		}
		current.Reset()
	}

	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			flush()
			return strings.Join(blocks, "\n\n")
		case html.TextToken:
			if skip == 0 {
				current.Write(tokenizer.Text())
				current.WriteByte(' ')
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if skippedElements[tag] {
				skip++
			} else if blockElements[tag] {
				flush()
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if skippedElements[tag] {
				if skip > 0 {
					skip--
				}
			} else if blockElements[tag] {
				flush()
			}
		}
	}
}

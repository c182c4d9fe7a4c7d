package sink

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// maxTokenBytes bounds a single markup token. Larger tokens make stripping
// give up and the raw text is emitted instead.
var maxTokenBytes = 1 << 20

// StripMarkup returns the text content of raw with all tags removed and
// entities decoded. Contents of script and style elements are dropped.
// When the markup cannot be tokenized the raw text is returned unmodified.
func StripMarkup(raw string) string {
	text, err := stripMarkup(raw)
	if err != nil {
		return raw
	}
	return text
}

func stripMarkup(raw string) (string, error) {
	if !strings.ContainsAny(raw, "<&") {
		return raw, nil
	}
	z := html.NewTokenizer(strings.NewReader(raw))
	z.SetMaxBuf(maxTokenBytes)

	var b strings.Builder
	hidden := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return b.String(), nil
			}
			return "", z.Err()
		case html.TextToken:
			if hidden == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			if isHiddenElement(z) {
				hidden++
			}
		case html.EndTagToken:
			if isHiddenElement(z) && hidden > 0 {
				hidden--
			}
		}
	}
}

func isHiddenElement(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

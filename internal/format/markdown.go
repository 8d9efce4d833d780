package format

import (
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ParseResult is plain text plus the Telegram entities that style it.
type ParseResult struct {
	Text     string
	Entities []tgbotapi.MessageEntity
}

// UTF16Len returns the length of s in UTF-16 code units, the unit Telegram
// uses for entity offsets.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

var markers = map[byte]string{
	'*': "bold",
	'_': "italic",
	'`': "code",
}

// ParseMarkdown strips chat-style markers and turns them into entities:
//
//	*bold*  _italic_  `code`
//
// A marker only opens at the start of a word and only closes at the end of
// one on the same line, so snake_case and 2*3*4 pass through untouched.
func ParseMarkdown(text string) ParseResult {
	var (
		out      strings.Builder
		entities []tgbotapi.MessageEntity
		offset   int
	)

	i := 0
	for i < len(text) {
		c := text[i]
		typ, isMarker := markers[c]
		if isMarker && opens(text, i) {
			if end := closing(text, i); end > 0 {
				inner := text[i+1 : end]
				length := UTF16Len(inner)
				entities = append(entities, tgbotapi.MessageEntity{Type: typ, Offset: offset, Length: length})
				out.WriteString(inner)
				offset += length
				i = end + 1
				continue
			}
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		out.WriteString(text[i : i+size])
		offset += utf16.RuneLen(r)
		i += size
	}

	return ParseResult{
		Text:     strings.TrimRight(out.String(), " \n"),
		Entities: entities,
	}
}

func opens(text string, i int) bool {
	if i+1 >= len(text) || isSpace(text[i+1]) {
		return false
	}
	if i == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(text[:i])
	return !unicode.IsLetter(prev) && !unicode.IsDigit(prev)
}

// closing finds the matching marker for the one at i, or -1.
func closing(text string, i int) int {
	c := text[i]
	for j := i + 1; j < len(text); j++ {
		if text[j] == '\n' {
			return -1
		}
		if text[j] != c || j == i+1 || isSpace(text[j-1]) {
			continue
		}
		if j+1 == len(text) {
			return j
		}
		next, _ := utf8.DecodeRuneInString(text[j+1:])
		if !unicode.IsLetter(next) && !unicode.IsDigit(next) {
			return j
		}
	}
	return -1
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t'
}

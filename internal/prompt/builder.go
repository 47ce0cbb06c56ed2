// Package prompt builds the chat messages sent to the completion endpoint.
package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cloo-solutions/aliasgen/internal/domain"
	"github.com/cloo-solutions/aliasgen/internal/frontmatter"
)

// DefaultMaxBodyLength caps the body excerpt when no positive limit is given.
const DefaultMaxBodyLength = 2000

// SystemMessage sets the assistant persona for every request.
const SystemMessage = "You are a linguistics assistant. You help people build alternate names " +
	"(aliases) for notes in a personal knowledge base so the notes can be found and linked " +
	"by any form of their name."

const answerFormat = "Return only the aliases, either as a JSON array of strings " +
	`(for example ["alias one", "alias two"]) or as a single comma-separated string. ` +
	"Do not add explanations, numbering, quotes around the whole answer or any other commentary."

const titleTemplate = `Give the grammatical forms of the note title %q in the title's own language: ` +
	"every case form (declension), the plural forms where they exist, and other common inflections. " +
	"Do not repeat the title itself.\n\n%s"

const contentTemplate = `Suggest alternate names for the note titled %q: synonyms, abbreviations, ` +
	"common alternative spellings and inflected forms that someone might use to refer to this note. " +
	"Use the note text below for context.\n\nNote text:\n\"\"\"\n%s\n\"\"\"\n\n%s"

// Prompt is the pair of messages for a single completion call.
type Prompt struct {
	System  string
	User    string
	Mode    domain.Mode
	Excerpt string
}

// Build creates the prompt for title and, when body is non-nil, a body
// excerpt of at most maxLen characters taken after the front matter.
func Build(title string, body *string, maxLen int) Prompt {
	if body == nil {
		return Prompt{
			System: SystemMessage,
			User:   fmt.Sprintf(titleTemplate, title, answerFormat),
			Mode:   domain.ModeTitle,
		}
	}

	excerpt := Excerpt(*body, maxLen)
	return Prompt{
		System:  SystemMessage,
		User:    fmt.Sprintf(contentTemplate, title, excerpt, answerFormat),
		Mode:    domain.ModeContent,
		Excerpt: excerpt,
	}
}

// Excerpt strips front matter from body and truncates what remains.
func Excerpt(body string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxBodyLength
	}
	return Truncate(StripFrontmatter(body), maxLen)
}

// StripFrontmatter removes a leading "---" delimited metadata block.
func StripFrontmatter(text string) string {
	return frontmatter.Strip(text)
}

// Truncate returns the first n characters of s. It may cut mid-word.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	var b strings.Builder
	count := 0
	for _, r := range s {
		if count == n {
			break
		}
		b.WriteRune(r)
		count++
	}
	return b.String()
}

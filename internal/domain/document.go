package domain

import (
	"fmt"
	"path"
	"strings"
)

// MarkdownExt is appended to handles given without a markdown extension.
const MarkdownExt = ".md"

var markdownExts = []string{MarkdownExt, ".markdown"}

// markdownExt returns the markdown extension handle ends with, or "".
func markdownExt(handle string) string {
	ext := path.Ext(handle)
	for _, e := range markdownExts {
		if strings.EqualFold(ext, e) {
			return ext
		}
	}
	return ""
}

// Document is a note owned by the host storage layer. Body holds the full
// text, including any leading front matter block.
type Document struct {
	Handle string
	Title  string
	Body   string
}

// AliasSet is an ordered sequence of aliases with no two entries equal
// under exact string comparison.
type AliasSet []string

// TitleFromHandle derives a document title from its handle: the base name
// without the markdown extension.
func TitleFromHandle(handle string) string {
	base := path.Base(handle)
	return strings.TrimSuffix(base, markdownExt(base))
}

// CleanHandle normalizes a slash-separated document handle and rejects
// handles that are empty, absolute or escape the workspace root.
func CleanHandle(handle string) (string, error) {
	h := strings.TrimSpace(strings.ReplaceAll(handle, "\\", "/"))
	if h == "" {
		return "", ErrInvalidHandle
	}
	if strings.HasPrefix(h, "/") {
		return "", NewDomainError(ErrCodeValidation, fmt.Sprintf("document handle %q must be relative", handle))
	}
	h = path.Clean(h)
	if h == "." || h == ".." || strings.HasPrefix(h, "../") {
		return "", NewDomainError(ErrCodeValidation, fmt.Sprintf("document handle %q escapes the workspace", handle))
	}
	if markdownExt(h) == "" {
		h += MarkdownExt
	}
	return h, nil
}

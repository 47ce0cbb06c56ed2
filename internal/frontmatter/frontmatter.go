// Package frontmatter reads and rewrites the YAML metadata block at the start
// of a markdown document.
package frontmatter

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// AliasesKey is the metadata field holding a document's aliases.
const AliasesKey = "aliases"

const delimiter = "---"

var blockPattern = regexp.MustCompile(`(?s)\A---\r?\n(.*?\r?\n)?---(\r?\n|\z)`)

// Split separates the metadata block from the rest of text. found is false
// when text does not start with a block; rest is then text unchanged.
func Split(text string) (meta string, rest string, found bool) {
	m := blockPattern.FindStringSubmatchIndex(text)
	if m == nil {
		return "", text, false
	}
	if m[2] >= 0 {
		meta = text[m[2]:m[3]]
	}
	return meta, text[m[1]:], true
}

// Strip returns text without its leading metadata block.
func Strip(text string) string {
	_, rest, _ := Split(text)
	return rest
}

// Fields decodes the metadata block into a map. A document without a block,
// or with an empty one, yields an empty map.
func Fields(text string) (map[string]any, error) {
	meta, _, found := Split(text)
	fields := map[string]any{}
	if !found {
		return fields, nil
	}
	if err := yaml.Unmarshal([]byte(meta), &fields); err != nil {
		return nil, fmt.Errorf("failed to parse front matter: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// Aliases returns the raw aliases value: nil when absent, otherwise whatever
// YAML decoded (usually a string or a []any).
func Aliases(text string) (any, error) {
	fields, err := Fields(text)
	if err != nil {
		return nil, err
	}
	return fields[AliasesKey], nil
}

// SetAliases rewrites the aliases field and leaves every other key, and the
// document body, untouched. A block is created when text has none. The block
// is written with the line endings of the existing block, or of the body when
// there is no block.
func SetAliases(text string, aliases []string) (string, error) {
	meta, rest, found := Split(text)
	eol := lineEnding(text, found)

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(meta), &doc); err != nil {
		return "", fmt.Errorf("failed to parse front matter: %w", err)
	}

	root, err := mappingRoot(&doc)
	if err != nil {
		return "", err
	}

	setKey(root, AliasesKey, aliases)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return "", fmt.Errorf("failed to encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode front matter: %w", err)
	}

	block := buf.String()
	if eol != "\n" {
		block = strings.ReplaceAll(block, "\n", eol)
	}
	return delimiter + eol + block + delimiter + eol + rest, nil
}

// lineEnding returns "\r\n" for documents that use CRLF, "\n" otherwise.
func lineEnding(text string, hasBlock bool) string {
	if hasBlock {
		if strings.HasPrefix(text, delimiter+"\r\n") {
			return "\r\n"
		}
		return "\n"
	}
	if i := strings.IndexByte(text, '\n'); i > 0 && text[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

func mappingRoot(doc *yaml.Node) (*yaml.Node, error) {
	// An empty block decodes to a zero node.
	if doc.Kind == 0 {
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, nil
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("front matter is not a YAML document")
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("front matter is not a mapping")
	}
	return root, nil
}

func setKey(root *yaml.Node, key string, values []string) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, v := range values {
		seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v})
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != key {
			continue
		}
		old := root.Content[i+1]
		if old.Kind == yaml.SequenceNode {
			seq.Style = old.Style & yaml.FlowStyle
		}
		seq.LineComment = old.LineComment
		root.Content[i+1] = seq
		return
	}

	root.Content = append(root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		seq,
	)
}

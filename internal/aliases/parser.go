// Package aliases turns completion replies into alias candidates and merges
// them into a document's existing alias collection.
package aliases

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/kaptinlin/jsonrepair"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Strategy tries to extract alias candidates from a raw reply. ok is false
// when the reply is not in the shape the strategy understands.
type Strategy interface {
	Name() string
	Parse(raw string) (candidates []string, ok bool)
}

// Parser applies its strategies in order; the first one that succeeds wins.
// The last strategy should always succeed.
type Parser struct {
	strategies []Strategy
}

// NewParser creates a Parser trying the given strategies in order.
func NewParser(strategies ...Strategy) *Parser {
	return &Parser{strategies: strategies}
}

// DefaultParser tries a strict JSON array, then a comma separated list.
func DefaultParser() *Parser {
	return NewParser(StrictArray{}, CommaList{})
}

// RepairingParser also attempts to repair almost-JSON arrays before falling
// back to comma splitting.
func RepairingParser() *Parser {
	return NewParser(StrictArray{}, RepairedArray{}, CommaList{})
}

// Parse returns the candidates from the first successful strategy. Nothing
// is deduplicated or filtered here.
func (p *Parser) Parse(raw string) []string {
	candidates, _ := p.ParseWith(raw)
	return candidates
}

// ParseWith is Parse that also reports which strategy produced the result.
func (p *Parser) ParseWith(raw string) ([]string, string) {
	for _, s := range p.strategies {
		if out, ok := s.Parse(raw); ok {
			return out, s.Name()
		}
	}
	// Only reachable with a strategy list that has no catch-all.
	out, _ := CommaList{}.Parse(raw)
	return out, CommaList{}.Name()
}

// Parse runs the default two-stage parser.
func Parse(raw string) []string {
	return DefaultParser().Parse(raw)
}

// StrictArray accepts a reply that is exactly a JSON array of strings.
type StrictArray struct{}

func (StrictArray) Name() string { return "json" }

func (StrictArray) Parse(raw string) ([]string, bool) {
	var out []string
	if err := json.UnmarshalFromString(raw, &out); err != nil {
		return nil, false
	}
	// "null" decodes without error but is not an array.
	if out == nil {
		return nil, false
	}
	return out, true
}

// RepairedArray accepts replies that look like a JSON array but are not
// quite valid, such as a trailing comma or single quotes.
type RepairedArray struct{}

func (RepairedArray) Name() string { return "json-repaired" }

func (RepairedArray) Parse(raw string) ([]string, bool) {
	if !strings.HasPrefix(strings.TrimSpace(raw), "[") {
		return nil, false
	}
	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return nil, false
	}
	return StrictArray{}.Parse(repaired)
}

// CommaList splits the reply on commas and trims each segment. Empty
// segments are kept. It never fails.
type CommaList struct{}

func (CommaList) Name() string { return "comma" }

func (CommaList) Parse(raw string) ([]string, bool) {
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts, true
}

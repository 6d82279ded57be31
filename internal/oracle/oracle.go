// Package oracle defines the external content-processing capability: text
// extraction from raw files and question answering over extracted text.
package oracle

import (
	"context"
	"errors"
	"regexp"
)

// ErrUnavailable is returned when no provider is configured.
var ErrUnavailable = errors.New("oracle unavailable")

// File is one stored upload handed to an Extractor.
type File struct {
	Name      string
	MediaType string
	Data      []byte
}

// Answer is the oracle's reply. Citations are in emission order and may
// repeat.
type Answer struct {
	Text      string
	Citations []string
}

// Extractor turns file bytes into plain text.
type Extractor interface {
	ExtractText(ctx context.Context, f File) (string, error)
}

// Answerer answers a question against extracted text.
type Answerer interface {
	Answer(ctx context.Context, text, question string) (Answer, error)
}

// Oracle provides both capabilities.
type Oracle interface {
	Extractor
	Answerer
}

type combined struct {
	Extractor
	Answerer
}

// Combine pairs an extractor and an answerer from different providers.
func Combine(e Extractor, a Answerer) Oracle {
	return combined{Extractor: e, Answerer: a}
}

// Placeholder fails every call with ErrUnavailable.
type Placeholder struct{}

// ExtractText returns ErrUnavailable.
func (Placeholder) ExtractText(ctx context.Context, f File) (string, error) {
	return "", ErrUnavailable
}

// Answer returns ErrUnavailable.
func (Placeholder) Answer(ctx context.Context, text, question string) (Answer, error) {
	return Answer{}, ErrUnavailable
}

var citationPattern = regexp.MustCompile(`\[Page \d+\]|\[Section [^\]]+\]`)

// ParseCitations returns every [Page N] and [Section X] marker in s, in order.
func ParseCitations(s string) []string {
	matches := citationPattern.FindAllString(s, -1)
	if matches == nil {
		return []string{}
	}
	return matches
}

// NewAnswer builds an Answer from raw model output.
func NewAnswer(text string) Answer {
	return Answer{Text: text, Citations: ParseCitations(text)}
}

var _ Oracle = Placeholder{}

// Package recognizer holds the pieces shared by the plate text recognizers.
package recognizer

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/alpr-go/model"
	"github.com/khaledhikmat/alpr-go/pipeline"
)

// DefaultPlatePattern matches Korean plates such as 12가3456 and 123가4567.
const DefaultPlatePattern = `\d{2,3}[가-힣]\d{4}`

// PlateNormalizer wraps a recognizer and reduces its raw output to a plate number.
type PlateNormalizer struct {
	next    pipeline.Recognizer
	pattern *regexp.Regexp
}

func NewPlateNormalizer(next pipeline.Recognizer, pattern string) (*PlateNormalizer, error) {
	if pattern == "" {
		pattern = DefaultPlatePattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, xerrors.Errorf("plate pattern %q: %w", pattern, err)
	}

	return &PlateNormalizer{
		next:    next,
		pattern: re,
	}, nil
}

func (n *PlateNormalizer) Recognize(ctx context.Context, crop model.Frame) (string, error) {
	raw, err := n.next.Recognize(ctx, crop)
	if err != nil {
		return "", err
	}
	return n.Normalize(raw), nil
}

// Normalize joins the recognized lines, drops whitespace and dashes and returns the first
// plate found, or "" when there is none.
func (n *PlateNormalizer) Normalize(raw string) string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return r
	}, raw)

	return n.pattern.FindString(compact)
}

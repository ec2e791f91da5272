package replacement

import (
	"strconv"
	"strings"
	"unicode"
)

// Validate checks a reference sequence and frame count before simulation
func Validate(references []int, frameCount int) error {
	if len(references) == 0 {
		return ErrEmptyReferences("Validate")
	}
	for pos, page := range references {
		if page < 0 {
			return ErrNegativeReference("Validate", pos, page)
		}
	}
	if frameCount <= 0 {
		return ErrInvalidFrameCount("Validate", frameCount)
	}
	return nil
}

// ParseReferences reads page ids separated by whitespace or commas
func ParseReferences(text string) ([]int, error) {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
	if len(tokens) == 0 {
		return nil, ErrEmptyReferences("ParseReferences")
	}

	references := make([]int, 0, len(tokens))
	for pos, token := range tokens {
		page, err := strconv.Atoi(token)
		if err != nil {
			return nil, ErrInvalidReference("ParseReferences", pos, token, err)
		}
		if page < 0 {
			return nil, ErrNegativeReference("ParseReferences", pos, page)
		}
		references = append(references, page)
	}
	return references, nil
}

// ParseFrameCount reads a positive frame count
func ParseFrameCount(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, NewSimulationError(ErrCodeInvalidInput, "ParseFrameCount",
			"frame count is not a number", err)
	}
	if n <= 0 {
		return 0, ErrInvalidFrameCount("ParseFrameCount", n)
	}
	return n, nil
}

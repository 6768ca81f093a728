package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/model"
)

// ErrNarrativeParse marks executive narrative text that is not the expected
// JSON object.
var ErrNarrativeParse = errors.New("executive narrative is not valid JSON")

// ParseExecutiveNarrative decodes the executive narrative. Markdown code
// fences around the object are tolerated. Unknown fields are ignored and the
// result is normalized.
func ParseExecutiveNarrative(text string) (model.ExecutiveNarrative, error) {
	body := StripCodeFences(text)
	if !strings.HasPrefix(body, "{") {
		return model.ExecutiveNarrative{}, fmt.Errorf("%w: expected an object", ErrNarrativeParse)
	}

	dec := json.NewDecoder(strings.NewReader(body))
	var n model.ExecutiveNarrative
	if err := dec.Decode(&n); err != nil {
		return model.ExecutiveNarrative{}, fmt.Errorf("%w: %v", ErrNarrativeParse, err)
	}
	if dec.More() {
		return model.ExecutiveNarrative{}, fmt.Errorf("%w: trailing data after object", ErrNarrativeParse)
	}
	return n.Normalized(), nil
}

// StripCodeFences removes ```json and ``` markers and surrounding space.
func StripCodeFences(text string) string {
	b := []byte(text)
	b = bytes.ReplaceAll(b, []byte("```json"), nil)
	b = bytes.ReplaceAll(b, []byte("```"), nil)
	return string(bytes.TrimSpace(b))
}

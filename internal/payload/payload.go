// Package payload implements the entry payload variant logic: one of four
// typed values per entry, selected through a single multiplexed form field.
package payload

import (
	"strconv"
	"strings"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
)

// ShortTextMax bounds the short_text variant.
const ShortTextMax = 200

// Input is the multiplexed form payload: Kind selects which of the four
// value fields is meaningful; the rest are ignored.
type Input struct {
	Kind            models.Kind
	Number          *float64
	NumberArrayText string
	ShortText       string
	LongText        string
}

// ParseNumberList parses a comma- or newline-separated block of decimals.
// Whitespace is trimmed and empty segments dropped. The first unparseable
// segment fails the whole input, naming the offending value.
func ParseNumberList(text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return []float64{}, nil
	}
	items := strings.Split(strings.ReplaceAll(text, ",", "\n"), "\n")
	numbers := make([]float64, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		n, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return nil, &apperr.ValidationError{Field: "number_array", Value: item, Msg: "invalid number"}
		}
		numbers = append(numbers, n)
	}
	return numbers, nil
}

// FormatNumberList renders values back into the comma-separated text block
// shown when editing a number_array entry.
func FormatNumberList(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ", ")
}

// Infer picks the active variant of an entry by inspecting which field
// holds a value, in fixed precedence order: number, number_array,
// short_text, long_text. First match wins; stray values in later fields
// are hidden. Returns "" when nothing is populated.
func Infer(e *models.Entry) models.Kind {
	switch {
	case e.Number != nil:
		return models.KindNumber
	case len(e.NumberArray) > 0:
		return models.KindNumberArray
	case e.ShortText != "":
		return models.KindShortText
	case e.LongText != "":
		return models.KindLongText
	}
	return ""
}

// ActiveKind returns the entry's stored discriminator when it is consistent
// with the populated fields, falling back to precedence inference for rows
// that predate the discriminator or were written out-of-band.
func ActiveKind(e *models.Entry) models.Kind {
	if e.Kind.Valid() && kindPopulated(e, e.Kind) {
		return e.Kind
	}
	if k := Infer(e); k != "" {
		return k
	}
	return models.KindNumber
}

func kindPopulated(e *models.Entry, k models.Kind) bool {
	switch k {
	case models.KindNumber:
		return e.Number != nil
	case models.KindNumberArray:
		return len(e.NumberArray) > 0
	case models.KindShortText:
		return e.ShortText != ""
	case models.KindLongText:
		return e.LongText != ""
	}
	return false
}

// Apply writes the active variant from in onto e and clears the other
// three fields, so switching variants on edit cannot leave stale values
// behind.
func Apply(e *models.Entry, in Input) error {
	if !in.Kind.Valid() {
		return &apperr.ValidationError{Field: "kind", Value: string(in.Kind), Msg: "unknown payload kind"}
	}

	e.Kind = in.Kind
	e.Number = nil
	e.NumberArray = nil
	e.ShortText = ""
	e.LongText = ""

	switch in.Kind {
	case models.KindNumber:
		if in.Number == nil {
			return &apperr.ValidationError{Field: "number", Msg: "value is required"}
		}
		n := *in.Number
		e.Number = &n
	case models.KindNumberArray:
		values, err := ParseNumberList(in.NumberArrayText)
		if err != nil {
			return err
		}
		e.NumberArray = values
	case models.KindShortText:
		if len(in.ShortText) > ShortTextMax {
			return &apperr.ValidationError{Field: "short_text", Msg: "exceeds 200 characters"}
		}
		e.ShortText = in.ShortText
	case models.KindLongText:
		e.LongText = in.LongText
	}
	return nil
}

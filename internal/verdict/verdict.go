// Package verdict parses free-form language model output into a validated
// classification verdict. Model output is untrusted: the parser strips
// markdown fencing, repairs common JSON malformations, and coerces each
// field independently rather than rejecting the whole response.
package verdict

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxReasonLength is the hard cap on the reason field. Longer values are
// truncated to exactly this many characters, ending in "...".
const MaxReasonLength = 200

const defaultReason = "No reason provided"

// Verdict is the validated classification result for a single email.
type Verdict struct {
	Responsive bool     `json:"responsive"`
	Confidence float64  `json:"confidence"`
	Reason     string   `json:"reason"`
	Labels     []string `json:"labels"`
}

var (
	fenceOpen  = regexp.MustCompile("^```[a-zA-Z]*[ \t]*\n?")
	fenceClose = regexp.MustCompile("\n?```[ \t]*$")

	singleQuoted       = regexp.MustCompile(`'([^']*)'`)
	trailingCommaBrace = regexp.MustCompile(`,\s*}`)
	trailingCommaBrack = regexp.MustCompile(`,\s*]`)
)

// Parse extracts a Verdict from raw model output.
//
// The pipeline: strip one leading/trailing code fence, locate the span from
// the first '{' to the last '}', attempt a strict JSON parse, and on failure
// retry once after repairing single-quoted strings and trailing commas.
// Returns ErrNoJSONFound, ErrUnparseableJSON, or MissingFieldError when no
// usable verdict can be recovered; all other malformations are coerced.
func Parse(raw string) (Verdict, error) {
	text := strings.TrimSpace(raw)
	text = fenceOpen.ReplaceAllString(text, "")
	text = fenceClose.ReplaceAllString(text, "")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return Verdict{}, ErrNoJSONFound
	}
	candidate := text[start : end+1]

	var fields map[string]any
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		repaired := singleQuoted.ReplaceAllString(candidate, `"$1"`)
		repaired = trailingCommaBrace.ReplaceAllString(repaired, "}")
		repaired = trailingCommaBrack.ReplaceAllString(repaired, "]")

		if repairErr := json.Unmarshal([]byte(repaired), &fields); repairErr != nil {
			return Verdict{}, fmt.Errorf("%w: %w", ErrUnparseableJSON, err)
		}
	}

	responsive, ok := fields["responsive"]
	if !ok {
		return Verdict{}, &MissingFieldError{Field: "responsive"}
	}

	confidence, hasConfidence := fields["confidence"]
	reason, hasReason := fields["reason"]
	labels, hasLabels := fields["labels"]

	return Verdict{
		Responsive: truthy(responsive),
		Confidence: coerceConfidence(confidence, hasConfidence),
		Reason:     coerceReason(reason, hasReason),
		Labels:     coerceLabels(labels, hasLabels),
	}, nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

func coerceConfidence(v any, present bool) float64 {
	if !present {
		return 0.5
	}

	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case bool:
		if t {
			f = 1.0
		}
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0.5
		}
		f = parsed
	default:
		return 0.5
	}

	if f < 0.0 {
		return 0.0
	}
	if f > 1.0 {
		return 1.0
	}
	return f
}

func coerceReason(v any, present bool) string {
	if !present {
		return defaultReason
	}

	reason := stringify(v)
	runes := []rune(reason)
	if len(runes) <= MaxReasonLength {
		return reason
	}

	return string(runes[:MaxReasonLength-3]) + "..."
}

func coerceLabels(v any, present bool) []string {
	if !present {
		return []string{}
	}

	list, isList := v.([]any)
	if !isList {
		if !truthy(v) {
			return []string{}
		}
		return []string{stringify(v)}
	}

	labels := make([]string, len(list))
	for i, item := range list {
		labels[i] = stringify(item)
	}
	return labels
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", t)
	}
}

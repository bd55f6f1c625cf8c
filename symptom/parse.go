package symptom

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Note attached to results built from an unparseable reply.
const unparsedNote = "AI response was not in expected JSON format - using fallback structure"

var (
	jsonFenceRe  = regexp.MustCompile("```json\\s*")
	plainFenceRe = regexp.MustCompile("```\\s*")
)

// ParseResponse converts raw provider text into a Result.
//
// Code fences are stripped and the text between the first '{' and the last
// '}' is decoded, which tolerates commentary around the JSON. All four
// required fields must be present and non-empty. Otherwise the generic
// extraction is returned together with a KindParse error; the Result is
// well-formed in both cases, so callers may log the error and carry on.
func ParseResponse(text string) (Result, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = jsonFenceRe.ReplaceAllString(cleaned, "")
	cleaned = plainFenceRe.ReplaceAllString(cleaned, "")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start != -1 && end > start {
		cleaned = cleaned[start : end+1]
	}

	var parsed Result
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return extractFromText(text), &Error{Kind: KindParse, Op: "parse", Err: err}
	}

	if missing := missingFields(parsed); len(missing) > 0 {
		return extractFromText(text), &Error{
			Kind: KindParse,
			Op:   "parse",
			Err:  fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", ")),
		}
	}

	// Only the four contract fields are taken from the model.
	return Result{
		Conditions: parsed.Conditions,
		NextSteps:  parsed.NextSteps,
		UrgentCare: parsed.UrgentCare,
		Disclaimer: parsed.Disclaimer,
	}, nil
}

func missingFields(r Result) []string {
	var missing []string
	if len(r.Conditions) == 0 {
		missing = append(missing, "conditions")
	}
	if len(r.NextSteps) == 0 {
		missing = append(missing, "nextSteps")
	}
	if len(r.UrgentCare) == 0 {
		missing = append(missing, "urgentCare")
	}
	if r.Disclaimer == "" {
		missing = append(missing, "disclaimer")
	}
	return missing
}

// extractFromText is the generic result for a reply that could not be used.
// The original text is kept for diagnosis.
func extractFromText(text string) Result {
	return Result{
		Conditions: []string{
			"Based on the symptoms described, several conditions could be possible",
			"Professional medical evaluation is recommended for accurate diagnosis",
		},
		NextSteps: []string{
			"Monitor symptoms closely",
			"Stay hydrated and rest",
			"Consult with a healthcare professional for proper evaluation",
			"Keep track of any changes in symptoms",
		},
		UrgentCare: []string{
			"Seek immediate medical attention if symptoms worsen rapidly",
			"Contact emergency services for severe or life-threatening symptoms",
			"Don't delay seeking help if you feel seriously unwell",
		},
		Disclaimer:  "This is for educational purposes only. Always consult qualified healthcare professionals for medical advice, diagnosis, or treatment.",
		RawResponse: text,
		Note:        unparsedNote,
	}
}

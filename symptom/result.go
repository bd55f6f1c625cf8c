// Package symptom turns a free-text symptom description into educational
// guidance: possible conditions, next steps, urgent-care warnings and a
// disclaimer.
//
// An Analyzer asks an ordered list of candidate models for a JSON answer and
// normalizes whatever comes back with ParseResponse. When every candidate
// fails it answers from Fallback, a deterministic keyword rule table, so a
// configured Analyzer always returns a well-formed Result.
package symptom

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Request is the input to an analysis.
type Request struct {
	Symptoms string `json:"symptoms" validate:"required"`
}

// Validate checks that the symptom text is present.
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return &Error{Kind: KindInvalidRequest, Op: "validate", Err: ErrEmptySymptoms}
	}
	return nil
}

// Result is the normalized analysis returned to every caller, whichever path
// produced it. Field names are part of the external JSON contract.
type Result struct {
	Conditions []string `json:"conditions" yaml:"conditions"`
	NextSteps  []string `json:"nextSteps" yaml:"nextSteps"`
	UrgentCare []string `json:"urgentCare" yaml:"urgentCare"`
	Disclaimer string   `json:"disclaimer" yaml:"disclaimer"`

	// Set only on fallback results.
	DemoMode         bool   `json:"demoMode,omitempty" yaml:"demoMode,omitempty"`
	AnalyzedSymptoms string `json:"analyzedSymptoms,omitempty" yaml:"analyzedSymptoms,omitempty"`

	// Set only when the provider reply could not be parsed.
	RawResponse string `json:"rawResponse,omitempty" yaml:"rawResponse,omitempty"`
	Note        string `json:"note,omitempty" yaml:"note,omitempty"`
}

// Valid reports whether all four required fields are non-empty.
func (r Result) Valid() bool {
	return len(r.Conditions) > 0 &&
		len(r.NextSteps) > 0 &&
		len(r.UrgentCare) > 0 &&
		r.Disclaimer != ""
}

// Degraded reports whether the result came from the fallback rules or from
// the generic extraction of an unparseable reply.
func (r Result) Degraded() bool {
	return r.DemoMode || r.Note != ""
}

package symptom

import "strings"

// DemoDisclaimer is attached to every fallback result.
const DemoDisclaimer = "DEMO MODE: This is a demonstration response based on keyword matching. " +
	"For actual AI analysis, configure a provider API key (for example GOOGLE_API_KEY in your .env file). " +
	"Always consult qualified healthcare professionals for medical advice, diagnosis, or treatment."

// Rule is one symptom category of the fallback table. A rule matches when
// any keyword occurs in the lower-cased symptom text.
type Rule struct {
	ID         string
	Keywords   []string
	Conditions []string
	NextSteps  []string
	UrgentCare []string
}

// Match reports whether the rule applies to already lower-cased text.
func (r Rule) Match(lowered string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// rules is the fallback table in evaluation order. Contributions of matching
// rules are concatenated in this order.
var rules = []Rule{
	{
		ID:       "headache",
		Keywords: []string{"headache", "head"},
		Conditions: []string{
			"Tension headache - often caused by stress, dehydration, or lack of sleep",
			"Migraine - if accompanied by sensitivity to light or nausea",
		},
		NextSteps: []string{
			"Try rest in a dark, quiet room",
			"Apply cold or warm compress to head/neck",
		},
	},
	{
		ID:       "fever",
		Keywords: []string{"fever", "temperature"},
		Conditions: []string{
			"Viral infection - common cause of fever with other symptoms",
			"Bacterial infection - if fever is high or persistent",
		},
		NextSteps: []string{
			"Monitor temperature regularly",
			"Stay hydrated with fluids",
		},
		UrgentCare: []string{
			"Seek immediate care if fever exceeds 103°F (39.4°C)",
		},
	},
	{
		ID:       "respiratory",
		Keywords: []string{"cough", "throat"},
		Conditions: []string{
			"Upper respiratory infection - viral or bacterial",
			"Common cold or flu",
		},
		NextSteps: []string{
			"Gargle with warm salt water",
			"Use throat lozenges for comfort",
		},
	},
	{
		ID:       "chest",
		Keywords: []string{"chest", "breathing"},
		Conditions: []string{
			"Respiratory condition - requires medical evaluation",
		},
		UrgentCare: []string{
			"Seek IMMEDIATE medical attention for chest pain or breathing difficulties",
			"Call emergency services if severe shortness of breath",
		},
	},
	{
		ID:       "digestive",
		Keywords: []string{"stomach", "nausea", "vomit"},
		Conditions: []string{
			"Gastroenteritis - stomach flu or food-related illness",
			"Digestive upset - dietary or stress-related",
		},
		NextSteps: []string{
			"Stay hydrated with small sips of clear fluids",
			"Try bland foods like toast or crackers",
		},
	},
}

var (
	genericConditions = []string{
		"General symptoms may indicate viral infection, stress, or minor illness",
		"Multiple factors could contribute to these symptoms",
	}
	baselineNextSteps = []string{
		"Monitor symptoms for 24-48 hours",
		"Stay hydrated and get adequate rest",
		"Consult with a healthcare professional for proper evaluation",
	}
	// Used only when no matching rule contributed urgent-care guidance.
	baselineUrgentCare = []string{
		"Seek immediate medical attention if symptoms worsen rapidly",
		"Contact emergency services for severe symptoms",
	}
	finalUrgentCare = "Don't delay seeking help if you feel seriously unwell"
)

// MatchedRules returns the IDs of the rules that match symptoms, in table order.
func MatchedRules(symptoms string) []string {
	lowered := strings.ToLower(symptoms)
	var ids []string
	for _, rule := range rules {
		if rule.Match(lowered) {
			ids = append(ids, rule.ID)
		}
	}
	return ids
}

// Fallback builds a Result from the keyword rule table. It performs no I/O
// and returns identical output for identical input.
func Fallback(symptoms string) Result {
	lowered := strings.ToLower(symptoms)

	conditions := []string{}
	nextSteps := []string{}
	urgentCare := []string{}

	for _, rule := range rules {
		if !rule.Match(lowered) {
			continue
		}
		conditions = append(conditions, rule.Conditions...)
		nextSteps = append(nextSteps, rule.NextSteps...)
		urgentCare = append(urgentCare, rule.UrgentCare...)
	}

	if len(conditions) == 0 {
		conditions = append(conditions, genericConditions...)
	}

	nextSteps = append(nextSteps, baselineNextSteps...)

	if len(urgentCare) == 0 {
		urgentCare = append(urgentCare, baselineUrgentCare...)
	}
	urgentCare = append(urgentCare, finalUrgentCare)

	return Result{
		Conditions:       conditions,
		NextSteps:        nextSteps,
		UrgentCare:       urgentCare,
		Disclaimer:       DemoDisclaimer,
		DemoMode:         true,
		AnalyzedSymptoms: symptoms,
	}
}

package symptom

import (
	"bytes"
	"fmt"
	"text/template"
)

// promptTemplate asks for the Result JSON shape and nothing else.
var promptTemplate = template.Must(template.New("symptoms").Parse(`You are a medical education assistant. Analyze these symptoms for educational purposes only.

Symptoms: {{.Symptoms}}

IMPORTANT: Respond ONLY with valid JSON in this exact format (no additional text):

{
  "conditions": [
    "Possible condition 1 with educational context",
    "Possible condition 2 with educational context"
  ],
  "nextSteps": [
    "Recommended step 1",
    "Recommended step 2",
    "Consult with a healthcare professional"
  ],
  "urgentCare": [
    "When to seek immediate medical attention",
    "Emergency warning signs to watch for"
  ],
  "disclaimer": "This is for educational purposes only. Always consult healthcare professionals for medical advice, diagnosis, or treatment."
}

Requirements:
- Educational purpose only
- Include safety warnings
- Recommend professional consultation
- Valid JSON format only`))

type promptData struct {
	Symptoms string
}

// BuildPrompt embeds the symptom text verbatim in the instruction prompt.
// The output is deterministic for a given input.
func BuildPrompt(symptoms string) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, promptData{Symptoms: symptoms}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

package formatter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/xostack/xosymptom/symptom"
)

func init() {
	color.NoColor = true
}

var sample = symptom.Result{
	Conditions: []string{"Tension headache", "Migraine"},
	NextSteps:  []string{"Rest in a dark room"},
	UrgentCare: []string{"Sudden severe headache"},
	Disclaimer: "Educational only.",
}

func TestDisplay_JSONUsesContractFieldNames(t *testing.T) {
	var buf bytes.Buffer
	if err := Display(&buf, sample, FormatJSON); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Expected valid JSON, got %q: %v", buf.String(), err)
	}
	for _, key := range []string{"conditions", "nextSteps", "urgentCare", "disclaimer"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("Expected key %q in JSON output", key)
		}
	}
	if _, ok := decoded["demoMode"]; ok {
		t.Error("Expected demoMode to be omitted for a remote result")
	}
}

func TestDisplay_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Display(&buf, symptom.Fallback("fever"), FormatYAML); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	var decoded symptom.Result
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Expected valid YAML, got %q: %v", buf.String(), err)
	}
	if !decoded.DemoMode || decoded.AnalyzedSymptoms != "fever" {
		t.Errorf("Expected fallback markers in YAML, got %+v", decoded)
	}
}

func TestDisplay_Human(t *testing.T) {
	var buf bytes.Buffer
	if err := Display(&buf, sample, FormatHuman); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"POSSIBLE CONDITIONS:",
		"1. Tension headache",
		"2. Migraine",
		"RECOMMENDED NEXT STEPS:",
		"SEEK URGENT CARE IF:",
		"! Sudden severe headache",
		"Educational only.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "DEMO MODE") {
		t.Error("Expected no demo banner for a remote result")
	}
}

func TestDisplay_HumanDemoAndNote(t *testing.T) {
	var buf bytes.Buffer
	result := symptom.Fallback("chest pain")
	result.Note = "Response could not be parsed."
	Display(&buf, result, "unknown-format")

	out := buf.String()
	if !strings.Contains(out, "DEMO MODE") || !strings.Contains(out, "Symptoms: chest pain") {
		t.Errorf("Expected demo banner with symptoms, got:\n%s", out)
	}
	if !strings.Contains(out, "NOTE:") {
		t.Errorf("Expected note section, got:\n%s", out)
	}
}

func TestValidFormat(t *testing.T) {
	for _, f := range []string{"human", "json", "yaml"} {
		if !ValidFormat(f) {
			t.Errorf("Expected %q to be valid", f)
		}
	}
	if ValidFormat("xml") {
		t.Error("Expected xml to be invalid")
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("one two three four", 9, "  ")
	want := "  one two\n  three\n  four"
	if got != want {
		t.Errorf("wrapText() = %q, want %q", got, want)
	}
}

package main

import (
	"fmt"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// Step is one customer message and what the reply must look like.
type Step struct {
	Say          string   `json:"say"`
	ExpectFlow   string   `json:"expect_flow,omitempty"`
	ExpectAction string   `json:"expect_action,omitempty"`
	Contains     []string `json:"contains,omitempty"`
}

type Scenario struct {
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
}

// builtinScenarios only lean on quick patterns so they pass without an LLM.
var builtinScenarios = []Scenario{
	{
		Name: "greeting",
		Steps: []Step{
			{Say: "Merhaba", Contains: []string{"yardımcı"}},
			{Say: "teşekkürler", Contains: []string{"Rica ederim"}},
		},
	},
	{
		Name: "salon-info",
		Steps: []Step{
			{Say: "Çalışma saatleriniz nedir, kaça kadar açıksınız?", Contains: []string{"hizmetinizdeyiz"}},
			{Say: "Adresiniz nerede?", Contains: []string{"Adresimiz"}},
			{Say: "görüşürüz", Contains: []string{"bekleriz"}},
		},
	},
}

func loadScenarios(path string) ([]Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenarios: %w", err)
	}

	var list []Scenario
	if err := jsoniter.Unmarshal(raw, &list); err != nil {
		var single Scenario
		if err2 := jsoniter.Unmarshal(raw, &single); err2 != nil {
			return nil, fmt.Errorf("parse scenarios: %w", err)
		}
		list = []Scenario{single}
	}

	for i, s := range list {
		if len(s.Steps) == 0 {
			return nil, fmt.Errorf("scenario %d (%q) has no steps", i, s.Name)
		}
	}
	return list, nil
}

// check lists every expectation of step that the reply misses.
func check(step Step, text, flow, action string) []string {
	var failures []string
	if step.ExpectFlow != "" && !strings.EqualFold(step.ExpectFlow, flow) {
		failures = append(failures, fmt.Sprintf("flow %q, want %q", flow, step.ExpectFlow))
	}
	if step.ExpectAction != "" && !strings.EqualFold(step.ExpectAction, action) {
		failures = append(failures, fmt.Sprintf("action %q, want %q", action, step.ExpectAction))
	}
	lower := strings.ToLower(text)
	for _, want := range step.Contains {
		if !strings.Contains(lower, strings.ToLower(want)) {
			failures = append(failures, fmt.Sprintf("reply does not contain %q", want))
		}
	}
	return failures
}

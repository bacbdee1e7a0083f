//go:build js_eval

package rules_test

import (
	"testing"

	"github.com/goliatone/go-resume/pkg/rules"
)

func TestJSEvaluatorReadsSnapshot(t *testing.T) {
	evaluator := rules.NewJSEvaluator(
		rules.JSWithFunctionRegistry(rules.DefaultFunctions()),
		rules.JSWithProgramCache(rules.NewMemoryCache()),
	)
	if evaluator == nil {
		t.Fatalf("expected js evaluator with js_eval tag")
	}

	got, err := evaluator.Evaluate(rules.RuleContext{Snapshot: sampleSnapshot()},
		`content.sections.length > 0 && isHexColor(colors.accent)`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got != true {
		t.Fatalf("expected true, got %v", got)
	}
}

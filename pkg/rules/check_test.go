package rules_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-resume/pkg/rules"
)

func TestRunCollectsFindings(t *testing.T) {
	evaluator := rules.NewExprEvaluator(rules.ExprWithFunctionRegistry(rules.DefaultFunctions()))
	checks := []rules.Check{
		{Name: "name", Expr: `content.name != ""`},
		{Name: "summary-length", Expr: `wordCount(content.summary) > 10`, Severity: rules.SeverityWarning, Message: "summary is short"},
		{Name: "not-boolean", Expr: `page.width`},
	}

	var logged []rules.EvaluatorLogEvent
	runner := rules.Runner{
		Evaluator: evaluator,
		Logger:    rules.EvaluatorLoggerFunc(func(event rules.EvaluatorLogEvent) { logged = append(logged, event) }),
	}
	report, err := runner.Run(sampleSnapshot(), checks...)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Engine != "expr" || len(report.Findings) != 3 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if !report.Findings[0].Passed {
		t.Fatalf("expected name check to pass: %+v", report.Findings[0])
	}
	warning := report.Findings[1]
	if warning.Passed || warning.Message != "summary is short" || warning.Severity != rules.SeverityWarning {
		t.Fatalf("unexpected warning finding: %+v", warning)
	}
	invalid := report.Findings[2]
	var evalErr *rules.EvaluationError
	if invalid.Passed || !errors.As(invalid.Err, &evalErr) || evalErr.Check != "not-boolean" {
		t.Fatalf("expected non-boolean result recorded as evaluation error, got %+v", invalid)
	}
	if report.OK() {
		t.Fatalf("expected report to fail on error-severity finding")
	}
	if len(report.Failed()) != 2 {
		t.Fatalf("expected 2 failed findings, got %d", len(report.Failed()))
	}
	if len(logged) != 3 {
		t.Fatalf("expected one log event per check, got %d", len(logged))
	}
}

func TestRunWarningsDoNotFailReport(t *testing.T) {
	report, err := rules.Run(rules.NewExprEvaluator(), sampleSnapshot(),
		rules.Check{Name: "soft", Expr: `false`, Severity: rules.SeverityWarning},
	)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.OK() {
		t.Fatalf("expected warnings to keep report OK")
	}
}

func TestRunRequiresEvaluator(t *testing.T) {
	if _, err := rules.Run(nil, nil); !errors.Is(err, rules.ErrNoEvaluator) {
		t.Fatalf("expected ErrNoEvaluator, got %v", err)
	}
}

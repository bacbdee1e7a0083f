package resume

import (
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-resume/pkg/rules"
)

type checkSource struct {
	name     string
	severity rules.Severity
	message  string
	expr     string
	cel      string
	js       string
}

var defaultCheckSources = []checkSource{
	{
		name:    "name-present",
		message: "the résumé has no name",
		expr:    `trim(content.name) != ""`,
		cel:     `content.name.trim() != ""`,
		js:      `content.name.trim() !== ""`,
	},
	{
		name:    "has-sections",
		message: "the résumé has no sections",
		expr:    `len(content.sections) > 0`,
		cel:     `size(content.sections) > 0`,
		js:      `content.sections.length > 0`,
	},
	{
		name:    "page-in-bounds",
		message: "page size is outside 50-500 mm",
		expr:    `page.width >= 50 && page.width <= 500 && page.height >= 50 && page.height <= 500`,
		cel:     `page.width >= 50.0 && page.width <= 500.0 && page.height >= 50.0 && page.height <= 500.0`,
		js:      `page.width >= 50 && page.width <= 500 && page.height >= 50 && page.height <= 500`,
	},
	{
		name:     "accent-hex",
		severity: rules.SeverityWarning,
		message:  "accent color is not a hex color",
		expr:     `isHexColor(colors.accent)`,
		cel:      `isHexColor(colors.accent) == true`,
		js:       `isHexColor(colors.accent)`,
	},
	{
		name:     "items-labelled",
		severity: rules.SeverityWarning,
		message:  "an item has no primary label",
		expr:     `all(content.sections, {all(.items, {trim(.label1) != ""})})`,
		cel:      `content.sections.all(s, s.items.all(i, i.label1.trim() != ""))`,
		js:       `content.sections.every(s => s.items.every(i => i.label1.trim() !== ""))`,
	},
}

// DefaultChecks returns the stock preflight checks written for the expr engine.
func DefaultChecks() []rules.Check {
	return ChecksFor("expr")
}

// ChecksFor returns the stock preflight checks in the dialect of engine
// ("expr", "cel" or "js"). Unknown engines get the expr dialect.
func ChecksFor(engine string) []rules.Check {
	checks := make([]rules.Check, 0, len(defaultCheckSources))
	for _, source := range defaultCheckSources {
		expr := source.expr
		switch engine {
		case "cel":
			expr = source.cel
		case "js":
			expr = source.js
		}
		checks = append(checks, rules.Check{
			Name:     source.name,
			Expr:     expr,
			Severity: source.severity,
			Message:  source.message,
		})
	}
	return checks
}

// NewPreflightEvaluator returns an evaluator for engine with the default
// function registry and a program cache. The js engine needs the js_eval build
// tag; without it an error is returned.
func NewPreflightEvaluator(engine string) (rules.Evaluator, error) {
	registry := rules.DefaultFunctions()
	cache := rules.NewMemoryCache()
	switch engine {
	case "", "expr":
		return rules.NewExprEvaluator(rules.ExprWithFunctionRegistry(registry), rules.ExprWithProgramCache(cache)), nil
	case "cel":
		return rules.NewCELEvaluator(rules.CELWithFunctionRegistry(registry), rules.CELWithProgramCache(cache)), nil
	case "js":
		evaluator := rules.NewJSEvaluator(rules.JSWithFunctionRegistry(registry), rules.JSWithProgramCache(cache))
		if evaluator == nil {
			return nil, fmt.Errorf("resume: js engine requires the js_eval build tag: %w", rules.ErrNoEvaluator)
		}
		return evaluator, nil
	default:
		return nil, fmt.Errorf("resume: unknown rule engine %q", engine)
	}
}

// Preflight evaluates checks against the present document. A nil evaluator
// selects the expr engine; no checks selects the stock set for the engine.
func (h *History) Preflight(evaluator rules.Evaluator, checks ...rules.Check) (rules.Report, error) {
	if evaluator == nil {
		var err error
		if evaluator, err = NewPreflightEvaluator("expr"); err != nil {
			return rules.Report{}, err
		}
	}
	if len(checks) == 0 {
		checks = ChecksFor(evaluator.Engine())
	}

	snapshot, err := documentSnapshot(h.Present())
	if err != nil {
		return rules.Report{}, err
	}
	runner := rules.Runner{Evaluator: evaluator, Logger: h.cfg.evaluatorLogger, Now: h.cfg.now}
	return runner.Run(snapshot, checks...)
}

func documentSnapshot(doc Document) (map[string]any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("resume: snapshot: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("resume: snapshot: %w", err)
	}
	return out, nil
}

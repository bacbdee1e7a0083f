package rules

import (
	"fmt"
	"time"
)

// Severity ranks a failed check.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Check is a named boolean expression. It passes when Expr yields true.
type Check struct {
	Name     string   `json:"name" yaml:"name" toml:"name"`
	Expr     string   `json:"expr" yaml:"expr" toml:"expr"`
	Severity Severity `json:"severity,omitempty" yaml:"severity,omitempty" toml:"severity,omitempty"`
	Message  string   `json:"message,omitempty" yaml:"message,omitempty" toml:"message,omitempty"`
}

func (c Check) severity() Severity {
	if c.Severity == "" {
		return SeverityError
	}
	return c.Severity
}

// Finding is the outcome of one check.
type Finding struct {
	Check    string   `json:"check"`
	Severity Severity `json:"severity"`
	Passed   bool     `json:"passed"`
	Message  string   `json:"message,omitempty"`
	Err      error    `json:"-"`
}

// Report collects the findings of one run in check order.
type Report struct {
	Engine   string    `json:"engine"`
	Findings []Finding `json:"findings"`
}

// OK reports whether no error-severity check failed.
func (r Report) OK() bool {
	for _, finding := range r.Findings {
		if !finding.Passed && finding.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Failed returns the findings that did not pass.
func (r Report) Failed() []Finding {
	var out []Finding
	for _, finding := range r.Findings {
		if !finding.Passed {
			out = append(out, finding)
		}
	}
	return out
}

// Runner evaluates checks with one evaluator.
type Runner struct {
	Evaluator Evaluator
	Logger    EvaluatorLogger
	Now       func() time.Time
}

// Run evaluates checks against snapshot with evaluator and no logging.
func Run(evaluator Evaluator, snapshot map[string]any, checks ...Check) (Report, error) {
	return Runner{Evaluator: evaluator}.Run(snapshot, checks...)
}

// Run evaluates every check. Evaluation failures and non-boolean results are
// recorded on the finding as a failed check; only a missing evaluator is
// returned as an error.
func (r Runner) Run(snapshot map[string]any, checks ...Check) (Report, error) {
	if r.Evaluator == nil {
		return Report{}, ErrNoEvaluator
	}
	logger := r.Logger
	if logger == nil {
		logger = noopEvaluatorLogger{}
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	at := now()

	engine := r.Evaluator.Engine()
	report := Report{Engine: engine, Findings: make([]Finding, 0, len(checks))}
	for _, check := range checks {
		ctx := RuleContext{Snapshot: snapshot, Now: &at, Check: check.Name}
		start := time.Now()
		passed, err := r.evaluate(ctx, check)
		logger.LogEvaluation(EvaluatorLogEvent{
			Engine:   engine,
			Expr:     check.Expr,
			Check:    check.Name,
			Duration: time.Since(start),
			Err:      err,
		})

		finding := Finding{Check: check.Name, Severity: check.severity(), Passed: passed, Err: err}
		if !passed {
			finding.Message = check.Message
			if finding.Message == "" {
				finding.Message = fmt.Sprintf("check %q failed", check.Name)
			}
		}
		report.Findings = append(report.Findings, finding)
	}
	return report, nil
}

func (r Runner) evaluate(ctx RuleContext, check Check) (bool, error) {
	compiled, err := r.Evaluator.Compile(check.Expr)
	if err != nil {
		return false, wrapEvaluationError(r.Evaluator.Engine(), check.Expr, check.Name, err)
	}
	value, err := compiled.Evaluate(ctx)
	if err != nil {
		return false, wrapEvaluationError(r.Evaluator.Engine(), check.Expr, check.Name, err)
	}
	passed, ok := value.(bool)
	if !ok {
		return false, &EvaluationError{
			Engine: r.Evaluator.Engine(),
			Expr:   check.Expr,
			Check:  check.Name,
			Err:    fmt.Errorf("result %v (%T) is not a boolean", value, value),
		}
	}
	return passed, nil
}

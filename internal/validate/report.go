// Package validate checks draft models and candidate solutions. Invalidity is
// always reported as data in a ValidationReport; the functions here never
// fail on bad models, only on programmer misuse.
package validate

import (
	"fmt"

	"optimind/internal/types"
)

// reportBuilder accumulates findings for one validator invocation.
type reportBuilder struct {
	violations []types.Violation
}

func (b *reportBuilder) add(cat types.ViolationCategory, format string, args ...any) {
	b.violations = append(b.violations, types.Violation{
		Category: cat,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (b *reportBuilder) advisory(cat types.ViolationCategory, format string, args ...any) {
	b.violations = append(b.violations, types.Violation{
		Category: cat,
		Message:  fmt.Sprintf(format, args...),
		Advisory: true,
	})
}

// build finalizes the report. Confidence starts at 1.0 and loses 0.15 per
// failed finding and 0.05 per advisory one, floored at zero.
func (b *reportBuilder) build() types.ValidationReport {
	failed := 0
	advisories := 0
	for _, v := range b.violations {
		if v.Advisory {
			advisories++
		} else {
			failed++
		}
	}
	conf := 1.0 - 0.15*float64(failed) - 0.05*float64(advisories)
	if conf < 0 {
		conf = 0
	}
	return types.ValidationReport{
		Passed:     failed == 0,
		Violations: b.violations,
		Confidence: conf,
	}
}

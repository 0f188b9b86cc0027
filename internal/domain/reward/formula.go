package reward

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"kpiengine/internal/domain/period"
)

var hundred = decimal.NewFromInt(100)

// Formula selects how a salary and KPI turn into a payout.
//
// FormulaStandard pays base * kpi/100 on top of the base salary whatever the
// period type. FormulaPeriodMultiplier first scales the base salary by the
// number of months in the period (1x, 3x, 12x), matching rewards produced by
// the historical bulk seeding.
type Formula string

const (
	FormulaStandard         Formula = "standard"
	FormulaPeriodMultiplier Formula = "period_multiplier"
)

func ParseFormula(raw string) (Formula, error) {
	switch f := Formula(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FormulaStandard, nil
	case FormulaStandard, FormulaPeriodMultiplier:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormula, raw)
}

type Amounts struct {
	Base  decimal.Decimal
	Bonus decimal.Decimal
	Total decimal.Decimal
}

func (f Formula) Compute(baseSalary, kpi decimal.Decimal, t period.Type) Amounts {
	base := baseSalary
	if f == FormulaPeriodMultiplier {
		base = base.Mul(decimal.NewFromInt(int64(t.Months())))
	}
	bonus := base.Mul(kpi).Div(hundred).Round(2)
	return Amounts{Base: base, Bonus: bonus, Total: base.Add(bonus)}
}

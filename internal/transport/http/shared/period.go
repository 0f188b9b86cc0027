package shared

import (
	"net/http"
	"strings"
	"time"

	"kpiengine/internal/domain/period"
)

// PeriodQuery reads ?period=YYYY-MM&periodType=... and falls back to the month
// of now and the type derived from the period. Problems land on v.
func PeriodQuery(v *Validator, r *http.Request, now time.Time) (period.Period, period.Type) {
	query := r.URL.Query()
	p := period.FromTime(now.UTC())
	if raw := strings.TrimSpace(query.Get("period")); raw != "" {
		parsed, ok := v.Period("period", raw)
		if !ok {
			return period.Period{}, ""
		}
		p = parsed
	}
	t := v.PeriodType("periodType", query.Get("periodType"))
	if v.HasIssues() {
		return p, ""
	}
	resolved, _ := period.Resolve(p, t)
	return p, resolved
}

package shared

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kpiengine/internal/domain/kpi"
	"kpiengine/internal/domain/period"
	"kpiengine/internal/domain/reward"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("employee e1: %w", reward.ErrBaseSalaryNotSet), http.StatusUnprocessableEntity, "base_salary_not_set"},
		{kpi.ErrInvalidWeights, http.StatusUnprocessableEntity, "invalid_weights"},
		{period.ErrInvalidType, http.StatusBadRequest, "invalid_period_type"},
		{reward.ErrNotFound, http.StatusNotFound, "not_found"},
		{kpi.ErrDepartmentNotFound, http.StatusNotFound, "department_not_found"},
		{errors.New("connection refused"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		status, code := StatusFor(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("pq: password authentication failed"), "r-1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestValidatorPeriodFields(t *testing.T) {
	v := NewValidator()
	p, ok := v.Period("period", "2024-03")
	assert.True(t, ok)
	assert.Equal(t, period.New(2024, time.March), p)
	assert.Equal(t, period.Type(""), v.PeriodType("periodType", ""))
	assert.Equal(t, period.Yearly, v.PeriodType("periodType", "YEARLY"))
	assert.False(t, v.HasIssues())

	v.Period("period", "last month")
	v.PeriodType("periodType", "weekly")
	v.IntRange("tasksWeightPercentage", 120, 0, 100)
	_, ok = v.Decimal("value", "abc")
	assert.False(t, ok)

	issues := v.Issues()
	assert.Len(t, issues, 4)
	assert.Equal(t, "period", issues[0].Field)
}

func TestParsePagination(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=900&offset=20", nil)
	assert.Equal(t, Pagination{Limit: MaxLimit, Offset: 20}, ParsePagination(r, DefaultLimit, MaxLimit))

	r = httptest.NewRequest(http.MethodGet, "/?limit=-1&offset=x", nil)
	assert.Equal(t, Pagination{Limit: DefaultLimit, Offset: 0}, ParsePagination(r, DefaultLimit, MaxLimit))
}

func TestPeriodQueryDefaults(t *testing.T) {
	now := time.Date(2024, time.December, 3, 0, 0, 0, 0, time.UTC)

	v := NewValidator()
	p, typ := PeriodQuery(v, httptest.NewRequest(http.MethodGet, "/", nil), now)
	assert.False(t, v.HasIssues())
	assert.Equal(t, period.New(2024, time.December), p)
	assert.Equal(t, period.Yearly, typ)

	v = NewValidator()
	p, typ = PeriodQuery(v, httptest.NewRequest(http.MethodGet, "/?period=2024-06&periodType=monthly", nil), now)
	assert.False(t, v.HasIssues())
	assert.Equal(t, period.New(2024, time.June), p)
	assert.Equal(t, period.Monthly, typ)

	v = NewValidator()
	PeriodQuery(v, httptest.NewRequest(http.MethodGet, "/?period=2024-13", nil), now)
	assert.True(t, v.HasIssues())
}

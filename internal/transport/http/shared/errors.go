package shared

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"kpiengine/internal/domain/kpi"
	"kpiengine/internal/domain/period"
	"kpiengine/internal/domain/reward"
	"kpiengine/internal/platform/jobs"
	"kpiengine/internal/transport/http/api"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{period.ErrInvalidPeriod, http.StatusBadRequest, "invalid_period"},
	{period.ErrInvalidType, http.StatusBadRequest, "invalid_period_type"},
	{kpi.ErrInvalidWeights, http.StatusUnprocessableEntity, "invalid_weights"},
	{kpi.ErrInvalidWeight, http.StatusUnprocessableEntity, "invalid_weight"},
	{kpi.ErrInvalidBonusPercentage, http.StatusUnprocessableEntity, "invalid_weights"},
	{kpi.ErrUnknownImportance, http.StatusUnprocessableEntity, "unknown_importance"},
	{kpi.ErrInvalidIndicator, http.StatusUnprocessableEntity, "invalid_indicator"},
	{kpi.ErrNotEmployeesManager, http.StatusForbidden, "not_employees_manager"},
	{reward.ErrBaseSalaryNotSet, http.StatusUnprocessableEntity, "base_salary_not_set"},
	{reward.ErrUnknownFormula, http.StatusUnprocessableEntity, "unknown_formula"},
	{kpi.ErrIndicatorNotFound, http.StatusNotFound, "indicator_not_found"},
	{kpi.ErrEmployeeNotFound, http.StatusNotFound, "employee_not_found"},
	{reward.ErrEmployeeNotFound, http.StatusNotFound, "employee_not_found"},
	{kpi.ErrManagerNotFound, http.StatusNotFound, "manager_not_found"},
	{reward.ErrManagerNotFound, http.StatusNotFound, "manager_not_found"},
	{kpi.ErrDepartmentNotFound, http.StatusNotFound, "department_not_found"},
	{reward.ErrDepartmentNotFound, http.StatusUnprocessableEntity, "department_not_found"},
	{reward.ErrNotFound, http.StatusNotFound, "not_found"},
	{jobs.ErrRunNotFound, http.StatusNotFound, "not_found"},
	{jobs.ErrQueueFull, http.StatusServiceUnavailable, "queue_full"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
}

// StatusFor maps a domain error to its HTTP status and error code.
func StatusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// WriteError reports err in the JSON envelope. Unmapped errors are logged
// and hidden behind a generic message.
func WriteError(w http.ResponseWriter, err error, requestID string) {
	status, code := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "requestId", requestID, "err", err)
		message = "internal server error"
	}
	api.Fail(w, status, code, message, requestID)
}

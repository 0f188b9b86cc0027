package kpihandler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"kpiengine/internal/domain/audit"
	"kpiengine/internal/domain/auth"
	"kpiengine/internal/domain/kpi"
	"kpiengine/internal/transport/http/api"
	"kpiengine/internal/transport/http/middleware"
	"kpiengine/internal/transport/http/shared"
)

type Handler struct {
	Service *kpi.Service
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
	Now     func() time.Time
}

func NewHandler(service *kpi.Service, perms middleware.PermissionStore, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: recorder, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/kpi", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermKPIRead, h.Perms)).Get("/settings", h.handleGetSettings)
		r.With(middleware.RequirePermission(auth.PermKPIAdmin, h.Perms)).Put("/settings", h.handleUpdateSettings)
		r.With(middleware.RequirePermission(auth.PermKPIRead, h.Perms)).Get("/importance-weights", h.handleListWeights)
		r.With(middleware.RequirePermission(auth.PermKPIAdmin, h.Perms)).Put("/importance-weights/{importance}", h.handleUpdateWeight)
		r.With(middleware.RequirePermission(auth.PermKPIRead, h.Perms)).Get("/indicators", h.handleListIndicators)
		r.With(middleware.RequirePermission(auth.PermKPIAdmin, h.Perms)).Post("/indicators", h.handleCreateIndicator)
		r.With(middleware.RequirePermission(auth.PermKPIAdmin, h.Perms)).Put("/indicators/{indicatorID}", h.handleUpdateIndicator)
		r.With(middleware.RequirePermission(auth.PermKPIAdmin, h.Perms)).Delete("/indicators/{indicatorID}", h.handleDeleteIndicator)
		r.With(middleware.RequirePermission(auth.PermKPIEvaluate, h.Perms)).Put("/values", h.handleSetValue)
		r.With(middleware.RequirePermission(auth.PermRewardsRead, h.Perms)).Get("/employees", h.handleAllEmployees)
		r.With(middleware.RequirePermission(auth.PermKPIRead, h.Perms)).Get("/employees/{employeeID}", h.handleBreakdown)
		r.With(middleware.RequirePermission(auth.PermKPIRead, h.Perms)).Get("/employees/{employeeID}/history", h.handleHistory)
		r.With(middleware.RequirePermission(auth.PermRewardsRead, h.Perms)).Get("/departments/{departmentID}", h.handleDepartment)
	})
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.Settings(r.Context())
	if err != nil {
		shared.WriteError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, settings, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload struct {
		TasksWeight        *int `json:"tasksWeightPercentage"`
		ManagerWeight      *int `json:"managerEvaluationPercentage"`
		ManagerBonusWeight *int `json:"managerBonusPercentage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	before, err := h.Service.Settings(r.Context())
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}

	v := shared.NewValidator()
	if payload.TasksWeight == nil {
		v.Add("tasksWeightPercentage", "required")
	}
	if payload.ManagerWeight == nil {
		v.Add("managerEvaluationPercentage", "required")
	}
	if v.Reject(w, requestID) {
		return
	}
	bonus := before.ManagerBonusWeight
	if payload.ManagerBonusWeight != nil {
		bonus = *payload.ManagerBonusWeight
	}

	after, err := h.Service.UpdateSettings(r.Context(), *payload.TasksWeight, *payload.ManagerWeight, bonus, user.SubjectID)
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	h.record(r.Context(), audit.ActionSettingsUpdate, "kpi_settings", "1", before, after)
	api.Success(w, after, requestID)
}

func (h *Handler) handleListWeights(w http.ResponseWriter, r *http.Request) {
	weights, err := h.Service.ImportanceWeights(r.Context())
	if err != nil {
		shared.WriteError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, weights, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateWeight(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	importance := chi.URLParam(r, "importance")

	var payload struct {
		Weight int `json:"weight"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Service.UpdateImportanceWeight(r.Context(), importance, payload.Weight); err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	updated := kpi.ImportanceWeight{Importance: importance, Weight: payload.Weight}
	h.record(r.Context(), audit.ActionWeightUpdate, "importance_weight", importance, nil, updated)
	api.Success(w, updated, requestID)
}

type indicatorPayload struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Weight          int    `json:"weight"`
	TargetValue     string `json:"targetValue"`
	MeasurementUnit string `json:"measurementUnit"`
}

func (p indicatorPayload) toIndicator(v *shared.Validator) kpi.Indicator {
	v.Required("name", p.Name, "required")
	v.IntRange("weight", p.Weight, 0, 100)
	target, _ := v.Decimal("targetValue", p.TargetValue)
	return kpi.Indicator{
		Name:            p.Name,
		Description:     p.Description,
		Weight:          p.Weight,
		TargetValue:     target,
		MeasurementUnit: p.MeasurementUnit,
	}
}

func (h *Handler) handleListIndicators(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	indicators, err := h.Service.ListIndicators(r.Context())
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	total, err := h.Service.IndicatorWeightTotal(r.Context())
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	api.Success(w, map[string]any{"indicators": indicators, "weights": total}, requestID)
}

func (h *Handler) handleCreateIndicator(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload indicatorPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	indicator := payload.toIndicator(v)
	if v.Reject(w, requestID) {
		return
	}

	id, err := h.Service.CreateIndicator(r.Context(), indicator)
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	indicator.ID = id
	h.record(r.Context(), audit.ActionIndicatorCreate, "kpi_indicator", id, nil, indicator)
	api.Created(w, indicator, requestID)
}

func (h *Handler) handleUpdateIndicator(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload indicatorPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	indicator := payload.toIndicator(v)
	if v.Reject(w, requestID) {
		return
	}
	indicator.ID = chi.URLParam(r, "indicatorID")

	if err := h.Service.UpdateIndicator(r.Context(), indicator); err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	h.record(r.Context(), audit.ActionIndicatorUpdate, "kpi_indicator", indicator.ID, nil, indicator)
	api.Success(w, indicator, requestID)
}

func (h *Handler) handleDeleteIndicator(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	indicatorID := chi.URLParam(r, "indicatorID")
	if err := h.Service.DeleteIndicator(r.Context(), indicatorID); err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	h.record(r.Context(), audit.ActionIndicatorDelete, "kpi_indicator", indicatorID, nil, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetValue(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload struct {
		EmployeeID  string `json:"employeeId"`
		IndicatorID string `json:"indicatorId"`
		Period      string `json:"period"`
		Value       string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "required")
	v.Required("indicatorId", payload.IndicatorID, "required")
	p, _ := v.Period("period", payload.Period)
	value, _ := v.Decimal("value", payload.Value)
	if v.Reject(w, requestID) {
		return
	}

	if err := h.Service.SetKPIValue(r.Context(), user.SubjectID, payload.EmployeeID, payload.IndicatorID, p, value); err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	stored := kpi.Value{
		EmployeeID:  payload.EmployeeID,
		IndicatorID: payload.IndicatorID,
		Value:       value,
		Period:      p.Start(),
		SetBy:       user.SubjectID,
	}
	h.record(r.Context(), audit.ActionKPIValueSet, "kpi_value", payload.EmployeeID+"/"+payload.IndicatorID+"/"+p.String(), nil, stored)
	api.Success(w, stored, requestID)
}

func (h *Handler) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	if !h.canView(w, r, employeeID) {
		return
	}

	v := shared.NewValidator()
	p, t := shared.PeriodQuery(v, r, h.Now())
	if v.Reject(w, requestID) {
		return
	}
	breakdown, err := h.Service.Breakdown(r.Context(), employeeID, p, t)
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	api.Success(w, breakdown, requestID)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	if !h.canView(w, r, employeeID) {
		return
	}

	limit := kpi.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "limit", Reason: "must be a positive integer"}})
			return
		}
		limit = parsed
	}

	history, err := h.Service.EmployeeHistory(r.Context(), employeeID, limit)
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	api.Success(w, history, requestID)
}

func (h *Handler) handleAllEmployees(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	p, t := shared.PeriodQuery(v, r, h.Now())
	if v.Reject(w, requestID) {
		return
	}
	all, err := h.Service.AllEmployeesKPI(r.Context(), p, t)
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	api.Success(w, all, requestID)
}

func (h *Handler) handleDepartment(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	p, t := shared.PeriodQuery(v, r, h.Now())
	if v.Reject(w, requestID) {
		return
	}
	result, err := h.Service.DepartmentKPI(r.Context(), chi.URLParam(r, "departmentID"), p, t)
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	api.Success(w, result, requestID)
}

// canView lets employees read only their own KPI.
func (h *Handler) canView(w http.ResponseWriter, r *http.Request, employeeID string) bool {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return false
	}
	if user.Role == auth.RoleEmployee && user.SubjectID != employeeID {
		api.Fail(w, http.StatusForbidden, "forbidden", "employees may only view their own kpi", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

func (h *Handler) record(ctx context.Context, action, entityType, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	user, _ := middleware.GetUser(ctx)
	evt := audit.Event{
		ActorID:    user.SubjectID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  middleware.GetRequestID(ctx),
	}
	if err := h.Audit.Record(ctx, evt, before, after); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

package rewardshandler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"kpiengine/internal/domain/audit"
	"kpiengine/internal/domain/auth"
	"kpiengine/internal/domain/period"
	"kpiengine/internal/domain/reward"
	"kpiengine/internal/platform/jobs"
	"kpiengine/internal/platform/statement"
	"kpiengine/internal/transport/http/api"
	"kpiengine/internal/transport/http/middleware"
	"kpiengine/internal/transport/http/shared"
)

const (
	batchRateLimit  = 10
	batchRateWindow = time.Minute
)

type Handler struct {
	Service *reward.Service
	Jobs    *jobs.Service
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
	Now     func() time.Time
}

func NewHandler(service *reward.Service, jobsSvc *jobs.Service, perms middleware.PermissionStore, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Jobs: jobsSvc, Perms: perms, Audit: recorder, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	run := middleware.RequirePermission(auth.PermRewardsRun, h.Perms)
	read := middleware.RequirePermission(auth.PermRewardsRead, h.Perms)
	batch := middleware.RateLimit(batchRateLimit, batchRateWindow)

	r.Route("/rewards", func(r chi.Router) {
		r.With(run).Post("/employees/{employeeID}/calculate", h.handleCalculateEmployee)
		r.With(run).Post("/managers/{managerID}/calculate", h.handleCalculateManager)
		r.With(run, batch).Post("/departments/{departmentID}/calculate", h.handleCalculateDepartment)
		r.With(run, batch).Post("/calculate", h.handleCalculateAll)
		r.With(run, batch).Post("/managers/calculate", h.handleCalculateAllManagers)
		r.With(run, batch).Post("/all-time", h.handleAllTime)
		r.With(read).Get("/", h.handleListRewards)
		r.With(read).Get("/managers", h.handleListManagerRewards)
		r.With(read).Get("/statistics", h.handleStatistics)
		r.With(read).Get("/{rewardID}/statement.pdf", h.handleStatement)
	})
	r.With(run).Get("/jobs/{jobID}", h.handleGetJob)
}

func (h *Handler) handleCalculateEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	p, t := shared.PeriodQuery(v, r, h.Now())
	if v.Reject(w, requestID) {
		return
	}
	out, err := h.Service.CalculateEmployee(r.Context(), chi.URLParam(r, "employeeID"), p, t)
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	api.Success(w, out, requestID)
}

func (h *Handler) handleCalculateManager(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	p, t := shared.PeriodQuery(v, r, h.Now())
	if v.Reject(w, requestID) {
		return
	}
	out, err := h.Service.CalculateManager(r.Context(), chi.URLParam(r, "managerID"), p, t)
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	api.Success(w, out, requestID)
}

func (h *Handler) handleCalculateDepartment(w http.ResponseWriter, r *http.Request) {
	departmentID := chi.URLParam(r, "departmentID")
	h.runBatch(w, r, "department", departmentID, func(ctx context.Context, p period.Period, t period.Type) (reward.BatchResult, error) {
		return h.Service.CalculateDepartment(ctx, departmentID, p, t)
	})
}

func (h *Handler) handleCalculateAll(w http.ResponseWriter, r *http.Request) {
	h.runBatch(w, r, reward.KindEmployee, "all", h.Service.CalculateAll)
}

func (h *Handler) handleCalculateAllManagers(w http.ResponseWriter, r *http.Request) {
	h.runBatch(w, r, reward.KindManager, "all", h.Service.CalculateAllManagers)
}

// runBatch executes a recompute synchronously as a tracked job run and
// answers with the per-unit outcome.
func (h *Handler) runBatch(w http.ResponseWriter, r *http.Request, entityType, entityID string, fn func(context.Context, period.Period, period.Type) (reward.BatchResult, error)) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	p, t := shared.PeriodQuery(v, r, h.Now())
	if v.Reject(w, requestID) {
		return
	}

	details, err := h.Jobs.RunNow(r.Context(), jobs.JobRewardsPeriod, func(ctx context.Context) (any, error) {
		return fn(ctx, p, t)
	})
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	result, _ := details.(reward.BatchResult)
	h.record(r.Context(), entityType, entityID, map[string]any{
		"period":     p.String(),
		"periodType": t,
		"succeeded":  len(result.Succeeded),
		"failed":     len(result.Failed),
	})
	api.Success(w, result, requestID)
}

func (h *Handler) handleAllTime(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	t := v.PeriodType("periodType", r.URL.Query().Get("periodType"))
	if v.Reject(w, requestID) {
		return
	}
	if t == "" {
		t = period.Monthly
	}

	id, err := h.Jobs.EnqueueAllTime(r.Context(), t)
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	h.record(r.Context(), "all_time", id, map[string]any{"periodType": t})
	api.Accepted(w, map[string]string{"jobId": id, "status": jobs.StatusQueued}, requestID)
}

func (h *Handler) handleGetJob(w http.ResponseWriter, r *http.Request) {
	run, err := h.Jobs.Get(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		shared.WriteError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, run, middleware.GetRequestID(r.Context()))
}

func parseFilter(r *http.Request, v *shared.Validator) reward.Filter {
	query := r.URL.Query()
	page := shared.ParsePagination(r, shared.DefaultLimit, shared.MaxLimit)
	filter := reward.Filter{
		SubjectID:    strings.TrimSpace(query.Get("subjectId")),
		DepartmentID: strings.TrimSpace(query.Get("departmentId")),
		PeriodType:   v.PeriodType("periodType", query.Get("periodType")),
		Limit:        page.Limit,
		Offset:       page.Offset,
	}
	if raw := strings.TrimSpace(query.Get("period")); raw != "" {
		if p, ok := v.Period("period", raw); ok {
			start := p.Start()
			filter.Period = &start
		}
	}
	return filter
}

// scope keeps managers inside their own department.
func (h *Handler) scope(w http.ResponseWriter, r *http.Request, filter *reward.Filter) bool {
	user, _ := middleware.GetUser(r.Context())
	if user.Role != auth.RoleManager {
		return true
	}
	manager, err := h.Service.GetManager(r.Context(), user.SubjectID)
	if err != nil {
		shared.WriteError(w, err, middleware.GetRequestID(r.Context()))
		return false
	}
	filter.DepartmentID = manager.DepartmentID
	return true
}

func (h *Handler) handleListRewards(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	filter := parseFilter(r, v)
	if v.Reject(w, requestID) || !h.scope(w, r, &filter) {
		return
	}
	rewards, err := h.Service.ListRewards(r.Context(), filter)
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	api.Success(w, rewards, requestID)
}

func (h *Handler) handleListManagerRewards(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	filter := parseFilter(r, v)
	if v.Reject(w, requestID) || !h.scope(w, r, &filter) {
		return
	}
	rewards, err := h.Service.ListManagerRewards(r.Context(), filter)
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	api.Success(w, rewards, requestID)
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	filter := parseFilter(r, v)
	kind := r.URL.Query().Get("kind")
	v.Enum("kind", kind, []string{reward.KindEmployee, reward.KindManager}, "must be employee or manager")
	if v.Reject(w, requestID) || !h.scope(w, r, &filter) {
		return
	}

	var (
		stats reward.Statistics
		err   error
	)
	if strings.EqualFold(kind, reward.KindManager) {
		stats, err = h.Service.ManagerStatistics(r.Context(), filter)
	} else {
		stats, err = h.Service.Statistics(r.Context(), filter)
	}
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	api.Success(w, stats, requestID)
}

func (h *Handler) handleStatement(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	rw, err := h.Service.GetReward(r.Context(), chi.URLParam(r, "rewardID"))
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	employee, err := h.Service.GetEmployee(r.Context(), rw.EmployeeID)
	if err != nil {
		shared.WriteError(w, err, requestID)
		return
	}
	filter := reward.Filter{}
	if !h.scope(w, r, &filter) {
		return
	}
	if filter.DepartmentID != "" && filter.DepartmentID != employee.DepartmentID {
		api.Fail(w, http.StatusForbidden, "forbidden", "reward belongs to another department", requestID)
		return
	}

	pdf, err := statement.Render(statement.Data{Reward: rw, EmployeeName: employee.Name})
	if err != nil {
		slog.Error("statement render failed", "rewardId", rw.ID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "statement_failed", "failed to render statement", requestID)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="reward-`+rw.EmployeeID+`-`+period.FromTime(rw.Period).String()+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		slog.Warn("statement write failed", "rewardId", rw.ID, "err", err)
	}
}

func (h *Handler) record(ctx context.Context, entityType, entityID string, after any) {
	if h.Audit == nil {
		return
	}
	user, _ := middleware.GetUser(ctx)
	evt := audit.Event{
		ActorID:    user.SubjectID,
		Action:     audit.ActionRewardsRecompute,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  middleware.GetRequestID(ctx),
	}
	if err := h.Audit.Record(ctx, evt, nil, after); err != nil {
		slog.Warn("audit record failed", "action", evt.Action, "err", err)
	}
}

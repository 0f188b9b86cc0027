// Package memory keeps the whole KPI and reward data set in process. It backs
// tests and local runs; KPI() and Rewards() expose the two store interfaces.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kpiengine/internal/domain/kpi"
	"kpiengine/internal/domain/period"
	"kpiengine/internal/domain/reward"
)

type Person struct {
	ID           string
	Name         string
	DepartmentID string
	Position     string
	BaseSalary   decimal.Decimal
	HireDate     time.Time
}

type valueKey struct {
	employeeID  string
	indicatorID string
	month       time.Time
}

type rewardKey struct {
	subjectID  string
	month      time.Time
	periodType period.Type
}

type Store struct {
	mu             sync.RWMutex
	departments    map[string]string
	employees      map[string]Person
	managers       map[string]Person
	tasks          []kpi.Task
	weights        map[string]int
	indicators     map[string]kpi.Indicator
	values         map[valueKey]kpi.Value
	settings       *kpi.Settings
	rewards        map[rewardKey]reward.Reward
	managerRewards map[rewardKey]reward.ManagerReward
	listErr        error
}

func New() *Store {
	s := &Store{
		departments:    map[string]string{},
		employees:      map[string]Person{},
		managers:       map[string]Person{},
		weights:        map[string]int{},
		indicators:     map[string]kpi.Indicator{},
		values:         map[valueKey]kpi.Value{},
		rewards:        map[rewardKey]reward.Reward{},
		managerRewards: map[rewardKey]reward.ManagerReward{},
	}
	for _, w := range kpi.DefaultImportanceWeights() {
		s.weights[w.Importance] = w.Weight
	}
	return s
}

func (s *Store) KPI() kpi.StoreAPI {
	return kpiView{s}
}

func (s *Store) Rewards() reward.StoreAPI {
	return rewardView{s}
}

func (s *Store) AddDepartment(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.departments[id] = name
}

func (s *Store) AddEmployee(p Person) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[p.ID] = p
}

func (s *Store) AddManager(p Person) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Position == "" {
		p.Position = reward.PositionManager
	}
	s.managers[p.ID] = p
}

func (s *Store) AddTask(task kpi.Task) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	s.tasks = append(s.tasks, task)
	return task.ID
}

func (s *Store) SetWeight(importance string, weight int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weights[importance] = weight
}

func (s *Store) AddIndicator(indicator kpi.Indicator) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if indicator.ID == "" {
		indicator.ID = uuid.NewString()
	}
	s.indicators[indicator.ID] = indicator
	return indicator.ID
}

func (s *Store) SetValue(value kpi.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[valueKey{value.EmployeeID, value.IndicatorID, monthStart(value.Period)}] = value
}

// FailListings makes every subject listing return err until reset with nil.
func (s *Store) FailListings(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = err
}

func (s *Store) RewardCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rewards)
}

func (s *Store) ManagerRewardCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.managerRewards)
}

func monthStart(t time.Time) time.Time {
	return period.FromTime(t.UTC()).Start()
}

func sortedPeople(people map[string]Person, keep func(Person) bool) []Person {
	var out []Person
	for _, p := range people {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].HireDate.Equal(out[j].HireDate) {
			return out[i].HireDate.Before(out[j].HireDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type kpiView struct{ s *Store }

func toEmployee(p Person) kpi.Employee {
	return kpi.Employee{ID: p.ID, Name: p.Name, DepartmentID: p.DepartmentID, Position: p.Position, BaseSalary: p.BaseSalary, HireDate: p.HireDate}
}

func (v kpiView) ListImportanceWeights(context.Context) ([]kpi.ImportanceWeight, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := make([]kpi.ImportanceWeight, 0, len(v.s.weights))
	for importance, weight := range v.s.weights {
		out = append(out, kpi.ImportanceWeight{Importance: importance, Weight: weight})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Weight < out[j].Weight })
	return out, nil
}

func (v kpiView) UpdateImportanceWeight(_ context.Context, importance string, weight int) error {
	v.s.SetWeight(importance, weight)
	return nil
}

func (v kpiView) ListEmployeeTasks(_ context.Context, employeeID string, from, until time.Time) ([]kpi.Task, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	var out []kpi.Task
	for _, task := range v.s.tasks {
		if task.CreatedAt.Before(from) || !task.CreatedAt.Before(until) {
			continue
		}
		for _, id := range task.EmployeeIDs {
			if id == employeeID {
				out = append(out, task)
				break
			}
		}
	}
	return out, nil
}

func (v kpiView) ListEmployeeKPIValues(_ context.Context, employeeID string, month time.Time) ([]kpi.IndicatorValue, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	month = monthStart(month)
	var out []kpi.IndicatorValue
	for key, value := range v.s.values {
		if key.employeeID != employeeID || !key.month.Equal(month) {
			continue
		}
		indicator, ok := v.s.indicators[key.indicatorID]
		if !ok {
			continue
		}
		out = append(out, kpi.IndicatorValue{
			IndicatorID: indicator.ID,
			Value:       value.Value,
			TargetValue: indicator.TargetValue,
			Weight:      indicator.Weight,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IndicatorID < out[j].IndicatorID })
	return out, nil
}

func (v kpiView) GetSettings(context.Context) (kpi.Settings, bool, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	if v.s.settings == nil {
		return kpi.Settings{}, false, nil
	}
	return *v.s.settings, true, nil
}

func (v kpiView) SaveSettings(_ context.Context, settings kpi.Settings) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.settings = &settings
	return nil
}

func (v kpiView) ListIndicators(context.Context) ([]kpi.Indicator, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := make([]kpi.Indicator, 0, len(v.s.indicators))
	for _, indicator := range v.s.indicators {
		out = append(out, indicator)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (v kpiView) GetIndicator(_ context.Context, indicatorID string) (kpi.Indicator, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	indicator, ok := v.s.indicators[indicatorID]
	if !ok {
		return kpi.Indicator{}, kpi.ErrIndicatorNotFound
	}
	return indicator, nil
}

func (v kpiView) CreateIndicator(_ context.Context, indicator kpi.Indicator) (string, error) {
	indicator.ID = ""
	return v.s.AddIndicator(indicator), nil
}

func (v kpiView) UpdateIndicator(_ context.Context, indicator kpi.Indicator) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.indicators[indicator.ID]; !ok {
		return kpi.ErrIndicatorNotFound
	}
	v.s.indicators[indicator.ID] = indicator
	return nil
}

func (v kpiView) DeleteIndicator(_ context.Context, indicatorID string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.indicators[indicatorID]; !ok {
		return kpi.ErrIndicatorNotFound
	}
	delete(v.s.indicators, indicatorID)
	for key := range v.s.values {
		if key.indicatorID == indicatorID {
			delete(v.s.values, key)
		}
	}
	return nil
}

func (v kpiView) UpsertKPIValue(_ context.Context, value kpi.Value) error {
	v.s.SetValue(value)
	return nil
}

func (v kpiView) GetEmployee(_ context.Context, employeeID string) (kpi.Employee, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	p, ok := v.s.employees[employeeID]
	if !ok {
		return kpi.Employee{}, kpi.ErrEmployeeNotFound
	}
	return toEmployee(p), nil
}

func (v kpiView) ListEmployees(context.Context) ([]kpi.Employee, error) {
	return v.listEmployees(func(Person) bool { return true })
}

func (v kpiView) ListDepartmentEmployees(_ context.Context, departmentID string) ([]kpi.Employee, error) {
	return v.listEmployees(func(p Person) bool { return p.DepartmentID == departmentID })
}

func (v kpiView) listEmployees(keep func(Person) bool) ([]kpi.Employee, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	var out []kpi.Employee
	for _, p := range sortedPeople(v.s.employees, keep) {
		out = append(out, toEmployee(p))
	}
	return out, nil
}

func (v kpiView) DepartmentExists(_ context.Context, departmentID string) (bool, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	_, ok := v.s.departments[departmentID]
	return ok, nil
}

func (v kpiView) ManagerDepartmentID(_ context.Context, managerID string) (string, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	p, ok := v.s.managers[managerID]
	if !ok {
		return "", kpi.ErrManagerNotFound
	}
	return p.DepartmentID, nil
}

func (v kpiView) EmployeeActivityMonths(_ context.Context, employeeID string, until time.Time, limit int) ([]time.Time, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	seen := map[time.Time]bool{}
	for key := range v.s.values {
		if key.employeeID == employeeID {
			seen[key.month] = true
		}
	}
	for _, task := range v.s.tasks {
		if task.Deadline == nil {
			continue
		}
		for _, id := range task.EmployeeIDs {
			if id == employeeID {
				seen[monthStart(*task.Deadline)] = true
			}
		}
	}
	var months []time.Time
	for month := range seen {
		if month.Before(until) {
			months = append(months, month)
		}
	}
	sort.Slice(months, func(i, j int) bool { return months[i].After(months[j]) })
	if limit > 0 && len(months) > limit {
		months = months[:limit]
	}
	return months, nil
}

type rewardView struct{ s *Store }

func toSubject(p Person) reward.Subject {
	return reward.Subject{ID: p.ID, Name: p.Name, DepartmentID: p.DepartmentID, Position: p.Position, BaseSalary: p.BaseSalary, HireDate: p.HireDate}
}

func (v rewardView) GetEmployee(_ context.Context, employeeID string) (reward.Subject, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	p, ok := v.s.employees[employeeID]
	if !ok {
		return reward.Subject{}, reward.ErrEmployeeNotFound
	}
	return toSubject(p), nil
}

func (v rewardView) GetManager(_ context.Context, managerID string) (reward.Subject, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	p, ok := v.s.managers[managerID]
	if !ok {
		return reward.Subject{}, reward.ErrManagerNotFound
	}
	return toSubject(p), nil
}

func (v rewardView) ListEmployeeIDs(_ context.Context, departmentID string) ([]string, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	if v.s.listErr != nil {
		return nil, v.s.listErr
	}
	var ids []string
	for _, p := range sortedPeople(v.s.employees, func(p Person) bool { return departmentID == "" || p.DepartmentID == departmentID }) {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func (v rewardView) ListManagerIDs(_ context.Context, position string) ([]string, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	if v.s.listErr != nil {
		return nil, v.s.listErr
	}
	var ids []string
	for _, p := range sortedPeople(v.s.managers, func(p Person) bool { return p.Position == position }) {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func (v rewardView) CountDepartmentEmployees(_ context.Context, departmentID string) (int, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	return len(sortedPeople(v.s.employees, func(p Person) bool { return p.DepartmentID == departmentID })), nil
}

func (v rewardView) DepartmentExists(_ context.Context, departmentID string) (bool, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	_, ok := v.s.departments[departmentID]
	return ok, nil
}

func (v rewardView) EarliestHireDate(context.Context) (time.Time, bool, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	var earliest time.Time
	found := false
	for _, people := range []map[string]Person{v.s.employees, v.s.managers} {
		for _, p := range people {
			if !found || p.HireDate.Before(earliest) {
				earliest, found = p.HireDate, true
			}
		}
	}
	return earliest, found, nil
}

func (v rewardView) UpsertReward(_ context.Context, r reward.Reward) (reward.Reward, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	key := rewardKey{r.EmployeeID, monthStart(r.Period), r.PeriodType}
	if existing, ok := v.s.rewards[key]; ok {
		r.ID = existing.ID
	} else {
		r.ID = uuid.NewString()
	}
	v.s.rewards[key] = r
	return r, nil
}

func (v rewardView) UpsertManagerReward(_ context.Context, r reward.ManagerReward) (reward.ManagerReward, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	key := rewardKey{r.ManagerID, monthStart(r.Period), r.PeriodType}
	if existing, ok := v.s.managerRewards[key]; ok {
		r.ID = existing.ID
	} else {
		r.ID = uuid.NewString()
	}
	v.s.managerRewards[key] = r
	return r, nil
}

func (v rewardView) GetReward(_ context.Context, rewardID string) (reward.Reward, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	for _, r := range v.s.rewards {
		if r.ID == rewardID {
			return r, nil
		}
	}
	return reward.Reward{}, reward.ErrNotFound
}

func (v rewardView) matches(filter reward.Filter, subjectID, departmentID string, month time.Time, t period.Type) bool {
	if filter.SubjectID != "" && filter.SubjectID != subjectID {
		return false
	}
	if filter.DepartmentID != "" && filter.DepartmentID != departmentID {
		return false
	}
	if filter.Period != nil && !monthStart(*filter.Period).Equal(month) {
		return false
	}
	return filter.PeriodType == "" || filter.PeriodType == t
}

func (v rewardView) ListRewards(_ context.Context, filter reward.Filter) ([]reward.Reward, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	var out []reward.Reward
	for key, r := range v.s.rewards {
		if v.matches(filter, r.EmployeeID, v.s.employees[r.EmployeeID].DepartmentID, key.month, r.PeriodType) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Period.Equal(out[j].Period) {
			return out[i].Period.After(out[j].Period)
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return page(out, filter), nil
}

func (v rewardView) ListManagerRewards(_ context.Context, filter reward.Filter) ([]reward.ManagerReward, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	var out []reward.ManagerReward
	for key, r := range v.s.managerRewards {
		if v.matches(filter, r.ManagerID, r.DepartmentID, key.month, r.PeriodType) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Period.Equal(out[j].Period) {
			return out[i].Period.After(out[j].Period)
		}
		return out[i].ManagerID < out[j].ManagerID
	})
	return page(out, filter), nil
}

func page[T any](rows []T, filter reward.Filter) []T {
	if filter.Offset >= len(rows) {
		return nil
	}
	rows = rows[filter.Offset:]
	if filter.Limit > 0 && len(rows) > filter.Limit {
		rows = rows[:filter.Limit]
	}
	return rows
}

func (v rewardView) RewardStatistics(ctx context.Context, filter reward.Filter) (reward.Statistics, error) {
	unpaged := filter
	unpaged.Limit, unpaged.Offset = 0, 0
	rows, _ := v.ListRewards(ctx, unpaged)
	var stats statsBuilder
	for _, r := range rows {
		stats.add(r.BaseSalary, r.BonusAmount, r.TotalAmount, r.KPITotal)
	}
	return stats.result(), nil
}

func (v rewardView) ManagerRewardStatistics(ctx context.Context, filter reward.Filter) (reward.Statistics, error) {
	unpaged := filter
	unpaged.Limit, unpaged.Offset = 0, 0
	rows, _ := v.ListManagerRewards(ctx, unpaged)
	var stats statsBuilder
	for _, r := range rows {
		stats.add(r.BaseSalary, r.BonusAmount, r.TotalAmount, r.AvgDepartmentKPI)
	}
	return stats.result(), nil
}

type statsBuilder struct {
	count                    int
	base, bonus, total, kpis decimal.Decimal
}

func (b *statsBuilder) add(base, bonus, total, kpiValue decimal.Decimal) {
	b.count++
	b.base = b.base.Add(base)
	b.bonus = b.bonus.Add(bonus)
	b.total = b.total.Add(total)
	b.kpis = b.kpis.Add(kpiValue)
}

func (b statsBuilder) result() reward.Statistics {
	out := reward.Statistics{Count: b.count, TotalBase: b.base, TotalBonus: b.bonus, TotalPayout: b.total, AverageKPI: decimal.Zero}
	if b.count > 0 {
		out.AverageKPI = b.kpis.Div(decimal.NewFromInt(int64(b.count))).Round(2)
	}
	return out
}

package kpi_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpiengine/internal/domain/kpi"
	"kpiengine/internal/domain/period"
	"kpiengine/internal/store/memory"
)

var may2024 = period.New(2024, time.May)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func newFixture(t *testing.T) (*memory.Store, *kpi.Service) {
	t.Helper()
	store := memory.New()
	store.AddDepartment("dept-1", "Engineering")
	store.AddManager(memory.Person{ID: "mgr-1", Name: "Mara", DepartmentID: "dept-1", BaseSalary: dec("150000")})
	store.AddEmployee(memory.Person{ID: "emp-1", Name: "Ivan", DepartmentID: "dept-1", BaseSalary: dec("50000"), HireDate: time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)})
	store.AddEmployee(memory.Person{ID: "emp-2", Name: "Olga", DepartmentID: "dept-1", BaseSalary: dec("40000"), HireDate: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)})
	svc := kpi.NewService(store.KPI()).WithClock(func() time.Time {
		return time.Date(2024, time.June, 15, 9, 0, 0, 0, time.UTC)
	})
	return store, svc
}

func addTask(store *memory.Store, employeeID, importance, status string, created time.Time) {
	store.AddTask(kpi.Task{EmployeeIDs: []string{employeeID}, Importance: importance, Status: status, CreatedAt: created})
}

func addScenarioATasks(store *memory.Store) {
	created := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)
	addTask(store, "emp-1", kpi.ImportanceMedium, kpi.TaskStatusCompleted, created)
	addTask(store, "emp-1", kpi.ImportanceMedium, kpi.TaskStatusCompleted, created)
	addTask(store, "emp-1", kpi.ImportanceCritical, kpi.TaskStatusInProgress, created)
}

func TestTaskKPIWeightsByImportance(t *testing.T) {
	store, svc := newFixture(t)
	addScenarioATasks(store)
	// outside the monthly window
	addTask(store, "emp-1", kpi.ImportanceCritical, kpi.TaskStatusCompleted, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))

	got, err := svc.TaskKPI(context.Background(), "emp-1", may2024, period.Monthly)
	require.NoError(t, err)
	assertDecimal(t, "44.44", got)
}

func TestTaskKPIQuarterWidensWindow(t *testing.T) {
	store, svc := newFixture(t)
	addTask(store, "emp-1", kpi.ImportanceLow, kpi.TaskStatusCompleted, time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC))
	addTask(store, "emp-1", kpi.ImportanceLow, kpi.TaskStatusFrozen, time.Date(2024, time.June, 30, 23, 0, 0, 0, time.UTC))

	monthly, err := svc.TaskKPI(context.Background(), "emp-1", may2024, period.Monthly)
	require.NoError(t, err)
	assert.True(t, monthly.IsZero())

	quarterly, err := svc.TaskKPI(context.Background(), "emp-1", may2024, period.Quarterly)
	require.NoError(t, err)
	assertDecimal(t, "50", quarterly)
}

func TestComputeTaskKPIUnknownImportanceCountsForNothing(t *testing.T) {
	weights := kpi.WeightTable(kpi.DefaultImportanceWeights())
	tasks := []kpi.Task{
		{Importance: kpi.ImportanceHigh, Status: kpi.TaskStatusCompleted},
		{Importance: "urgent", Status: kpi.TaskStatusNotStarted},
	}
	assertDecimal(t, "100", kpi.ComputeTaskKPI(tasks, weights))

	assert.True(t, kpi.ComputeTaskKPI([]kpi.Task{{Importance: "urgent", Status: kpi.TaskStatusCompleted}}, weights).IsZero())
	assert.True(t, kpi.ComputeTaskKPI(nil, weights).IsZero())
}

func TestWeightTableDropsNonPositive(t *testing.T) {
	table := kpi.WeightTable([]kpi.ImportanceWeight{{Importance: kpi.ImportanceLow, Weight: 0}, {Importance: kpi.ImportanceHigh, Weight: 3}})
	assert.Equal(t, map[string]int{kpi.ImportanceHigh: 3}, table)
}

func TestAchievementBounds(t *testing.T) {
	assertDecimal(t, "150", kpi.Achievement(dec("300"), dec("100")))
	assertDecimal(t, "0", kpi.Achievement(dec("-5"), dec("100")))
	assertDecimal(t, "80", kpi.Achievement(dec("80"), dec("0")))
	assertDecimal(t, "200", kpi.Achievement(dec("200"), dec("0")))
	assertDecimal(t, "120", kpi.Achievement(dec("120"), dec("-1")))
}

func TestManagerKPICapsAchievement(t *testing.T) {
	store, svc := newFixture(t)
	first := store.AddIndicator(kpi.Indicator{Name: "Quality", Weight: 50, TargetValue: dec("100")})
	second := store.AddIndicator(kpi.Indicator{Name: "Delivery", Weight: 50, TargetValue: dec("100")})
	store.SetValue(kpi.Value{EmployeeID: "emp-1", IndicatorID: first, Value: dec("100"), Period: may2024.Start()})
	store.SetValue(kpi.Value{EmployeeID: "emp-1", IndicatorID: second, Value: dec("200"), Period: may2024.Start()})

	got, err := svc.ManagerKPI(context.Background(), "emp-1", may2024)
	require.NoError(t, err)
	assertDecimal(t, "125", got)
}

func TestComputeManagerKPIRenormalisesPartialWeights(t *testing.T) {
	got := kpi.ComputeManagerKPI([]kpi.IndicatorValue{
		{Value: dec("40"), TargetValue: dec("50"), Weight: 30},
		{Value: dec("10"), TargetValue: dec("20"), Weight: 20},
	})
	// (80*0.3 + 50*0.2) * 100 / 50
	assertDecimal(t, "68", got)
	assert.True(t, kpi.ComputeManagerKPI(nil).IsZero())
}

// The manager evaluation reads only the anchor month even for quarterly
// periods, while the task side spans the whole quarter.
func TestManagerEvaluationIgnoresPeriodType(t *testing.T) {
	store, svc := newFixture(t)
	indicator := store.AddIndicator(kpi.Indicator{Name: "Quality", Weight: 100, TargetValue: dec("100")})
	store.SetValue(kpi.Value{EmployeeID: "emp-1", IndicatorID: indicator, Value: dec("90"), Period: period.New(2024, time.April).Start()})
	store.SetValue(kpi.Value{EmployeeID: "emp-1", IndicatorID: indicator, Value: dec("60"), Period: may2024.Start()})

	breakdown, err := svc.Breakdown(context.Background(), "emp-1", may2024, period.Quarterly)
	require.NoError(t, err)
	assertDecimal(t, "60", breakdown.ManagerKPI)
	assertDecimal(t, "30", breakdown.TotalKPI)
}

func TestTotalKPICombinesBySettings(t *testing.T) {
	store, svc := newFixture(t)
	ctx := context.Background()
	addScenarioATasks(store)
	indicator := store.AddIndicator(kpi.Indicator{Name: "Quality", Weight: 100, TargetValue: dec("100")})
	store.SetValue(kpi.Value{EmployeeID: "emp-1", IndicatorID: indicator, Value: dec("80"), Period: may2024.Start()})

	_, err := svc.UpdateSettings(ctx, 60, 40, 100, "ceo-1")
	require.NoError(t, err)

	breakdown, err := svc.Breakdown(ctx, "emp-1", may2024, period.Monthly)
	require.NoError(t, err)
	assertDecimal(t, "44.44", breakdown.TasksKPI)
	assertDecimal(t, "80", breakdown.ManagerKPI)
	assertDecimal(t, "26.664", breakdown.TasksContribution)
	assertDecimal(t, "32", breakdown.ManagerContribution)
	assertDecimal(t, "58.66", breakdown.TotalKPI)
	assert.Equal(t, "2024-05", breakdown.Period)
}

func TestTotalKPIWithoutDataIsZero(t *testing.T) {
	_, svc := newFixture(t)
	got, err := svc.TotalKPI(context.Background(), "emp-2", may2024, period.Yearly)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestSettingsDefaultsAndValidation(t *testing.T) {
	_, svc := newFixture(t)
	ctx := context.Background()

	settings, err := svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, kpi.DefaultSettings(), settings)

	_, err = svc.UpdateSettings(ctx, 70, 40, 100, "ceo-1")
	require.ErrorIs(t, err, kpi.ErrInvalidWeights)
	_, err = svc.UpdateSettings(ctx, 110, -10, 100, "ceo-1")
	require.ErrorIs(t, err, kpi.ErrInvalidWeights)
	_, err = svc.UpdateSettings(ctx, 50, 50, -1, "ceo-1")
	require.ErrorIs(t, err, kpi.ErrInvalidBonusPercentage)

	settings, err = svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, kpi.DefaultSettings(), settings)

	saved, err := svc.UpdateSettings(ctx, 0, 100, 80, "ceo-1")
	require.NoError(t, err)
	assert.Equal(t, "ceo-1", saved.UpdatedBy)
	settings, err = svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, settings.ManagerWeight)
	assert.Equal(t, 80, settings.ManagerBonusWeight)
}

func TestDepartmentKPISkipsZeroDataEmployees(t *testing.T) {
	store, svc := newFixture(t)
	ctx := context.Background()
	addTask(store, "emp-1", kpi.ImportanceHigh, kpi.TaskStatusCompleted, time.Date(2024, time.May, 3, 0, 0, 0, 0, time.UTC))
	indicator := store.AddIndicator(kpi.Indicator{Name: "Quality", Weight: 100, TargetValue: dec("100")})
	store.SetValue(kpi.Value{EmployeeID: "emp-1", IndicatorID: indicator, Value: dec("60"), Period: may2024.Start()})

	dept, err := svc.DepartmentKPI(ctx, "dept-1", may2024, period.Monthly)
	require.NoError(t, err)
	assertDecimal(t, "80", dept.AverageKPI)
	assert.Equal(t, 2, dept.Employees)
	assert.Equal(t, 1, dept.Contributing)

	// only May has data, so the quarter averages the non-zero month alone
	quarter, err := svc.DepartmentAverageKPI(ctx, "dept-1", may2024, period.Quarterly)
	require.NoError(t, err)
	assertDecimal(t, "80", quarter)
}

func TestDepartmentKPIAveragesPerEmployeeThenAcrossEmployees(t *testing.T) {
	store, svc := newFixture(t)
	indicator := store.AddIndicator(kpi.Indicator{Name: "Quality", Weight: 100, TargetValue: dec("100")})
	// default settings halve the manager evaluation: totals 40 and 30 for emp-1, 50 for emp-2
	store.SetValue(kpi.Value{EmployeeID: "emp-1", IndicatorID: indicator, Value: dec("80"), Period: period.New(2024, time.April).Start()})
	store.SetValue(kpi.Value{EmployeeID: "emp-1", IndicatorID: indicator, Value: dec("60"), Period: may2024.Start()})
	store.SetValue(kpi.Value{EmployeeID: "emp-2", IndicatorID: indicator, Value: dec("100"), Period: period.New(2024, time.June).Start()})

	dept, err := svc.DepartmentKPI(context.Background(), "dept-1", may2024, period.Quarterly)
	require.NoError(t, err)
	// (35 + 50) / 2, not the flat mean 40 of all non-zero months
	assertDecimal(t, "42.5", dept.AverageKPI)
	assert.Equal(t, 2, dept.Contributing)
}

func TestBreakdownRejectsUnknownEmployee(t *testing.T) {
	_, svc := newFixture(t)
	ctx := context.Background()

	_, err := svc.Breakdown(ctx, "ghost", may2024, period.Monthly)
	require.ErrorIs(t, err, kpi.ErrEmployeeNotFound)
	_, err = svc.TotalKPI(ctx, "ghost", may2024, period.Monthly)
	require.ErrorIs(t, err, kpi.ErrEmployeeNotFound)
	_, err = svc.TaskKPI(ctx, "ghost", may2024, period.Quarterly)
	require.ErrorIs(t, err, kpi.ErrEmployeeNotFound)
}

func TestDepartmentKPIEmptyAndMissing(t *testing.T) {
	store, svc := newFixture(t)
	ctx := context.Background()
	store.AddDepartment("dept-empty", "Legal")

	dept, err := svc.DepartmentKPI(ctx, "dept-empty", may2024, period.Monthly)
	require.NoError(t, err)
	assert.True(t, dept.AverageKPI.IsZero())
	assert.Zero(t, dept.Employees)

	_, err = svc.DepartmentKPI(ctx, "dept-missing", may2024, period.Monthly)
	require.ErrorIs(t, err, kpi.ErrDepartmentNotFound)
}

func TestEmployeeHistoryNewestFirst(t *testing.T) {
	store, svc := newFixture(t)
	ctx := context.Background()
	indicator := store.AddIndicator(kpi.Indicator{Name: "Quality", Weight: 100, TargetValue: dec("100")})
	store.SetValue(kpi.Value{EmployeeID: "emp-1", IndicatorID: indicator, Value: dec("50"), Period: period.New(2024, time.March).Start()})
	store.SetValue(kpi.Value{EmployeeID: "emp-1", IndicatorID: indicator, Value: dec("70"), Period: may2024.Start()})
	april := time.Date(2024, time.April, 20, 0, 0, 0, 0, time.UTC)
	future := time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC)
	store.AddTask(kpi.Task{EmployeeIDs: []string{"emp-1"}, Importance: kpi.ImportanceLow, Status: kpi.TaskStatusCompleted, CreatedAt: april, Deadline: &april})
	store.AddTask(kpi.Task{EmployeeIDs: []string{"emp-1"}, Importance: kpi.ImportanceLow, Status: kpi.TaskStatusInProgress, CreatedAt: april, Deadline: &future})

	history, err := svc.EmployeeHistory(ctx, "emp-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "2024-05", history[0].Period)
	assert.Equal(t, "2024-04", history[1].Period)
	assert.Equal(t, "2024-03", history[2].Period)
	assertDecimal(t, "35", history[0].TotalKPI)
	assertDecimal(t, "25", history[1].TotalKPI)

	limited, err := svc.EmployeeHistory(ctx, "emp-1", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	_, err = svc.EmployeeHistory(ctx, "nobody", 0)
	require.ErrorIs(t, err, kpi.ErrEmployeeNotFound)
}

func TestAllEmployeesKPI(t *testing.T) {
	store, svc := newFixture(t)
	addScenarioATasks(store)

	all, err := svc.AllEmployeesKPI(context.Background(), may2024, period.Monthly)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "emp-1", all[0].Employee.ID)
	assertDecimal(t, "22.22", all[0].Breakdown.TotalKPI)
	assert.True(t, all[1].Breakdown.TotalKPI.IsZero())
}

func TestImportanceWeightAdministration(t *testing.T) {
	store, svc := newFixture(t)
	ctx := context.Background()
	addScenarioATasks(store)

	require.ErrorIs(t, svc.UpdateImportanceWeight(ctx, "urgent", 4), kpi.ErrUnknownImportance)
	require.ErrorIs(t, svc.UpdateImportanceWeight(ctx, kpi.ImportanceCritical, 0), kpi.ErrInvalidWeight)
	require.NoError(t, svc.UpdateImportanceWeight(ctx, kpi.ImportanceCritical, 4))

	got, err := svc.TaskKPI(ctx, "emp-1", may2024, period.Monthly)
	require.NoError(t, err)
	assertDecimal(t, "50", got)
}

func TestIndicatorLifecycle(t *testing.T) {
	_, svc := newFixture(t)
	ctx := context.Background()

	_, err := svc.CreateIndicator(ctx, kpi.Indicator{Name: " ", Weight: 10, TargetValue: dec("1")})
	require.ErrorIs(t, err, kpi.ErrInvalidIndicator)
	_, err = svc.CreateIndicator(ctx, kpi.Indicator{Name: "Quality", Weight: 101, TargetValue: dec("1")})
	require.ErrorIs(t, err, kpi.ErrInvalidIndicator)
	_, err = svc.CreateIndicator(ctx, kpi.Indicator{Name: "Quality", Weight: 10, TargetValue: dec("0")})
	require.ErrorIs(t, err, kpi.ErrInvalidIndicator)

	id, err := svc.CreateIndicator(ctx, kpi.Indicator{Name: "Quality", Weight: 60, TargetValue: dec("100")})
	require.NoError(t, err)
	total, err := svc.IndicatorWeightTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, kpi.IndicatorWeightTotal{Total: 60, Balanced: false}, total)

	require.NoError(t, svc.UpdateIndicator(ctx, kpi.Indicator{ID: id, Name: "Quality", Weight: 100, TargetValue: dec("100")}))
	total, err = svc.IndicatorWeightTotal(ctx)
	require.NoError(t, err)
	assert.True(t, total.Balanced)

	require.NoError(t, svc.DeleteIndicator(ctx, id))
	require.ErrorIs(t, svc.DeleteIndicator(ctx, id), kpi.ErrIndicatorNotFound)
	require.ErrorIs(t, svc.UpdateIndicator(ctx, kpi.Indicator{ID: id, Name: "Quality", Weight: 1, TargetValue: dec("1")}), kpi.ErrIndicatorNotFound)
}

func TestSetKPIValueRequiresOwnDepartment(t *testing.T) {
	store, svc := newFixture(t)
	ctx := context.Background()
	store.AddDepartment("dept-2", "Sales")
	store.AddManager(memory.Person{ID: "mgr-2", DepartmentID: "dept-2", BaseSalary: dec("1")})
	indicator := store.AddIndicator(kpi.Indicator{Name: "Quality", Weight: 100, TargetValue: dec("100")})

	err := svc.SetKPIValue(ctx, "mgr-2", "emp-1", indicator, may2024, dec("90"))
	require.ErrorIs(t, err, kpi.ErrNotEmployeesManager)
	err = svc.SetKPIValue(ctx, "mgr-1", "emp-1", "missing", may2024, dec("90"))
	require.ErrorIs(t, err, kpi.ErrIndicatorNotFound)
	err = svc.SetKPIValue(ctx, "ghost", "emp-1", indicator, may2024, dec("90"))
	require.ErrorIs(t, err, kpi.ErrManagerNotFound)

	require.NoError(t, svc.SetKPIValue(ctx, "mgr-1", "emp-1", indicator, may2024, dec("90")))
	require.NoError(t, svc.SetKPIValue(ctx, "mgr-1", "emp-1", indicator, period.MustParse("2024-05-20"), dec("70")))

	got, err := svc.ManagerKPI(ctx, "emp-1", may2024)
	require.NoError(t, err)
	assertDecimal(t, "70", got)
}

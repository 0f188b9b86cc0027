package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpiengine/internal/domain/kpi"
	"kpiengine/internal/domain/period"
	"kpiengine/internal/domain/reward"
	"kpiengine/internal/store/memory"
)

func useMemory(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	hired := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	store.AddDepartment("dept-1", "Engineering")
	store.AddDepartment("dept-2", "Sales")
	store.AddManager(memory.Person{ID: "mgr-1", Name: "Mara", DepartmentID: "dept-1", BaseSalary: decimal.NewFromInt(150000), HireDate: hired})
	store.AddEmployee(memory.Person{ID: "emp-1", Name: "Ivan", DepartmentID: "dept-1", BaseSalary: decimal.NewFromInt(50000), HireDate: hired})
	store.AddEmployee(memory.Person{ID: "emp-2", Name: "Gleb", DepartmentID: "dept-2", HireDate: hired})

	clock := func() time.Time { return time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC) }
	svc := reward.NewService(store.Rewards(), kpi.NewService(store.KPI()).WithClock(clock), reward.WithClock(clock))

	previous := openRecalculator
	openRecalculator = func(context.Context) (Recalculator, func(), error) {
		return svc, func() {}, nil
	}
	t.Cleanup(func() { openRecalculator = previous })
	return store
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	recalcPeriod, recalcPeriodType, recalcDepartment, recalcJSON = "", "", "", false

	outBuf, errBuf := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(outBuf)
	rootCmd.SetErr(errBuf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
	rootCmd.SetArgs(nil)
	return outBuf.String(), errBuf.String(), err
}

func TestRecalcEmployeesListsFailures(t *testing.T) {
	store := useMemory(t)

	out, _, err := execute(t, "recalc", "employees", "--period", "2024-03")
	require.ErrorIs(t, err, errUnitsFailed)
	assert.Contains(t, out, "employees 2024-03 quarterly: 1 succeeded, 1 failed")
	assert.Contains(t, out, "emp-2")
	assert.Contains(t, out, "base salary not set")
	assert.Equal(t, 1, store.RewardCount())
}

func TestRecalcEmployeesByDepartment(t *testing.T) {
	useMemory(t)

	out, _, err := execute(t, "recalc", "employees", "--period", "2024-02", "--department", "dept-1")
	require.NoError(t, err)
	assert.Contains(t, out, "employees 2024-02 monthly: 1 succeeded, 0 failed")
}

func TestRecalcSingleEmployeeAndManager(t *testing.T) {
	store := useMemory(t)

	out, _, err := execute(t, "recalc", "employee", "emp-1", "--period", "2024-02", "--period-type", "monthly")
	require.NoError(t, err)
	assert.Contains(t, out, "employee emp-1 2024-02 monthly")
	assert.Contains(t, out, "total 50000")

	out, _, err = execute(t, "recalc", "manager", "mgr-1", "--period", "2024-02", "--json")
	require.NoError(t, err)
	var got reward.ManagerReward
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "mgr-1", got.ManagerID)
	assert.Equal(t, 1, store.ManagerRewardCount())

	_, _, err = execute(t, "recalc", "employee", "ghost", "--period", "2024-02")
	require.ErrorIs(t, err, reward.ErrEmployeeNotFound)
}

func TestRecalcRejectsBadFlags(t *testing.T) {
	useMemory(t)

	_, _, err := execute(t, "recalc", "employees", "--period", "March")
	require.Error(t, err)

	_, _, err = execute(t, "recalc", "managers", "--period", "2024-03", "--period-type", "weekly")
	require.Error(t, err)
}

func TestRecalcAllTimeJSON(t *testing.T) {
	useMemory(t)

	out, _, err := execute(t, "recalc", "all-time", "--json")
	require.ErrorIs(t, err, errUnitsFailed)
	var summary reward.AllTimeSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 3, summary.Periods)
	assert.Equal(t, 3, summary.EmployeeRewards)
	assert.Equal(t, 3, summary.ManagerRewards)
	assert.Len(t, summary.Failed, 3)
}

type interruptedRun struct {
	Recalculator
}

func (interruptedRun) EveryoneAllTime(_ context.Context, t period.Type, _ reward.Progress) (reward.AllTimeSummary, error) {
	return reward.AllTimeSummary{PeriodType: t, Periods: 3, EmployeeRewards: 2, ManagerRewards: 1, Failed: []reward.Failure{}}, context.Canceled
}

func TestRecalcAllTimePrintsPartialSummaryOnCancel(t *testing.T) {
	previous := openRecalculator
	openRecalculator = func(context.Context) (Recalculator, func(), error) {
		return interruptedRun{}, func() {}, nil
	}
	t.Cleanup(func() { openRecalculator = previous })

	out, _, err := execute(t, "recalc", "all-time")
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, out, "periods: 3")
	assert.Contains(t, out, "employee rewards: 2")
	assert.Contains(t, out, "manager rewards: 1")
}

func TestRecalcEmployeesUnknownDepartment(t *testing.T) {
	store := useMemory(t)

	_, _, err := execute(t, "recalc", "employees", "--period", "2024-02", "--department", "typo")
	require.ErrorIs(t, err, reward.ErrDepartmentNotFound)
	assert.Zero(t, store.RewardCount())
}

package kpi

import (
	"context"
	"time"
)

type StoreAPI interface {
	ListImportanceWeights(ctx context.Context) ([]ImportanceWeight, error)
	UpdateImportanceWeight(ctx context.Context, importance string, weight int) error
	ListEmployeeTasks(ctx context.Context, employeeID string, from, until time.Time) ([]Task, error)
	ListEmployeeKPIValues(ctx context.Context, employeeID string, month time.Time) ([]IndicatorValue, error)
	GetSettings(ctx context.Context) (Settings, bool, error)
	SaveSettings(ctx context.Context, settings Settings) error
	ListIndicators(ctx context.Context) ([]Indicator, error)
	GetIndicator(ctx context.Context, indicatorID string) (Indicator, error)
	CreateIndicator(ctx context.Context, indicator Indicator) (string, error)
	UpdateIndicator(ctx context.Context, indicator Indicator) error
	DeleteIndicator(ctx context.Context, indicatorID string) error
	UpsertKPIValue(ctx context.Context, value Value) error
	GetEmployee(ctx context.Context, employeeID string) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	ListDepartmentEmployees(ctx context.Context, departmentID string) ([]Employee, error)
	DepartmentExists(ctx context.Context, departmentID string) (bool, error)
	ManagerDepartmentID(ctx context.Context, managerID string) (string, error)
	EmployeeActivityMonths(ctx context.Context, employeeID string, until time.Time, limit int) ([]time.Time, error)
}

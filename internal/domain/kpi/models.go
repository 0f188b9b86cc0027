package kpi

import (
	"time"

	"github.com/shopspring/decimal"
)

type ImportanceWeight struct {
	Importance string `json:"importance"`
	Weight     int    `json:"weight"`
}

type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"projectId"`
	EmployeeIDs []string   `json:"employeeIds"`
	Importance  string     `json:"importance"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}

type Indicator struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Weight          int             `json:"weight"`
	TargetValue     decimal.Decimal `json:"targetValue"`
	MeasurementUnit string          `json:"measurementUnit"`
}

type Value struct {
	EmployeeID  string          `json:"employeeId"`
	IndicatorID string          `json:"indicatorId"`
	Value       decimal.Decimal `json:"value"`
	Period      time.Time       `json:"period"`
	SetBy       string          `json:"setBy,omitempty"`
}

// IndicatorValue is a KPI value joined with the indicator it measures.
type IndicatorValue struct {
	IndicatorID string
	Value       decimal.Decimal
	TargetValue decimal.Decimal
	Weight      int
}

type Settings struct {
	TasksWeight        int       `json:"tasksWeightPercentage"`
	ManagerWeight      int       `json:"managerEvaluationPercentage"`
	ManagerBonusWeight int       `json:"managerBonusPercentage"`
	UpdatedBy          string    `json:"updatedByManagerId,omitempty"`
	UpdatedAt          time.Time `json:"updatedAt,omitempty"`
}

func DefaultSettings() Settings {
	return Settings{
		TasksWeight:        DefaultTasksWeight,
		ManagerWeight:      DefaultManagerWeight,
		ManagerBonusWeight: DefaultManagerBonusWeight,
	}
}

type Employee struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	DepartmentID string          `json:"departmentId"`
	Position     string          `json:"position"`
	BaseSalary   decimal.Decimal `json:"baseSalary"`
	HireDate     time.Time       `json:"hireDate"`
}

type Breakdown struct {
	EmployeeID          string          `json:"employeeId"`
	Period              string          `json:"period"`
	PeriodType          string          `json:"periodType"`
	TasksKPI            decimal.Decimal `json:"tasksKpi"`
	ManagerKPI          decimal.Decimal `json:"managerKpi"`
	TasksWeight         int             `json:"tasksWeight"`
	ManagerWeight       int             `json:"managerWeight"`
	TasksContribution   decimal.Decimal `json:"tasksContribution"`
	ManagerContribution decimal.Decimal `json:"managerContribution"`
	TotalKPI            decimal.Decimal `json:"totalKpi"`
}

type HistoryEntry struct {
	Period     string          `json:"period"`
	TasksKPI   decimal.Decimal `json:"tasksKpi"`
	ManagerKPI decimal.Decimal `json:"managerKpi"`
	TotalKPI   decimal.Decimal `json:"totalKpi"`
}

type EmployeeKPI struct {
	Employee  Employee  `json:"employee"`
	Breakdown Breakdown `json:"breakdown"`
}

type DepartmentKPI struct {
	DepartmentID string          `json:"departmentId"`
	Period       string          `json:"period"`
	PeriodType   string          `json:"periodType"`
	Employees    int             `json:"employees"`
	Contributing int             `json:"contributing"`
	AverageKPI   decimal.Decimal `json:"averageKpi"`
}

type IndicatorWeightTotal struct {
	Total    int  `json:"total"`
	Balanced bool `json:"balanced"`
}

package reward

import (
	"time"

	"github.com/shopspring/decimal"

	"kpiengine/internal/domain/period"
)

type Reward struct {
	ID          string          `json:"id"`
	EmployeeID  string          `json:"employeeId"`
	Period      time.Time       `json:"period"`
	PeriodType  period.Type     `json:"periodType"`
	BaseSalary  decimal.Decimal `json:"baseSalary"`
	KPITotal    decimal.Decimal `json:"kpiTotal"`
	BonusAmount decimal.Decimal `json:"bonusAmount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Formula     Formula         `json:"formula"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type ManagerReward struct {
	ID               string          `json:"id"`
	ManagerID        string          `json:"managerId"`
	Period           time.Time       `json:"period"`
	PeriodType       period.Type     `json:"periodType"`
	BaseSalary       decimal.Decimal `json:"baseSalary"`
	DepartmentID     string          `json:"departmentId"`
	EmployeesCount   int             `json:"employeesCount"`
	AvgDepartmentKPI decimal.Decimal `json:"avgDepartmentKpi"`
	BonusAmount      decimal.Decimal `json:"bonusAmount"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	Formula          Formula         `json:"formula"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// Subject is an employee or manager as far as payouts are concerned.
type Subject struct {
	ID           string
	Name         string
	DepartmentID string
	Position     string
	BaseSalary   decimal.Decimal
	HireDate     time.Time
}

type Failure struct {
	ID     string `json:"id"`
	Period string `json:"period,omitempty"`
	Reason string `json:"reason"`
}

type BatchResult struct {
	Succeeded []string  `json:"succeeded"`
	Failed    []Failure `json:"failed"`
}

type AllTimeSummary struct {
	PeriodType      period.Type `json:"periodType"`
	Periods         int         `json:"periods"`
	EmployeeRewards int         `json:"employeeRewards"`
	ManagerRewards  int         `json:"managerRewards"`
	Failed          []Failure   `json:"failed"`
}

type Filter struct {
	SubjectID    string
	DepartmentID string
	Period       *time.Time
	PeriodType   period.Type
	Limit        int
	Offset       int
}

type Statistics struct {
	Count       int             `json:"count"`
	TotalBase   decimal.Decimal `json:"totalBase"`
	TotalBonus  decimal.Decimal `json:"totalBonus"`
	TotalPayout decimal.Decimal `json:"totalPayout"`
	AverageKPI  decimal.Decimal `json:"averageKpi"`
}

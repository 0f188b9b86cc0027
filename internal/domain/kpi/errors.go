package kpi

import "errors"

var (
	ErrInvalidWeights      = errors.New("tasks and manager evaluation weights must sum to 100")
	ErrInvalidWeight       = errors.New("importance weight must be positive")
	ErrUnknownImportance   = errors.New("unknown task importance")
	ErrInvalidIndicator    = errors.New("invalid kpi indicator")
	ErrIndicatorNotFound   = errors.New("kpi indicator not found")
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrManagerNotFound     = errors.New("manager not found")
	ErrDepartmentNotFound  = errors.New("department not found")
	ErrNotEmployeesManager = errors.New("manager does not manage this employee")
)

var ErrInvalidBonusPercentage = errors.New("manager bonus percentage must not be negative")

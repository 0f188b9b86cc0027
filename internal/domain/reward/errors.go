package reward

import "errors"

var (
	ErrBaseSalaryNotSet   = errors.New("base salary not set")
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrManagerNotFound    = errors.New("manager not found")
	ErrDepartmentNotFound = errors.New("department not found")
	ErrNotFound           = errors.New("reward not found")
	ErrUnknownFormula     = errors.New("unknown reward formula")
)

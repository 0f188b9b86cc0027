package kpi

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"kpiengine/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) ListImportanceWeights(ctx context.Context) ([]ImportanceWeight, error) {
	rows, err := s.DB.Query(ctx, "SELECT importance, weight FROM importance_weights ORDER BY weight")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ImportanceWeight
	for rows.Next() {
		var w ImportanceWeight
		if err := rows.Scan(&w.Importance, &w.Weight); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Store) UpdateImportanceWeight(ctx context.Context, importance string, weight int) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO importance_weights (importance, weight)
    VALUES ($1,$2)
    ON CONFLICT (importance) DO UPDATE SET weight = EXCLUDED.weight
  `, importance, weight)
	return err
}

func (s *Store) ListEmployeeTasks(ctx context.Context, employeeID string, from, until time.Time) ([]Task, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT t.id, COALESCE(t.project_id::text, ''), t.importance, t.status, t.created_at, t.deadline, t.end_date
    FROM tasks t
    JOIN task_assignees ta ON ta.task_id = t.id
    WHERE ta.employee_id = $1 AND t.created_at >= $2 AND t.created_at < $3
    ORDER BY t.created_at
  `, employeeID, from, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		var task Task
		if err := rows.Scan(&task.ID, &task.ProjectID, &task.Importance, &task.Status, &task.CreatedAt, &task.Deadline, &task.EndDate); err != nil {
			return nil, err
		}
		task.EmployeeIDs = []string{employeeID}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (s *Store) ListEmployeeKPIValues(ctx context.Context, employeeID string, month time.Time) ([]IndicatorValue, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT v.kpi_indicator_id, v.value, i.target_value, i.weight
    FROM kpi_values v
    JOIN kpi_indicators i ON i.id = v.kpi_indicator_id
    WHERE v.employee_id = $1 AND v.period = $2
  `, employeeID, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []IndicatorValue
	for rows.Next() {
		var v IndicatorValue
		if err := rows.Scan(&v.IndicatorID, &v.Value, &v.TargetValue, &v.Weight); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) GetSettings(ctx context.Context) (Settings, bool, error) {
	var settings Settings
	err := s.DB.QueryRow(ctx, `
    SELECT tasks_weight_percentage, manager_evaluation_percentage, manager_bonus_percentage,
           COALESCE(updated_by_manager_id::text, ''), updated_at
    FROM kpi_settings
    WHERE id = 1
  `).Scan(&settings.TasksWeight, &settings.ManagerWeight, &settings.ManagerBonusWeight, &settings.UpdatedBy, &settings.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, false, nil
	}
	if err != nil {
		return Settings{}, false, err
	}
	return settings, true, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings Settings) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO kpi_settings (id, tasks_weight_percentage, manager_evaluation_percentage, manager_bonus_percentage, updated_by_manager_id, updated_at)
    VALUES (1,$1,$2,$3,NULLIF($4,'')::uuid,$5)
    ON CONFLICT (id) DO UPDATE SET
      tasks_weight_percentage = EXCLUDED.tasks_weight_percentage,
      manager_evaluation_percentage = EXCLUDED.manager_evaluation_percentage,
      manager_bonus_percentage = EXCLUDED.manager_bonus_percentage,
      updated_by_manager_id = EXCLUDED.updated_by_manager_id,
      updated_at = EXCLUDED.updated_at
  `, settings.TasksWeight, settings.ManagerWeight, settings.ManagerBonusWeight, settings.UpdatedBy, settings.UpdatedAt)
	return err
}

func (s *Store) ListIndicators(ctx context.Context) ([]Indicator, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, description, weight, target_value, measurement_unit
    FROM kpi_indicators
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Indicator
	for rows.Next() {
		var indicator Indicator
		if err := rows.Scan(&indicator.ID, &indicator.Name, &indicator.Description, &indicator.Weight, &indicator.TargetValue, &indicator.MeasurementUnit); err != nil {
			return nil, err
		}
		out = append(out, indicator)
	}
	return out, rows.Err()
}

func (s *Store) GetIndicator(ctx context.Context, indicatorID string) (Indicator, error) {
	var indicator Indicator
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, description, weight, target_value, measurement_unit
    FROM kpi_indicators
    WHERE id = $1
  `, indicatorID).Scan(&indicator.ID, &indicator.Name, &indicator.Description, &indicator.Weight, &indicator.TargetValue, &indicator.MeasurementUnit)
	if errors.Is(err, pgx.ErrNoRows) {
		return Indicator{}, ErrIndicatorNotFound
	}
	return indicator, err
}

func (s *Store) CreateIndicator(ctx context.Context, indicator Indicator) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO kpi_indicators (name, description, weight, target_value, measurement_unit)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, indicator.Name, indicator.Description, indicator.Weight, indicator.TargetValue, indicator.MeasurementUnit).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateIndicator(ctx context.Context, indicator Indicator) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE kpi_indicators
    SET name = $1, description = $2, weight = $3, target_value = $4, measurement_unit = $5
    WHERE id = $6
  `, indicator.Name, indicator.Description, indicator.Weight, indicator.TargetValue, indicator.MeasurementUnit, indicator.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIndicatorNotFound
	}
	return nil
}

func (s *Store) DeleteIndicator(ctx context.Context, indicatorID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM kpi_indicators WHERE id = $1", indicatorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIndicatorNotFound
	}
	return nil
}

func (s *Store) UpsertKPIValue(ctx context.Context, value Value) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO kpi_values (employee_id, kpi_indicator_id, value, period, set_by, updated_at)
    VALUES ($1,$2,$3,$4,NULLIF($5,'')::uuid,now())
    ON CONFLICT (employee_id, kpi_indicator_id, period) DO UPDATE SET
      value = EXCLUDED.value,
      set_by = EXCLUDED.set_by,
      updated_at = now()
  `, value.EmployeeID, value.IndicatorID, value.Value, value.Period, value.SetBy)
	return err
}

const employeeColumns = `id, name, COALESCE(department_id::text, ''), COALESCE(position, ''), base_salary, hire_date`

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.Name, &e.DepartmentID, &e.Position, &e.BaseSalary, &e.HireDate)
	return e, err
}

func (s *Store) GetEmployee(ctx context.Context, employeeID string) (Employee, error) {
	employee, err := scanEmployee(s.DB.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = $1", employeeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	return employee, err
}

func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	return s.listEmployees(ctx, "SELECT "+employeeColumns+" FROM employees ORDER BY name")
}

func (s *Store) ListDepartmentEmployees(ctx context.Context, departmentID string) ([]Employee, error) {
	return s.listEmployees(ctx, "SELECT "+employeeColumns+" FROM employees WHERE department_id = $1 ORDER BY name", departmentID)
}

func (s *Store) listEmployees(ctx context.Context, query string, args ...any) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, employee)
	}
	return out, rows.Err()
}

func (s *Store) DepartmentExists(ctx context.Context, departmentID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM departments WHERE id = $1", departmentID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) ManagerDepartmentID(ctx context.Context, managerID string) (string, error) {
	var departmentID string
	err := s.DB.QueryRow(ctx, "SELECT COALESCE(department_id::text, '') FROM managers WHERE id = $1", managerID).Scan(&departmentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrManagerNotFound
	}
	return departmentID, err
}

func (s *Store) EmployeeActivityMonths(ctx context.Context, employeeID string, until time.Time, limit int) ([]time.Time, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT DISTINCT month FROM (
      SELECT period AS month
      FROM kpi_values
      WHERE employee_id = $1
      UNION
      SELECT date_trunc('month', t.deadline)::date AS month
      FROM tasks t
      JOIN task_assignees ta ON ta.task_id = t.id
      WHERE ta.employee_id = $1 AND t.deadline IS NOT NULL
    ) activity
    WHERE month < $2
    ORDER BY month DESC
    LIMIT $3
  `, employeeID, until, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var month time.Time
		if err := rows.Scan(&month); err != nil {
			return nil, err
		}
		out = append(out, month)
	}
	return out, rows.Err()
}

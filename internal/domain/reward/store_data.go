package reward

import (
	"context"
	"errors"
	"fmt"
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

const subjectColumns = `id, name, COALESCE(department_id::text, ''), COALESCE(position, ''), base_salary, hire_date`

func (s *Store) GetEmployee(ctx context.Context, employeeID string) (Subject, error) {
	var subject Subject
	err := s.DB.QueryRow(ctx, "SELECT "+subjectColumns+" FROM employees WHERE id = $1", employeeID).
		Scan(&subject.ID, &subject.Name, &subject.DepartmentID, &subject.Position, &subject.BaseSalary, &subject.HireDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return Subject{}, ErrEmployeeNotFound
	}
	return subject, err
}

func (s *Store) GetManager(ctx context.Context, managerID string) (Subject, error) {
	var subject Subject
	err := s.DB.QueryRow(ctx, "SELECT "+subjectColumns+" FROM managers WHERE id = $1", managerID).
		Scan(&subject.ID, &subject.Name, &subject.DepartmentID, &subject.Position, &subject.BaseSalary, &subject.HireDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return Subject{}, ErrManagerNotFound
	}
	return subject, err
}

func (s *Store) ListEmployeeIDs(ctx context.Context, departmentID string) ([]string, error) {
	query := "SELECT id FROM employees"
	args := []any{}
	if departmentID != "" {
		query += " WHERE department_id = $1"
		args = append(args, departmentID)
	}
	query += " ORDER BY hire_date, id"
	return s.listIDs(ctx, query, args...)
}

func (s *Store) ListManagerIDs(ctx context.Context, position string) ([]string, error) {
	return s.listIDs(ctx, "SELECT id FROM managers WHERE position = $1 ORDER BY hire_date, id", position)
}

func (s *Store) listIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) CountDepartmentEmployees(ctx context.Context, departmentID string) (int, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employees WHERE department_id = $1", departmentID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) DepartmentExists(ctx context.Context, departmentID string) (bool, error) {
	var exists bool
	if err := s.DB.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM departments WHERE id::text = $1)", departmentID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *Store) EarliestHireDate(ctx context.Context) (time.Time, bool, error) {
	var earliest *time.Time
	if err := s.DB.QueryRow(ctx, `
    SELECT MIN(hire_date) FROM (
      SELECT hire_date FROM employees
      UNION ALL
      SELECT hire_date FROM managers
    ) hires
  `).Scan(&earliest); err != nil {
		return time.Time{}, false, err
	}
	if earliest == nil {
		return time.Time{}, false, nil
	}
	return *earliest, true, nil
}

const rewardColumns = `id, employee_id, period, period_type, base_salary, kpi_total, bonus_amount, total_amount, formula, updated_at`

func scanReward(row pgx.Row) (Reward, error) {
	var r Reward
	err := row.Scan(&r.ID, &r.EmployeeID, &r.Period, &r.PeriodType, &r.BaseSalary, &r.KPITotal, &r.BonusAmount, &r.TotalAmount, &r.Formula, &r.UpdatedAt)
	return r, err
}

func (s *Store) UpsertReward(ctx context.Context, reward Reward) (Reward, error) {
	return scanReward(s.DB.QueryRow(ctx, `
    INSERT INTO rewards (employee_id, period, period_type, base_salary, kpi_total, bonus_amount, total_amount, formula, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    ON CONFLICT (employee_id, period, period_type) DO UPDATE SET
      base_salary = EXCLUDED.base_salary,
      kpi_total = EXCLUDED.kpi_total,
      bonus_amount = EXCLUDED.bonus_amount,
      total_amount = EXCLUDED.total_amount,
      formula = EXCLUDED.formula,
      updated_at = EXCLUDED.updated_at
    RETURNING `+rewardColumns,
		reward.EmployeeID, reward.Period, reward.PeriodType, reward.BaseSalary, reward.KPITotal, reward.BonusAmount, reward.TotalAmount, string(reward.Formula), reward.UpdatedAt))
}

const managerRewardColumns = `id, manager_id, period, period_type, base_salary, department_id, employees_count, avg_department_kpi, bonus_amount, total_amount, formula, updated_at`

func scanManagerReward(row pgx.Row) (ManagerReward, error) {
	var r ManagerReward
	err := row.Scan(&r.ID, &r.ManagerID, &r.Period, &r.PeriodType, &r.BaseSalary, &r.DepartmentID, &r.EmployeesCount, &r.AvgDepartmentKPI, &r.BonusAmount, &r.TotalAmount, &r.Formula, &r.UpdatedAt)
	return r, err
}

func (s *Store) UpsertManagerReward(ctx context.Context, reward ManagerReward) (ManagerReward, error) {
	return scanManagerReward(s.DB.QueryRow(ctx, `
    INSERT INTO manager_rewards (manager_id, period, period_type, base_salary, department_id, employees_count, avg_department_kpi, bonus_amount, total_amount, formula, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    ON CONFLICT (manager_id, period, period_type) DO UPDATE SET
      base_salary = EXCLUDED.base_salary,
      department_id = EXCLUDED.department_id,
      employees_count = EXCLUDED.employees_count,
      avg_department_kpi = EXCLUDED.avg_department_kpi,
      bonus_amount = EXCLUDED.bonus_amount,
      total_amount = EXCLUDED.total_amount,
      formula = EXCLUDED.formula,
      updated_at = EXCLUDED.updated_at
    RETURNING `+managerRewardColumns,
		reward.ManagerID, reward.Period, reward.PeriodType, reward.BaseSalary, reward.DepartmentID, reward.EmployeesCount, reward.AvgDepartmentKPI, reward.BonusAmount, reward.TotalAmount, string(reward.Formula), reward.UpdatedAt))
}

func (s *Store) GetReward(ctx context.Context, rewardID string) (Reward, error) {
	r, err := scanReward(s.DB.QueryRow(ctx, "SELECT "+rewardColumns+" FROM rewards WHERE id = $1", rewardID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Reward{}, ErrNotFound
	}
	return r, err
}

// buildFilter appends the filter predicates shared by listing and statistics.
// subjectColumn names the employee_id or manager_id column; departmentQuery
// restricts to one department.
func buildFilter(query, subjectColumn, departmentQuery string, filter Filter) (string, []any) {
	query += " WHERE 1=1"
	var args []any
	if filter.SubjectID != "" {
		args = append(args, filter.SubjectID)
		query += fmt.Sprintf(" AND %s = $%d", subjectColumn, len(args))
	}
	if filter.DepartmentID != "" {
		args = append(args, filter.DepartmentID)
		query += fmt.Sprintf(" AND "+departmentQuery, len(args))
	}
	if filter.Period != nil {
		args = append(args, *filter.Period)
		query += fmt.Sprintf(" AND period = $%d", len(args))
	}
	if filter.PeriodType != "" {
		args = append(args, filter.PeriodType)
		query += fmt.Sprintf(" AND period_type = $%d", len(args))
	}
	return query, args
}

func paginate(query string, args []any, filter Filter) (string, []any) {
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return query, args
}

const employeeDepartmentPredicate = "employee_id IN (SELECT id FROM employees WHERE department_id = $%d)"

func (s *Store) ListRewards(ctx context.Context, filter Filter) ([]Reward, error) {
	query, args := buildFilter("SELECT "+rewardColumns+" FROM rewards", "employee_id", employeeDepartmentPredicate, filter)
	query += " ORDER BY period DESC, employee_id"
	query, args = paginate(query, args, filter)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListManagerRewards(ctx context.Context, filter Filter) ([]ManagerReward, error) {
	query, args := buildFilter("SELECT "+managerRewardColumns+" FROM manager_rewards", "manager_id", "department_id = $%d", filter)
	query += " ORDER BY period DESC, manager_id"
	query, args = paginate(query, args, filter)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ManagerReward
	for rows.Next() {
		r, err := scanManagerReward(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const statisticsColumns = `SELECT COUNT(1), COALESCE(SUM(base_salary),0), COALESCE(SUM(bonus_amount),0), COALESCE(SUM(total_amount),0), COALESCE(ROUND(AVG(%s),2),0)`

func (s *Store) RewardStatistics(ctx context.Context, filter Filter) (Statistics, error) {
	query, args := buildFilter(fmt.Sprintf(statisticsColumns, "kpi_total")+" FROM rewards", "employee_id", employeeDepartmentPredicate, filter)
	return s.statistics(ctx, query, args)
}

func (s *Store) ManagerRewardStatistics(ctx context.Context, filter Filter) (Statistics, error) {
	query, args := buildFilter(fmt.Sprintf(statisticsColumns, "avg_department_kpi")+" FROM manager_rewards", "manager_id", "department_id = $%d", filter)
	return s.statistics(ctx, query, args)
}

func (s *Store) statistics(ctx context.Context, query string, args []any) (Statistics, error) {
	var stats Statistics
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&stats.Count, &stats.TotalBase, &stats.TotalBonus, &stats.TotalPayout, &stats.AverageKPI); err != nil {
		return Statistics{}, err
	}
	return stats, nil
}

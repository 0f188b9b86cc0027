package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"kpiengine/internal/domain/period"
	"kpiengine/internal/domain/reward"
)

// Recalculator is the part of the reward service the CLI drives.
type Recalculator interface {
	CalculateEmployee(ctx context.Context, employeeID string, p period.Period, t period.Type) (reward.Reward, error)
	CalculateManager(ctx context.Context, managerID string, p period.Period, t period.Type) (reward.ManagerReward, error)
	CalculateDepartment(ctx context.Context, departmentID string, p period.Period, t period.Type) (reward.BatchResult, error)
	CalculateAllManagers(ctx context.Context, p period.Period, t period.Type) (reward.BatchResult, error)
	EveryoneAllTime(ctx context.Context, t period.Type, progress reward.Progress) (reward.AllTimeSummary, error)
}

var errUnitsFailed = errors.New("some units failed")

var (
	recalcPeriod     string
	recalcPeriodType string
	recalcDepartment string
	recalcJSON       bool
)

var recalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Recompute rewards",
}

var recalcAllTimeCmd = &cobra.Command{
	Use:   "all-time",
	Short: "Recompute every employee and manager reward since the first hire",
	Args:  cobra.NoArgs,
	RunE:  runRecalcAllTime,
}

var recalcEmployeesCmd = &cobra.Command{
	Use:   "employees",
	Short: "Recompute employee rewards for one period",
	Args:  cobra.NoArgs,
	RunE:  runRecalcEmployees,
}

var recalcManagersCmd = &cobra.Command{
	Use:   "managers",
	Short: "Recompute manager rewards for one period",
	Args:  cobra.NoArgs,
	RunE:  runRecalcManagers,
}

var recalcEmployeeCmd = &cobra.Command{
	Use:   "employee ID",
	Short: "Recompute one employee reward",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecalcEmployee,
}

var recalcManagerCmd = &cobra.Command{
	Use:   "manager ID",
	Short: "Recompute one manager reward",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecalcManager,
}

func init() {
	recalcCmd.PersistentFlags().StringVar(&recalcPeriodType, "period-type", "",
		"monthly, quarterly or yearly (derived from the period when empty)")
	recalcCmd.PersistentFlags().BoolVar(&recalcJSON, "json", false, "Output in JSON format")

	for _, cmd := range []*cobra.Command{recalcEmployeesCmd, recalcManagersCmd, recalcEmployeeCmd, recalcManagerCmd} {
		cmd.Flags().StringVar(&recalcPeriod, "period", "", "Month to recompute, YYYY-MM")
		_ = cmd.MarkFlagRequired("period")
	}
	recalcEmployeesCmd.Flags().StringVar(&recalcDepartment, "department", "", "Limit to one department")

	recalcCmd.AddCommand(recalcAllTimeCmd, recalcEmployeesCmd, recalcManagersCmd, recalcEmployeeCmd, recalcManagerCmd)
}

func periodArgs() (period.Period, period.Type, error) {
	p, err := period.Parse(recalcPeriod)
	if err != nil {
		return period.Period{}, "", err
	}
	var t period.Type
	if recalcPeriodType != "" {
		if t, err = period.ParseType(recalcPeriodType); err != nil {
			return period.Period{}, "", err
		}
	}
	t, err = period.Resolve(p, t)
	return p, t, err
}

func withRecalculator(cmd *cobra.Command, fn func(ctx context.Context, svc Recalculator) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, closeFn, err := openRecalculator(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, svc)
}

func runRecalcAllTime(cmd *cobra.Command, _ []string) error {
	t := period.Monthly
	if recalcPeriodType != "" {
		parsed, err := period.ParseType(recalcPeriodType)
		if err != nil {
			return err
		}
		t = parsed
	}
	return withRecalculator(cmd, func(ctx context.Context, svc Recalculator) error {
		summary, err := svc.EveryoneAllTime(ctx, t, func(p period.Period, done, total int) {
			if !recalcJSON {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s done (%d/%d)\n", p, done, total)
			}
		})
		// an interrupted run still reports what it finished
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		out := cmd.OutOrStdout()
		if recalcJSON {
			if perr := printJSON(out, summary); perr != nil {
				return perr
			}
		} else {
			fmt.Fprintf(out, "periods: %d\nemployee rewards: %d\nmanager rewards: %d\nfailed: %d\n",
				summary.Periods, summary.EmployeeRewards, summary.ManagerRewards, len(summary.Failed))
			printFailures(out, summary.Failed)
		}
		if err != nil {
			return err
		}
		if len(summary.Failed) > 0 {
			return errUnitsFailed
		}
		return nil
	})
}

func runRecalcEmployees(cmd *cobra.Command, _ []string) error {
	p, t, err := periodArgs()
	if err != nil {
		return err
	}
	return withRecalculator(cmd, func(ctx context.Context, svc Recalculator) error {
		result, err := svc.CalculateDepartment(ctx, recalcDepartment, p, t)
		return reportBatch(cmd.OutOrStdout(), "employees", p, t, result, err)
	})
}

func runRecalcManagers(cmd *cobra.Command, _ []string) error {
	p, t, err := periodArgs()
	if err != nil {
		return err
	}
	return withRecalculator(cmd, func(ctx context.Context, svc Recalculator) error {
		result, err := svc.CalculateAllManagers(ctx, p, t)
		return reportBatch(cmd.OutOrStdout(), "managers", p, t, result, err)
	})
}

func runRecalcEmployee(cmd *cobra.Command, args []string) error {
	p, t, err := periodArgs()
	if err != nil {
		return err
	}
	return withRecalculator(cmd, func(ctx context.Context, svc Recalculator) error {
		rw, err := svc.CalculateEmployee(ctx, args[0], p, t)
		if err != nil {
			return err
		}
		if recalcJSON {
			return printJSON(cmd.OutOrStdout(), rw)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "employee %s %s %s: kpi %s, bonus %s, total %s\n",
			rw.EmployeeID, p, rw.PeriodType, rw.KPITotal, rw.BonusAmount, rw.TotalAmount)
		return nil
	})
}

func runRecalcManager(cmd *cobra.Command, args []string) error {
	p, t, err := periodArgs()
	if err != nil {
		return err
	}
	return withRecalculator(cmd, func(ctx context.Context, svc Recalculator) error {
		rw, err := svc.CalculateManager(ctx, args[0], p, t)
		if err != nil {
			return err
		}
		if recalcJSON {
			return printJSON(cmd.OutOrStdout(), rw)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "manager %s %s %s: department kpi %s over %d employees, bonus %s, total %s\n",
			rw.ManagerID, p, rw.PeriodType, rw.AvgDepartmentKPI, rw.EmployeesCount, rw.BonusAmount, rw.TotalAmount)
		return nil
	})
}

func reportBatch(out io.Writer, label string, p period.Period, t period.Type, result reward.BatchResult, err error) error {
	if recalcJSON {
		if perr := printJSON(out, result); perr != nil {
			return perr
		}
	} else {
		fmt.Fprintf(out, "%s %s %s: %d succeeded, %d failed\n", label, p, t, len(result.Succeeded), len(result.Failed))
		printFailures(out, result.Failed)
	}
	if err != nil {
		return err
	}
	if len(result.Failed) > 0 {
		return errUnitsFailed
	}
	return nil
}

func printFailures(out io.Writer, failures []reward.Failure) {
	if len(failures) == 0 {
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPERIOD\tREASON")
	for _, f := range failures {
		id := f.ID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", id, f.Period, f.Reason)
	}
	w.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

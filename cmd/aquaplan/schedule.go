package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aquaplan/aquaplan/internal/cadence"
	"github.com/aquaplan/aquaplan/internal/domain"
	"github.com/aquaplan/aquaplan/internal/store"
)

var (
	schedNow      string
	schedTimezone string
	schedStart    string
	schedPhases   []string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule <plan.json|plan-id>",
	Short: "Compute due dates and statuses for a plan's tasks",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVar(&schedNow, "now", "", "evaluation instant (ISO-8601; defaults to the current time)")
	scheduleCmd.Flags().StringVar(&schedTimezone, "timezone", "", "IANA timezone (defaults to the configured one)")
	scheduleCmd.Flags().StringVar(&schedStart, "start", "", "tank start date key YYYY-MM-DD (defaults to today)")
	scheduleCmd.Flags().StringSliceVar(&schedPhases, "phase-start", nil, "phase start date as phase_id=YYYY-MM-DD (repeatable)")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	p, err := loadPlan(args[0])
	if err != nil {
		return err
	}

	now := time.Now()
	if schedNow != "" {
		now, err = time.Parse(time.RFC3339, schedNow)
		if err != nil {
			return fmt.Errorf("%w: %q", domain.ErrBadTimestamp, schedNow)
		}
	}

	tz := schedTimezone
	if tz == "" {
		tz = cfg.Timezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("%w: %q", domain.ErrBadTimezone, tz)
	}

	start := schedStart
	if start == "" {
		start = cadence.DateKey(now, loc)
	}
	phaseStarts, err := parsePhaseStarts(schedPhases)
	if err != nil {
		return err
	}

	db, err := store.NewDB(cfg.StorePath)
	if err != nil {
		return err
	}
	defer db.Close()
	completions, err := (&store.CompletionRepo{}).LastByTask(context.Background(), db)
	if err != nil {
		return err
	}

	ctx := domain.CadenceContext{
		StartDate:       start,
		Timezone:        tz,
		PhaseStartDates: phaseStarts,
		Reminders: domain.ReminderSettings{
			WeeklyDay:  cfg.WeeklyDay,
			MonthlyDay: cfg.MonthlyDay,
		},
	}

	tasks := planTasks(p, completions)
	schedules, err := cadence.ScheduleAll(tasks, ctx, now)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(schedules, "", "  ")
	if err != nil {
		return fmt.Errorf("encode schedules: %w", err)
	}
	fmt.Println(string(out))

	logger.Info("schedule computed",
		zap.String("plan_id", p.Meta.PlanID),
		zap.Int("tasks", len(schedules)),
	)
	return nil
}

// loadPlan accepts either a path to a plan JSON file or a stored plan ID.
func loadPlan(arg string) (*domain.Plan, error) {
	if _, err := os.Stat(arg); err == nil {
		var p domain.Plan
		if err := decodeFile(arg, &p); err != nil {
			return nil, fmt.Errorf("read plan: %w", err)
		}
		return &p, nil
	}
	db, err := store.NewDB(cfg.StorePath)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return (&store.PlanRepo{}).GetByID(context.Background(), db, arg)
}

// planTasks flattens the plan's task atoms into scheduling units,
// attaching each task's last recorded completion.
func planTasks(p *domain.Plan, completions map[string]string) []domain.Task {
	var out []domain.Task
	for _, phase := range p.Phases {
		for _, atom := range phase.Tasks {
			t := domain.Task{
				TaskID:       atom.TaskID,
				Text:         atom.Text,
				Frequency:    atom.Cadence,
				PhaseID:      atom.PhaseID,
				StartPhaseID: atom.StartPhaseID,
				EndPhaseID:   atom.EndPhaseID,
				EveryDays:    atom.EveryDays,
			}
			if key, ok := completions[atom.TaskID]; ok {
				t.LastCompletedAt = key
			}
			out = append(out, t)
		}
	}
	return out
}

func parsePhaseStarts(entries []string) (map[string]string, error) {
	out := map[string]string{}
	for _, e := range entries {
		phaseID, key, ok := strings.Cut(e, "=")
		if !ok || phaseID == "" || !cadence.ValidKey(key) {
			return nil, fmt.Errorf("bad --phase-start %q, want phase_id=YYYY-MM-DD", e)
		}
		out[phaseID] = key
	}
	return out, nil
}

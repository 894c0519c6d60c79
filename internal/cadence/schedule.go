package cadence

import (
	"fmt"
	"time"

	"github.com/aquaplan/aquaplan/internal/domain"
)

// Schedule computes the due state for one task against the calendar in
// ctx, evaluated at now. Timezone errors are the only failure mode; all
// other irregular inputs degrade to conservative defaults.
func Schedule(task domain.Task, ctx domain.CadenceContext, now time.Time) (domain.TaskSchedule, error) {
	loc, err := location(ctx.Timezone)
	if err != nil {
		return domain.TaskSchedule{}, err
	}
	today := DateKey(now, loc)

	out := domain.TaskSchedule{TaskID: task.TaskID}

	if task.Frequency != domain.CadenceOneTime && expired(task, ctx, today) {
		out.Status = domain.TaskCompleted
		out.IsCompletedForPeriod = true
		return out, nil
	}

	anchor, fellBack := anchorKey(task, ctx)
	out.AnchorFallback = fellBack
	lastDone, hasDone := completionKey(task, loc)

	switch task.Frequency {
	case domain.CadenceOneTime:
		out.DueDateKey = anchor
		done := task.Completed || (hasDone && DaysBetween(anchor, lastDone) >= 0)
		out.DaysUntilDue = DaysBetween(today, anchor)
		if done {
			out.Status = domain.TaskCompleted
			out.IsCompletedForPeriod = true
			return out, nil
		}

	case domain.CadenceDaily:
		if hasDone && lastDone == today {
			out.DueDateKey = AddDays(today, 1)
			out.DaysUntilDue = 1
			out.Status = domain.TaskCompleted
			out.IsCompletedForPeriod = true
			return out, nil
		}
		out.DueDateKey = today

	case domain.CadenceInterval:
		out.DueDateKey = intervalDue(task, anchor, today, lastDone, hasDone)
		out.DaysUntilDue = DaysBetween(today, out.DueDateKey)
		if hasDone && out.DaysUntilDue > 0 {
			out.Status = domain.TaskCompleted
			out.IsCompletedForPeriod = true
			return out, nil
		}

	case domain.CadenceWeekly:
		out.DueDateKey = periodicDue(anchor, lastDone, hasDone,
			func(k string) string { return NextWeekday(k, ctx.Reminders.WeeklyDay) },
			func(k string) string { return AddDays(k, 7) })
		out.DaysUntilDue = DaysBetween(today, out.DueDateKey)
		if hasDone && out.DaysUntilDue > 0 {
			out.Status = domain.TaskCompleted
			out.IsCompletedForPeriod = true
			return out, nil
		}

	case domain.CadenceMonthly:
		day := ctx.Reminders.MonthlyDay
		if day < 1 {
			day = 1
		}
		out.DueDateKey = periodicDue(anchor, lastDone, hasDone,
			func(k string) string { return firstMonthly(k, day) },
			func(k string) string { return NextMonthDay(k, day) })
		out.DaysUntilDue = DaysBetween(today, out.DueDateKey)
		if hasDone && out.DaysUntilDue > 0 {
			out.Status = domain.TaskCompleted
			out.IsCompletedForPeriod = true
			return out, nil
		}

	default:
		out.DueDateKey = today
	}

	out.DaysUntilDue = DaysBetween(today, out.DueDateKey)
	switch {
	case out.DaysUntilDue < 0:
		out.Status = domain.TaskOverdue
	case out.DaysUntilDue == 0:
		out.Status = domain.TaskDue
	default:
		out.Status = domain.TaskUpcoming
	}
	return out, nil
}

// ScheduleAll computes schedules for every task, preserving order.
func ScheduleAll(tasks []domain.Task, ctx domain.CadenceContext, now time.Time) ([]domain.TaskSchedule, error) {
	out := make([]domain.TaskSchedule, 0, len(tasks))
	for _, t := range tasks {
		s, err := Schedule(t, ctx, now)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func location(tz string) (*time.Location, error) {
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrBadTimezone, tz)
	}
	return loc, nil
}

// anchorKey resolves the task's anchor phase to its start date key,
// falling back to the global start date when the phase never started.
func anchorKey(task domain.Task, ctx domain.CadenceContext) (string, bool) {
	phaseID := task.PhaseID
	if task.Frequency != domain.CadenceOneTime {
		phaseID = task.StartPhaseID
	}
	if phaseID != "" {
		if key, ok := ctx.PhaseStartDates[phaseID]; ok && ValidKey(key) {
			return key, false
		}
	}
	return ctx.StartDate, phaseID != ""
}

// completionKey extracts the date key of the last completion, accepting
// either a bare date key or a full RFC 3339 timestamp.
func completionKey(task domain.Task, loc *time.Location) (string, bool) {
	raw := task.LastCompletedAt
	if raw == "" {
		return "", false
	}
	if ValidKey(raw) {
		return raw, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return DateKey(t, loc), true
	}
	return "", false
}

// expired reports whether a recurring task's end phase has already
// started, which retires the task from the schedule.
func expired(task domain.Task, ctx domain.CadenceContext, today string) bool {
	if task.EndPhaseID == "" {
		return false
	}
	key, ok := ctx.PhaseStartDates[task.EndPhaseID]
	if !ok || !ValidKey(key) {
		return false
	}
	return DaysBetween(key, today) >= 0
}

// intervalDue finds the due date of an every-N-days task. A completed
// period steps exactly N days from the last completion; an untouched
// task is due on the most recent N-day boundary from its anchor.
func intervalDue(task domain.Task, anchor, today, lastDone string, hasDone bool) string {
	n := task.EveryDays
	if n < 1 {
		n = 1
	}
	if hasDone {
		return AddDays(lastDone, n)
	}
	elapsed := DaysBetween(anchor, today)
	if elapsed < 0 {
		return anchor
	}
	return AddDays(anchor, (elapsed/n)*n)
}

// periodicDue finds the due date on a fixed weekly or monthly grid. The
// grid starts at the first occurrence at or after the anchor; completion
// advances to the grid point after the one the completion covered, so a
// late completion does not drift subsequent due dates.
func periodicDue(anchor, lastDone string, hasDone bool, first, next func(string) string) string {
	due := first(anchor)
	if !hasDone || DaysBetween(due, lastDone) < 0 {
		return due
	}
	for {
		following := next(due)
		if DaysBetween(following, lastDone) < 0 {
			return following
		}
		due = following
	}
}

// firstMonthly is the first clamped day-of-month occurrence at or after
// key.
func firstMonthly(key string, day int) string {
	due := ClampedMonthDay(key, day)
	if DaysBetween(key, due) < 0 {
		due = NextMonthDay(key, day)
	}
	return due
}

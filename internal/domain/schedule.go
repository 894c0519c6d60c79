package domain

// Task is the scheduling unit consumed by the cadence engine. One-time
// tasks anchor to PhaseID; recurring tasks anchor to StartPhaseID and
// optionally disappear after EndPhaseID.
type Task struct {
	TaskID          string  `json:"task_id"`
	Text            string  `json:"text,omitempty"`
	Frequency       Cadence `json:"frequency"`
	PhaseID         string  `json:"phase_id,omitempty"`
	StartPhaseID    string  `json:"start_phase_id,omitempty"`
	EndPhaseID      string  `json:"end_phase_id,omitempty"`
	EveryDays       int     `json:"every_days,omitempty"`
	Completed       bool    `json:"completed,omitempty"`
	LastCompletedAt string  `json:"last_completed_at,omitempty"` // ISO-8601
}

// ReminderSettings configure the recurring-task anchor days.
type ReminderSettings struct {
	WeeklyDay  int `json:"weekly_day"`  // 0 = Sunday
	MonthlyDay int `json:"monthly_day"` // 1-28 typical; clamped per month
}

// CadenceContext is the calendar a task schedule is computed against.
// StartDate and PhaseStartDates are YYYY-MM-DD date keys in Timezone.
type CadenceContext struct {
	StartDate       string            `json:"start_date"`
	Timezone        string            `json:"timezone"`
	PhaseStartDates map[string]string `json:"phase_start_dates"`
	Reminders       ReminderSettings  `json:"reminder_settings"`
	ActivePhase     string            `json:"active_phase,omitempty"`
}

// TaskStatus is the scheduling state of a task relative to now.
type TaskStatus string

const (
	TaskOverdue   TaskStatus = "overdue"
	TaskDue       TaskStatus = "due"
	TaskUpcoming  TaskStatus = "upcoming"
	TaskCompleted TaskStatus = "completed"
)

// TaskSchedule is the computed due state for one task. AnchorFallback is
// set when the task's anchor phase had no recorded start date and the
// global start date was used instead.
type TaskSchedule struct {
	TaskID               string     `json:"task_id"`
	DueDateKey           string     `json:"due_date_key"`
	Status               TaskStatus `json:"status"`
	IsCompletedForPeriod bool       `json:"is_completed_for_period"`
	DaysUntilDue         int        `json:"days_until_due"`
	AnchorFallback       bool       `json:"anchor_fallback,omitempty"`
}

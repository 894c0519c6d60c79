package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aquaplan/aquaplan/internal/cadence"
	"github.com/aquaplan/aquaplan/internal/domain"
	"github.com/aquaplan/aquaplan/internal/store"
)

var completeAt string

var completeCmd = &cobra.Command{
	Use:   "complete <task-id>",
	Short: "Record a task completion in the local store",
	Args:  cobra.ExactArgs(1),
	RunE:  runComplete,
}

func init() {
	completeCmd.Flags().StringVar(&completeAt, "at", "", "completion instant (ISO-8601; defaults to the current time)")
}

func runComplete(cmd *cobra.Command, args []string) error {
	at := time.Now()
	if completeAt != "" {
		var err error
		at, err = time.Parse(time.RFC3339, completeAt)
		if err != nil {
			return fmt.Errorf("%w: %q", domain.ErrBadTimestamp, completeAt)
		}
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("%w: %q", domain.ErrBadTimezone, cfg.Timezone)
	}

	db, err := store.NewDB(cfg.StorePath)
	if err != nil {
		return err
	}
	defer db.Close()

	c := store.Completion{
		TaskID:      args[0],
		CompletedAt: at.UTC().Format(time.RFC3339),
		DateKey:     cadence.DateKey(at, loc),
	}
	if err := (&store.CompletionRepo{}).Record(context.Background(), db, c); err != nil {
		return err
	}

	logger.Info("task completed",
		zap.String("task_id", c.TaskID),
		zap.String("date_key", c.DateKey),
	)
	return nil
}

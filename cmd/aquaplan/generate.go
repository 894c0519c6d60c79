package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aquaplan/aquaplan/internal/domain"
	"github.com/aquaplan/aquaplan/internal/plan"
	"github.com/aquaplan/aquaplan/internal/store"
)

var (
	genAck         bool
	genSave        bool
	genRulesetPath string
	genTargetsPath string
	genAt          string
)

var generateCmd = &cobra.Command{
	Use:   "generate <setup.json> <product_catalog.json> <engine_package.json> [output.json]",
	Short: "Generate a protocol plan from setup, catalog, and engine package files",
	Args:  cobra.RangeArgs(3, 4),
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().BoolVar(&genAck, "ack", false, "acknowledge an override-policy warning")
	generateCmd.Flags().BoolVar(&genSave, "save", false, "persist the generated plan to the local store")
	generateCmd.Flags().StringVar(&genRulesetPath, "ruleset", "", "optional protocol ruleset JSON file")
	generateCmd.Flags().StringVar(&genTargetsPath, "targets", "", "optional user targets JSON file")
	generateCmd.Flags().StringVar(&genAt, "at", "", "generation timestamp (ISO-8601; defaults to the Unix epoch)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	req := plan.Request{
		OverrideAcknowledged: genAck,
		PlanID:               uuid.NewString(),
		EngineVersion:        version,
	}

	if err := decodeFile(args[0], &req.Setup); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSetupParse, err)
	}
	if err := decodeFile(args[1], &req.Catalog); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCatalogParse, err)
	}
	if err := decodeFile(args[2], &req.Package); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPackageParse, err)
	}
	if genRulesetPath != "" {
		req.Ruleset = &domain.Ruleset{}
		if err := decodeFile(genRulesetPath, req.Ruleset); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrRulesetParse, err)
		}
	}
	if genTargetsPath != "" {
		req.Targets = &domain.UserTargets{}
		if err := decodeFile(genTargetsPath, req.Targets); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrTargetsParse, err)
		}
	}
	if genAt != "" {
		if _, err := time.Parse(time.RFC3339, genAt); err != nil {
			return fmt.Errorf("%w: %q", domain.ErrBadTimestamp, genAt)
		}
		req.GeneratedAtISO = genAt
	}

	p, err := plan.Generate(req)
	if err != nil {
		return err
	}

	out, err := plan.EncodeJSON(p)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	fmt.Println(string(out))

	if len(args) == 4 {
		if err := os.WriteFile(args[3], append(out, '\n'), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	if genSave {
		db, err := store.NewDB(cfg.StorePath)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := (&store.PlanRepo{}).Save(context.Background(), db, p); err != nil {
			return err
		}
	}

	logger.Info("plan generated",
		zap.String("plan_id", p.Meta.PlanID),
		zap.String("mode", string(p.Selection.EffectiveCyclingMode)),
		zap.Int("phases", len(p.Phases)),
		zap.Int("notes", len(p.Notes)),
		zap.Bool("blocked", p.Selection.Blocked),
	)
	return nil
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/siak-warlock/internal/models"
	"github.com/noah-isme/siak-warlock/internal/repository"
	"github.com/noah-isme/siak-warlock/internal/service"
)

var (
	enrollCourses  string
	enrollSnapshot string
	enrollExport   string
	warRetry       bool
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Resolve course targets once and print the selections",
	Long:  `Load the course targets, resolve them against a scraped schedule file and write one JSON line per selected section.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEnrollment(cmd, false)
	},
}

var warCmd = &cobra.Command{
	Use:   "war",
	Short: "Repeat enrollment until every course target is found",
	Long:  `Re-read the scraped schedule every WARBOT_INTERVAL until the plan succeeds. With --retry-not-found the loop continues until every target matched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEnrollment(cmd, true)
	},
}

func runEnrollment(cmd *cobra.Command, repeat bool) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path, err := a.criteria.Discover(".", firstNonEmpty(enrollCourses, a.cfg.Courses.File))
	if err != nil {
		return err
	}
	criteria, err := a.criteria.LoadFile(path)
	if err != nil {
		return err
	}
	a.logger.Info("course targets loaded", zap.String("file", path), zap.Int("count", criteria.Len()))

	source := repository.NewFileSnapshotSource(firstNonEmpty(enrollSnapshot, a.cfg.Tracker.SnapshotFile))
	enrollment := service.NewEnrollmentService(nil, service.NewJSONLinesSink(cmd.OutOrStdout()), a.metrics, a.logger)

	var report *service.EnrollmentReport
	if repeat {
		retry := a.cfg.WarBot.NotFoundRetry
		if cmd.Flags().Changed("retry-not-found") {
			retry = warRetry
		}
		report, err = enrollment.War(ctx, criteria, source, service.WarOptions{
			Interval:      a.cfg.WarBot.Interval,
			RetryNotFound: retry,
		})
	} else {
		report, err = planOnce(ctx, enrollment, criteria, source)
	}
	if err != nil {
		return err
	}

	if !a.cfg.WarBot.AutoSubmit {
		a.logger.Info("auto submit disabled, review the selections before saving the IRS")
	}
	return exportPlan(a, report, firstNonEmpty(enrollExport, a.cfg.WarBot.PlanOutputFile))
}

func planOnce(ctx context.Context, enrollment *service.EnrollmentService, criteria models.CriterionSet, source service.SnapshotSource) (*service.EnrollmentReport, error) {
	snapshot, err := source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return enrollment.Plan(ctx, criteria, snapshot)
}

// exportPlan saves the plan when format names csv, json or pdf.
func exportPlan(a *app, report *service.EnrollmentReport, format string) error {
	if format == "" {
		return nil
	}
	parsed, ok := models.ParseExportFormat(format)
	if !ok {
		return fmt.Errorf("unsupported export format %q", format)
	}
	file, err := a.exports.Plan(report, parsed)
	if err != nil {
		return err
	}
	saved, err := a.exports.Save(file)
	if err != nil {
		return err
	}
	a.logger.Info("plan exported", zap.String("path", saved))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	for _, c := range []*cobra.Command{enrollCmd, warCmd} {
		rootCmd.AddCommand(c)
		c.Flags().StringVarP(&enrollCourses, "courses", "c", "", "Course target file (default courses.yaml, then courses.json)")
		c.Flags().StringVarP(&enrollSnapshot, "snapshot", "s", "", "Scraped schedule file (overrides TRACKER_SNAPSHOT_FILE)")
		c.Flags().StringVar(&enrollExport, "export", "", "Also save the plan as json, csv or pdf under EXPORTS_STORAGE_DIR")
	}
	warCmd.Flags().BoolVar(&warRetry, "retry-not-found", false, "Keep retrying until every target matched (overrides WARBOT_NOTFOUND_RETRY)")
}

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Scheduler daemon and job control",
	Long: `Runs the standing jobs on their cron schedules.

Registered jobs:
- daily_update:          weekdays 18:30 (full pipeline)
- fundamentals_refresh:  Saturday 06:00 (MOPS quarterly filings)
- retention_maintenance: Sunday 04:00 (retention sweep)

Example:
  selector scheduler start
  selector scheduler run daily_update
  selector scheduler status`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler daemon",
		Long:  `Starts the scheduler and blocks until Ctrl+C.`,
		RunE:  runSchedulerStart,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchedulerJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "List registered jobs and schedules",
		RunE:  runSchedulerStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func runSchedulerStart(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	sched, err := app.newScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("✅ Scheduler started")
	fmt.Println("\nRegistered jobs:")
	for _, job := range app.standingJobs() {
		fmt.Printf("  - %-22s %s\n", job.Name(), job.Schedule())
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")
	return nil
}

// runSchedulerJob executes one job in the foreground, outside its
// schedule.
func runSchedulerJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	for _, job := range app.standingJobs() {
		if job.Name() != jobName {
			continue
		}
		fmt.Printf("Running job: %s\n", jobName)
		if err := job.Run(ctx); err != nil {
			return fmt.Errorf("job %s: %w", jobName, err)
		}
		fmt.Println("✅ Job finished")
		return nil
	}
	return fmt.Errorf("job %s not found", jobName)
}

func runSchedulerStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Println("Registered jobs:")
	for _, job := range app.standingJobs() {
		fmt.Printf("  %-22s %s\n", job.Name(), job.Schedule())
	}
	return nil
}

package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/tradingquiz/internal/scheduler"
	"github.com/wonny/tradingquiz/internal/scheduler/jobs"
)

const (
	sampleTarget = 500
	sampleBatch  = 50
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run or inspect background jobs",
	Long: `Start the scheduler or manage its jobs.

Subcommands:
  start   - run the scheduler until interrupted
  list    - list registered jobs
  run     - run one job now and wait for it

Registered jobs:
- leaderboard_warmup: every minute (rebuild cached leaderboard)
- sample_import: daily at 01:00 (top up the chart pool)

Example:
  go run ./cmd/quiz scheduler start
  go run ./cmd/quiz scheduler run sample_import`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// newScheduler registers every job against the app's services.
func newScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)

	for _, job := range []scheduler.Job{
		jobs.NewLeaderboardWarmupJob(a.board, "", a.log),
		jobs.NewSampleImportJob(a.store.Samples(), a.importer, sampleTarget, sampleBatch, "", a.log),
	} {
		if err := sched.AddJob(job); err != nil {
			return nil, fmt.Errorf("add job: %w", err)
		}
	}
	return sched, nil
}

func openScheduler(cmd *cobra.Command) (*app, *scheduler.Scheduler, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	sched, err := newScheduler(a)
	if err != nil {
		a.close()
		return nil, nil, err
	}
	return a, sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, sched, err := openScheduler(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	sched.Start()

	PrintSuccess("Scheduler started")
	fmt.Println("Registered jobs:")
	PrintList(sched.GetAllJobs())
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, sched, err := openScheduler(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	stats := sched.GetJobStats()
	widths := []int{22, 16}
	PrintTableHeader([]string{"Job", "Schedule"}, widths)
	for _, name := range sched.GetAllJobs() {
		PrintTableRow([]string{name, stats[name].Schedule}, widths)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	a, sched, err := openScheduler(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := sched.RunJobSync(args[0])
	if err != nil {
		return err
	}
	if !res.Success {
		PrintError(fmt.Sprintf("%s failed after %s: %s", res.JobName, res.Duration, res.Error))
		return fmt.Errorf("job %s failed", res.JobName)
	}

	PrintSuccess(fmt.Sprintf("%s completed in %s", res.JobName, res.Duration))
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"service-portal-backend/internal/app"
	"service-portal-backend/internal/config"
	"service-portal-backend/internal/jobs"
	"service-portal-backend/internal/logger"
	"service-portal-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'reconcile-ledger', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Service Portal Cronjob Runner...", "log_level", cfg.Log.Level)

	application, err := app.New(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(application.Engine, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to register jobs: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cronScheduler.Start()
	logger.Info("Reconciler scheduled", "jobs", cronScheduler.Entries(), "spec", cfg.Scheduler.ReconcileLedger)
	<-ctx.Done()

	logger.Info("Stopping reconciler...")
	cronScheduler.Stop()
}

var onceJobs = map[string]func(*jobs.JobRunner){
	"reconcile-ledger": (*jobs.JobRunner).ReconcileLedger,
	"all":              (*jobs.JobRunner).RunAll,
}

func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	run, ok := onceJobs[jobName]
	if !ok {
		logger.Error("Unknown job name", "job", jobName)
		fmt.Fprintln(os.Stderr, "Available jobs: reconcile-ledger, all")
		os.Exit(1)
	}
	run(jobRunner)
}

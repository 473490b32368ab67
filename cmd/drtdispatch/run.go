package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"drtdispatch/audit"
	"drtdispatch/config"
	"drtdispatch/corpus"
	"drtdispatch/dispatcher"
	"drtdispatch/httpapi"
	"drtdispatch/logging"
	"drtdispatch/model"
	"drtdispatch/report"
	"drtdispatch/routing"
	"drtdispatch/scheduler"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runTimeout time.Duration

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load a problem instance and run the dispatcher until interrupted",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "stop after this duration (0 = run until SIGINT/SIGTERM)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := logging.New(logrus.InfoLevel)

	stopsFile, err := os.Open(cfg.Dispatcher.StopsCorpusPath)
	if err != nil {
		return fmt.Errorf("opening stops corpus: %w", err)
	}
	defer stopsFile.Close()
	stopPoints, err := corpus.LoadStops(stopsFile)
	if err != nil {
		return err
	}
	stops := routing.NewRegistry(stopPoints)

	var routesCorpus map[string]routing.Entry
	if rf, err := os.Open(cfg.Oracle.RoutesCorpus); err == nil {
		defer rf.Close()
		routesCorpus, err = corpus.LoadRoutes(rf)
		if err != nil {
			return err
		}
	} else {
		log.Warnw("routes corpus not found, relying on upstream fetch", "path", cfg.Oracle.RoutesCorpus)
	}

	var fetcher routing.Fetcher
	if cfg.Oracle.BaseURL != "" {
		fetcher = routing.NewOSRMClient(cfg.Oracle.BaseURL, cfg.Oracle.RequestTimeout)
	}
	var redisClient = routing.NewRedisClient(cfg.Oracle.RedisAddr, cfg.Oracle.RedisDB)
	oracle := routing.New(stops, routesCorpus, redisClient, fetcher, log)

	problemFile, err := os.Open(cfg.Dispatcher.ProblemConfigPath)
	if err != nil {
		return fmt.Errorf("opening problem config: %w", err)
	}
	defer problemFile.Close()
	problem, err := corpus.LoadProblemConfig(problemFile)
	if err != nil {
		return err
	}

	sched := scheduler.New(oracle, cfg.Scheduler, log)
	vehicles := corpus.MaterializeVehicles(problem, stops)
	vehicleIDs := make([]string, 0, len(vehicles))
	actors := make(map[string]*dispatcher.VehicleActor, len(vehicles))
	replies := make(chan dispatcher.Message, len(vehicles)*2+8)

	for _, v := range vehicles {
		if err := sched.RegisterVehicle(v); err != nil {
			return err
		}
		vehicleIDs = append(vehicleIDs, v.ID)
		it, _ := sched.Itinerary(v.ID)
		actors[v.ID] = dispatcher.NewVehicleActor(it, replies, 1.0, log)
	}

	requestsSeed := corpus.MaterializeRequests(problem, stops, cfg.Scheduler.ServiceMinutesPerPassenger, cfg.Scheduler.MaxWaitMinutes)
	requests := make(chan *model.Request, len(requestsSeed)+8)
	for _, r := range requestsSeed {
		requests <- r
	}

	var auditLog audit.Log = audit.NoopLog{}
	if cfg.Audit.SQLitePath != "" {
		sqliteLog, err := audit.Open(cfg.Audit.SQLitePath)
		if err != nil {
			return fmt.Errorf("opening audit log: %w", err)
		}
		defer sqliteLog.Close()
		auditLog = sqliteLog
	}

	fm := dispatcher.New(sched, actors, requests, cfg.Dispatcher, log)

	var httpServer *httpapi.Server
	if cfg.Server.Enabled {
		httpServer = httpapi.New(sched, cfg.Server, log)
		go func() {
			if err := httpServer.ListenAndServe(); err != nil {
				log.Errorw("monitoring server stopped", "err", err.Error())
			}
		}()
	}

	fm.OnDecision = func(d scheduler.Decision, cycleSeconds float64) {
		outcome := audit.OutcomeRejected
		if d.Accepted {
			outcome = audit.OutcomeAccepted
		}
		if err := auditLog.Record(audit.Entry{
			RequestID: d.RequestID, VehicleID: d.VehicleID, Outcome: outcome,
			CostDelta: d.CostDelta, CycleTime: cycleSeconds,
		}); err != nil {
			log.Warnw("audit record failed", "err", err.Error())
		}
		if httpServer != nil {
			httpServer.PublishDecision(d, cycleSeconds)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if runTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, runTimeout)
		defer cancel()
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	for _, a := range actors {
		go a.Run(ctx)
	}
	if err := fm.Run(ctx); err != nil && err != context.Canceled && err != context.DeadlineExceeded {
		log.Errorw("fleet manager exited with error", "err", err.Error())
	}

	kms := make(map[string]float64, len(vehicleIDs))
	for _, id := range vehicleIDs {
		if it, ok := sched.Itinerary(id); ok {
			kms[id] = it.TraveledKm
		}
	}
	report.PrintConsole(report.Summary{
		RequestsGenerated: len(requestsSeed),
		RequestsAccepted:  len(sched.Scheduled()),
		RequestsRejected:  len(sched.Rejected()),
		VehicleKms:        kms,
	})
	if cfg.Server.OutputDir != "" {
		if _, err := report.WriteVehicleItineraries(cfg.Server.OutputDir, sched, vehicleIDs); err != nil {
			log.Warnw("writing vehicle itineraries failed", "err", err.Error())
		}
		if _, err := report.WriteCustomerItineraries(cfg.Server.OutputDir, sched); err != nil {
			log.Warnw("writing customer itineraries failed", "err", err.Error())
		}
	}
	return nil
}

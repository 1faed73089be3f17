// clcminer is the mining client's entrypoint: it loads clcminer.toml,
// wires SharedState to the Job Fetcher, Worker Pool, Submitter, Telemetry
// and Rate Display, and optionally starts the admin console and status
// API. Structurally this is cmd/berith/config.go's makeConfigNode/
// makeFullNode split, compressed into one main since there is no
// node.Node/protocol-stack layer here to separate config-loading from
// service-registration.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/term"
	cli "gopkg.in/urfave/cli.v1"

	"clcminer/adminconsole"
	"clcminer/internal/plog"
	"clcminer/job"
	"clcminer/mining/ratedisplay"
	"clcminer/mining/report"
	"clcminer/mining/state"
	"clcminer/mining/submission"
	"clcminer/mining/worker"
	"clcminer/statusapi"
)

func main() {
	app := cli.NewApp()
	app.Name = "clcminer"
	app.Usage = "secp256k1 proof-of-work mining client"
	app.Version = version
	app.Flags = []cli.Flag{configFileFlag}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		plog.Default().Crit("clcminer exited", "err", err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	log := plog.Default()

	path := ctx.GlobalString(configFileFlag.Name)
	initial, err := loadFileConfig(path)
	if err != nil {
		log.Warn("Using default config values", "path", path, "err", err)
		initial = hardcodedFallbackConfig()
	}
	if initial.ControlSocket == "" {
		initial.ControlSocket = filepath.Join(filepath.Dir(initial.RewardsDir), "clcminer.sock")
	}

	live := newLiveConfig(initial)

	shared := state.New()
	submitter := submission.NewSubmitter(log, shared)

	threads := initial.Thread
	pool := worker.New(worker.Config{
		Threads:      threads,
		State:        shared,
		Submitter:    submitter,
		Log:          log,
		SubmitServer: func() string { return initial.SubmitServer },
		RewardsDir:   func() string { return initial.RewardsDir },
		BackupDir:    live.backupDir,
		OnMined:      live.onMined,
		PoolSecret:   live.poolSecret,
	})

	fetcher := job.NewFetcher(func() string { return initial.Server }, live.jobInterval, shared, log)

	telemetry := report.New(report.Config{
		ReportServer: live.reportServer,
		ReportUser:   live.reportUser,
		Interval:     live.reportInterval,
	}, shared, log)

	display := ratedisplay.New(shared, log, ratedisplay.InfluxConfig{
		Addr: live.influxAddr,
		DB:   live.influxDB,
		User: live.reportUser,
	})

	printBanner(pool.Threads(), initial.Server)

	rootCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		<-rootCtx.Done()
		close(done)
	}()

	abort := make(chan os.Signal, 1)
	signal.Notify(abort, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-abort
		log.Info("Shutting down")
		cancel()
	}()

	go fetcher.Run(done)
	go telemetry.Run(done)
	go display.Run(done)
	go watchConfig(path, live, log, done)

	go statusapi.Supervise(done, live.statusAddr, shared, log)

	listener, err := adminconsole.Listen(initial.ControlSocket, log)
	if err != nil {
		log.Warn("Admin console control socket disabled", "err", err)
	} else {
		consoleCfg := adminconsole.Config{State: shared, Fetcher: fetcher, Log: log}
		go func() {
			if err := adminconsole.Serve(listener, consoleCfg); err != nil {
				log.Warn("Admin console control socket stopped", "err", err)
			}
		}()
		defer listener.Close()
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		stdinConsole := adminconsole.New(adminconsole.Config{
			State:    shared,
			Fetcher:  fetcher,
			Log:      log,
			HistPath: filepath.Join(filepath.Dir(initial.ControlSocket), adminconsole.HistoryFile),
		})
		go stdinConsole.Interactive()
	}

	pool.Run(rootCtx)
	return nil
}

// ledger-server serves the transcript and attendance ledger API.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/campuschain/transcript-ledger-backend/cmd/flags"
	"github.com/campuschain/transcript-ledger-backend/common"
	"github.com/campuschain/transcript-ledger-backend/eventlog"
	"github.com/campuschain/transcript-ledger-backend/httpserver"
	"github.com/campuschain/transcript-ledger-backend/interfaces"
	"github.com/campuschain/transcript-ledger-backend/ledger"
	"github.com/campuschain/transcript-ledger-backend/metrics"
	"github.com/campuschain/transcript-ledger-backend/storage"
)

// meteredEventLog counts appended events on top of the underlying log.
type meteredEventLog struct {
	interfaces.EventLog
	m *metrics.Metrics
}

func (l meteredEventLog) Append(ev interfaces.Event) (uint64, error) {
	seq, err := l.EventLog.Append(ev)
	if err == nil {
		l.m.ObserveEvent()
	}
	return seq, err
}

func main() {
	app := &cli.App{
		Name:    "ledger-server",
		Usage:   "Serve the permissioned transcript and attendance ledger API",
		Version: common.Version,
		Flags:   append(flags.ServerFlags, flags.CommonFlags...),
		Action:  runServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServer(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	registrar, err := interfaces.ParseAddress(cCtx.String(flags.RegistrarFlag.Name))
	if err != nil {
		logger.Error("Invalid registrar address", "err", err)
		return err
	}
	treasury, err := interfaces.ParseAddress(cCtx.String(flags.TreasuryFlag.Name))
	if err != nil {
		logger.Error("Invalid treasury address", "err", err)
		return err
	}

	// Durable JSONL event log, or in-memory when no path is given.
	var events interfaces.EventLog
	if path := cCtx.String(flags.EventLogFileFlag.Name); path != "" {
		fileLog, err := eventlog.OpenFileLog(path, logger)
		if err != nil {
			logger.Error("Failed to open event log", "path", path, "err", err)
			return err
		}
		events = fileLog
	} else {
		logger.Warn("No event log file configured, events will not survive restarts")
		events = eventlog.NewMemoryLog()
	}
	defer events.Close()

	m := metrics.New(common.PackageName)

	ledg, err := ledger.New(ledger.Config{
		Registrar: registrar,
		Treasury:  treasury,
		Events:    meteredEventLog{EventLog: events, m: m},
		Log:       logger,
	})
	if err != nil {
		logger.Error("Failed to create ledger", "err", err)
		return err
	}

	// Attachment store is optional; without it the attachment endpoints
	// report 501 and clients must mint proof references elsewhere.
	var store interfaces.StorageBackend
	if uris := cCtx.StringSlice(flags.StorageFlag.Name); len(uris) > 0 {
		factory := storage.NewStorageBackendFactory(logger)
		store, err = factory.CreateMultiBackend(uris)
		if err != nil {
			logger.Error("Failed to create attachment storage", "err", err)
			return err
		}
		logger.Info("Attachment storage configured", "backends", store.Name())
	}

	handler := httpserver.NewHandler(ledg, events, store, m, logger)

	srv, err := httpserver.New(flags.ConfigureServer(cCtx, logger), handler)
	if err != nil {
		logger.Error("Failed to create server", "err", err)
		return err
	}

	srv.RunInBackground()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	<-exit
	logger.Info("Shutting down")
	srv.Shutdown()
	return nil
}

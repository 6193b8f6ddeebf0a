package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tonebot/archive"
	"tonebot/bot"
	"tonebot/contract"
	"tonebot/credstore"
	"tonebot/domain"
	"tonebot/history"
	"tonebot/inference"
	"tonebot/moderation"
	"tonebot/news"
	"tonebot/ops"
	"tonebot/sched"
	"tonebot/session"
	"tonebot/transport"
	"tonebot/workers"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until shutdown. Keeping the
// whole lifecycle here means defers run before the process exits and
// every fatal error surfaces through a single return path.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB + search index)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	index, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = index.Close()
	}()

	messageArchive := archive.NewRepository(db, index, log)

	// 3. Credential persistence
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var creds contract.CredentialStore
	if config.MongoURL != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.MongoURL))
		if err != nil {
			return fmt.Errorf("mongo connection failed: %w", err)
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		creds = credstore.NewMongoStore(client, log)
		log.Info("Using MongoDB credential store")
	} else {
		creds = credstore.NewFileStore(config.AuthDir, log)
		log.Info("Using file credential store", "dir", config.AuthDir)
	}

	// 4. Conversation components
	censor, err := moderation.NewDefaultCensor()
	if err != nil {
		return fmt.Errorf("censor setup failed: %w", err)
	}
	ledger := history.NewLedger(config.HistoryCapacity)
	inferenceClient := inference.NewClient(config.InferenceURL, log)
	newsClient := news.NewClient(config.NewsAPIKey, log)
	broadcast := bot.NewBroadcast(log, config.BroadcastPacing)

	pipeline := bot.NewPipeline(
		log, ledger, messageArchive, inferenceClient, newsClient,
		censor, broadcast, config.AllowList(),
	)

	// 5. Background workers: daily jobs start once the first connection
	// opens so they never fire against a dead session, the ops server
	// starts immediately.
	sup := workers.NewSupervisor(log, config.RestartInterval)

	var armDaily sync.Once
	onOpen := func(contract.Session) {
		if config.DailyChatID == "" {
			return
		}
		armDaily.Do(func() {
			dailyChat := domain.ChatID(config.DailyChatID)
			scheduler := sched.New(log,
				sched.Job{Name: "daily-quote", At: "09:00", Run: func(ctx context.Context) error {
					return pipeline.SendDailyQuote(ctx, dailyChat)
				}},
				sched.Job{Name: "daily-news", At: "11:00", Run: func(ctx context.Context) error {
					return pipeline.SendDailyNews(ctx, dailyChat)
				}},
			)
			sup.Start(ctx, scheduler)
		})
	}

	// 6. Session lifecycle
	bridge := transport.NewBridge(config.BridgeURL, log)
	manager := session.NewManager(log, bridge, creds, pipeline,
		session.FixedDelay{Delay: config.ReconnectDelay}, onOpen)

	opsServer := ops.NewServer(log, config.Port, manager.State, messageArchive)
	sup.Add(opsServer)

	go sup.Run(ctx)

	errChan := make(chan error, 1)
	go func() {
		errChan <- manager.Run(ctx)
	}()

	// 7. Wait for stop or a fatal session error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		if err != nil {
			return err
		}
		log.Info("Session ended, shutting down")
	}

	sup.Stop()
	log.Info("Program stopped cleanly")
	return nil
}

package main

import (
	"IzdatBot/bot"
	"IzdatBot/bot/flow"
	"IzdatBot/bot/flows/contractor"
	"IzdatBot/bot/flows/update"
	"IzdatBot/bot/replies"
	"IzdatBot/internal/config"
	repository "IzdatBot/internal/database"
	"IzdatBot/internal/http-server/api"
	"IzdatBot/internal/lib/logger"
	"IzdatBot/internal/lib/sl"
	"IzdatBot/internal/redisstore"
	"IzdatBot/internal/service/admin"
	"IzdatBot/internal/service/contractors"
	"IzdatBot/internal/service/parser"
	"IzdatBot/internal/service/sheets"
	"IzdatBot/internal/ws"
	"context"
	"flag"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	ctx := context.Background()

	// Initialize Telegram bot if enabled
	var tgBot *bot.TgBot
	if conf.Telegram.Enabled {
		var err error
		tgBot, err = bot.NewTgBot(conf, lg)
		if err != nil {
			lg.Error("failed to initialize telegram bot", sl.Err(err))
		} else {
			lg = logger.SetupTelegramHandler(lg, tgBot, slog.LevelError)
			lg.With(
				slog.String("bot_name", conf.Telegram.BotName),
			).Info("telegram bot initialized")
		}
	}

	lg.Info("starting izdatbot", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.With(
			sl.Err(err),
		).Error("mongo client")
	}
	if db != nil {
		lg.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("port", conf.Mongo.Port),
			slog.String("database", conf.Mongo.Database),
		).Info("mongo client initialized")
	}

	// Pick the session store: redis, then mongo, then in-process memory.
	var store flow.Store
	switch {
	case conf.Redis.Enabled:
		client := redis.NewClient(&redis.Options{
			Addr:     conf.Redis.Addr,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		store = redisstore.New(client, conf.Flow.SessionTTL)
		lg.With(slog.String("addr", conf.Redis.Addr)).Info("redis session store initialized")
	case db != nil:
		if err := db.EnsureSessionIndexes(ctx); err != nil {
			lg.Error("session indexes", sl.Err(err))
			return
		}
		store = repository.NewSessionStore(db)
		lg.Info("mongo session store initialized")
	default:
		store = flow.NewMemoryStore()
		lg.Warn("using in-memory session store, sessions will not survive restarts")
	}

	sheetsService, err := sheets.NewSheetsService(ctx, conf, lg)
	if err != nil {
		lg.Error("sheets service", sl.Err(err))
		return
	}
	lg.With(
		slog.String("spreadsheet", conf.Sheets.SpreadsheetId),
	).Info("sheets service initialized")

	var contractorRepo contractors.Source = sheetsService
	if db != nil {
		contractorRepo = contractors.NewCached(sheetsService, db, conf.Flow.SessionTTL, lg)
	}

	parserService := parser.NewParserService(conf, lg)
	lg.With(
		sl.Secret("openai_key", conf.OpenAI.ApiKey),
		slog.String("model", conf.OpenAI.Model),
	).Info("parser service initialized")

	// Flow registry: every definition and binding is checked before the
	// engine starts taking traffic. A broken table stops the process here.
	codec := flow.NewCodec()
	registry := flow.NewRegistry()
	if err := contractor.Register(registry, codec, contractorRepo, parserService, sheetsService, lg); err != nil {
		lg.Error("register contractor flow", sl.Err(err))
		return
	}
	if err := update.Register(registry, codec, contractorRepo, lg); err != nil {
		lg.Error("register update flow", sl.Err(err))
		return
	}
	if err := registry.Validate(); err != nil {
		lg.Error("flow registry validation", sl.Err(err))
		return
	}

	hub := ws.NewHub(lg)
	go hub.Run()

	engine := flow.NewEngine(registry, store, lg,
		flow.WithCodec(codec),
		flow.WithHandlerTimeout(conf.Flow.HandlerTimeout),
		flow.WithLockWait(conf.Flow.LockWait),
		flow.WithEventSink(hub),
		flow.WithFallbacks(flow.Fallbacks{
			Busy:              replies.StillWorking,
			NoActiveSession:   replies.NothingInProgress,
			BadPayload:        replies.ButtonExpired,
			ActionUnavailable: replies.ActionUnavailable,
			Timeout:           replies.TookTooLong,
			Failure:           replies.SomethingWentWrong,
			Conflict:          replies.PleaseRepeat,
			Reset:             replies.ConversationReset,
		}),
	)

	janitor := flow.NewJanitor(store, conf.Flow.SessionTTL, conf.Flow.SweepInterval, lg)
	go janitor.Run(ctx)

	if tgBot != nil {
		tgBot.SetEngine(engine)
		go func() {
			if err := tgBot.Start(); err != nil {
				lg.Error("telegram bot error", sl.Err(err))
			}
		}()
	}

	var keys admin.ApiKeys
	if db != nil {
		keys = db
		monitorKey, err := db.GenerateApiKey("monitor")
		if err != nil {
			lg.With(
				sl.Err(err),
			).Error("generate monitor api key")
		} else {
			lg.With(
				sl.Secret("monitor_key", monitorKey),
			).Info("monitor api key ready")
		}
	}
	handler := admin.NewAdminService(conf, store, keys, lg)

	// *** blocking start with http server ***
	err = api.New(conf, lg, handler, hub)
	if err != nil {
		lg.Error("server start", sl.Err(err))
		return
	}
	lg.Error("service stopped")
}

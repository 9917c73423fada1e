package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ilyasmaxutov/towel-tracker/internal/config"
	"github.com/ilyasmaxutov/towel-tracker/internal/httpapi"
	"github.com/ilyasmaxutov/towel-tracker/internal/registry"
	"github.com/ilyasmaxutov/towel-tracker/internal/scheduler"
	"github.com/ilyasmaxutov/towel-tracker/internal/store"
	"github.com/ilyasmaxutov/towel-tracker/internal/tabular"
	"github.com/ilyasmaxutov/towel-tracker/internal/telegram"
	"github.com/ilyasmaxutov/towel-tracker/internal/token"
)

type App struct {
	cfg    config.Config
	log    *zap.Logger
	bot    *tgbotapi.BotAPI
	repo   store.Repo
	router *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	return &App{cfg: cfg, log: log, bot: bot}, nil
}

// openRepo selects the storage backend. "memory" runs against an
// in-process workbook and loses data on restart; it exists for local
// development against the tabular adapter.
func (a *App) openRepo(ctx context.Context) (store.Repo, error) {
	if a.cfg.StoreMode == "memory" {
		return tabular.NewStore(tabular.NewMemBook(tabular.Sheets()...), a.log), nil
	}
	return store.OpenSQLite(ctx, a.cfg.DBPath)
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting towel-tracker",
		zap.String("store", a.cfg.StoreMode),
		zap.String("http", a.cfg.HTTPAddr),
	)

	repo, err := a.openRepo(ctx)
	if err != nil {
		a.log.Error("open store failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("store ready")

	slots := registry.New(repo, a.log)
	tokens := token.New(a.cfg.TokenSecret)

	a.router = telegram.NewRouter(a.bot, a.log, repo, slots, tokens, a.cfg.BaseURL, telegram.Defaults{
		TZ:         a.cfg.DefaultTZ,
		NotifyHour: a.cfg.NotifyHour,
	})

	srv := &http.Server{
		Addr:         a.cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(slots, tokens, a.log),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go scheduler.New(repo, slots, a.log, a.router).Run(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")

			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := srv.Shutdown(shCtx)
			cancel()

			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}
			if a.repo != nil {
				_ = a.repo.Close()
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}

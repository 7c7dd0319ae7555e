package main

import (
	"context"
	"log"
	"log/slog"

	"formintake-backend/config"
	"formintake-backend/handlers"
	"formintake-backend/intake"
	"formintake-backend/logger"
	"formintake-backend/notify"
	"formintake-backend/repository"
	"formintake-backend/service"
	"formintake-backend/storage"
	"formintake-backend/thumbnail"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type stores struct {
	submissions service.SubmissionStore
	attachments interface {
		service.AttachmentReader
		intake.AttachmentStore
		thumbnail.Store
	}
}

func main() {
	cfg := config.Load()
	l := logger.Init(cfg.LogLevel, cfg.LogFormat)

	st, closeStores, err := initStores(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer closeStores()

	fileStorage, err := storage.NewStorage(cfg.StorageConfig())
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	l.Info("storage initialized", slog.String("type", cfg.StorageType))

	notifier, closeNotifier := initNotifier(cfg, l)
	defer closeNotifier()

	fileIntake := intake.New(fileStorage, st.attachments, intake.WithLogger(l))
	resolver := thumbnail.NewResolver(st.attachments, thumbnail.WithLogger(l))

	submissionService := service.NewSubmissionService(
		service.WithSubmissionStore(st.submissions),
		service.WithAttachmentReader(st.attachments),
		service.WithIntake(fileIntake),
		service.WithNotifier(notifier),
		service.WithLogger(l),
	)

	if cfg.TargetFormID == "" {
		l.Warn("TARGET_FORM_ID not set, every submission will be ignored")
	}
	if cfg.AdminTokenHash == "" {
		l.Warn("ADMIN_TOKEN_HASH not set, admin API disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	r := handlers.NewRouter(handlers.Handlers{
		Submissions:    handlers.NewSubmissionHandler(submissionService, resolver, cfg.Ingest(), cfg.MaxUploadBytes, l),
		Attachments:    handlers.NewAttachmentHandler(submissionService, fileStorage, resolver),
		AdminTokenHash: cfg.AdminTokenHash,
	})

	l.Info("server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func initStores(cfg *config.Config) (stores, func(), error) {
	if cfg.StoreDriver == "memory" {
		log.Println("Warning: STORE_DRIVER=memory, submissions are lost on restart")
		mem := repository.NewMemoryStore()
		return stores{submissions: mem, attachments: mem}, func() {}, nil
	}

	pool, err := initPostgres(cfg.DatabaseURL)
	if err != nil {
		return stores{}, nil, err
	}
	return stores{
		submissions: repository.NewSubmissionRepository(pool),
		attachments: repository.NewAttachmentRepository(pool),
	}, pool.Close, nil
}

func initPostgres(connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}

	log.Println("Postgres connection established")
	return pool, nil
}

func initNotifier(cfg *config.Config, l *slog.Logger) (notify.Notifier, func()) {
	notifiers := notify.Multi{notify.NewLogNotifier(l)}
	closers := []func(){}

	if cfg.NATSURL != "" {
		nc, err := notify.NewNATSNotifier(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			l.Warn("NATS unavailable, events will not be published", slog.Any("error", err))
		} else {
			notifiers = append(notifiers, nc)
			closers = append(closers, func() { _ = nc.Close() })
		}
	}

	if cfg.MailEnabled() {
		mn, err := notify.NewMailNotifier(cfg.MailConfig(), l)
		if err != nil {
			l.Warn("mail alerts disabled", slog.Any("error", err))
		} else {
			notifiers = append(notifiers, mn)
		}
	}

	return notifiers, func() {
		for _, c := range closers {
			c()
		}
	}
}

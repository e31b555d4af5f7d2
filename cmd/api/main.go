package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	httpadp "procurement-backoffice/internal/adapter/http"
	appmw "procurement-backoffice/internal/adapter/middleware"
	"procurement-backoffice/internal/adapter/repository/mysql"
	"procurement-backoffice/internal/config"
	"procurement-backoffice/internal/domain/document"
	"procurement-backoffice/internal/infrastructure/cache"
	"procurement-backoffice/internal/infrastructure/db"
	"procurement-backoffice/internal/infrastructure/storage"
	"procurement-backoffice/internal/integrity"
	"procurement-backoffice/internal/notify"
	"procurement-backoffice/internal/render"
	"procurement-backoffice/internal/token"
	"procurement-backoffice/internal/usecase/workflow"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	if err := gdb.AutoMigrate(&document.Document{}); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	blobs, err := storage.OpenMinio(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	cancel()
	if err != nil {
		log.Fatalf("minio: %v", err)
	}

	integ := integrity.NewService(render.NewPDFRenderer(), blobs)
	codec := token.NewCodec([]byte(cfg.TokenSecret))
	consumed := token.NewConsumedTokens(rdb)

	mailer := notify.NewMailer(notify.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})
	if !mailer.Configured() {
		log.Println("smtp: not configured, workflow emails will be skipped")
	}
	dispatcher := notify.NewDispatcher(mailer, blobs, cfg.BaseURL)

	repo := mysql.NewDocumentRepository(gdb)
	uc := workflow.NewUsecase(repo, integ, codec, dispatcher, cfg.TokenTTL)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger(), middleware.Recover())
	e.Validator = httpadp.NewValidator()

	h := httpadp.NewHandler()
	e.GET("/health", h.Health)

	idemp := appmw.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second)
	httpadp.NewDocumentHandler(uc, integ).Register(e, idemp)
	httpadp.NewEmailActionHandler(uc, codec, consumed).Register(e)

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

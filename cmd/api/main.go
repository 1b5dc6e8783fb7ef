package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"
	"storefront/internal/infra/events"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"
	"storefront/internal/server"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	//.envは無くてもよい（本番は環境変数）
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "storefront",
		Usage: "online storefront API",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the HTTP API",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "migrate", Usage: "run migrations before serving"},
					&cli.BoolFlag{Name: "seed", Usage: "seed the catalog before serving"},
				},
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "Run database migration",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withDB(ctx, func(cfg config.Config, gdb *gorm.DB, log *zap.Logger) error {
						if err := db.Migrate(ctx, gdb); err != nil {
							return err
						}
						log.Info("migration complete")
						return nil
					})
				},
			},
			{
				Name:  "seed",
				Usage: "Insert the demo catalog (categories and products)",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withDB(ctx, func(cfg config.Config, gdb *gorm.DB, log *zap.Logger) error {
						return db.Seed(ctx, gdb, log)
					})
				},
			},
		},
		DefaultCommand: "serve",
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// config → logger → DB
func withDB(ctx context.Context, fn func(cfg config.Config, gdb *gorm.DB, log *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.IsDev()); err != nil {
		return err
	}
	defer logger.Sync()
	log := logger.L()

	gdb, err := db.Open(cfg, log)
	if err != nil {
		log.Error("database connection failed", zap.Error(err))
		return err
	}
	defer db.Close(gdb, log)

	return fn(cfg, gdb, log)
}

func serve(ctx context.Context, c *cli.Command) error {
	return withDB(ctx, func(cfg config.Config, gdb *gorm.DB, log *zap.Logger) error {
		if c.Bool("migrate") {
			if err := db.Migrate(ctx, gdb); err != nil {
				return err
			}
		}
		if c.Bool("seed") {
			if err := db.Seed(ctx, gdb, log); err != nil {
				return err
			}
		}

		//キャッシュ（REDIS_ADDR が無ければ使わない）
		var catalogCache usecase.CatalogCache = cache.NopCatalogCache{}
		if cfg.RedisAddr != "" {
			rc, err := cache.NewRedisCatalogCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CatalogCacheTTL, log)
			if err != nil {
				log.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
			} else {
				defer rc.Close()
				catalogCache = rc
			}
		}

		//注文イベント（KAFKA_BROKERS が無ければ送らない）
		var publisher usecase.OrderEventPublisher = events.NopOrderPublisher{}
		if len(cfg.KafkaBrokers) > 0 {
			kp := events.NewKafkaOrderPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
			defer kp.Close()
			publisher = kp
		}

		//Repository（GORM実装）生成
		userRepo := infraRepo.NewUserGormRepository(gdb)
		rtRepo := infraRepo.NewRefreshTokenRepository(gdb)
		addressRepo := infraRepo.NewAddressGormRepository(gdb)
		categoryRepo := infraRepo.NewCategoryGormRepository(gdb)
		productRepo := infraRepo.NewProductGormRepository(gdb)
		reviewRepo := infraRepo.NewReviewGormRepository(gdb)
		cartRepo := infraRepo.NewCartItemGormRepository(gdb)
		orderRepo := infraRepo.NewOrderGormRepository(gdb)
		orderItemRepo := infraRepo.NewOrderItemGormRepository(gdb)
		auditRepo := infraRepo.NewAuditLogGormRepository(gdb)
		newsletterRepo := infraRepo.NewNewsletterGormRepository(gdb)
		txm := infraRepo.NewTxManagerGorm(gdb)

		//Usecase生成
		rv := validator.NewRequestValidator()
		authUC := usecase.NewAuthUsecase(cfg, userRepo, rtRepo, validator.NewAuthValidator(userRepo, rv, log), log)
		catalogUC := usecase.NewCatalogUsecase(categoryRepo, productRepo, catalogCache, log)
		reviewUC := usecase.NewReviewUsecase(txm, reviewRepo, productRepo, catalogCache, log)
		cartUC := usecase.NewCartUsecase(cartRepo, productRepo, cfg.Shipping, log)
		addressUC := usecase.NewAddressUsecase(addressRepo, log)
		orderUC := usecase.NewOrderUsecase(txm, orderRepo, orderItemRepo, addressRepo, userRepo, publisher, catalogCache, cfg.Shipping, log)
		adminOrderUC := usecase.NewAdminOrderUsecase(orderRepo, orderItemRepo, productRepo, auditRepo, log)
		productUC := usecase.NewProductUsecase(txm, productRepo, catalogCache, log)
		newsletterUC := usecase.NewNewsletterUsecase(newsletterRepo, log)

		//Handler生成
		h := server.Handlers{
			Auth:         handler.NewAuthHandler(authUC, cfg.RefreshTokenTTL, cfg.CookieSecure),
			Catalog:      handler.NewCatalogHandler(catalogUC),
			Review:       handler.NewReviewHandler(reviewUC),
			Cart:         handler.NewCartHandler(cartUC),
			Address:      handler.NewAddressHandler(addressUC),
			Order:        handler.NewOrderHandler(orderUC),
			AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC, orderUC),
			AdminProduct: handler.NewAdminProductHandler(productUC),
			Newsletter:   handler.NewNewsletterHandler(newsletterUC),
		}

		srv := server.New(cfg, log, userRepo, h, func(ctx context.Context) error {
			return db.Ping(ctx, gdb)
		})
		return srv.Run(ctx)
	})
}

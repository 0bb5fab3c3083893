package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"pair_chat_server/internal/config"
	dao "pair_chat_server/internal/dao/mysql"
	myredis "pair_chat_server/internal/dao/redis"
	"pair_chat_server/internal/gateway/websocket"
	"pair_chat_server/internal/handler"
	"pair_chat_server/internal/https_server"
	"pair_chat_server/internal/infrastructure/logger"
	"pair_chat_server/internal/infrastructure/mq"
	"pair_chat_server/internal/service"
	"pair_chat_server/internal/service/audit"
	"pair_chat_server/pkg/constants"
	"pair_chat_server/pkg/util/jwt"
	"pair_chat_server/pkg/util/snowflake"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	pruneInterval   = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	configPath := flag.String("config", "", "配置文件路径，为空时按默认路径查找")
	flag.Parse()

	// 1. 加载配置
	conf, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	config.SetConfig(conf)

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, conf.MainConfig.Mode); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer zap.L().Sync()
	zap.L().Info("日志初始化成功")

	// 3. JWT 与雪花 ID
	if conf.JWTConfig.Secret == "" || conf.GiftConfig.TokenSecret == "" {
		zap.L().Fatal("jwt secret 和 gift token secret 不能为空")
	}
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry)
	snowflake.Init(conf.SnowflakeConfig.MachineID)

	if err := handler.InitTrans("zh"); err != nil {
		zap.L().Fatal("初始化翻译器失败", zap.Error(err))
	}

	// 4. 数据库
	repos, err := dao.Init(conf.DatabaseConfig)
	if err != nil {
		zap.L().Fatal("数据库初始化失败", zap.Error(err))
	}
	zap.L().Info("数据库初始化成功", zap.String("driver", conf.DatabaseConfig.Driver))

	// 5. Redis
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := myredis.Init(ctx, conf.RedisConfig)
	if err != nil {
		zap.L().Fatal("Redis 初始化失败", zap.Error(err))
	}
	defer rdb.Close()
	cache := myredis.NewRedisCache(rdb, 4, constants.CHANNEL_SIZE)
	defer cache.Close()
	stores := service.Stores{
		Cache:    cache,
		Mailbox:  myredis.NewMailbox(rdb, constants.MailboxKinds, conf.SessionConfig.MailboxTTL),
		Presence: myredis.NewPresence(rdb, conf.SessionConfig.PresenceTTL),
		Match:    myredis.NewMatchStore(rdb, conf.SessionConfig.MailboxTTL),
	}
	zap.L().Info("Redis 初始化成功")

	// 6. 事件总线
	broker, err := mq.New(conf.KafkaConfig)
	if err != nil {
		zap.L().Fatal("事件总线初始化失败", zap.Error(err))
	}
	if kb, ok := broker.(*mq.KafkaBroker); ok {
		if err := kb.EnsureTopic(); err != nil {
			zap.L().Fatal("创建 Kafka topic 失败", zap.Error(err))
		}
	}
	defer broker.Close()

	// 7. Service 与 Handler
	svc := service.NewServices(conf, repos, stores, broker)
	if err := svc.Gift.SeedCatalog(ctx); err != nil {
		zap.L().Fatal("初始化礼物目录失败", zap.Error(err))
	}
	stream := websocket.NewManager(svc.Notify)
	engine := https_server.Init(handler.NewHandlers(svc, stream), conf.MainConfig)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port),
		Handler: engine,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return broker.Start(gctx, audit.NewProjector(repos).Handle)
	})
	g.Go(func() error {
		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				svc.Presence.Prune(gctx)
			}
		}
	})
	g.Go(func() error {
		zap.L().Info("服务启动", zap.String("addr", srv.Addr))
		var err error
		if conf.MainConfig.CertFile != "" {
			err = srv.ListenAndServeTLS(conf.MainConfig.CertFile, conf.MainConfig.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("关闭服务器...")
		stream.CloseAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, mq.ErrClosed) {
		zap.L().Error("服务异常退出", zap.Error(err))
	}
	zap.L().Info("服务器已关闭")
}

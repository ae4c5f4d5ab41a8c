package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CityTalk/data/database/mgo/mongoutil"
	"CityTalk/global/config"
	"CityTalk/logger"
	"CityTalk/middleware"
	chatstore "CityTalk/module/chat/store"
	userstore "CityTalk/module/user/store"
	"CityTalk/service/gateway"
	redisc "CityTalk/service/storage/redis"
	"CityTalk/tools/ids"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("load config: %v", err)
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		logger.Errorf("jwt_secret is required (CITYTALK_JWT_SECRET)")
		os.Exit(1)
	}
	ids.SetNodeID(cfg.NodeID)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := redisc.InitRedis(redisc.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}); err != nil {
		logger.Errorf("init redis: %v", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Errorf("init postgres: %v", err)
		os.Exit(1)
	}
	defer pool.Close()

	mgo, err := mongoutil.NewMongoDB(ctx, &mongoutil.Config{
		Uri:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		Username:    cfg.Mongo.Username,
		Password:    cfg.Mongo.Password,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
		MaxRetry:    cfg.Mongo.MaxRetry,
	})
	if err != nil {
		logger.Errorf("init mongo: %v", err)
		os.Exit(1)
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = mgo.Close(cctx)
		cancel()
	}()

	users := userstore.New(pool)
	rooms := chatstore.NewRoomStore(pool)
	messages := chatstore.NewMessageStore(mgo.GetDB())

	srv := gateway.NewServer(cfg, users, rooms, messages)
	srv.Start()

	r := gin.New()
	r.Use(gin.Recovery())
	middleware.RegisterRoutes(r, srv)

	go func() {
		logger.Infof("gateway listening on :%d", cfg.Port)
		if err := r.Run(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logger.Errorf("http server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	srv.Shutdown()
}

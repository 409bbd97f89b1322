// Package main API Server 入口
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"activities-admin/internal/apiserver/auth"
	"activities-admin/internal/apiserver/server"
	"activities-admin/internal/config"
	"activities-admin/internal/shared/objstore"
	"activities-admin/internal/shared/storage/mongostore"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 切换 YAML）
	cfg := config.Load()

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	// 签名密钥缺失属部署错误，直接终止
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// 初始化 MongoDB
	store, err := mongostore.NewStore(cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer store.Close()
	log.Println("Connected to MongoDB")

	// 初始化 MinIO 对象存储
	uploader, err := objstore.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("Failed to create MinIO client: %v", err)
	}
	ensureCtx, cancelEnsure := context.WithTimeout(context.Background(), 10*time.Second)
	if err := uploader.EnsureBucket(ensureCtx); err != nil {
		cancelEnsure()
		log.Fatalf("Failed to ensure MinIO bucket: %v", err)
	}
	cancelEnsure()
	log.Println("Connected to MinIO")

	authCfg := auth.Config{
		JWTSecret:        cfg.JWTSecret,
		TokenTTL:         cfg.TokenTTL,
		CookieExpireDays: cfg.CookieExpireDays,
		SecureCookie:     cfg.Env == config.EnvProduction,
	}

	// 确保初始管理员存在
	if err := auth.EnsureAdminUser(store, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	}

	h := server.NewHandler(store, uploader, authCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// 监听失败直接退出，由外部进程管理负责重启（crash-and-restart）
	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}

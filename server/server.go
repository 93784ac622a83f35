package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"voxshare/cache"
	"voxshare/config"
	"voxshare/core/auth"
	"voxshare/db"
	"voxshare/logger"
	"voxshare/model"
	"voxshare/repository"
	"voxshare/storage"

	"github.com/gorilla/mux"
)

// NewRouter builds the gorilla/mux router with all API routes, the media
// route for MinIO-stored payloads and the static UI file server.
func NewRouter(apiHandler *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.Use(loggingMiddleware)

	// 用户认证相关的API端点
	router.HandleFunc("/api/auth/signup", apiHandler.SignupHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/signin", apiHandler.SigninHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/me", apiHandler.AuthMiddleware(apiHandler.MeHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/auth/profile", apiHandler.AuthMiddleware(apiHandler.UpdateProfileHandler)).Methods(http.MethodPut)

	// 音频相关的API端点
	router.HandleFunc("/api/audio/upload", apiHandler.AuthMiddleware(apiHandler.UploadAudioHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/audio/my-audios", apiHandler.AuthMiddleware(apiHandler.MyAudiosHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/audio/public", apiHandler.PublicAudiosHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/audio/{id}", apiHandler.GetAudioHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/audio/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteAudioHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/audio/{id}/share", apiHandler.ShareAudioHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/audio/{id}/play", apiHandler.PlayAudioHandler).Methods(http.MethodPost)

	// MinIO 存储的音频文件服务路由
	router.PathPrefix("/media/").HandlerFunc(serveMediaObject)

	// Frontend UI serving
	uiFileServer := http.FileServer(http.Dir(apiHandler.cfg.WebAppDir))
	router.PathPrefix("/").Handler(uiFileServer)

	return router
}

func serveMediaObject(w http.ResponseWriter, r *http.Request) {
	if !storage.Enabled() {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	objectPath := strings.TrimPrefix(r.URL.Path, "/media/")

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	object, err := storage.GetObject(ctx, objectPath)
	if err != nil {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	defer object.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Cache-Control", "public, max-age=31536000") // 缓存一年

	if _, err := io.Copy(w, object); err != nil {
		logger.Error("Error serving file from MinIO", logger.ErrorField(err))
	}
}

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	auth.Init(cfg.JWTSecret, cfg.JWTExpiry)

	// 设置服务器超时
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 初始化 MinIO 客户端（可选）
	if err := storage.InitMinio(cfg); err != nil {
		logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
	}

	// Connect to the database
	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database with GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	// Initialize database schema
	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if err := db.AutoMigrateModels(&model.Audio{}); err != nil {
		logger.Fatal("Failed to migrate audio model", logger.ErrorField(err))
	}

	// Connect to Redis. The feed cache degrades to direct reads without it.
	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Warn("Failed to connect to Redis, feed cache disabled", logger.ErrorField(err))
	} else {
		defer cache.CloseRedis()
		logger.Info("Successfully connected to Redis")
	}

	userRepo := repository.NewMySQLUserRepository(db.DB)
	audioRepo := repository.NewGormAudioRepository(db.GormDB)

	// 初始化处理器
	apiHandler := NewAPIHandler(userRepo, audioRepo, cfg)
	server.Handler = NewRouter(apiHandler)

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 在goroutine中启动服务器
	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ServerAddr))
		logger.Info("Access the UI at " + cfg.FrontendURL + "/")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	// 等待中断信号
	<-stop
	logger.Info("Shutting down server...")

	// 创建一个5秒超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smart-pdf-chatbot/internal/config"
	"smart-pdf-chatbot/internal/handler"
	"smart-pdf-chatbot/internal/middleware"
	"smart-pdf-chatbot/internal/pipeline"
	"smart-pdf-chatbot/internal/repository"
	"smart-pdf-chatbot/internal/service"
	"smart-pdf-chatbot/pkg/database"
	"smart-pdf-chatbot/pkg/idgen"
	"smart-pdf-chatbot/pkg/kafka"
	"smart-pdf-chatbot/pkg/llm"
	"smart-pdf-chatbot/pkg/log"
	"smart-pdf-chatbot/pkg/storage"
	"smart-pdf-chatbot/pkg/tika"
	"smart-pdf-chatbot/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	// 1. 初始化配置，配置文件变化时同步日志级别
	config.Init(configPath, func(next config.Config) {
		log.SetLevel(next.Log.Level)
		log.Infof("配置已重新加载, 日志级别: %s", next.Log.Level)
	})
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	ctx := context.Background()

	// 3. 初始化会话存储
	var sessionRepo repository.SessionRepository
	var conversationRepo repository.ConversationRepository
	switch cfg.Session.Store {
	case "redis":
		rdb, err := database.OpenRedis(ctx, cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		sessionRepo = repository.NewSessionRepository(rdb, cfg.Session.TTL)
		conversationRepo = repository.NewConversationRepository(rdb, cfg.Session.TTL)
	case "memory", "":
		mem := repository.NewMemoryStore()
		sessionRepo, conversationRepo = mem, mem
		log.Info("会话数据保存在进程内存中")
	default:
		return fmt.Errorf("unknown session.store %q", cfg.Session.Store)
	}

	// 4. 对比报告索引
	artifactRepo := repository.NewMemoryArtifactRepository()
	if cfg.Database.MySQL.DSN != "" {
		db, err := database.OpenMySQL(cfg.Database.MySQL.DSN)
		if err != nil {
			return err
		}
		artifactRepo = repository.NewArtifactRepository(db)
	}

	// 5. 对象存储与报告存储
	var minioClient *minio.Client
	if cfg.Artifacts.Backend == "minio" || cfg.Corpus.RetainUploads {
		var err error
		if minioClient, err = storage.NewMinIO(ctx, cfg.MinIO); err != nil {
			return err
		}
	}
	var (
		artifactStore storage.ArtifactStore
		opener        handler.ArtifactOpener
		staticDir     string
	)
	switch cfg.Artifacts.Backend {
	case "minio":
		s := storage.NewMinioArtifactStore(minioClient, cfg.MinIO.BucketName)
		artifactStore, opener = s, s
	case "local", "":
		s, err := storage.NewLocalArtifactStore(cfg.Artifacts.Dir)
		if err != nil {
			return err
		}
		artifactStore, staticDir = s, s.Dir()
	default:
		return fmt.Errorf("unknown artifacts.backend %q", cfg.Artifacts.Backend)
	}
	var retainer storage.UploadRetainer
	if cfg.Corpus.RetainUploads {
		retainer = storage.NewMinioUploadRetainer(minioClient, cfg.MinIO.BucketName)
	}

	// 6. 事件生产者
	producer := kafka.NewProducer(cfg.Kafka)
	defer producer.Close()

	// 7. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.Session.Secret, cfg.Session.TokenExpire)
	llmClient := llm.NewClient(cfg.LLM)
	ids := idgen.Default()
	ingestor := pipeline.NewIngestor(pipeline.NewPDFExtractor(tika.NewClient(cfg.Tika)), ids, cfg.Corpus.ExtractionConcurrency)

	sessionService := service.NewSessionService(jwtManager, sessionRepo)
	chatService := service.NewChatService(llmClient, sessionRepo, conversationRepo)
	uploadService := service.NewUploadService(ingestor, sessionRepo, chatService, retainer, producer)
	compareService := service.NewCompareService(llmClient, sessionRepo, artifactRepo, artifactStore, ids, producer)
	conversationService := service.NewConversationService(conversationRepo)

	limiter := middleware.NewSessionLimiter(cfg.LLM.RateLimit)
	var wsLimiter func(string) *rate.Limiter
	if limiter != nil {
		wsLimiter = limiter.Get
		stopSweep := make(chan struct{})
		defer close(stopSweep)
		go sweepLimiters(limiter, cfg.Session.TTL, stopSweep)
	}

	// 8. 设置 Gin 模式并注册路由
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())
	r.MaxMultipartMemory = cfg.Corpus.MaxFileSize

	sessionHandler := handler.NewSessionHandler(sessionService)
	uploadHandler := handler.NewUploadHandler(uploadService, cfg.Corpus)
	chatHandler := handler.NewChatHandler(chatService, jwtManager, wsLimiter)
	compareHandler := handler.NewCompareHandler(compareService, opener)
	conversationHandler := handler.NewConversationHandler(conversationService)

	apiV1 := r.Group("/api/v1")
	{
		apiV1.POST("/sessions", sessionHandler.Create)

		authed := apiV1.Group("")
		authed.Use(middleware.SessionAuth(jwtManager))
		{
			authed.GET("/documents", sessionHandler.ListDocuments)
			authed.GET("/conversation", conversationHandler.GetConversations)
			authed.GET("/dashboards", compareHandler.ListDashboards)

			// 以下路由会调用模型，按会话限流
			llmRoutes := authed.Group("")
			llmRoutes.Use(middleware.RateLimit(limiter))
			{
				llmRoutes.POST("/upload", uploadHandler.Upload)
				llmRoutes.POST("/summarize", uploadHandler.Summarize)
				llmRoutes.POST("/chat", chatHandler.Chat)
				llmRoutes.POST("/compare", compareHandler.Compare)
			}
		}
	}
	r.GET("/chat/:token", chatHandler.Handle)

	// 报告：本地目录静态托管，或从 MinIO 转发
	if staticDir != "" {
		r.Static(storage.URLPrefix, staticDir)
	} else {
		r.GET(storage.URLPrefix+":file", compareHandler.ServeDashboard)
	}

	// 9. 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP 服务监听失败: %w", err)
	case <-quit:
	}
	log.Info("接收到停机信号，正在关闭服务...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP 服务器关闭失败: %w", err)
	}
	log.Info("服务已优雅关闭")
	return nil
}

// sweepLimiters 定期清理长时间不活跃的会话 limiter。
func sweepLimiters(l *middleware.SessionLimiter, idle time.Duration, stop <-chan struct{}) {
	if idle <= 0 {
		idle = time.Hour
	}
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := l.Sweep(idle); n > 0 {
				log.Infof("清理不活跃的会话限流器: %d", n)
			}
		case <-stop:
			return
		}
	}
}

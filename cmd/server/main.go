package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rahulbar0t/soulsurfer/internal/analysis"
	"github.com/rahulbar0t/soulsurfer/internal/client"
	"github.com/rahulbar0t/soulsurfer/internal/clients/gemini"
	"github.com/rahulbar0t/soulsurfer/internal/clips"
	"github.com/rahulbar0t/soulsurfer/internal/config"
	"github.com/rahulbar0t/soulsurfer/internal/database"
	"github.com/rahulbar0t/soulsurfer/internal/geometry"
	"github.com/rahulbar0t/soulsurfer/internal/handler"
	"github.com/rahulbar0t/soulsurfer/internal/repository"
	"github.com/rahulbar0t/soulsurfer/internal/service"
	"github.com/rahulbar0t/soulsurfer/internal/video"
)

func main() {
	// Инициализируем логгер
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Загружаем конфигурацию из переменных окружения
	cfg := config.LoadConfig()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.Info("Запуск SoulSurfer API Server")

	// Инициализируем базу данных
	logger.Info("Подключение к базе данных...")
	if err := database.Connect(); err != nil {
		logger.Fatalf("Ошибка подключения к базе данных: %v", err)
	}

	// Выполняем миграции
	logger.Info("Выполнение миграций базы данных...")
	if err := database.Migrate(); err != nil {
		logger.Fatalf("Ошибка выполнения миграций: %v", err)
	}

	// Проверяем здоровье базы данных
	if err := database.HealthCheck(); err != nil {
		logger.Fatalf("База данных недоступна: %v", err)
	}

	logger.Info("База данных успешно подключена и готова к работе")

	// Создаем папку для загружаемых видео
	if err := os.MkdirAll(cfg.Pipeline.UploadDir, 0755); err != nil {
		logger.Fatalf("Ошибка создания папки для загрузок: %v", err)
	}

	// Загружаем идеальные диапазоны метрик
	idealRanges, err := config.LoadIdealRanges(cfg.Pipeline.IdealRangesPath)
	if err != nil {
		logger.Fatalf("Ошибка загрузки идеальных диапазонов: %v", err)
	}
	logger.Infof("Загружено %d идеальных диапазонов метрик", len(idealRanges))

	// Инициализируем компоненты пайплайна
	var enhancer *video.Enhancer
	if cfg.Enhancement.Enabled {
		enhancer = video.NewEnhancer(cfg.Enhancement)
		logger.Infof("Улучшение кадров включено (zoom=%t, sharpen=%t, contrast=%t)",
			cfg.Enhancement.ZoomEnabled, cfg.Enhancement.SharpenEnabled, cfg.Enhancement.ContrastEnabled)
	}

	processor := video.NewProcessor(cfg.Pipeline.TargetFPS, enhancer, logger)
	calculator := geometry.NewCalculator()
	classifier := analysis.NewClassifier(idealRanges)

	clipExtractor, err := clips.NewExtractor(cfg.Pipeline.ClipDurationSec, cfg.Pipeline.ClipsDir, logger)
	if err != nil {
		logger.Fatalf("Ошибка инициализации экстрактора клипов: %v", err)
	}

	poseClient := client.NewPoseAPIClient(
		cfg.PoseAPI.BaseURL,
		cfg.Pipeline.MinLandmarkVisibility,
		time.Duration(cfg.PoseAPI.Timeout)*time.Second,
		logger,
	)

	// Gemini опционален: без API ключа обратная связь заменяется заглушкой
	var feedbackGen service.FeedbackGenerator
	if cfg.Gemini.APIKey != "" {
		geminiClient, err := gemini.NewClient(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Model, logger)
		if err != nil {
			logger.Fatalf("Ошибка инициализации Gemini клиента: %v", err)
		}
		defer geminiClient.Close()
		feedbackGen = geminiClient
	} else {
		logger.Warn("GEMINI_API_KEY не задан, обратная связь тренера недоступна")
	}

	pipeline := service.NewPipeline(processor, calculator, classifier, clipExtractor, poseClient, feedbackGen, logger)

	// Инициализируем репозитории и сервисы
	sessionRepo := repository.NewSessionRepository(database.DB)
	sessionService := service.NewSessionService(sessionRepo, pipeline, feedbackGen, cfg.Pipeline.ClipsDir, logger)

	// Инициализируем обработчики
	sessionHandler := handler.NewSessionHandler(sessionService, poseClient, cfg.Pipeline.UploadDir, cfg.Pipeline.MaxVideoSizeMB, logger)

	// Настраиваем Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Добавляем middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Обслуживание клипов и превью
	router.Static("/clips", cfg.Pipeline.ClipsDir)

	// Регистрируем маршруты
	sessionHandler.RegisterRoutes(router)

	// Добавляем базовый маршрут для проверки
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "SoulSurfer API Server",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	// Запускаем сервер
	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Infof("Сервер запущен на порту %s", cfg.Server.Port)
	logger.Infof("API доступно по адресу: http://localhost:%s/api/v1", cfg.Server.Port)

	if err := router.Run(serverAddr); err != nil {
		logger.Fatalf("Ошибка запуска сервера: %v", err)
	}
}

// corsMiddleware добавляет заголовки CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

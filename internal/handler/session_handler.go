package handler

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rahulbar0t/soulsurfer/internal/repository"
	"github.com/rahulbar0t/soulsurfer/internal/service"
	"github.com/rahulbar0t/soulsurfer/pkg/models"
)

// allowedExtensions расширения видео файлов, принимаемые на анализ
var allowedExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
}

// validSkillLevels допустимые уровни подготовки серфера
var validSkillLevels = map[string]bool{
	"beginner":     true,
	"intermediate": true,
	"advanced":     true,
}

// SessionHandler обрабатывает HTTP запросы для работы с сессиями анализа
type SessionHandler struct {
	sessionService *service.SessionService
	pose           service.PoseEstimator
	uploadDir      string
	maxVideoSizeMB int
	logger         *logrus.Logger
}

// NewSessionHandler создает новый экземпляр SessionHandler
func NewSessionHandler(
	sessionService *service.SessionService,
	pose service.PoseEstimator,
	uploadDir string,
	maxVideoSizeMB int,
	logger *logrus.Logger,
) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		pose:           pose,
		uploadDir:      uploadDir,
		maxVideoSizeMB: maxVideoSizeMB,
		logger:         logger,
	}
}

// RegisterRoutes регистрирует маршруты API
func (h *SessionHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/sessions", h.CreateSession)
		api.GET("/sessions", h.ListSessions)
		api.GET("/sessions/:id", h.GetSession)
		api.DELETE("/sessions/:id", h.DeleteSession)
		api.POST("/sessions/:id/chat", h.Chat)
		api.GET("/health", h.CheckHealth)
	}
}

// CreateSession принимает видео на анализ и запускает пайплайн в фоне
func (h *SessionHandler) CreateSession(c *gin.Context) {
	h.logger.Info("Получен запрос на создание сессии анализа")

	file, err := c.FormFile("video")
	if err != nil {
		h.logger.Errorf("Ошибка получения видео файла: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Видео файл обязателен"})
		return
	}

	// Проверяем расширение файла
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		h.logger.Errorf("Неподдерживаемый формат видео: %s", ext)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Неподдерживаемый формат видео '%s'. Допустимы: .mp4, .mov, .avi, .mkv, .webm", ext),
		})
		return
	}

	// Проверяем размер файла
	maxBytes := int64(h.maxVideoSizeMB) * 1024 * 1024
	if file.Size > maxBytes {
		h.logger.Errorf("Видео слишком большое: %d байт", file.Size)
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("Видео слишком большое (%.1f MB). Максимум: %d MB",
				float64(file.Size)/(1024*1024), h.maxVideoSizeMB),
		})
		return
	}

	// Проверяем уровень подготовки
	surferName := c.PostForm("surfer_name")
	skillLevel := strings.ToLower(c.PostForm("skill_level"))
	if skillLevel != "" && !validSkillLevels[skillLevel] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Неверный skill_level '%s'. Допустимы: beginner, intermediate, advanced", skillLevel),
		})
		return
	}

	// Сохраняем загруженный файл
	sessionID := uuid.New().String()
	videoPath := filepath.Join(h.uploadDir, sessionID+ext)
	if err := c.SaveUploadedFile(file, videoPath); err != nil {
		h.logger.Errorf("Ошибка сохранения видео файла: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сохранения видео файла"})
		return
	}

	session, err := h.sessionService.CreateSession(sessionID, file.Filename, surferName, skillLevel)
	if err != nil {
		h.logger.Errorf("Ошибка создания сессии: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка создания сессии"})
		return
	}

	// Запускаем анализ в фоновой горутине
	go h.sessionService.RunAnalysis(sessionID, videoPath, surferName, skillLevel)

	h.logger.Infof("Сессия %s принята в обработку (файл %s, %d байт)", sessionID, file.Filename, file.Size)
	c.JSON(http.StatusAccepted, session)
}

// GetSession возвращает полный отчет завершенной сессии или ее текущий статус
func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionID := c.Param("id")
	h.logger.Infof("Получен запрос на получение сессии %s", sessionID)

	session, err := h.sessionService.GetSession(sessionID)
	if err != nil {
		h.logger.Errorf("Ошибка получения сессии: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Сессия не найдена"})
		return
	}

	if session.Status == string(models.StatusCompleted) {
		c.JSON(http.StatusOK, h.sessionService.BuildReport(session))
		return
	}

	response := models.SessionResponse{
		SessionID:     session.ID,
		Status:        models.SessionStatus(session.Status),
		CreatedAt:     session.CreatedAt,
		VideoFilename: session.VideoFilename,
		SurferName:    session.SurferName,
		SkillLevel:    session.SkillLevel,
	}
	c.JSON(http.StatusOK, response)
}

// ListSessions возвращает список сессий с пагинацией
func (h *SessionHandler) ListSessions(c *gin.Context) {
	h.logger.Info("Получен запрос на получение списка сессий")

	pageStr := c.DefaultQuery("page", "1")
	sizeStr := c.DefaultQuery("size", "10")

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}

	size, err := strconv.Atoi(sizeStr)
	if err != nil || size < 1 || size > 100 {
		size = 10
	}

	sessions, total, err := h.sessionService.ListSessions(page, size)
	if err != nil {
		h.logger.Errorf("Ошибка получения списка сессий: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения списка сессий"})
		return
	}

	response := service.ListSessionsResponse{
		Sessions: sessions,
		Total:    total,
		Page:     page,
		Size:     size,
	}

	h.logger.Infof("Возвращено %d сессий из %d", len(sessions), total)
	c.JSON(http.StatusOK, response)
}

// DeleteSession удаляет сессию по ID
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	sessionID := c.Param("id")
	h.logger.Infof("Получен запрос на удаление сессии %s", sessionID)

	if err := h.sessionService.DeleteSession(sessionID); err != nil {
		h.logger.Errorf("Ошибка удаления сессии: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка удаления сессии"})
		return
	}

	h.logger.Info("Сессия успешно удалена")
	c.JSON(http.StatusOK, gin.H{"message": "Сессия успешно удалена"})
}

// Chat обрабатывает сообщение AI тренеру по завершенной сессии
func (h *SessionHandler) Chat(c *gin.Context) {
	sessionID := c.Param("id")
	h.logger.Infof("Получен запрос чата для сессии %s", sessionID)

	var request models.ChatRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Поле message обязательно"})
		return
	}

	reply, err := h.sessionService.Chat(c.Request.Context(), sessionID, request.Message)
	if err != nil {
		h.logger.Errorf("Ошибка чата: %v", err)
		switch {
		case errors.Is(err, repository.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Сессия не найдена"})
		case errors.Is(err, service.ErrSessionNotCompleted):
			c.JSON(http.StatusConflict, gin.H{"error": "Чат доступен только после завершения анализа"})
		case errors.Is(err, service.ErrCoachUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI тренер не сконфигурирован"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "Не удалось получить ответ AI тренера"})
		}
		return
	}

	c.JSON(http.StatusOK, models.ChatResponse{
		Reply:     reply,
		Timestamp: time.Now().UTC(),
	})
}

// CheckHealth проверяет состояние сервиса и pose-сервиса
func (h *SessionHandler) CheckHealth(c *gin.Context) {
	h.logger.Debug("Получен запрос проверки здоровья сервиса")

	health, err := h.pose.CheckHealth()
	if err != nil {
		h.logger.Errorf("Pose-сервис недоступен: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "Pose-сервис недоступен",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"pose_service": health,
	})
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/rahulbar0t/soulsurfer/pkg/models"
)

// Config структура конфигурации приложения
type Config struct {
	Server struct {
		Port        string
		Environment string
	}
	PoseAPI struct {
		BaseURL string
		Timeout int // в секундах
	}
	Gemini struct {
		APIKey string
		Model  string
	}
	Pipeline struct {
		TargetFPS             float64
		MinLandmarkVisibility float64
		MaxVideoSizeMB        int
		UploadDir             string
		ClipsDir              string
		ClipDurationSec       float64
		IdealRangesPath       string
	}
	Enhancement EnhancementConfig
	Logging     struct {
		Level string
	}
}

// EnhancementConfig параметры улучшения кадров перед оценкой позы
type EnhancementConfig struct {
	Enabled         bool    // Глобальный выключатель улучшения
	ZoomEnabled     bool    // Центральное увеличение кадра
	ZoomCropRatio   float64 // Доля кадра, оставляемая при обрезке (< 1.0 — увеличение)
	SharpenEnabled  bool    // Повышение резкости (unsharp mask)
	SharpenKernel   int     // Размер ядра Гаусса (нечетный)
	SharpenSigma    float64 // Сигма размытия
	SharpenStrength float64 // Вес оригинала при смешивании
	ContrastEnabled bool    // CLAHE по каналу яркости
	CLAHEClipLimit  float64 // Ограничение контраста CLAHE
	CLAHETileGrid   int     // Размер сетки тайлов CLAHE
}

// LoadConfig загружает конфигурацию из переменных окружения
func LoadConfig() *Config {
	cfg := &Config{}

	// Конфигурация сервера
	cfg.Server.Port = getEnv("SERVER_PORT", "8080")
	cfg.Server.Environment = getEnv("ENVIRONMENT", "development")

	// Конфигурация pose-сервиса
	cfg.PoseAPI.BaseURL = getEnv("POSE_API_BASE_URL", "http://localhost:8000")
	cfg.PoseAPI.Timeout = getEnvInt("POSE_API_TIMEOUT_SECONDS", 30)

	// Конфигурация Gemini
	cfg.Gemini.APIKey = getEnv("GEMINI_API_KEY", "")
	cfg.Gemini.Model = getEnv("GEMINI_MODEL", "gemini-2.5-flash")

	// Конфигурация пайплайна анализа
	cfg.Pipeline.TargetFPS = getEnvFloat("FRAME_EXTRACTION_FPS", 5.0)
	cfg.Pipeline.MinLandmarkVisibility = getEnvFloat("MIN_LANDMARK_VISIBILITY", 0.6)
	cfg.Pipeline.MaxVideoSizeMB = getEnvInt("MAX_VIDEO_SIZE_MB", 100)
	cfg.Pipeline.UploadDir = getEnv("UPLOAD_DIR", "./uploads")
	cfg.Pipeline.ClipsDir = getEnv("CLIPS_DIR", "./clips")
	cfg.Pipeline.ClipDurationSec = getEnvFloat("CLIP_DURATION_SEC", 2.0)
	cfg.Pipeline.IdealRangesPath = getEnv("IDEAL_RANGES_PATH", "./configs/ideal_ranges.json")

	// Конфигурация улучшения кадров
	cfg.Enhancement.Enabled = getEnvBool("ENABLE_FRAME_ENHANCEMENT", true)
	cfg.Enhancement.ZoomEnabled = getEnvBool("ENHANCEMENT_ZOOM_ENABLED", true)
	cfg.Enhancement.ZoomCropRatio = getEnvFloat("ENHANCEMENT_ZOOM_CROP_RATIO", 0.6)
	cfg.Enhancement.SharpenEnabled = getEnvBool("ENHANCEMENT_SHARPEN_ENABLED", true)
	cfg.Enhancement.SharpenKernel = getEnvInt("ENHANCEMENT_SHARPEN_KERNEL_SIZE", 5)
	cfg.Enhancement.SharpenSigma = getEnvFloat("ENHANCEMENT_SHARPEN_SIGMA", 1.0)
	cfg.Enhancement.SharpenStrength = getEnvFloat("ENHANCEMENT_SHARPEN_STRENGTH", 1.5)
	cfg.Enhancement.ContrastEnabled = getEnvBool("ENHANCEMENT_CONTRAST_ENABLED", false)
	cfg.Enhancement.CLAHEClipLimit = getEnvFloat("ENHANCEMENT_CLAHE_CLIP_LIMIT", 2.0)
	cfg.Enhancement.CLAHETileGrid = getEnvInt("ENHANCEMENT_CLAHE_TILE_GRID_SIZE", 8)

	// Конфигурация логирования
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	return cfg
}

// LoadIdealRanges загружает таблицу идеальных диапазонов метрик из JSON файла.
// Таблица загружается один раз на запуск сессии и далее неизменяема.
func LoadIdealRanges(path string) (map[string]models.IdealRange, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла идеальных диапазонов %s: %w", path, err)
	}

	ranges := make(map[string]models.IdealRange)
	if err := json.Unmarshal(data, &ranges); err != nil {
		return nil, fmt.Errorf("ошибка парсинга файла идеальных диапазонов %s: %w", path, err)
	}

	return ranges, nil
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает int значение переменной окружения или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat получает float значение переменной окружения или возвращает значение по умолчанию
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool получает bool значение переменной окружения или возвращает значение по умолчанию
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

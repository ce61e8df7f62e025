package models

import "time"

// Severity уровень серьезности отклонения
type Severity string

const (
	SeverityLow    Severity = "low"    // Незначительное отклонение
	SeverityMedium Severity = "medium" // Заметное отклонение
	SeverityHigh   Severity = "high"   // Серьезное отклонение
)

// Weight возвращает числовой вес серьезности для приоритизации
func (s Severity) Weight() float64 {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

// SessionStatus статус сессии анализа
type SessionStatus string

const (
	StatusPending    SessionStatus = "pending"    // Сессия создана, анализ еще не начался
	StatusProcessing SessionStatus = "processing" // Анализ выполняется
	StatusCompleted  SessionStatus = "completed"  // Анализ успешно завершен
	StatusFailed     SessionStatus = "failed"     // Анализ завершился ошибкой
)

// Landmark позиция одной из 33 анатомических точек позы
type Landmark struct {
	X          float64 `json:"x"`          // Координата X (нормализованная или мировая)
	Y          float64 `json:"y"`          // Координата Y
	Z          float64 `json:"z"`          // Координата Z (глубина)
	Visibility float64 `json:"visibility"` // Уверенность видимости точки [0, 1]
}

// PoseResult результат оценки позы для одного кадра от pose-сервиса
type PoseResult struct {
	Landmarks      []Landmark `json:"landmarks"`       // 33 нормализованные точки (или пусто)
	WorldLandmarks []Landmark `json:"world_landmarks"` // 33 точки в мировых координатах (или пусто)
	AvgVisibility  float64    `json:"avg_visibility"`  // Средняя видимость по всем точкам
	Detected       bool       `json:"detected"`        // Обнаружена ли поза с достаточной видимостью
}

// FrameMetrics биомеханические метрики одного проанализированного кадра
type FrameMetrics struct {
	FrameNumber       int                `json:"frame_number"`       // Номер кадра в исходном видео
	TimestampSec      float64            `json:"timestamp_sec"`      // Временная метка кадра в секундах
	LandmarksDetected bool               `json:"landmarks_detected"` // Обнаружены ли точки позы
	AvgVisibility     float64            `json:"avg_visibility"`     // Средняя видимость точек
	Metrics           map[string]float64 `json:"metrics"`            // Имя метрики -> измеренное значение
}

// SeverityThresholds пороги отклонения для классификации серьезности
type SeverityThresholds struct {
	Medium float64 `json:"medium"` // Порог для medium (в единицах метрики)
	High   float64 `json:"high"`   // Порог для high
}

// IdealRange допустимый диапазон метрики с порогами серьезности
type IdealRange struct {
	Min                float64            `json:"min"`                 // Нижняя граница диапазона
	Max                float64            `json:"max"`                 // Верхняя граница диапазона
	SeverityThresholds SeverityThresholds `json:"severity_thresholds"` // Пороги классификации
}

// FrameError отклонение одной метрики на одном кадре (до агрегации)
type FrameError struct {
	Metric        string   `json:"metric"`         // Имя метрики
	MeasuredValue float64  `json:"measured_value"` // Измеренное значение
	IdealMin      float64  `json:"ideal_min"`      // Нижняя граница идеального диапазона
	IdealMax      float64  `json:"ideal_max"`      // Верхняя граница идеального диапазона
	Deviation     float64  `json:"deviation"`      // Величина отклонения за ближайшую границу
	FrameNumber   int      `json:"frame_number"`   // Номер кадра
	TimestampSec  float64  `json:"timestamp_sec"`  // Временная метка кадра
	Severity      Severity `json:"severity"`       // Уровень серьезности
}

// AggregatedFinding отклонение одной метрики, свернутое по всем кадрам сессии
type AggregatedFinding struct {
	Metric              string   `json:"metric"`                // Имя метрики
	Severity            Severity `json:"severity"`              // Итоговая серьезность по сессии
	AvgMeasuredValue    float64  `json:"avg_measured_value"`    // Среднее измеренное значение
	IdealMin            float64  `json:"ideal_min"`             // Нижняя граница диапазона
	IdealMax            float64  `json:"ideal_max"`             // Верхняя граница диапазона
	AvgDeviation        float64  `json:"avg_deviation"`         // Среднее отклонение
	MaxDeviation        float64  `json:"max_deviation"`         // Максимальное отклонение
	FrameCount          int      `json:"frame_count"`           // Количество кадров с отклонением
	TotalFramesAnalyzed int      `json:"total_frames_analyzed"` // Всего проанализировано кадров
	FrequencyPct        float64  `json:"frequency_pct"`         // Доля кадров с отклонением, %
	FirstTimestampSec   float64  `json:"first_timestamp_sec"`   // Первое появление
	LastTimestampSec    float64  `json:"last_timestamp_sec"`    // Последнее появление
	DurationSec         float64  `json:"duration_sec"`          // Длительность: last - first

	// Данные худшего кадра для извлечения клипа
	WorstFrameNumber   int     `json:"worst_frame_number"`   // Кадр с максимальным отклонением
	WorstTimestampSec  float64 `json:"worst_timestamp_sec"`  // Его временная метка
	WorstMeasuredValue float64 `json:"worst_measured_value"` // Его измеренное значение

	ClipPath      string `json:"clip_path,omitempty"`      // Относительный путь к клипу (если извлечен)
	ThumbnailPath string `json:"thumbnail_path,omitempty"` // Относительный путь к превью
}

// SessionResponse ответ с информацией о сессии (до завершения анализа)
type SessionResponse struct {
	SessionID     string        `json:"session_id"`            // Идентификатор сессии
	Status        SessionStatus `json:"status"`                // Текущий статус
	CreatedAt     time.Time     `json:"created_at"`            // Время создания
	VideoFilename string        `json:"video_filename"`        // Имя загруженного файла
	SurferName    string        `json:"surfer_name,omitempty"` // Имя серфера (опционально)
	SkillLevel    string        `json:"skill_level,omitempty"` // Уровень подготовки (опционально)
}

// SessionReport итоговый отчет завершенной сессии анализа
type SessionReport struct {
	SessionID         string              `json:"session_id"`          // Идентификатор сессии
	Status            SessionStatus       `json:"status"`              // Статус (completed/failed)
	TotalFrames       int                 `json:"total_frames"`        // Всего кадров в видео
	AnalyzedFrames    int                 `json:"analyzed_frames"`     // Кадров с обнаруженной позой
	SkippedFrames     int                 `json:"skipped_frames"`      // Пропущено кадров (поза не обнаружена)
	VideoDurationSec  float64             `json:"video_duration_sec"`  // Длительность видео
	VideoFPS          float64             `json:"video_fps"`           // Частота кадров исходного видео
	Findings          []AggregatedFinding `json:"findings"`            // Ранжированный список отклонений
	CoachingFeedback  string              `json:"coaching_feedback"`   // Текст обратной связи от тренера
	CreatedAt         time.Time           `json:"created_at"`          // Время создания отчета
	ProcessingTimeSec float64             `json:"processing_time_sec"` // Время обработки в секундах
}

// ChatRequest запрос на сообщение в чат с тренером
type ChatRequest struct {
	Message string `json:"message" binding:"required"` // Текст сообщения пользователя
}

// ChatTurn одна реплика истории чата с тренером
type ChatTurn struct {
	Role    string `json:"role"`    // user или assistant
	Content string `json:"content"` // Текст реплики
}

// ChatResponse ответ тренера в чате
type ChatResponse struct {
	Reply     string    `json:"reply"`     // Текст ответа
	Timestamp time.Time `json:"timestamp"` // Время ответа
}

// PoseHealthResponse ответ проверки здоровья pose-сервиса
type PoseHealthResponse struct {
	Status      string `json:"status"`       // Статус сервиса (healthy/unhealthy)
	ModelLoaded bool   `json:"model_loaded"` // Загружена ли модель позы
	Version     string `json:"version"`      // Версия сервиса
}

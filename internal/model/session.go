package model

import (
	"time"

	"gorm.io/gorm"
)

// Session представляет сессию анализа серф-видео в базе данных
type Session struct {
	ID            string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Status        string `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	VideoFilename string `gorm:"type:varchar(255)" json:"video_filename"`
	SurferName    string `gorm:"type:varchar(255)" json:"surfer_name"`
	SkillLevel    string `gorm:"type:varchar(20)" json:"skill_level"`

	// Статистика обработки
	TotalFrames       int     `gorm:"not null;default:0" json:"total_frames"`
	AnalyzedFrames    int     `gorm:"not null;default:0" json:"analyzed_frames"`
	SkippedFrames     int     `gorm:"not null;default:0" json:"skipped_frames"`
	VideoDurationSec  float64 `gorm:"not null;default:0" json:"video_duration_sec"`
	VideoFPS          float64 `gorm:"not null;default:0" json:"video_fps"`
	ProcessingTimeSec float64 `gorm:"not null;default:0" json:"processing_time_sec"`

	CoachingFeedback string `gorm:"type:text" json:"coaching_feedback"`
	ErrorMessage     string `gorm:"type:text" json:"error_message"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Связь с находками и историей чата
	Findings     []Finding     `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"findings"`
	ChatMessages []ChatMessage `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
}

// Finding представляет одну агрегированную находку сессии в базе данных
type Finding struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string `gorm:"type:varchar(36);not null;index" json:"session_id"`
	Rank      int    `gorm:"not null" json:"rank"` // Позиция в ранжированном списке

	Metric              string  `gorm:"type:varchar(64);not null" json:"metric"`
	Severity            string  `gorm:"type:varchar(10);not null" json:"severity"`
	AvgMeasuredValue    float64 `gorm:"not null" json:"avg_measured_value"`
	IdealMin            float64 `gorm:"not null" json:"ideal_min"`
	IdealMax            float64 `gorm:"not null" json:"ideal_max"`
	AvgDeviation        float64 `gorm:"not null" json:"avg_deviation"`
	MaxDeviation        float64 `gorm:"not null" json:"max_deviation"`
	FrameCount          int     `gorm:"not null" json:"frame_count"`
	TotalFramesAnalyzed int     `gorm:"not null" json:"total_frames_analyzed"`
	FrequencyPct        float64 `gorm:"not null" json:"frequency_pct"`
	FirstTimestampSec   float64 `gorm:"not null" json:"first_timestamp_sec"`
	LastTimestampSec    float64 `gorm:"not null" json:"last_timestamp_sec"`
	DurationSec         float64 `gorm:"not null" json:"duration_sec"`

	// Данные худшего кадра
	WorstFrameNumber   int     `gorm:"not null" json:"worst_frame_number"`
	WorstTimestampSec  float64 `gorm:"not null" json:"worst_timestamp_sec"`
	WorstMeasuredValue float64 `gorm:"not null" json:"worst_measured_value"`

	ClipPath      string `gorm:"type:varchar(500)" json:"clip_path"`
	ThumbnailPath string `gorm:"type:varchar(500)" json:"thumbnail_path"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Обратная связь с сессией
	Session Session `gorm:"foreignKey:SessionID;references:ID" json:"-"`
}

// ChatMessage представляет одну реплику чата с тренером в базе данных
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string    `gorm:"type:varchar(36);not null;index" json:"session_id"`
	Role      string    `gorm:"type:varchar(10);not null" json:"role"` // user или assistant
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Обратная связь с сессией
	Session Session `gorm:"foreignKey:SessionID;references:ID" json:"-"`
}

// TableName указывает имя таблицы для Session
func (Session) TableName() string {
	return "sessions"
}

// TableName указывает имя таблицы для Finding
func (Finding) TableName() string {
	return "findings"
}

// TableName указывает имя таблицы для ChatMessage
func (ChatMessage) TableName() string {
	return "chat_messages"
}

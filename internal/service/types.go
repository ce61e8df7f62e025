package service

import (
	"context"

	"gocv.io/x/gocv"

	"github.com/rahulbar0t/soulsurfer/pkg/models"
)

// PoseEstimator интерфейс оценки позы по кадру видео
type PoseEstimator interface {
	ProcessFrame(frame gocv.Mat) (*models.PoseResult, error)
	CheckHealth() (*models.PoseHealthResponse, error)
}

// FeedbackGenerator интерфейс генерации обратной связи тренера
type FeedbackGenerator interface {
	GenerateFeedback(ctx context.Context, findings []models.AggregatedFinding, surferName, skillLevel string) (string, error)
	Chat(ctx context.Context, findings []models.AggregatedFinding, coachingFeedback string, history []models.ChatTurn, message, surferName, skillLevel string) (string, error)
}

// ListSessionsResponse ответ со списком сессий
type ListSessionsResponse struct {
	Sessions []models.SessionResponse `json:"sessions"` // Сессии текущей страницы
	Total    int64                    `json:"total"`    // Всего сессий
	Page     int                      `json:"page"`     // Номер страницы
	Size     int                      `json:"size"`     // Размер страницы
}

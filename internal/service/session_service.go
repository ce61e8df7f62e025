package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/rahulbar0t/soulsurfer/internal/model"
	"github.com/rahulbar0t/soulsurfer/internal/repository"
	"github.com/rahulbar0t/soulsurfer/pkg/models"
)

// Ошибки чата с тренером, различимые через errors.Is
var (
	// ErrSessionNotCompleted чат доступен только после завершения анализа
	ErrSessionNotCompleted = errors.New("анализ сессии еще не завершен")
	// ErrCoachUnavailable AI тренер не сконфигурирован
	ErrCoachUnavailable = errors.New("AI тренер не сконфигурирован")
)

// SessionService сервис для работы с сессиями анализа
type SessionService struct {
	sessionRepo repository.SessionRepository
	pipeline    *Pipeline
	feedback    FeedbackGenerator // nil, если Gemini не сконфигурирован
	clipsDir    string
	logger      *logrus.Logger
}

// NewSessionService создает новый сервис для работы с сессиями
func NewSessionService(
	sessionRepo repository.SessionRepository,
	pipeline *Pipeline,
	feedback FeedbackGenerator,
	clipsDir string,
	logger *logrus.Logger,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		pipeline:    pipeline,
		feedback:    feedback,
		clipsDir:    clipsDir,
		logger:      logger,
	}
}

// CreateSession создает новую сессию в статусе pending
func (s *SessionService) CreateSession(sessionID, videoFilename, surferName, skillLevel string) (*models.SessionResponse, error) {
	session := &model.Session{
		ID:            sessionID,
		Status:        string(models.StatusPending),
		VideoFilename: videoFilename,
		SurferName:    surferName,
		SkillLevel:    skillLevel,
	}

	if err := s.sessionRepo.Create(session); err != nil {
		s.logger.Errorf("Ошибка создания сессии %s: %v", sessionID, err)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Infof("Сессия %s создана для файла %s", sessionID, videoFilename)

	return &models.SessionResponse{
		SessionID:     session.ID,
		Status:        models.StatusPending,
		CreatedAt:     session.CreatedAt,
		VideoFilename: session.VideoFilename,
		SurferName:    session.SurferName,
		SkillLevel:    session.SkillLevel,
	}, nil
}

// RunAnalysis выполняет анализ видео сессии и сохраняет результат.
// Вызывается в фоновой горутине; загруженный файл удаляется в любом случае.
func (s *SessionService) RunAnalysis(sessionID, videoPath, surferName, skillLevel string) {
	// Паника пайплайна не должна ронять процесс вместе с остальными сессиями
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("Паника при анализе сессии %s: %v", sessionID, r)
			if err := s.sessionRepo.UpdateStatus(sessionID, string(models.StatusFailed), fmt.Sprintf("internal error: %v", r)); err != nil {
				s.logger.Errorf("Ошибка сохранения статуса failed для сессии %s: %v", sessionID, err)
			}
		}
	}()

	defer func() {
		if err := os.Remove(videoPath); err != nil && !os.IsNotExist(err) {
			s.logger.Warnf("Не удалось удалить загруженное видео %s: %v", videoPath, err)
		}
	}()

	if err := s.sessionRepo.UpdateStatus(sessionID, string(models.StatusProcessing), ""); err != nil {
		s.logger.Errorf("Ошибка обновления статуса сессии %s: %v", sessionID, err)
		return
	}

	report, err := s.pipeline.Run(context.Background(), videoPath, sessionID, surferName, skillLevel)
	if err != nil {
		s.logger.Errorf("Сессия %s завершилась ошибкой: %v", sessionID, err)
		if updateErr := s.sessionRepo.UpdateStatus(sessionID, string(models.StatusFailed), err.Error()); updateErr != nil {
			s.logger.Errorf("Ошибка сохранения статуса failed для сессии %s: %v", sessionID, updateErr)
		}
		return
	}

	if err := s.saveReport(sessionID, surferName, skillLevel, report); err != nil {
		s.logger.Errorf("Ошибка сохранения отчета сессии %s: %v", sessionID, err)
		if updateErr := s.sessionRepo.UpdateStatus(sessionID, string(models.StatusFailed), err.Error()); updateErr != nil {
			s.logger.Errorf("Ошибка сохранения статуса failed для сессии %s: %v", sessionID, updateErr)
		}
		return
	}

	s.logger.Infof("Сессия %s успешно завершена за %.2fс", sessionID, report.ProcessingTimeSec)
}

// saveReport сохраняет итоговый отчет сессии в базе данных
func (s *SessionService) saveReport(sessionID, surferName, skillLevel string, report *models.SessionReport) error {
	session, err := s.sessionRepo.GetByID(sessionID)
	if err != nil {
		return fmt.Errorf("failed to get session for report: %w", err)
	}

	session.Status = string(models.StatusCompleted)
	session.SurferName = surferName
	session.SkillLevel = skillLevel
	session.TotalFrames = report.TotalFrames
	session.AnalyzedFrames = report.AnalyzedFrames
	session.SkippedFrames = report.SkippedFrames
	session.VideoDurationSec = report.VideoDurationSec
	session.VideoFPS = report.VideoFPS
	session.CoachingFeedback = report.CoachingFeedback
	session.ProcessingTimeSec = report.ProcessingTimeSec
	session.ErrorMessage = ""

	session.Findings = make([]model.Finding, len(report.Findings))
	for i, f := range report.Findings {
		session.Findings[i] = model.Finding{
			SessionID:           sessionID,
			Rank:                i + 1,
			Metric:              f.Metric,
			Severity:            string(f.Severity),
			AvgMeasuredValue:    f.AvgMeasuredValue,
			IdealMin:            f.IdealMin,
			IdealMax:            f.IdealMax,
			AvgDeviation:        f.AvgDeviation,
			MaxDeviation:        f.MaxDeviation,
			FrameCount:          f.FrameCount,
			TotalFramesAnalyzed: f.TotalFramesAnalyzed,
			FrequencyPct:        f.FrequencyPct,
			FirstTimestampSec:   f.FirstTimestampSec,
			LastTimestampSec:    f.LastTimestampSec,
			DurationSec:         f.DurationSec,
			WorstFrameNumber:    f.WorstFrameNumber,
			WorstTimestampSec:   f.WorstTimestampSec,
			WorstMeasuredValue:  f.WorstMeasuredValue,
			ClipPath:            f.ClipPath,
			ThumbnailPath:       f.ThumbnailPath,
		}
	}

	return s.sessionRepo.SaveReport(session)
}

// GetSession получает сессию по ID
func (s *SessionService) GetSession(sessionID string) (*model.Session, error) {
	session, err := s.sessionRepo.GetByID(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// ListSessions получает список сессий с пагинацией
func (s *SessionService) ListSessions(page, pageSize int) ([]models.SessionResponse, int64, error) {
	sessions, total, err := s.sessionRepo.List(page, pageSize)
	if err != nil {
		s.logger.Errorf("Ошибка получения списка сессий: %v", err)
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	responses := make([]models.SessionResponse, len(sessions))
	for i, session := range sessions {
		responses[i] = models.SessionResponse{
			SessionID:     session.ID,
			Status:        models.SessionStatus(session.Status),
			CreatedAt:     session.CreatedAt,
			VideoFilename: session.VideoFilename,
			SurferName:    session.SurferName,
			SkillLevel:    session.SkillLevel,
		}
	}

	return responses, total, nil
}

// DeleteSession удаляет сессию вместе с ее клипами и превью
func (s *SessionService) DeleteSession(sessionID string) error {
	session, err := s.sessionRepo.GetByID(sessionID)
	if err != nil {
		return fmt.Errorf("failed to get session for deletion: %w", err)
	}

	if err := s.sessionRepo.Delete(sessionID); err != nil {
		s.logger.Errorf("Ошибка удаления сессии %s: %v", sessionID, err)
		return fmt.Errorf("failed to delete session: %w", err)
	}

	// Удаляем файлы клипов и превью
	for _, finding := range session.Findings {
		for _, relPath := range []string{finding.ClipPath, finding.ThumbnailPath} {
			if relPath == "" {
				continue
			}
			path := filepath.Join(s.clipsDir, filepath.Base(relPath))
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				s.logger.Warnf("Не удалось удалить артефакт %s: %v", path, err)
			}
		}
	}

	s.logger.Infof("Сессия %s успешно удалена", sessionID)
	return nil
}

// Chat отправляет сообщение AI тренеру в контексте завершенной сессии
func (s *SessionService) Chat(ctx context.Context, sessionID, message string) (string, error) {
	session, err := s.sessionRepo.GetByID(sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to get session: %w", err)
	}

	if session.Status != string(models.StatusCompleted) {
		return "", fmt.Errorf("сессия %s: %w", sessionID, ErrSessionNotCompleted)
	}

	if s.feedback == nil {
		return "", ErrCoachUnavailable
	}

	history, err := s.sessionRepo.GetChatHistory(sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to get chat history: %w", err)
	}

	turns := make([]models.ChatTurn, len(history))
	for i, msg := range history {
		turns[i] = models.ChatTurn{Role: msg.Role, Content: msg.Content}
	}

	findings := findingsToDTO(session.Findings)

	reply, err := s.feedback.Chat(ctx, findings, session.CoachingFeedback, turns, message, session.SurferName, session.SkillLevel)
	if err != nil {
		s.logger.Errorf("Ошибка чата для сессии %s: %v", sessionID, err)
		return "", fmt.Errorf("failed to chat with coach: %w", err)
	}

	if err := s.sessionRepo.AppendChat(sessionID, message, reply); err != nil {
		s.logger.Errorf("Ошибка сохранения истории чата сессии %s: %v", sessionID, err)
	}

	return reply, nil
}

// BuildReport преобразует модель завершенной сессии в итоговый отчет API
func (s *SessionService) BuildReport(session *model.Session) *models.SessionReport {
	return &models.SessionReport{
		SessionID:         session.ID,
		Status:            models.SessionStatus(session.Status),
		TotalFrames:       session.TotalFrames,
		AnalyzedFrames:    session.AnalyzedFrames,
		SkippedFrames:     session.SkippedFrames,
		VideoDurationSec:  session.VideoDurationSec,
		VideoFPS:          session.VideoFPS,
		Findings:          findingsToDTO(session.Findings),
		CoachingFeedback:  session.CoachingFeedback,
		CreatedAt:         session.CreatedAt,
		ProcessingTimeSec: session.ProcessingTimeSec,
	}
}

// findingsToDTO преобразует находки из модели базы данных в DTO
func findingsToDTO(findings []model.Finding) []models.AggregatedFinding {
	result := make([]models.AggregatedFinding, len(findings))
	for i, f := range findings {
		result[i] = models.AggregatedFinding{
			Metric:              f.Metric,
			Severity:            models.Severity(f.Severity),
			AvgMeasuredValue:    f.AvgMeasuredValue,
			IdealMin:            f.IdealMin,
			IdealMax:            f.IdealMax,
			AvgDeviation:        f.AvgDeviation,
			MaxDeviation:        f.MaxDeviation,
			FrameCount:          f.FrameCount,
			TotalFramesAnalyzed: f.TotalFramesAnalyzed,
			FrequencyPct:        f.FrequencyPct,
			FirstTimestampSec:   f.FirstTimestampSec,
			LastTimestampSec:    f.LastTimestampSec,
			DurationSec:         f.DurationSec,
			WorstFrameNumber:    f.WorstFrameNumber,
			WorstTimestampSec:   f.WorstTimestampSec,
			WorstMeasuredValue:  f.WorstMeasuredValue,
			ClipPath:            f.ClipPath,
			ThumbnailPath:       f.ThumbnailPath,
		}
	}
	return result
}

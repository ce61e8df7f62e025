package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/rahulbar0t/soulsurfer/internal/model"
)

// ErrSessionNotFound сессия с указанным ID отсутствует в базе данных
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository интерфейс для работы с сессиями анализа
type SessionRepository interface {
	Create(session *model.Session) error
	GetByID(id string) (*model.Session, error)
	List(page, pageSize int) ([]*model.Session, int64, error)
	UpdateStatus(id, status, errorMessage string) error
	SaveReport(session *model.Session) error
	Delete(id string) error
	AppendChat(sessionID, userMessage, assistantReply string) error
	GetChatHistory(sessionID string) ([]model.ChatMessage, error)
}

// sessionRepository реализация SessionRepository
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository создает новый instance SessionRepository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{
		db: db,
	}
}

// Create создает новую сессию в базе данных
func (r *sessionRepository) Create(session *model.Session) error {
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetByID получает сессию по ID вместе с находками
func (r *sessionRepository) GetByID(id string) (*model.Session, error) {
	var session model.Session
	err := r.db.Preload("Findings", func(db *gorm.DB) *gorm.DB {
		return db.Order("findings.rank ASC")
	}).Where("id = ?", id).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session with id %s: %w", id, ErrSessionNotFound)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// List получает список сессий с пагинацией
func (r *sessionRepository) List(page, pageSize int) ([]*model.Session, int64, error) {
	var sessions []*model.Session
	var total int64

	// Подсчитываем общее количество
	if err := r.db.Model(&model.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	// Получаем сессии с пагинацией
	offset := (page - 1) * pageSize
	err := r.db.Preload("Findings", func(db *gorm.DB) *gorm.DB {
		return db.Order("findings.rank ASC")
	}).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&sessions).Error

	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	return sessions, total, nil
}

// UpdateStatus обновляет статус сессии и сообщение об ошибке
func (r *sessionRepository) UpdateStatus(id, status, errorMessage string) error {
	result := r.db.Model(&model.Session{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        status,
			"error_message": errorMessage,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update session status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("session with id %s: %w", id, ErrSessionNotFound)
	}
	return nil
}

// SaveReport сохраняет итоговый отчет сессии: обновляет поля сессии и
// заменяет ее находки в одной транзакции
func (r *sessionRepository) SaveReport(session *model.Session) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	// Обновляем сессию
	if err := tx.Save(session).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update session: %w", err)
	}

	// Удаляем старые находки
	if err := tx.Where("session_id = ?", session.ID).Delete(&model.Finding{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete old findings: %w", err)
	}

	// Создаем новые находки
	for i := range session.Findings {
		session.Findings[i].ID = 0 // Обнуляем ID для auto-increment
		session.Findings[i].SessionID = session.ID
		if err := tx.Create(&session.Findings[i]).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create finding %d: %w", i, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Delete удаляет сессию вместе с находками и историей чата
func (r *sessionRepository) Delete(id string) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	// Сначала удаляем находки и историю чата
	if err := tx.Where("session_id = ?", id).Delete(&model.Finding{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete findings: %w", err)
	}

	if err := tx.Where("session_id = ?", id).Delete(&model.ChatMessage{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete chat messages: %w", err)
	}

	// Затем удаляем сессию
	result := tx.Where("id = ?", id).Delete(&model.Session{})
	if result.Error != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete session: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		tx.Rollback()
		return fmt.Errorf("session with id %s: %w", id, ErrSessionNotFound)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// AppendChat добавляет пару сообщений (пользователь и тренер) в историю чата
func (r *sessionRepository) AppendChat(sessionID, userMessage, assistantReply string) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	messages := []model.ChatMessage{
		{SessionID: sessionID, Role: "user", Content: userMessage},
		{SessionID: sessionID, Role: "assistant", Content: assistantReply},
	}

	for i := range messages {
		if err := tx.Create(&messages[i]).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to append chat message: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetChatHistory возвращает историю чата сессии в хронологическом порядке
func (r *sessionRepository) GetChatHistory(sessionID string) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := r.db.Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get chat history: %w", err)
	}
	return messages, nil
}

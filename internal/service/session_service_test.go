package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/rahulbar0t/soulsurfer/internal/model"
	"github.com/rahulbar0t/soulsurfer/internal/repository"
	"github.com/rahulbar0t/soulsurfer/pkg/models"
)

// statusChange одна запись об изменении статуса сессии
type statusChange struct {
	Status       string
	ErrorMessage string
}

// fakeSessionRepository репозиторий в памяти для тестов сервиса
type fakeSessionRepository struct {
	sessions      map[string]*model.Session
	statusChanges []statusChange
}

func newFakeSessionRepository() *fakeSessionRepository {
	return &fakeSessionRepository{sessions: make(map[string]*model.Session)}
}

func (r *fakeSessionRepository) Create(session *model.Session) error {
	r.sessions[session.ID] = session
	return nil
}

func (r *fakeSessionRepository) GetByID(id string) (*model.Session, error) {
	session, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session with id %s: %w", id, repository.ErrSessionNotFound)
	}
	return session, nil
}

func (r *fakeSessionRepository) List(page, pageSize int) ([]*model.Session, int64, error) {
	var sessions []*model.Session
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions, int64(len(sessions)), nil
}

func (r *fakeSessionRepository) UpdateStatus(id, status, errorMessage string) error {
	r.statusChanges = append(r.statusChanges, statusChange{Status: status, ErrorMessage: errorMessage})
	if session, ok := r.sessions[id]; ok {
		session.Status = status
		session.ErrorMessage = errorMessage
	}
	return nil
}

func (r *fakeSessionRepository) SaveReport(session *model.Session) error {
	r.sessions[session.ID] = session
	return nil
}

func (r *fakeSessionRepository) Delete(id string) error {
	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("session with id %s: %w", id, repository.ErrSessionNotFound)
	}
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepository) AppendChat(sessionID, userMessage, assistantReply string) error {
	return nil
}

func (r *fakeSessionRepository) GetChatHistory(sessionID string) ([]model.ChatMessage, error) {
	return nil, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestRunAnalysisRecoversFromPanic(t *testing.T) {
	repo := newFakeSessionRepository()
	repo.sessions["s1"] = &model.Session{ID: "s1", Status: string(models.StatusPending)}

	// Пайплайн nil: вызов Run паникует, как паниковал бы сбой внутри
	// пайплайна; сервис обязан пережить это и пометить сессию failed
	svc := NewSessionService(repo, nil, nil, t.TempDir(), testLogger())

	videoPath := filepath.Join(t.TempDir(), "missing.mp4")
	svc.RunAnalysis("s1", videoPath, "", "")

	if len(repo.statusChanges) != 2 {
		t.Fatalf("ожидалось 2 смены статуса, получено %d", len(repo.statusChanges))
	}
	if repo.statusChanges[0].Status != string(models.StatusProcessing) {
		t.Errorf("первый статус должен быть processing, получен %s", repo.statusChanges[0].Status)
	}
	if repo.statusChanges[1].Status != string(models.StatusFailed) {
		t.Errorf("после паники сессия должна быть failed, получен %s", repo.statusChanges[1].Status)
	}
	if repo.statusChanges[1].ErrorMessage == "" {
		t.Error("сообщение об ошибке не должно быть пустым")
	}
}

func TestChatSessionNotFound(t *testing.T) {
	repo := newFakeSessionRepository()
	svc := NewSessionService(repo, nil, nil, t.TempDir(), testLogger())

	_, err := svc.Chat(context.Background(), "unknown", "how was my stance?")
	if !errors.Is(err, repository.ErrSessionNotFound) {
		t.Errorf("ошибка должна различаться через errors.Is(ErrSessionNotFound): %v", err)
	}
}

func TestChatSessionNotCompleted(t *testing.T) {
	repo := newFakeSessionRepository()
	repo.sessions["s1"] = &model.Session{ID: "s1", Status: string(models.StatusProcessing)}
	svc := NewSessionService(repo, nil, nil, t.TempDir(), testLogger())

	_, err := svc.Chat(context.Background(), "s1", "how was my stance?")
	if !errors.Is(err, ErrSessionNotCompleted) {
		t.Errorf("ошибка должна различаться через errors.Is(ErrSessionNotCompleted): %v", err)
	}
}

func TestChatCoachUnavailable(t *testing.T) {
	repo := newFakeSessionRepository()
	repo.sessions["s1"] = &model.Session{ID: "s1", Status: string(models.StatusCompleted)}
	svc := NewSessionService(repo, nil, nil, t.TempDir(), testLogger())

	_, err := svc.Chat(context.Background(), "s1", "how was my stance?")
	if !errors.Is(err, ErrCoachUnavailable) {
		t.Errorf("ошибка должна различаться через errors.Is(ErrCoachUnavailable): %v", err)
	}
}

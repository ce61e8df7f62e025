package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rahulbar0t/soulsurfer/internal/model"
	"github.com/rahulbar0t/soulsurfer/internal/repository"
	"github.com/rahulbar0t/soulsurfer/internal/service"
	"github.com/rahulbar0t/soulsurfer/pkg/models"
)

// fakeSessionRepository репозиторий в памяти для тестов обработчиков
type fakeSessionRepository struct {
	sessions map[string]*model.Session
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
	return nil, 0, nil
}

func (r *fakeSessionRepository) UpdateStatus(id, status, errorMessage string) error {
	return nil
}

func (r *fakeSessionRepository) SaveReport(session *model.Session) error {
	return nil
}

func (r *fakeSessionRepository) Delete(id string) error {
	return nil
}

func (r *fakeSessionRepository) AppendChat(sessionID, userMessage, assistantReply string) error {
	return nil
}

func (r *fakeSessionRepository) GetChatHistory(sessionID string) ([]model.ChatMessage, error) {
	return nil, nil
}

func testRouter(t *testing.T, sessions map[string]*model.Session) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	repo := &fakeSessionRepository{sessions: sessions}
	svc := service.NewSessionService(repo, nil, nil, t.TempDir(), logger)
	h := NewSessionHandler(svc, nil, t.TempDir(), 100, logger)

	router := gin.New()
	h.RegisterRoutes(router)
	return router
}

func postChat(router *gin.Engine, sessionID string) *httptest.ResponseRecorder {
	body := strings.NewReader(`{"message": "how was my stance?"}`)
	req := httptest.NewRequest("POST", "/api/v1/sessions/"+sessionID+"/chat", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestChatUnknownSessionReturns404(t *testing.T) {
	router := testRouter(t, map[string]*model.Session{})

	w := postChat(router, "unknown")
	if w.Code != http.StatusNotFound {
		t.Errorf("ожидался статус 404 для неизвестной сессии, получен %d", w.Code)
	}
}

func TestChatIncompleteSessionReturns409(t *testing.T) {
	router := testRouter(t, map[string]*model.Session{
		"s1": {ID: "s1", Status: string(models.StatusProcessing)},
	})

	w := postChat(router, "s1")
	if w.Code != http.StatusConflict {
		t.Errorf("ожидался статус 409 для незавершенной сессии, получен %d", w.Code)
	}
}

func TestChatCoachUnavailableReturns503(t *testing.T) {
	// Сервис без сконфигурированного тренера
	router := testRouter(t, map[string]*model.Session{
		"s1": {ID: "s1", Status: string(models.StatusCompleted)},
	})

	w := postChat(router, "s1")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("ожидался статус 503 без сконфигурированного тренера, получен %d", w.Code)
	}
}

func TestChatMissingMessageReturns400(t *testing.T) {
	router := testRouter(t, map[string]*model.Session{
		"s1": {ID: "s1", Status: string(models.StatusCompleted)},
	})

	req := httptest.NewRequest("POST", "/api/v1/sessions/s1/chat", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("ожидался статус 400 без поля message, получен %d", w.Code)
	}
}

package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/rahulbar0t/soulsurfer/pkg/models"
)

// PoseAPIClient клиент для взаимодействия с Python pose-сервисом
type PoseAPIClient struct {
	baseURL       string
	minVisibility float64
	httpClient    *http.Client
	logger        *logrus.Logger
}

// NewPoseAPIClient создает новый клиент для pose-сервиса.
// minVisibility передается сервису как порог средней видимости точек,
// ниже которого поза считается не обнаруженной.
func NewPoseAPIClient(baseURL string, minVisibility float64, timeout time.Duration, logger *logrus.Logger) *PoseAPIClient {
	return &PoseAPIClient{
		baseURL:       baseURL,
		minVisibility: minVisibility,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// ProcessFrame отправляет кадр на оценку позы в pose-сервис.
// Кадр кодируется в JPEG и отправляется как multipart form-data.
func (c *PoseAPIClient) ProcessFrame(frame gocv.Mat) (*models.PoseResult, error) {
	// Кодируем кадр в JPEG
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return nil, fmt.Errorf("ошибка кодирования кадра в JPEG: %w", err)
	}
	defer buf.Close()

	// Создаем multipart form-data
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	frameWriter, err := writer.CreateFormFile("frame", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("ошибка создания form field для кадра: %w", err)
	}

	if _, err := frameWriter.Write(buf.GetBytes()); err != nil {
		return nil, fmt.Errorf("ошибка записи данных кадра: %w", err)
	}

	// Добавляем порог видимости
	if err := writer.WriteField("min_visibility", fmt.Sprintf("%.2f", c.minVisibility)); err != nil {
		return nil, fmt.Errorf("ошибка записи min_visibility: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("ошибка закрытия multipart writer: %w", err)
	}

	// Создаем HTTP запрос
	url := fmt.Sprintf("%s/process-frame", c.baseURL)
	req, err := http.NewRequest("POST", url, &body)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())

	// Отправляем запрос
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки HTTP запроса: %w", err)
	}
	defer resp.Body.Close()

	// Читаем ответ
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pose-сервис вернул ошибку: статус %d, тело: %s", resp.StatusCode, string(respBody))
	}

	// Парсим JSON ответ
	var poseResult models.PoseResult
	if err := json.Unmarshal(respBody, &poseResult); err != nil {
		return nil, fmt.Errorf("ошибка парсинга JSON ответа: %w", err)
	}

	return &poseResult, nil
}

// CheckHealth проверяет состояние pose-сервиса
func (c *PoseAPIClient) CheckHealth() (*models.PoseHealthResponse, error) {
	c.logger.Debug("Проверка здоровья pose-сервиса")

	url := fmt.Sprintf("%s/health", c.baseURL)
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки HTTP запроса: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pose-сервис вернул ошибку: статус %d, тело: %s", resp.StatusCode, string(respBody))
	}

	var healthResponse models.PoseHealthResponse
	if err := json.Unmarshal(respBody, &healthResponse); err != nil {
		return nil, fmt.Errorf("ошибка парсинга JSON ответа: %w", err)
	}

	return &healthResponse, nil
}

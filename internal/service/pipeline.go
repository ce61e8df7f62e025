package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rahulbar0t/soulsurfer/internal/analysis"
	"github.com/rahulbar0t/soulsurfer/internal/clips"
	"github.com/rahulbar0t/soulsurfer/internal/geometry"
	"github.com/rahulbar0t/soulsurfer/internal/video"
	"github.com/rahulbar0t/soulsurfer/pkg/models"
)

// fallbackFeedback текст обратной связи, когда AI тренер недоступен
const fallbackFeedback = "Your session was analyzed successfully, but the AI coach " +
	"is temporarily unavailable. Take a look at the detected findings below — each " +
	"one shows which body position needs attention and a short clip of the moment " +
	"it happened. Try again later for personalized coaching advice."

// Pipeline оркестратор анализа: кадры → поза → метрики → отклонения →
// агрегация → клипы → обратная связь
type Pipeline struct {
	processor     *video.Processor
	calculator    *geometry.Calculator
	classifier    *analysis.Classifier
	clipExtractor *clips.Extractor
	pose          PoseEstimator
	feedback      FeedbackGenerator // nil, если Gemini не сконфигурирован
	logger        *logrus.Logger
}

// NewPipeline создает новый пайплайн анализа
func NewPipeline(
	processor *video.Processor,
	calculator *geometry.Calculator,
	classifier *analysis.Classifier,
	clipExtractor *clips.Extractor,
	pose PoseEstimator,
	feedback FeedbackGenerator,
	logger *logrus.Logger,
) *Pipeline {
	return &Pipeline{
		processor:     processor,
		calculator:    calculator,
		classifier:    classifier,
		clipExtractor: clipExtractor,
		pose:          pose,
		feedback:      feedback,
		logger:        logger,
	}
}

// validatePoseResult проверяет, что обнаруженная поза содержит полный набор
// точек. Укороченный ответ pose-сервиса иначе привел бы к выходу за границы
// среза при расчете метрик.
func validatePoseResult(res *models.PoseResult) error {
	if len(res.Landmarks) != geometry.LandmarkCount || len(res.WorldLandmarks) != geometry.LandmarkCount {
		return fmt.Errorf("pose-сервис вернул неполный набор точек: %d нормализованных, %d мировых (ожидается %d)",
			len(res.Landmarks), len(res.WorldLandmarks), geometry.LandmarkCount)
	}
	return nil
}

// Run выполняет полный анализ видео сессии и возвращает итоговый отчет
func (p *Pipeline) Run(ctx context.Context, videoPath, sessionID, surferName, skillLevel string) (*models.SessionReport, error) {
	startTime := time.Now()

	// Шаг 0: Метаданные видео
	metadata, err := p.processor.Metadata(videoPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения метаданных видео: %w", err)
	}
	p.logger.Infof("Обработка видео: %.1fс, %d кадров, %.0f FPS",
		metadata.DurationSec, metadata.TotalFrames, metadata.FPS)

	// Шаг 1: Извлечение кадров → оценка позы → расчет метрик → отклонения
	var allFrameMetrics []models.FrameMetrics
	var allFrameErrors []models.FrameError
	landmarksByFrame := make(map[int][]models.Landmark) // Для извлечения клипов
	skipped := 0

	err = p.processor.ExtractFrames(videoPath, func(frame video.Frame) error {
		poseResult, err := p.pose.ProcessFrame(frame.Image)
		if err != nil {
			return fmt.Errorf("ошибка оценки позы кадра %d: %w", frame.FrameNumber, err)
		}

		if !poseResult.Detected {
			skipped++
			return nil
		}

		// Неполный набор точек от pose-сервиса проваливает сессию, а не процесс
		if err := validatePoseResult(poseResult); err != nil {
			return fmt.Errorf("кадр %d: %w", frame.FrameNumber, err)
		}

		// Нормализованные точки сохраняются для подсветки на клипах
		landmarksByFrame[frame.FrameNumber] = poseResult.Landmarks

		metrics := p.calculator.CalculateAll(poseResult.WorldLandmarks, true)

		frameMetrics := models.FrameMetrics{
			FrameNumber:       frame.FrameNumber,
			TimestampSec:      frame.TimestampSec,
			LandmarksDetected: true,
			AvgVisibility:     poseResult.AvgVisibility,
			Metrics:           metrics,
		}
		allFrameMetrics = append(allFrameMetrics, frameMetrics)

		// Шаг 2: Сравнение с идеальными диапазонами
		allFrameErrors = append(allFrameErrors, p.classifier.AnalyzeFrame(frameMetrics)...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Infof("Анализ позы завершен: %d кадров проанализировано, %d пропущено, %d отклонений",
		len(allFrameMetrics), skipped, len(allFrameErrors))

	// Шаг 2b: Агрегация отклонений
	aggregator := analysis.NewAggregator(len(allFrameMetrics))
	findings := aggregator.Aggregate(allFrameErrors)
	p.logger.Infof("Агрегировано %d находок", len(findings))

	// Шаг 2c: Извлечение клипов с подсветкой проблемных суставов
	if len(findings) > 0 {
		findings = p.clipExtractor.ExtractAll(videoPath, sessionID, findings, landmarksByFrame)
		p.logger.Infof("Извлечено %d клипов", len(findings))
	}

	// Шаг 3: Генерация обратной связи тренера через Gemini.
	// Недоступность тренера не проваливает сессию.
	coachingFeedback := fallbackFeedback
	if p.feedback != nil {
		feedback, err := p.feedback.GenerateFeedback(ctx, findings, surferName, skillLevel)
		if err != nil {
			p.logger.Errorf("Ошибка генерации обратной связи: %v", err)
		} else {
			coachingFeedback = feedback
		}
	}

	elapsed := time.Since(startTime).Seconds()

	return &models.SessionReport{
		SessionID:         sessionID,
		Status:            models.StatusCompleted,
		TotalFrames:       metadata.TotalFrames,
		AnalyzedFrames:    len(allFrameMetrics),
		SkippedFrames:     skipped,
		VideoDurationSec:  metadata.DurationSec,
		VideoFPS:          metadata.FPS,
		Findings:          findings,
		CoachingFeedback:  coachingFeedback,
		CreatedAt:         time.Now().UTC(),
		ProcessingTimeSec: math.Round(elapsed*100) / 100,
	}, nil
}

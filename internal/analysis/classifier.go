package analysis

import (
	"math"
	"sort"

	"github.com/rahulbar0t/soulsurfer/pkg/models"
)

// Classifier сравнивает метрики кадра с идеальными диапазонами
type Classifier struct {
	idealRanges map[string]models.IdealRange
}

// NewClassifier создает новый классификатор отклонений.
// idealRanges загружается один раз из конфигурации и далее не меняется.
func NewClassifier(idealRanges map[string]models.IdealRange) *Classifier {
	return &Classifier{
		idealRanges: idealRanges,
	}
}

// classifySeverity определяет уровень серьезности по величине отклонения
func (c *Classifier) classifySeverity(deviation float64, thresholds models.SeverityThresholds) models.Severity {
	if deviation >= thresholds.High {
		return models.SeverityHigh
	}
	if deviation >= thresholds.Medium {
		return models.SeverityMedium
	}
	return models.SeverityLow
}

// AnalyzeFrame возвращает отклонения метрик кадра от идеальных диапазонов.
// Значение на границе диапазона отклонением не считается. Метрики без
// настроенного диапазона пропускаются.
func (c *Classifier) AnalyzeFrame(frame models.FrameMetrics) []models.FrameError {
	var errors []models.FrameError

	// Обходим метрики в стабильном порядке, чтобы результат был детерминирован
	names := make([]string, 0, len(frame.Metrics))
	for name := range frame.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ideal, ok := c.idealRanges[name]
		if !ok {
			continue
		}

		value := frame.Metrics[name]
		var deviation float64
		switch {
		case value < ideal.Min:
			deviation = ideal.Min - value
		case value > ideal.Max:
			deviation = value - ideal.Max
		default:
			continue
		}

		errors = append(errors, models.FrameError{
			Metric:        name,
			MeasuredValue: round1(value),
			IdealMin:      ideal.Min,
			IdealMax:      ideal.Max,
			Deviation:     round1(deviation),
			FrameNumber:   frame.FrameNumber,
			TimestampSec:  round2(frame.TimestampSec),
			Severity:      c.classifySeverity(deviation, ideal.SeverityThresholds),
		})
	}

	return errors
}

// round1 округляет до одного знака после запятой
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// round2 округляет до двух знаков после запятой
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

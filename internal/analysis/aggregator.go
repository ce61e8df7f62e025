package analysis

import (
	"sort"

	"github.com/rahulbar0t/soulsurfer/pkg/models"
)

// Aggregator сворачивает покадровые отклонения в итоговые находки сессии
type Aggregator struct {
	totalFramesAnalyzed int
}

// NewAggregator создает новый агрегатор для сессии с указанным числом
// проанализированных кадров
func NewAggregator(totalFramesAnalyzed int) *Aggregator {
	return &Aggregator{
		totalFramesAnalyzed: totalFramesAnalyzed,
	}
}

// Aggregate группирует отклонения по метрикам и ранжирует результат по
// приоритету: вес серьезности × частота × среднее отклонение, по убыванию.
// Пустой вход или ноль проанализированных кадров дают пустой результат.
func (a *Aggregator) Aggregate(frameErrors []models.FrameError) []models.AggregatedFinding {
	if len(frameErrors) == 0 || a.totalFramesAnalyzed == 0 {
		return []models.AggregatedFinding{}
	}

	// Группируем по метрике, сохраняя порядок первого появления
	byMetric := make(map[string][]models.FrameError)
	var metricOrder []string
	for _, err := range frameErrors {
		if _, seen := byMetric[err.Metric]; !seen {
			metricOrder = append(metricOrder, err.Metric)
		}
		byMetric[err.Metric] = append(byMetric[err.Metric], err)
	}

	aggregated := make([]models.AggregatedFinding, 0, len(metricOrder))

	for _, metric := range metricOrder {
		group := byMetric[metric]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].FrameNumber < group[j].FrameNumber
		})

		// Худший кадр — максимальное отклонение; при равенстве берется
		// более ранний кадр
		worst := group[0]
		var sumValue, sumDeviation, maxDeviation float64
		firstTS, lastTS := group[0].TimestampSec, group[0].TimestampSec
		for _, e := range group {
			sumValue += e.MeasuredValue
			sumDeviation += e.Deviation
			if e.Deviation > maxDeviation {
				maxDeviation = e.Deviation
				worst = e
			}
			if e.TimestampSec < firstTS {
				firstTS = e.TimestampSec
			}
			if e.TimestampSec > lastTS {
				lastTS = e.TimestampSec
			}
		}

		count := float64(len(group))

		aggregated = append(aggregated, models.AggregatedFinding{
			Metric:              metric,
			Severity:            a.overallSeverity(group),
			AvgMeasuredValue:    round1(sumValue / count),
			IdealMin:            group[0].IdealMin,
			IdealMax:            group[0].IdealMax,
			AvgDeviation:        round1(sumDeviation / count),
			MaxDeviation:        round1(maxDeviation),
			FrameCount:          len(group),
			TotalFramesAnalyzed: a.totalFramesAnalyzed,
			FrequencyPct:        round1(count / float64(a.totalFramesAnalyzed) * 100),
			FirstTimestampSec:   round2(firstTS),
			LastTimestampSec:    round2(lastTS),
			DurationSec:         round2(lastTS - firstTS),
			WorstFrameNumber:    worst.FrameNumber,
			WorstTimestampSec:   round2(worst.TimestampSec),
			WorstMeasuredValue:  round1(worst.MeasuredValue),
		})
	}

	// Ранжируем по приоритету; сортировка стабильна, поэтому находки с
	// равным приоритетом сохраняют порядок первого появления
	sort.SliceStable(aggregated, func(i, j int) bool {
		return priority(aggregated[i]) > priority(aggregated[j])
	})

	return aggregated
}

// overallSeverity определяет итоговую серьезность метрики: высший уровень,
// встречающийся более чем в 25% кадров с отклонением этой метрики
func (a *Aggregator) overallSeverity(group []models.FrameError) models.Severity {
	counts := make(map[models.Severity]int)
	for _, e := range group {
		counts[e.Severity]++
	}

	total := float64(len(group))
	for _, sev := range []models.Severity{models.SeverityHigh, models.SeverityMedium, models.SeverityLow} {
		if float64(counts[sev])/total > 0.25 {
			return sev
		}
	}
	return models.SeverityLow
}

// priority вычисляет приоритет находки для ранжирования
func priority(f models.AggregatedFinding) float64 {
	return f.Severity.Weight() * f.FrequencyPct * f.AvgDeviation
}

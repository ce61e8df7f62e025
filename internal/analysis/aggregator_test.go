package analysis

import (
	"testing"

	"github.com/rahulbar0t/soulsurfer/pkg/models"
)

func frameError(metric string, frameNumber int, timestampSec, deviation float64, severity models.Severity) models.FrameError {
	return models.FrameError{
		Metric:        metric,
		FrameNumber:   frameNumber,
		TimestampSec:  timestampSec,
		MeasuredValue: 100 + deviation,
		IdealMin:      50,
		IdealMax:      100,
		Deviation:     deviation,
		Severity:      severity,
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	agg := NewAggregator(100)

	findings := agg.Aggregate(nil)
	if findings == nil {
		t.Fatal("ожидался пустой срез, получен nil")
	}
	if len(findings) != 0 {
		t.Errorf("ожидалось 0 находок, получено %d", len(findings))
	}
}

func TestAggregateZeroTotalFrames(t *testing.T) {
	agg := NewAggregator(0)

	findings := agg.Aggregate([]models.FrameError{
		frameError("spinal_angle", 0, 0, 10, models.SeverityLow),
	})
	if len(findings) != 0 {
		t.Errorf("при нуле проанализированных кадров находок быть не должно, получено %d", len(findings))
	}
}

func TestAggregateFrequencyAndStats(t *testing.T) {
	agg := NewAggregator(100)

	var errors []models.FrameError
	for i := 0; i < 100; i++ {
		errors = append(errors, frameError("left_knee_angle", i, float64(i)*0.2, 20, models.SeverityMedium))
	}

	findings := agg.Aggregate(errors)
	if len(findings) != 1 {
		t.Fatalf("ожидалась 1 находка, получено %d", len(findings))
	}

	f := findings[0]
	if f.FrameCount != 100 {
		t.Errorf("ожидалось 100 кадров, получено %d", f.FrameCount)
	}
	if f.FrequencyPct != 100.0 {
		t.Errorf("ожидалась частота 100%%, получена %f", f.FrequencyPct)
	}
	if f.AvgDeviation != 20.0 {
		t.Errorf("ожидалось среднее отклонение 20, получено %f", f.AvgDeviation)
	}
	if f.FirstTimestampSec != 0 || f.LastTimestampSec != 19.8 {
		t.Errorf("неверные граничные метки: first=%f, last=%f", f.FirstTimestampSec, f.LastTimestampSec)
	}
}

func TestAggregateWorstFrame(t *testing.T) {
	agg := NewAggregator(50)

	errors := []models.FrameError{
		frameError("spinal_angle", 10, 2.0, 10, models.SeverityLow),
		frameError("spinal_angle", 20, 4.0, 30, models.SeverityHigh),
		frameError("spinal_angle", 30, 6.0, 20, models.SeverityMedium),
	}

	findings := agg.Aggregate(errors)
	if len(findings) != 1 {
		t.Fatalf("ожидалась 1 находка, получено %d", len(findings))
	}

	f := findings[0]
	if f.MaxDeviation != 30.0 {
		t.Errorf("ожидалось максимальное отклонение 30, получено %f", f.MaxDeviation)
	}
	if f.AvgDeviation != 20.0 {
		t.Errorf("ожидалось среднее отклонение 20, получено %f", f.AvgDeviation)
	}
	if f.WorstFrameNumber != 20 {
		t.Errorf("ожидался худший кадр 20, получен %d", f.WorstFrameNumber)
	}
	if f.WorstTimestampSec != 4.0 {
		t.Errorf("ожидалась метка худшего кадра 4.0, получена %f", f.WorstTimestampSec)
	}
}

func TestAggregateWorstFrameTieEarliestWins(t *testing.T) {
	agg := NewAggregator(50)

	// Одинаковые отклонения: худшим считается более ранний кадр
	errors := []models.FrameError{
		frameError("spinal_angle", 30, 6.0, 25, models.SeverityMedium),
		frameError("spinal_angle", 10, 2.0, 25, models.SeverityMedium),
	}

	findings := agg.Aggregate(errors)
	if len(findings) != 1 {
		t.Fatalf("ожидалась 1 находка, получено %d", len(findings))
	}
	if findings[0].WorstFrameNumber != 10 {
		t.Errorf("при равных отклонениях худшим должен быть ранний кадр, получен %d", findings[0].WorstFrameNumber)
	}
}

func TestAggregateOverallSeverity(t *testing.T) {
	agg := NewAggregator(100)

	// 26 из 100 кадров с HIGH — доля выше порога 25%
	var errors []models.FrameError
	for i := 0; i < 26; i++ {
		errors = append(errors, frameError("left_knee_angle", i, float64(i), 35, models.SeverityHigh))
	}
	for i := 26; i < 100; i++ {
		errors = append(errors, frameError("left_knee_angle", i, float64(i), 5, models.SeverityLow))
	}

	findings := agg.Aggregate(errors)
	if len(findings) != 1 {
		t.Fatalf("ожидалась 1 находка, получено %d", len(findings))
	}
	if findings[0].Severity != models.SeverityHigh {
		t.Errorf("ожидалась общая серьезность high, получена %s", findings[0].Severity)
	}
}

func TestAggregateOverallSeverityBelowThreshold(t *testing.T) {
	agg := NewAggregator(100)

	// 10 из 100 кадров с HIGH — доля ниже порога, общая серьезность low
	var errors []models.FrameError
	for i := 0; i < 10; i++ {
		errors = append(errors, frameError("left_knee_angle", i, float64(i), 35, models.SeverityHigh))
	}
	for i := 10; i < 100; i++ {
		errors = append(errors, frameError("left_knee_angle", i, float64(i), 5, models.SeverityLow))
	}

	findings := agg.Aggregate(errors)
	if len(findings) != 1 {
		t.Fatalf("ожидалась 1 находка, получено %d", len(findings))
	}
	if findings[0].Severity != models.SeverityLow {
		t.Errorf("ожидалась общая серьезность low, получена %s", findings[0].Severity)
	}
}

func TestAggregatePriorityOrdering(t *testing.T) {
	agg := NewAggregator(100)

	var errors []models.FrameError
	// Частая и серьезная проблема
	for i := 0; i < 80; i++ {
		errors = append(errors, frameError("spinal_angle", i, float64(i), 40, models.SeverityHigh))
	}
	// Редкая и незначительная проблема
	for i := 0; i < 5; i++ {
		errors = append(errors, frameError("shoulder_tilt", i, float64(i), 5, models.SeverityLow))
	}

	findings := agg.Aggregate(errors)
	if len(findings) != 2 {
		t.Fatalf("ожидалось 2 находки, получено %d", len(findings))
	}
	if findings[0].Metric != "spinal_angle" {
		t.Errorf("первой должна идти приоритетная находка, получена %s", findings[0].Metric)
	}
	if findings[1].Metric != "shoulder_tilt" {
		t.Errorf("второй должна идти менее важная находка, получена %s", findings[1].Metric)
	}
}

func TestAggregateInvariants(t *testing.T) {
	agg := NewAggregator(40)

	errors := []models.FrameError{
		frameError("left_hip_angle", 12, 2.4, 10, models.SeverityLow),
		frameError("left_hip_angle", 4, 0.8, 20, models.SeverityMedium),
		frameError("left_hip_angle", 36, 7.2, 15, models.SeverityLow),
	}

	findings := agg.Aggregate(errors)
	if len(findings) != 1 {
		t.Fatalf("ожидалась 1 находка, получено %d", len(findings))
	}

	f := findings[0]
	if f.FrameCount > 40 {
		t.Errorf("количество кадров не может превышать общее: %d", f.FrameCount)
	}
	if f.FirstTimestampSec != 0.8 || f.LastTimestampSec != 7.2 {
		t.Errorf("неверные граничные метки: first=%f, last=%f", f.FirstTimestampSec, f.LastTimestampSec)
	}
	if f.DurationSec < 0 {
		t.Errorf("длительность не может быть отрицательной: %f", f.DurationSec)
	}
	expectedDuration := 7.2 - 0.8
	if diff := f.DurationSec - expectedDuration; diff > 0.01 || diff < -0.01 {
		t.Errorf("длительность должна равняться разнице меток: ожидалось %f, получено %f",
			expectedDuration, f.DurationSec)
	}
	if f.MaxDeviation < f.AvgDeviation {
		t.Errorf("максимум не может быть меньше среднего: max=%f, avg=%f", f.MaxDeviation, f.AvgDeviation)
	}
}

func TestAggregatePreservesMetricGrouping(t *testing.T) {
	agg := NewAggregator(20)

	errors := []models.FrameError{
		frameError("left_knee_angle", 1, 0.2, 10, models.SeverityLow),
		frameError("right_knee_angle", 1, 0.2, 10, models.SeverityLow),
		frameError("left_knee_angle", 2, 0.4, 10, models.SeverityLow),
	}

	findings := agg.Aggregate(errors)
	if len(findings) != 2 {
		t.Fatalf("ожидалось 2 находки, получено %d", len(findings))
	}

	counts := map[string]int{}
	for _, f := range findings {
		counts[f.Metric] = f.FrameCount
	}
	if counts["left_knee_angle"] != 2 {
		t.Errorf("ожидалось 2 кадра для left_knee_angle, получено %d", counts["left_knee_angle"])
	}
	if counts["right_knee_angle"] != 1 {
		t.Errorf("ожидался 1 кадр для right_knee_angle, получено %d", counts["right_knee_angle"])
	}
}

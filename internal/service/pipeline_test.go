package service

import (
	"testing"

	"github.com/rahulbar0t/soulsurfer/internal/geometry"
	"github.com/rahulbar0t/soulsurfer/pkg/models"
)

func fullPoseResult() *models.PoseResult {
	return &models.PoseResult{
		Landmarks:      make([]models.Landmark, geometry.LandmarkCount),
		WorldLandmarks: make([]models.Landmark, geometry.LandmarkCount),
		AvgVisibility:  0.9,
		Detected:       true,
	}
}

func TestValidatePoseResultComplete(t *testing.T) {
	if err := validatePoseResult(fullPoseResult()); err != nil {
		t.Errorf("полный набор точек не должен отвергаться: %v", err)
	}
}

func TestValidatePoseResultTruncated(t *testing.T) {
	// Укороченный ответ pose-сервиса должен отвергаться до расчета метрик,
	// иначе калькулятор вышел бы за границы среза
	res := fullPoseResult()
	res.WorldLandmarks = make([]models.Landmark, 10)
	if err := validatePoseResult(res); err == nil {
		t.Error("ожидалась ошибка для неполного набора мировых точек")
	}

	res = fullPoseResult()
	res.Landmarks = nil
	if err := validatePoseResult(res); err == nil {
		t.Error("ожидалась ошибка для пустого набора нормализованных точек")
	}
}

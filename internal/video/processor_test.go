package video

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestFrameSkip(t *testing.T) {
	cases := []struct {
		sourceFPS float64
		targetFPS float64
		expected  int
	}{
		{30, 5, 6},
		{24, 5, 4},
		{25, 5, 5},
		{60, 5, 12},
		{2, 5, 1},  // Источник медленнее цели: берем каждый кадр
		{5, 5, 1},  // Частоты совпадают
		{29, 5, 5}, // Дробный шаг усекается вниз
	}

	for _, tc := range cases {
		if skip := frameSkip(tc.sourceFPS, tc.targetFPS); skip != tc.expected {
			t.Errorf("frameSkip(%f, %f): ожидалось %d, получено %d",
				tc.sourceFPS, tc.targetFPS, tc.expected, skip)
		}
	}
}

func TestValidateFPS(t *testing.T) {
	// Некорректная частота кадров отвергается до извлечения первого кадра
	for _, fps := range []float64{0, -1, -29.97} {
		err := validateFPS(fps)
		if err == nil {
			t.Errorf("fps=%f: ожидалась ошибка", fps)
			continue
		}
		if !errors.Is(err, ErrInvalidFrameRate) {
			t.Errorf("fps=%f: ошибка должна различаться через errors.Is(ErrInvalidFrameRate): %v", fps, err)
		}
	}

	if err := validateFPS(29.97); err != nil {
		t.Errorf("положительная частота кадров не должна отвергаться: %v", err)
	}
}

func TestExtractFramesMissingFile(t *testing.T) {
	logger := logrus.New()
	p := NewProcessor(5.0, nil, logger)

	err := p.ExtractFrames("/nonexistent/video.mp4", func(Frame) error { return nil })
	if err == nil {
		t.Fatal("ожидалась ошибка для несуществующего файла")
	}
	if !errors.Is(err, ErrCannotOpen) {
		t.Errorf("ошибка должна различаться через errors.Is(ErrCannotOpen): %v", err)
	}
}

func TestMetadataMissingFile(t *testing.T) {
	logger := logrus.New()
	p := NewProcessor(5.0, nil, logger)

	_, err := p.Metadata("/nonexistent/video.mp4")
	if !errors.Is(err, ErrCannotOpen) {
		t.Errorf("ошибка должна различаться через errors.Is(ErrCannotOpen): %v", err)
	}
}

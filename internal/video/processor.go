package video

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Ошибки обработки видео, различимые через errors.Is
var (
	// ErrCannotOpen видео файл не удалось открыть
	ErrCannotOpen = errors.New("не удалось открыть видео")
	// ErrInvalidFrameRate видео содержит некорректную частоту кадров
	ErrInvalidFrameRate = errors.New("некорректная частота кадров видео")
)

// Metadata характеристики видео файла
type Metadata struct {
	FPS         float64 // Частота кадров исходного видео
	TotalFrames int     // Общее количество кадров
	Width       int     // Ширина кадра в пикселях
	Height      int     // Высота кадра в пикселях
	DurationSec float64 // Длительность видео в секундах
}

// Frame один извлеченный кадр видео
type Frame struct {
	Image        gocv.Mat // Кадр BGR (владение остается у Processor)
	FrameNumber  int      // Номер кадра в исходном видео
	TimestampSec float64  // Временная метка: frameNumber / fps
}

// Processor извлекает кадры из видео с прореживанием до целевой частоты
type Processor struct {
	targetFPS float64
	enhancer  *Enhancer
	logger    *logrus.Logger
}

// NewProcessor создает новый обработчик видео.
// enhancer может быть nil — тогда кадры не улучшаются.
func NewProcessor(targetFPS float64, enhancer *Enhancer, logger *logrus.Logger) *Processor {
	return &Processor{
		targetFPS: targetFPS,
		enhancer:  enhancer,
		logger:    logger,
	}
}

// Metadata читает характеристики видео файла
func (p *Processor) Metadata(videoPath string) (*Metadata, error) {
	capture, err := gocv.OpenVideoCapture(videoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCannotOpen, videoPath)
	}
	defer capture.Close()

	if !capture.IsOpened() {
		return nil, fmt.Errorf("%w: %s", ErrCannotOpen, videoPath)
	}

	fps := capture.Get(gocv.VideoCaptureFPS)
	total := int(capture.Get(gocv.VideoCaptureFrameCount))
	width := int(capture.Get(gocv.VideoCaptureFrameWidth))
	height := int(capture.Get(gocv.VideoCaptureFrameHeight))

	duration := 0.0
	if fps > 0 {
		duration = float64(total) / fps
	}

	return &Metadata{
		FPS:         fps,
		TotalFrames: total,
		Width:       width,
		Height:      height,
		DurationSec: duration,
	}, nil
}

// validateFPS проверяет частоту кадров источника перед извлечением
func validateFPS(fps float64) error {
	if fps <= 0 {
		return fmt.Errorf("%w: fps=%f", ErrInvalidFrameRate, fps)
	}
	return nil
}

// frameSkip вычисляет шаг прореживания кадров до целевой частоты
func frameSkip(sourceFPS, targetFPS float64) int {
	skip := int(sourceFPS / targetFPS)
	if skip < 1 {
		return 1
	}
	return skip
}

// ExtractFrames последовательно извлекает кадры видео с прореживанием до
// целевой частоты и вызывает fn для каждого отобранного кадра. Кадр
// принадлежит Processor и освобождается после возврата fn; ошибка из fn
// останавливает обход и возвращается вызывающей стороне.
func (p *Processor) ExtractFrames(videoPath string, fn func(Frame) error) error {
	metadata, err := p.Metadata(videoPath)
	if err != nil {
		return err
	}
	if err := validateFPS(metadata.FPS); err != nil {
		return err
	}

	skip := frameSkip(metadata.FPS, p.targetFPS)
	p.logger.Debugf("Извлечение кадров: fps=%.2f, целевая частота=%.2f, шаг=%d",
		metadata.FPS, p.targetFPS, skip)

	capture, err := gocv.OpenVideoCapture(videoPath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrCannotOpen, videoPath)
	}
	defer capture.Close()

	raw := gocv.NewMat()
	defer raw.Close()

	frameNumber := 0
	for {
		if ok := capture.Read(&raw); !ok || raw.Empty() {
			break
		}

		if frameNumber%skip == 0 {
			img := raw
			enhanced := false
			if p.enhancer != nil {
				img = p.enhancer.Enhance(raw)
				enhanced = true
			}

			frame := Frame{
				Image:        img,
				FrameNumber:  frameNumber,
				TimestampSec: float64(frameNumber) / metadata.FPS,
			}
			err := fn(frame)
			if enhanced {
				img.Close()
			}
			if err != nil {
				return err
			}
		}

		frameNumber++
	}

	return nil
}

package clips

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/rahulbar0t/soulsurfer/internal/geometry"
	"github.com/rahulbar0t/soulsurfer/pkg/models"
)

// SpotlightConfig параметры эффекта подсветки сустава на клипе
type SpotlightConfig struct {
	Radius     int        // Радиус основного кольца в пикселях
	Color      color.RGBA // Цвет подсветки (желтый)
	Thickness  int        // Толщина линии кольца
	GlowRadius int        // Радиус внешнего свечения
	GlowAlpha  float64    // Прозрачность свечения
}

// DefaultSpotlightConfig возвращает параметры подсветки по умолчанию
func DefaultSpotlightConfig() SpotlightConfig {
	return SpotlightConfig{
		Radius:     40,
		Color:      color.RGBA{R: 255, G: 255, B: 0, A: 0},
		Thickness:  3,
		GlowRadius: 60,
		GlowAlpha:  0.3,
	}
}

// metricLandmarks отображает имя метрики в индексы точек для подсветки
var metricLandmarks = map[string][]int{
	"left_knee_angle":     {geometry.LeftKnee},
	"right_knee_angle":    {geometry.RightKnee},
	"left_hip_angle":      {geometry.LeftHip},
	"right_hip_angle":     {geometry.RightHip},
	"left_elbow_angle":    {geometry.LeftElbow},
	"right_elbow_angle":   {geometry.RightElbow},
	"left_arm_raise":      {geometry.LeftShoulder},
	"right_arm_raise":     {geometry.RightShoulder},
	"shoulder_tilt":       {geometry.LeftShoulder, geometry.RightShoulder},
	"spinal_angle":        {geometry.LeftShoulder, geometry.RightShoulder, geometry.LeftHip, geometry.RightHip},
	"head_forward_offset": {geometry.Nose},
	"stance_width_ratio":  {geometry.LeftAnkle, geometry.RightAnkle},
}

// Extractor извлекает короткие клипы вокруг худших кадров находок и
// подсвечивает проблемный сустав
type Extractor struct {
	clipDurationSec float64
	outputDir       string
	spotlight       SpotlightConfig
	logger          *logrus.Logger
}

// NewExtractor создает новый экстрактор клипов и папку для результатов
func NewExtractor(clipDurationSec float64, outputDir string, logger *logrus.Logger) (*Extractor, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания папки для клипов %s: %w", outputDir, err)
	}

	return &Extractor{
		clipDurationSec: clipDurationSec,
		outputDir:       outputDir,
		spotlight:       DefaultSpotlightConfig(),
		logger:          logger,
	}, nil
}

// clipWindow вычисляет границы клипа: половина длительности до и после
// центра, с зажатием в [0, duration]
func clipWindow(centerSec, clipDurationSec, videoDurationSec float64) (startSec, endSec float64) {
	half := clipDurationSec / 2
	startSec = centerSec - half
	if startSec < 0 {
		startSec = 0
	}
	endSec = centerSec + half
	if endSec > videoDurationSec {
		endSec = videoDurationSec
	}
	return startSec, endSec
}

// spotlightCoords возвращает пиксельные координаты подсветки для метрики.
// Для spinal_angle подсвечиваются середины плеч и бедер; неизвестные
// метрики дают пустой результат.
func spotlightCoords(landmarks []models.Landmark, metric string, frameWidth, frameHeight int) []image.Point {
	indices, ok := metricLandmarks[metric]
	if !ok {
		return nil
	}

	// Особый случай: spinal_angle использует середины пар точек
	if metric == "spinal_angle" && len(indices) == 4 {
		lSh := landmarks[indices[0]]
		rSh := landmarks[indices[1]]
		lHip := landmarks[indices[2]]
		rHip := landmarks[indices[3]]

		return []image.Point{
			image.Pt(
				int((lSh.X+rSh.X)/2*float64(frameWidth)),
				int((lSh.Y+rSh.Y)/2*float64(frameHeight)),
			),
			image.Pt(
				int((lHip.X+rHip.X)/2*float64(frameWidth)),
				int((lHip.Y+rHip.Y)/2*float64(frameHeight)),
			),
		}
	}

	coords := make([]image.Point, 0, len(indices))
	for _, idx := range indices {
		if idx < len(landmarks) {
			lm := landmarks[idx]
			coords = append(coords, image.Pt(
				int(lm.X*float64(frameWidth)),
				int(lm.Y*float64(frameHeight)),
			))
		}
	}
	return coords
}

// drawSpotlight рисует подсветку на кадре: полупрозрачное свечение,
// основное кольцо и центральная точка
func (e *Extractor) drawSpotlight(frame *gocv.Mat, coords []image.Point) {
	cfg := e.spotlight

	for _, pt := range coords {
		// Внешнее свечение (полупрозрачное)
		overlay := frame.Clone()
		gocv.Circle(&overlay, pt, cfg.GlowRadius, cfg.Color, -1)
		blended := gocv.NewMat()
		gocv.AddWeighted(overlay, cfg.GlowAlpha, *frame, 1-cfg.GlowAlpha, 0, &blended)
		overlay.Close()
		frame.Close()
		*frame = blended

		// Основное кольцо
		gocv.Circle(frame, pt, cfg.Radius, cfg.Color, cfg.Thickness)

		// Центральная точка
		gocv.Circle(frame, pt, 5, cfg.Color, -1)
	}
}

// extractClip извлекает клип вокруг худшего кадра находки и превью.
// Возвращает относительные пути к клипу и превью.
func (e *Extractor) extractClip(
	videoPath, sessionID string,
	finding models.AggregatedFinding,
	landmarksByFrame map[int][]models.Landmark,
) (string, string, error) {
	capture, err := gocv.OpenVideoCapture(videoPath)
	if err != nil {
		return "", "", fmt.Errorf("не удалось открыть видео %s: %w", videoPath, err)
	}
	defer capture.Close()

	fps := capture.Get(gocv.VideoCaptureFPS)
	totalFrames := int(capture.Get(gocv.VideoCaptureFrameCount))
	width := int(capture.Get(gocv.VideoCaptureFrameWidth))
	height := int(capture.Get(gocv.VideoCaptureFrameHeight))
	durationSec := 0.0
	if fps > 0 {
		durationSec = float64(totalFrames) / fps
	}

	startSec, endSec := clipWindow(finding.WorstTimestampSec, e.clipDurationSec, durationSec)
	startFrame := int(startSec * fps)
	endFrame := int(endSec * fps)

	clipFilename := fmt.Sprintf("%s_%s_clip.mp4", sessionID, finding.Metric)
	thumbFilename := fmt.Sprintf("%s_%s_thumb.jpg", sessionID, finding.Metric)
	clipPath := filepath.Join(e.outputDir, clipFilename)
	thumbPath := filepath.Join(e.outputDir, thumbFilename)

	// Пробуем H.264, при неудаче откатываемся на mp4v
	writer, err := gocv.VideoWriterFile(clipPath, "avc1", fps, width, height, true)
	if err != nil || !writer.IsOpened() {
		if writer != nil {
			writer.Close()
		}
		writer, err = gocv.VideoWriterFile(clipPath, "mp4v", fps, width, height, true)
		if err != nil {
			return "", "", fmt.Errorf("не удалось создать video writer для %s: %w", clipPath, err)
		}
	}
	defer writer.Close()

	if !writer.IsOpened() {
		return "", "", fmt.Errorf("video writer для %s не открылся", clipPath)
	}

	capture.Set(gocv.VideoCapturePosFrames, float64(startFrame))

	frame := gocv.NewMat()
	defer frame.Close()

	thumbnailSaved := false
	for currentFrame := startFrame; currentFrame <= endFrame; currentFrame++ {
		if ok := capture.Read(&frame); !ok || frame.Empty() {
			break
		}

		// Подсвечиваем сустав, если для кадра известны точки позы
		if landmarks, ok := landmarksByFrame[currentFrame]; ok {
			coords := spotlightCoords(landmarks, finding.Metric, width, height)
			if len(coords) > 0 {
				e.drawSpotlight(&frame, coords)
			}
		}

		if err := writer.Write(frame); err != nil {
			return "", "", fmt.Errorf("ошибка записи кадра в клип: %w", err)
		}

		// Превью сохраняется на худшем кадре
		if currentFrame == finding.WorstFrameNumber && !thumbnailSaved {
			gocv.IMWrite(thumbPath, frame)
			thumbnailSaved = true
		}
	}

	// Если худший кадр не попал в запись, берем превью из середины клипа
	if !thumbnailSaved {
		middleFrame := (startFrame + endFrame) / 2
		capture.Set(gocv.VideoCapturePosFrames, float64(middleFrame))
		if ok := capture.Read(&frame); ok && !frame.Empty() {
			if landmarks, ok := landmarksByFrame[middleFrame]; ok {
				coords := spotlightCoords(landmarks, finding.Metric, width, height)
				if len(coords) > 0 {
					e.drawSpotlight(&frame, coords)
				}
			}
			gocv.IMWrite(thumbPath, frame)
		}
	}

	e.logger.Infof("Извлечен клип для %s: кадры %d-%d", finding.Metric, startFrame, endFrame)

	return "/clips/" + clipFilename, "/clips/" + thumbFilename, nil
}

// ExtractAll извлекает клипы для всех находок. Ошибка извлечения одного
// клипа логируется, находка остается без артефактов, остальные клипы
// продолжают извлекаться.
func (e *Extractor) ExtractAll(
	videoPath, sessionID string,
	findings []models.AggregatedFinding,
	landmarksByFrame map[int][]models.Landmark,
) []models.AggregatedFinding {
	updated := make([]models.AggregatedFinding, 0, len(findings))

	for _, finding := range findings {
		clipPath, thumbPath, err := e.extractClip(videoPath, sessionID, finding, landmarksByFrame)
		if err != nil {
			e.logger.Errorf("Ошибка извлечения клипа для %s: %v", finding.Metric, err)
		} else {
			finding.ClipPath = clipPath
			finding.ThumbnailPath = thumbPath
		}
		updated = append(updated, finding)
	}

	return updated
}

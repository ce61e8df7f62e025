package video

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/rahulbar0t/soulsurfer/internal/config"
)

// Enhancer улучшает кадры перед оценкой позы: центральное увеличение,
// контраст (CLAHE) и резкость (unsharp mask). Исходный кадр никогда
// не модифицируется
type Enhancer struct {
	cfg   config.EnhancementConfig
	clahe *gocv.CLAHE // Ленивая инициализация
}

// NewEnhancer создает новый улучшитель кадров
func NewEnhancer(cfg config.EnhancementConfig) *Enhancer {
	return &Enhancer{
		cfg: cfg,
	}
}

// Enhance применяет включенные улучшения к кадру BGR и возвращает новый Mat.
// Вызывающая сторона обязана закрыть результат. Исходный кадр не меняется.
func (e *Enhancer) Enhance(src gocv.Mat) gocv.Mat {
	result := src.Clone()
	if e.cfg.ZoomEnabled {
		e.applyZoom(&result)
	}
	if e.cfg.ContrastEnabled {
		e.applyCLAHE(&result)
	}
	if e.cfg.SharpenEnabled {
		e.applySharpen(&result)
	}
	return result
}

// applyZoom обрезает центр кадра до доли ZoomCropRatio и растягивает обратно
// до исходных размеров. Серфер обычно находится в центре кадра, поэтому
// увеличение центра повышает детализацию для оценки позы.
func (e *Enhancer) applyZoom(img *gocv.Mat) {
	ratio := e.cfg.ZoomCropRatio
	// Ratio >= 1.0 означает отсутствие обрезки
	if ratio >= 1.0 {
		return
	}

	h := img.Rows()
	w := img.Cols()
	cropH := int(float64(h) * ratio)
	cropW := int(float64(w) * ratio)
	yStart := (h - cropH) / 2
	xStart := (w - cropW) / 2

	roi := img.Region(image.Rect(xStart, yStart, xStart+cropW, yStart+cropH))
	resized := gocv.NewMat()
	gocv.Resize(roi, &resized, image.Pt(w, h), 0, 0, gocv.InterpolationLinear)
	roi.Close()

	img.Close()
	*img = resized
}

// applySharpen повышает резкость через unsharp mask: размытие по Гауссу
// и смешивание с оригиналом
func (e *Enhancer) applySharpen(img *gocv.Mat) {
	ksize := e.cfg.SharpenKernel
	sigma := e.cfg.SharpenSigma
	alpha := e.cfg.SharpenStrength

	blurred := gocv.NewMat()
	gocv.GaussianBlur(*img, &blurred, image.Pt(ksize, ksize), sigma, sigma, gocv.BorderDefault)

	sharpened := gocv.NewMat()
	gocv.AddWeighted(*img, alpha, blurred, 1.0-alpha, 0, &sharpened)
	blurred.Close()

	img.Close()
	*img = sharpened
}

// applyCLAHE применяет CLAHE к каналу яркости L цветового пространства Lab.
// Выравнивает контраст при сложном уличном освещении.
func (e *Enhancer) applyCLAHE(img *gocv.Mat) {
	if e.clahe == nil {
		tile := e.cfg.CLAHETileGrid
		clahe := gocv.NewCLAHEWithParams(e.cfg.CLAHEClipLimit, image.Pt(tile, tile))
		e.clahe = &clahe
	}

	lab := gocv.NewMat()
	gocv.CvtColor(*img, &lab, gocv.ColorBGRToLab)

	channels := gocv.Split(lab)
	enhanced := gocv.NewMat()
	e.clahe.Apply(channels[0], &enhanced)
	channels[0].Close()
	channels[0] = enhanced

	gocv.Merge(channels, &lab)
	for _, ch := range channels {
		ch.Close()
	}

	result := gocv.NewMat()
	gocv.CvtColor(lab, &result, gocv.ColorLabToBGR)
	lab.Close()

	img.Close()
	*img = result
}

// Close освобождает ресурсы CLAHE
func (e *Enhancer) Close() error {
	if e.clahe != nil {
		return e.clahe.Close()
	}
	return nil
}

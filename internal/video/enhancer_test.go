package video

import (
	"bytes"
	"testing"

	"gocv.io/x/gocv"

	"github.com/rahulbar0t/soulsurfer/internal/config"
)

func testFrame() gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(90, 120, 150, 0), 120, 160, gocv.MatTypeCV8UC3)
}

func TestEnhanceAllDisabledIsIdentity(t *testing.T) {
	e := NewEnhancer(config.EnhancementConfig{Enabled: true})
	defer e.Close()

	src := testFrame()
	defer src.Close()

	out := e.Enhance(src)
	defer out.Close()

	if !bytes.Equal(src.ToBytes(), out.ToBytes()) {
		t.Error("при выключенных улучшениях кадр должен совпадать с исходным")
	}
}

func TestEnhanceDoesNotMutateSource(t *testing.T) {
	e := NewEnhancer(config.EnhancementConfig{
		Enabled:         true,
		ZoomEnabled:     true,
		ZoomCropRatio:   0.6,
		SharpenEnabled:  true,
		SharpenKernel:   5,
		SharpenSigma:    1.0,
		SharpenStrength: 1.5,
	})
	defer e.Close()

	src := testFrame()
	defer src.Close()
	before := src.ToBytes()

	out := e.Enhance(src)
	defer out.Close()

	if !bytes.Equal(before, src.ToBytes()) {
		t.Error("исходный кадр не должен изменяться")
	}
}

func TestEnhanceZoomPreservesDimensions(t *testing.T) {
	e := NewEnhancer(config.EnhancementConfig{
		Enabled:       true,
		ZoomEnabled:   true,
		ZoomCropRatio: 0.6,
	})
	defer e.Close()

	src := testFrame()
	defer src.Close()

	out := e.Enhance(src)
	defer out.Close()

	if out.Rows() != src.Rows() || out.Cols() != src.Cols() {
		t.Errorf("увеличение должно сохранять размеры: получено %dx%d, ожидалось %dx%d",
			out.Cols(), out.Rows(), src.Cols(), src.Rows())
	}
}

func TestEnhanceZoomRatioOneIsNoop(t *testing.T) {
	e := NewEnhancer(config.EnhancementConfig{
		Enabled:       true,
		ZoomEnabled:   true,
		ZoomCropRatio: 1.0,
	})
	defer e.Close()

	src := testFrame()
	defer src.Close()

	out := e.Enhance(src)
	defer out.Close()

	if !bytes.Equal(src.ToBytes(), out.ToBytes()) {
		t.Error("при ratio >= 1.0 кадр должен оставаться без изменений")
	}
}

func TestEnhanceSharpenUniformFrameUnchanged(t *testing.T) {
	e := NewEnhancer(config.EnhancementConfig{
		Enabled:         true,
		SharpenEnabled:  true,
		SharpenKernel:   5,
		SharpenSigma:    1.0,
		SharpenStrength: 1.5,
	})
	defer e.Close()

	// Однотонный кадр: размытие его не меняет, значит unsharp mask тоже
	src := testFrame()
	defer src.Close()

	out := e.Enhance(src)
	defer out.Close()

	if !bytes.Equal(src.ToBytes(), out.ToBytes()) {
		t.Error("однотонный кадр не должен меняться при повышении резкости")
	}
}

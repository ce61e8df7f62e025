package geometry

import (
	"math"

	"github.com/rahulbar0t/soulsurfer/pkg/models"
)

// LandmarkCount количество точек в схеме позы MediaPipe
const LandmarkCount = 33

// Индексы точек позы MediaPipe
const (
	Nose          = 0
	LeftShoulder  = 11
	RightShoulder = 12
	LeftElbow     = 13
	RightElbow    = 14
	LeftWrist     = 15
	RightWrist    = 16
	LeftHip       = 23
	RightHip      = 24
	LeftKnee      = 25
	RightKnee     = 26
	LeftAnkle     = 27
	RightAnkle    = 28
)

// eps защищает от деления на ноль при совпадающих точках
const eps = 1e-8

// vec3 трехмерный вектор для расчетов над точками позы
type vec3 struct {
	X, Y, Z float64
}

func toVec(lm models.Landmark) vec3 {
	return vec3{X: lm.X, Y: lm.Y, Z: lm.Z}
}

func sub(a, b vec3) vec3 {
	return vec3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

func dot(a, b vec3) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func norm(a vec3) float64 {
	return math.Sqrt(a.X*a.X + a.Y*a.Y + a.Z*a.Z)
}

func midpoint(a, b vec3) vec3 {
	return vec3{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2, Z: (a.Z + b.Z) / 2}
}

// clampCos ограничивает косинус диапазоном [-1, 1], чтобы избежать
// ошибок области определения acos из-за погрешностей с плавающей точкой
func clampCos(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	if v < -1.0 {
		return -1.0
	}
	return v
}

// Calculator вычисляет биомеханические метрики по 33 точкам позы
type Calculator struct{}

// NewCalculator создает новый калькулятор метрик
func NewCalculator() *Calculator {
	return &Calculator{}
}

// angleBetweenThreePoints возвращает угол при вершине B, образованный точками A-B-C.
// Результат в градусах в диапазоне [0, 180].
func (c *Calculator) angleBetweenThreePoints(a, b, pc vec3) float64 {
	ba := sub(a, b)
	bc := sub(pc, b)
	cosAngle := dot(ba, bc) / (norm(ba)*norm(bc) + eps)
	return math.Acos(clampCos(cosAngle)) * 180 / math.Pi
}

// angleFromVertical возвращает угол линии top→bottom относительно вертикали.
// 0 — вертикальное положение, 90 — горизонтальное.
func (c *Calculator) angleFromVertical(top, bottom vec3) float64 {
	direction := sub(top, bottom)
	vertical := vec3{X: 0, Y: -1, Z: 0}
	cosAngle := dot(direction, vertical) / (norm(direction) + eps)
	return math.Acos(clampCos(cosAngle)) * 180 / math.Pi
}

// CalculateAll вычисляет все биомеханические метрики по 33 точкам позы.
// useWorld указывает, что точки в мировых координатах (предпочтительно);
// от этого зависит только выбор оси для head_forward_offset.
func (c *Calculator) CalculateAll(landmarks []models.Landmark, useWorld bool) map[string]float64 {
	metrics := make(map[string]float64)

	// Суставные углы (по трем точкам)
	// Колено: бедро → колено → лодыжка
	metrics["left_knee_angle"] = c.angleBetweenThreePoints(
		toVec(landmarks[LeftHip]),
		toVec(landmarks[LeftKnee]),
		toVec(landmarks[LeftAnkle]),
	)
	metrics["right_knee_angle"] = c.angleBetweenThreePoints(
		toVec(landmarks[RightHip]),
		toVec(landmarks[RightKnee]),
		toVec(landmarks[RightAnkle]),
	)

	// Бедро: плечо → бедро → колено
	metrics["left_hip_angle"] = c.angleBetweenThreePoints(
		toVec(landmarks[LeftShoulder]),
		toVec(landmarks[LeftHip]),
		toVec(landmarks[LeftKnee]),
	)
	metrics["right_hip_angle"] = c.angleBetweenThreePoints(
		toVec(landmarks[RightShoulder]),
		toVec(landmarks[RightHip]),
		toVec(landmarks[RightKnee]),
	)

	// Локоть: плечо → локоть → запястье
	metrics["left_elbow_angle"] = c.angleBetweenThreePoints(
		toVec(landmarks[LeftShoulder]),
		toVec(landmarks[LeftElbow]),
		toVec(landmarks[LeftWrist]),
	)
	metrics["right_elbow_angle"] = c.angleBetweenThreePoints(
		toVec(landmarks[RightShoulder]),
		toVec(landmarks[RightElbow]),
		toVec(landmarks[RightWrist]),
	)

	// Подъем руки: бедро → плечо → локоть
	metrics["left_arm_raise"] = c.angleBetweenThreePoints(
		toVec(landmarks[LeftHip]),
		toVec(landmarks[LeftShoulder]),
		toVec(landmarks[LeftElbow]),
	)
	metrics["right_arm_raise"] = c.angleBetweenThreePoints(
		toVec(landmarks[RightHip]),
		toVec(landmarks[RightShoulder]),
		toVec(landmarks[RightElbow]),
	)

	// Наклон плеч: угол линии плеч относительно горизонтали (2D проекция)
	lSh := toVec(landmarks[LeftShoulder])
	rSh := toVec(landmarks[RightShoulder])
	shoulderVec := sub(rSh, lSh)
	norm2D := math.Sqrt(shoulderVec.X*shoulderVec.X + shoulderVec.Y*shoulderVec.Y)
	cosTilt := shoulderVec.X / (norm2D + eps)
	metrics["shoulder_tilt"] = math.Acos(clampCos(cosTilt)) * 180 / math.Pi

	// Угол позвоночника: отклонение линии середина плеч → середина бедер от вертикали
	midShoulder := midpoint(lSh, rSh)
	midHip := midpoint(toVec(landmarks[LeftHip]), toVec(landmarks[RightHip]))
	metrics["spinal_angle"] = c.angleFromVertical(midShoulder, midHip)

	// Вынос головы: смещение носа от середины плеч по оси глубины
	// (мировые координаты) или по вертикали (нормализованные)
	nose := toVec(landmarks[Nose])
	headOffset := sub(nose, midShoulder)
	if useWorld {
		metrics["head_forward_offset"] = headOffset.Z
	} else {
		metrics["head_forward_offset"] = headOffset.Y
	}

	// Ширина стойки: расстояние между лодыжками к ширине бедер
	ankleWidth := norm(sub(toVec(landmarks[LeftAnkle]), toVec(landmarks[RightAnkle])))
	hipWidth := norm(sub(toVec(landmarks[LeftHip]), toVec(landmarks[RightHip]))) + eps
	metrics["stance_width_ratio"] = ankleWidth / hipWidth

	return metrics
}

package geo

import "math"

// Point точка в координатах кадра
type Point struct {
	X float64
	Y float64
}

// Box прямоугольник, заданный углами (X1, Y1) - левый верхний, (X2, Y2) - правый нижний
type Box struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

// CornerBox переводит центр и размеры детекции в прямоугольник по углам
func CornerBox(x, y, w, h float64) Box {
	return Box{
		X1: x - w/2,
		Y1: y - h/2,
		X2: x + w/2,
		Y2: y + h/2,
	}
}

// Area возвращает площадь прямоугольника; для вырожденных прямоугольников 0
func (b Box) Area() float64 {
	w := b.X2 - b.X1
	h := b.Y2 - b.Y1
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// IoU вычисляет отношение площади пересечения к площади объединения.
// Возвращает 0, если прямоугольники не пересекаются или один из них имеет нулевую площадь.
func IoU(a, b Box) float64 {
	areaA := a.Area()
	areaB := b.Area()
	if areaA == 0 || areaB == 0 {
		return 0
	}

	overlapW := math.Min(a.X2, b.X2) - math.Max(a.X1, b.X1)
	overlapH := math.Min(a.Y2, b.Y2) - math.Max(a.Y1, b.Y1)
	if overlapW <= 0 || overlapH <= 0 {
		return 0
	}

	intersection := overlapW * overlapH
	union := areaA + areaB - intersection
	if union <= 0 {
		return 0
	}

	// Защита от погрешностей округления
	return math.Min(intersection/union, 1)
}

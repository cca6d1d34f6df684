package history

import "math"

// Downsample reduces src to at most maxPoints by decimation.
// Destination-based: reuses dst if it has sufficient capacity, otherwise allocates new.
// Returns the destination slice (may be dst if reused, or a new slice if dst was too small).
func Downsample[T any](dst, src []T, maxPoints int) []T {
	if maxPoints <= 0 || len(src) <= maxPoints {
		if cap(dst) >= len(src) {
			dst = dst[:len(src)]
			copy(dst, src)
			return dst
		}
		result := make([]T, len(src))
		copy(result, src)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]T, 0, maxPoints)
	}

	step := float64(len(src)) / float64(maxPoints)
	for i := range maxPoints {
		idx := int(float64(i) * step)
		if idx < len(src) {
			dst = append(dst, src[idx])
		}
	}

	return dst
}

// MovingAverage smooths pts with a trailing window of n points. The first
// n-1 outputs average over the points available so far. Non-finite values
// are left out of every window; a window without finite values yields NaN.
// Timestamps are kept. dst must not share storage with pts.
func MovingAverage(dst, pts []Point, n int) []Point {
	if cap(dst) >= len(pts) {
		dst = dst[:len(pts)]
	} else {
		dst = make([]Point, len(pts))
	}
	if n <= 1 {
		copy(dst, pts)
		return dst
	}

	var (
		sum   float64
		count int
	)
	for i, p := range pts {
		if Finite(p.Value) {
			sum += p.Value
			count++
		}
		if i >= n && Finite(pts[i-n].Value) {
			sum -= pts[i-n].Value
			count--
		}
		avg := math.NaN()
		if count > 0 {
			avg = sum / float64(count)
		}
		dst[i] = Point{Time: p.Time, Value: avg}
	}
	return dst
}

// Package geometry answers overlap queries between rectangle sets.
package geometry

import "highlight-sync/internal/domain"

// Intersects reports whether a and b share a positive-area region.
// Rects that only touch along an edge or at a corner do not intersect.
func Intersects(a, b domain.Rect) bool {
	a, b = a.Normalize(), b.Normalize()
	return min(a.Right, b.Right) > max(a.Left, b.Left) &&
		min(a.Bottom, b.Bottom) > max(a.Top, b.Top)
}

func Overlaps(a, b domain.RectSet) bool {
	for _, left := range a {
		for _, right := range b {
			if Intersects(left, right) {
				return true
			}
		}
	}
	return false
}

// FindOverlapping returns, in input order, every annotation whose rects overlap candidate.
func FindOverlapping(candidate domain.RectSet, existing []*domain.Annotation) []*domain.Annotation {
	var result []*domain.Annotation
	for _, a := range existing {
		if a == nil {
			continue
		}
		if Overlaps(candidate, a.Rects) {
			result = append(result, a)
		}
	}
	return result
}

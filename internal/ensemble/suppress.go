package ensemble

import (
	"sort"

	"github.com/tidwall/rtree"

	"github.com/ironsheep/docfind/internal/geometry"
)

// SuppressOptions holds the thresholds of the suppression cascade. All
// thresholds must be in (0, 1].
type SuppressOptions struct {
	// Containment drops a box when at least this share of it lies inside
	// a stronger kept box.
	Containment float64 `yaml:"containment" json:"containment"`

	// DedupIoU drops near-duplicates of a stronger kept box.
	DedupIoU float64 `yaml:"dedup_iou" json:"dedup_iou"`

	// NMSIoU is the final non-maximum suppression overlap.
	NMSIoU float64 `yaml:"nms_iou" json:"nms_iou"`

	// TopK caps the output. Zero or less means no cap.
	TopK int `yaml:"top_k" json:"top_k"`
}

// DefaultSuppressOptions returns 0.90 containment, 0.70 dedup IoU, 0.55 NMS
// IoU and a top-3 cap.
func DefaultSuppressOptions() SuppressOptions {
	return SuppressOptions{Containment: 0.90, DedupIoU: 0.70, NMSIoU: 0.55, TopK: 3}
}

// Suppress reduces a candidate pool to at most opts.TopK boxes, highest
// confidence first. Boxes are selected, never merged or reshaped.
func Suppress(pool []geometry.Box, opts SuppressOptions) []geometry.Box {
	kept := SuppressContained(pool, opts.Containment)
	kept = DedupHighIoU(kept, opts.DedupIoU)
	return NMS(kept, opts.NMSIoU, opts.TopK)
}

// SuppressContained drops boxes that lie mostly inside a stronger box, even
// when their IoU is small.
func SuppressContained(boxes []geometry.Box, threshold float64) []geometry.Box {
	return greedy(boxes, 0, func(cand, kept geometry.Box) bool {
		return geometry.ContainmentRatio(cand, kept) >= threshold
	})
}

// DedupHighIoU collapses near-identical boxes to the strongest instance.
func DedupHighIoU(boxes []geometry.Box, threshold float64) []geometry.Box {
	return greedy(boxes, 0, func(cand, kept geometry.Box) bool {
		return geometry.IoU(cand, kept) >= threshold
	})
}

// NMS is greedy non-maximum suppression keeping at most topK boxes.
func NMS(boxes []geometry.Box, threshold float64, topK int) []geometry.Box {
	return greedy(boxes, topK, func(cand, kept geometry.Box) bool {
		return geometry.IoU(cand, kept) >= threshold
	})
}

// greedy visits boxes by descending confidence (ties keep input order) and
// keeps each one that no already-kept box suppresses. Kept boxes are
// indexed in an R-tree so a candidate is only compared with kept boxes it
// touches; drop must therefore be false for disjoint boxes.
func greedy(boxes []geometry.Box, limit int, drop func(cand, kept geometry.Box) bool) []geometry.Box {
	ranked := append([]geometry.Box(nil), boxes...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	var index rtree.RTreeG[int]
	kept := make([]geometry.Box, 0, len(ranked))
	for _, b := range ranked {
		if limit > 0 && len(kept) >= limit {
			break
		}
		lo, hi := corners(b)
		suppressed := false
		index.Search(lo, hi, func(_, _ [2]float64, i int) bool {
			if drop(b, kept[i]) {
				suppressed = true
				return false
			}
			return true
		})
		if suppressed {
			continue
		}
		index.Insert(lo, hi, len(kept))
		kept = append(kept, b)
	}
	return kept
}

func corners(b geometry.Box) (lo, hi [2]float64) {
	return [2]float64{float64(b.X1), float64(b.Y1)}, [2]float64{float64(b.X2), float64(b.Y2)}
}

package ensemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/docfind/internal/geometry"
)

func box(x1, y1, x2, y2 int, conf float64) geometry.Box {
	return geometry.Box{X1: x1, Y1: y1, X2: x2, Y2: y2, Confidence: conf, Source: geometry.SourceContour}
}

func TestSuppressContained(t *testing.T) {
	big := box(0, 0, 200, 200, 0.9)
	small := box(150, 50, 202, 90, 0.5) // 96% inside big

	require.Greater(t, geometry.ContainmentRatio(small, big), 0.95)
	require.Less(t, geometry.IoU(small, big), 0.1)

	assert.Equal(t, []geometry.Box{big}, SuppressContained([]geometry.Box{small, big}, 0.90))

	// Containment is asymmetric: a stronger small box does not remove the
	// big one.
	strongSmall := small
	strongSmall.Confidence = 0.95
	assert.Equal(t, []geometry.Box{strongSmall, big}, SuppressContained([]geometry.Box{big, strongSmall}, 0.90))
}

func TestDedupHighIoU(t *testing.T) {
	a := box(0, 0, 100, 100, 0.8)
	b := box(5, 5, 105, 105, 0.7)   // IoU ~0.82
	c := box(40, 0, 140, 100, 0.75) // IoU with a ~0.43

	got := DedupHighIoU([]geometry.Box{b, c, a}, 0.70)
	assert.Equal(t, []geometry.Box{a, c}, got)
}

func TestNMS_TopK(t *testing.T) {
	var pool []geometry.Box
	for i := 0; i < 5; i++ {
		pool = append(pool, box(i*200, 0, i*200+100, 100, 0.5+0.1*float64(i)))
	}

	got := NMS(pool, 0.55, 3)
	require.Len(t, got, 3)
	assert.Equal(t, []geometry.Box{pool[4], pool[3], pool[2]}, got)

	assert.Len(t, NMS(pool, 0.55, 0), 5, "zero topK means no cap")
}

func TestSuppress_TieBreakByPoolOrder(t *testing.T) {
	first := box(0, 0, 100, 100, 0.6)
	first.Source = geometry.SourceTextish
	second := box(2, 2, 102, 102, 0.6)
	second.Source = geometry.SourceLines

	opts := DefaultSuppressOptions()
	assert.Equal(t, []geometry.Box{first}, Suppress([]geometry.Box{first, second}, opts))
	assert.Equal(t, []geometry.Box{second}, Suppress([]geometry.Box{second, first}, opts))
}

func TestSuppress_Cascade(t *testing.T) {
	doc := box(100, 100, 500, 400, 0.8)
	nested := box(200, 200, 260, 240, 0.7)  // inside doc
	dup := box(105, 102, 498, 405, 0.6)     // near-duplicate of doc
	overlap := box(300, 100, 700, 400, 0.5) // IoU with doc ~0.33
	far := box(800, 500, 900, 600, 0.4)

	got := Suppress([]geometry.Box{far, overlap, dup, nested, doc}, DefaultSuppressOptions())
	assert.Equal(t, []geometry.Box{doc, overlap, far}, got)

	for i := range got {
		for j := i + 1; j < len(got); j++ {
			assert.Less(t, geometry.IoU(got[i], got[j]), 0.55)
		}
	}
}

func TestSuppress_Empty(t *testing.T) {
	assert.Empty(t, Suppress(nil, DefaultSuppressOptions()))
}

func TestSuppress_DoesNotMutateInput(t *testing.T) {
	pool := []geometry.Box{box(0, 0, 10, 10, 0.1), box(20, 0, 30, 10, 0.9)}
	before := append([]geometry.Box(nil), pool...)
	Suppress(pool, DefaultSuppressOptions())
	assert.Equal(t, before, pool)
}

func TestEmit(t *testing.T) {
	boxes := []geometry.Box{
		box(100, 50, 300, 150, 1.3),
		box(0, 0, 400, 200, -0.2),
	}

	got := Emit(boxes, 400, 200)
	require.Len(t, got, 2)
	assert.Equal(t, [4]float64{0.25, 0.25, 0.75, 0.75}, got[0].BBoxXYXY)
	assert.Equal(t, 1.0, got[0].Confidence)
	assert.Equal(t, [4]float64{0, 0, 1, 1}, got[1].BBoxXYXY)
	assert.Equal(t, 0.0, got[1].Confidence)
	assert.Nil(t, got[0].Attributes)
}

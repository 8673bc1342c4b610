package pose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swdee/go-buildverify/observation"
)

type candidate struct {
	cx, cy, w, h, conf float32
	// kpOffset shifts every keypoint of the candidate
	kpOffset float32
}

// tensor lays candidates out as the [rows, anchors] YOLOv8-pose output
func tensor(d *Decoder, cands []candidate) []float32 {

	rows := d.Rows()
	anchors := len(cands)
	out := make([]float32, rows*anchors)

	for a, c := range cands {
		out[0*anchors+a] = c.cx
		out[1*anchors+a] = c.cy
		out[2*anchors+a] = c.w
		out[3*anchors+a] = c.h
		out[4*anchors+a] = c.conf

		for j := 0; j < d.Params.KeyPointsNumber; j++ {
			row := boxAttrs + j*3
			out[row*anchors+a] = c.kpOffset + float32(j)
			out[(row+1)*anchors+a] = c.kpOffset + 140 + float32(j)
			out[(row+2)*anchors+a] = 0.9
		}
	}

	return out
}

func TestDecode(t *testing.T) {
	d := NewDecoder(COCOParams())
	lb := NewLetterbox(1280, 720, 640, 640)

	cands := []candidate{
		{cx: 200, cy: 300, w: 100, h: 200, conf: 0.7, kpOffset: 150},
		// overlaps the first with higher confidence and wins
		{cx: 202, cy: 300, w: 100, h: 200, conf: 0.9, kpOffset: 160},
		// too weak
		{cx: 500, cy: 300, w: 80, h: 200, conf: 0.3},
		{cx: 450, cy: 300, w: 80, h: 200, conf: 0.6, kpOffset: 410},
	}

	bodies, err := d.Decode(tensor(d, cands), len(cands), lb)
	require.NoError(t, err)
	require.Len(t, bodies, 2)

	first := bodies[0]
	// (202-50)/0.5, (300-100-140)/0.5
	assert.Equal(t, observation.BoxRect{Left: 304, Top: 120, Right: 504, Bottom: 520}, first.Box)

	nose := first.KeyPoint(observation.Nose)
	assert.InDelta(t, 320.0, nose.X, 1e-3)
	assert.InDelta(t, 320.0, nose.Y, 1e-3)
	assert.InDelta(t, 0.9, nose.Score, 1e-6)

	ankle := first.KeyPoint(observation.RightAnkle)
	assert.InDelta(t, 352.0, ankle.X, 1e-3)

	assert.InDelta(t, 820.0, bodies[1].KeyPoint(observation.Nose).X, 1e-3)
	assert.NotEqual(t, bodies[0].ID, bodies[1].ID)
}

func TestDecodeClampsToImage(t *testing.T) {
	d := NewDecoder(COCOParams())
	lb := NewLetterbox(1280, 720, 640, 640)

	cands := []candidate{{cx: 10, cy: 150, w: 60, h: 40, conf: 0.8}}

	bodies, err := d.Decode(tensor(d, cands), 1, lb)
	require.NoError(t, err)
	require.Len(t, bodies, 1)

	assert.Equal(t, 0, bodies[0].Box.Left)
	assert.Equal(t, 0, bodies[0].Box.Top)
}

func TestDecodeMaxObjects(t *testing.T) {
	p := COCOParams()
	p.MaxObjectNumber = 1
	d := NewDecoder(p)

	cands := []candidate{
		{cx: 100, cy: 300, w: 50, h: 100, conf: 0.6},
		{cx: 400, cy: 300, w: 50, h: 100, conf: 0.8, kpOffset: 400},
	}

	bodies, err := d.Decode(tensor(d, cands), len(cands), NewLetterbox(640, 640, 640, 640))
	require.NoError(t, err)
	require.Len(t, bodies, 1)
	// highest confidence first
	assert.InDelta(t, 400.0, bodies[0].KeyPoint(observation.Nose).X, 1e-3)
}

func TestDecodeErrors(t *testing.T) {
	d := NewDecoder(COCOParams())

	_, err := d.Decode(make([]float32, 10), 8400, NewLetterbox(640, 640, 640, 640))
	assert.Error(t, err)

	bodies, err := d.Decode(make([]float32, d.Rows()*4), 4, NewLetterbox(640, 640, 640, 640))
	assert.NoError(t, err)
	assert.Empty(t, bodies)
}

func TestCalculateOverlap(t *testing.T) {
	assert.InDelta(t, 1.0, calculateOverlap(0, 0, 9, 9, 0, 0, 9, 9), 1e-6)
	assert.Zero(t, calculateOverlap(0, 0, 9, 9, 20, 20, 29, 29))
}

package render

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/swdee/go-buildverify/observation"
	"github.com/swdee/go-buildverify/posture"
)

var (
	// skeleton defines the pose skeleton points to draw lines between.  The numbers
	// are paired and one based, so (16,14) means draw line from left ankle to
	// left knee.
	skeleton = [38]int{16, 14, 14, 12, 17, 15, 15, 13, 12, 13, 6, 12, 7, 13, 6, 7, 6, 8,
		7, 9, 8, 10, 9, 11, 2, 3, 1, 2, 1, 3, 2, 4, 3, 5, 4, 6, 5, 7}
)

func kpPoint(kp observation.KeyPoint) image.Point {
	return image.Pt(int(kp.X), int(kp.Y))
}

// PoseKeyPoints renders the skeleton of each body
func PoseKeyPoints(img *gocv.Mat, bodies []observation.Body, lineThickness int) {

	for _, body := range bodies {

		kps := body.KeyPoints()

		// draw skeleton lines
		for j := 0; j < len(skeleton)/2; j++ {
			p1 := kpPoint(kps[skeleton[2*j]-1])
			p2 := kpPoint(kps[skeleton[2*j+1]-1])

			gocv.Line(img, p1, p2, limbColors[j], lineThickness)
		}

		// draw circles at skeleton joints
		for j := 0; j < observation.KeyPointsNumber; j++ {
			gocv.Circle(img, kpPoint(kps[j]), 3, keyPointColors[j], -1)
		}
	}
}

// PostureChecks draws the shoulder, leg and ankle lines of a body colored by
// whether each posture check passed
func PostureChecks(img *gocv.Mat, body observation.Body, shoulders, legs, ankles bool) {

	kp := func(p observation.Part) image.Point {
		return kpPoint(body.KeyPoint(p))
	}

	gocv.Line(img, kp(observation.LeftShoulder), kp(observation.RightShoulder), statusColor(shoulders), 2)

	gocv.Line(img, kp(observation.LeftHip), kp(observation.LeftKnee), statusColor(legs), 2)
	gocv.Line(img, kp(observation.LeftKnee), kp(observation.LeftAnkle), statusColor(legs), 2)
	gocv.Line(img, kp(observation.RightHip), kp(observation.RightKnee), statusColor(legs), 2)
	gocv.Line(img, kp(observation.RightKnee), kp(observation.RightAnkle), statusColor(legs), 2)

	gocv.Line(img, kp(observation.LeftAnkle), kp(observation.RightAnkle), statusColor(ankles), 2)
}

// HeadLine draws the mid eye to nose line extended down to the shoulder line
// and writes the head angle beside it
func HeadLine(img *gocv.Mat, body observation.Body, angle float64, firm bool, font Font) {

	from, to := posture.HeadLine(body)
	clr := statusColor(firm)

	gocv.Line(img, vecPoint(from), vecPoint(to), clr, 1)

	font.Color = clr
	Text(img, fmt.Sprintf("%.1fdeg", angle), vecPoint(to).Add(image.Pt(font.LeftPad, 0)), font)
}

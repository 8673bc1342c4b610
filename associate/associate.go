// Package associate pairs detected faces to detected bodies by checking which
// face box contains a body's nose keypoint.
package associate

import (
	"github.com/swdee/go-buildverify/observation"
)

// Pop finds the first face whose box contains the nose of the body.  The
// matched face is removed from the returned slice so it can not be paired to
// another body.  The input slice is not modified.
func Pop(faces []observation.Face, body observation.Body) (observation.Face, []observation.Face, bool) {

	nose := body.Point(observation.Nose)

	for i, f := range faces {
		if !f.Box.Contains(nose) {
			continue
		}

		rest := make([]observation.Face, 0, len(faces)-1)
		rest = append(rest, faces[:i]...)
		rest = append(rest, faces[i+1:]...)

		return f, rest, true
	}

	return observation.Face{}, faces, false
}

// Pair is a body with the face that was associated to it
type Pair struct {
	Body observation.Body
	Face observation.Face
}

// Pairs associates bodies to faces in body order.  Each face is used at most
// once, bodies that find no face are returned as unmatched along with the
// faces left over.
func Pairs(bodies []observation.Body, faces []observation.Face) ([]Pair, []observation.Body, []observation.Face) {

	var pairs []Pair
	var unmatched []observation.Body

	for _, b := range bodies {

		if len(faces) == 0 {
			unmatched = append(unmatched, b)
			continue
		}

		f, rest, ok := Pop(faces, b)

		if !ok {
			unmatched = append(unmatched, b)
			continue
		}

		faces = rest
		pairs = append(pairs, Pair{Body: b, Face: f})
	}

	return pairs, unmatched, faces
}

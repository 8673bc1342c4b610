package facerec

import (
	"fmt"
	"log"

	"github.com/Kagami/go-face"
	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"

	"github.com/swdee/go-buildverify/observation"
)

// Recognizer finds faces in camera frames and labels them from a gallery
type Recognizer struct {
	enc       Encoder
	gallery   *Gallery
	tolerance float64
	closer    func()
}

// Option configures NewRecognizer
type Option func(*options)

type options struct {
	cnn bool
}

// WithCNN detects faces in frames with the dlib CNN detector instead of the
// HOG detector.  The gallery is always encoded with the HOG detector.
func WithCNN(cnn bool) Option {
	return func(o *options) {
		o.cnn = cnn
	}
}

// cnnDetector is the part of the go-face recognizer running the CNN detector
type cnnDetector interface {
	RecognizeCNN(imgData []byte) ([]face.Face, error)
}

// cnnEncoder adapts the CNN detector to an Encoder
type cnnEncoder struct {
	det cnnDetector
}

func (c cnnEncoder) Recognize(imgData []byte) ([]face.Face, error) {
	return c.det.RecognizeCNN(imgData)
}

// NewRecognizer loads the dlib models from modelsDir and the known faces
// gallery from facesDir
func NewRecognizer(modelsDir, facesDir string, tolerance float64, opts ...Option) (*Recognizer, error) {

	var o options

	for _, opt := range opts {
		opt(&o)
	}

	rec, err := face.NewRecognizer(modelsDir)

	if err != nil {
		return nil, fmt.Errorf("error loading face models: %w", err)
	}

	gallery, err := LoadGallery(rec, facesDir)

	if err != nil {
		rec.Close()
		return nil, err
	}

	var enc Encoder = rec

	if o.cnn {
		enc = cnnEncoder{det: rec}
	}

	r := New(enc, gallery, tolerance)
	r.closer = func() { rec.Close() }

	return r, nil
}

// New returns a Recognizer using the given encoder and gallery
func New(enc Encoder, gallery *Gallery, tolerance float64) *Recognizer {
	return &Recognizer{
		enc:       enc,
		gallery:   gallery,
		tolerance: tolerance,
	}
}

// Gallery returns the known faces gallery
func (r *Recognizer) Gallery() *Gallery {
	return r.gallery
}

// Detect finds and labels the faces in a BGR frame
func (r *Recognizer) Detect(img gocv.Mat) ([]observation.Face, error) {

	if img.Empty() {
		return nil, nil
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)

	if err != nil {
		return nil, fmt.Errorf("error encoding frame: %w", err)
	}
	defer buf.Close()

	detected, err := r.enc.Recognize(buf.GetBytes())

	if err != nil {
		return nil, fmt.Errorf("error recognizing faces: %w", err)
	}

	return r.Identify(detected)
}

// Identify labels detected faces and builds their landmark tables.  Labels
// and landmarks are worked out concurrently over the same detections.
func (r *Recognizer) Identify(detected []face.Face) ([]observation.Face, error) {

	if len(detected) == 0 {
		return nil, nil
	}

	labels := make([]string, len(detected))
	distances := make([]float64, len(detected))
	landmarks := make([]observation.Landmarks, len(detected))
	lmErrs := make([]error, len(detected))

	var g errgroup.Group

	g.Go(func() error {
		for i, d := range detected {
			labels[i], distances[i] = r.gallery.Classify(d.Descriptor, r.tolerance, observation.UnknownLabel)
		}
		return nil
	})

	g.Go(func() error {
		for i, d := range detected {
			landmarks[i], lmErrs[i] = observation.LandmarksFromShape68(d.Shapes)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	faces := make([]observation.Face, 0, len(detected))

	for i, d := range detected {

		if lmErrs[i] != nil {
			log.Printf("dropping face at %v: %v\n", d.Rectangle, lmErrs[i])
			continue
		}

		rect := d.Rectangle
		box := observation.FaceBox(rect.Min.Y, rect.Max.X, rect.Max.Y, rect.Min.X)

		f, err := observation.NewFace(box, landmarks[i], labels[i], distances[i])

		if err != nil {
			log.Printf("dropping face at %v: %v\n", d.Rectangle, err)
			continue
		}

		faces = append(faces, f)
	}

	return faces, nil
}

// Close releases the dlib models
func (r *Recognizer) Close() error {

	if r.closer != nil {
		r.closer()
	}

	return nil
}

/*
Package facerec recognizes faces against a gallery of known people using the
dlib models wrapped by go-face.

The models directory must hold dlib_face_recognition_resnet_model_v1.dat,
mmod_human_face_detector.dat and a shape predictor under the file name
go-face loads, shape_predictor_5_face_landmarks.dat.  Build estimation needs
the chin and lip landmarks, so copy the 68 point predictor
shape_predictor_68_face_landmarks.dat to that file name.  Faces returned with
fewer than 68 shape points are dropped.
*/
package facerec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Kagami/go-face"
	"golang.org/x/image/draw"
)

const (
	// MaxGalleryWidth is the width gallery images are scaled down to before
	// their descriptor is computed
	MaxGalleryWidth = 420
	// DefaultTolerance is the largest descriptor distance considered a match
	DefaultTolerance = 0.6
)

// Encoder detects faces in a JPEG image and computes their descriptors
type Encoder interface {
	Recognize(imgData []byte) ([]face.Face, error)
}

// sample is one gallery descriptor and its label
type sample struct {
	label      string
	descriptor face.Descriptor
}

// Gallery holds the descriptors of known people
type Gallery struct {
	samples []sample
}

// NewGallery returns a gallery from descriptors and their labels
func NewGallery(labels []string, descriptors []face.Descriptor) (*Gallery, error) {

	if len(labels) != len(descriptors) {
		return nil, fmt.Errorf("gallery has %d labels for %d descriptors", len(labels), len(descriptors))
	}

	g := &Gallery{}

	for i := range labels {
		g.samples = append(g.samples, sample{label: labels[i], descriptor: descriptors[i]})
	}

	return g, nil
}

// LoadGallery reads the known faces directory, which holds one sub directory
// per label with one or more images of that person.  Only the first face
// found in each image is used, images with no face are skipped.
func LoadGallery(enc Encoder, dir string) (*Gallery, error) {

	entries, err := os.ReadDir(dir)

	if err != nil {
		return nil, fmt.Errorf("error reading known faces directory: %w", err)
	}

	g := &Gallery{}

	for _, entry := range entries {

		if !entry.IsDir() {
			continue
		}

		label := entry.Name()
		log.Printf("Faces for %s:\n", label)

		files, err := listImages(filepath.Join(dir, label))

		if err != nil {
			return nil, err
		}

		for _, file := range files {

			data, err := loadImage(file)

			if err != nil {
				log.Printf("\tskipping %s: %v\n", file, err)
				continue
			}

			faces, err := enc.Recognize(data)

			if err != nil {
				return nil, fmt.Errorf("error encoding %s: %w", file, err)
			}

			if len(faces) == 0 {
				log.Printf("\tskipping %s: no face found\n", file)
				continue
			}

			g.samples = append(g.samples, sample{label: label, descriptor: faces[0].Descriptor})
			log.Printf("\t%s\n", file)
		}
	}

	return g, nil
}

// listImages returns the image files in dir in name order
func listImages(dir string) ([]string, error) {

	entries, err := os.ReadDir(dir)

	if err != nil {
		return nil, fmt.Errorf("error reading faces of %s: %w", filepath.Base(dir), err)
	}

	var files []string

	for _, e := range entries {

		if e.IsDir() {
			continue
		}

		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}

	sort.Strings(files)

	return files, nil
}

// loadImage decodes an image file, scales it down to MaxGalleryWidth when
// wider and returns it JPEG encoded
func loadImage(path string) ([]byte, error) {

	f, err := os.Open(path)

	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)

	if err != nil {
		return nil, fmt.Errorf("error decoding image: %w", err)
	}

	img = downscale(img, MaxGalleryWidth)

	var buf bytes.Buffer

	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("error encoding image: %w", err)
	}

	return buf.Bytes(), nil
}

// downscale resizes img to maxWidth keeping its aspect when it is wider
func downscale(img image.Image, maxWidth int) image.Image {

	b := img.Bounds()

	if b.Dx() <= maxWidth {
		return img
	}

	height := int(math.Round(float64(b.Dy()) * float64(maxWidth) / float64(b.Dx())))
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))

	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	return dst
}

// Len returns the number of gallery samples
func (g *Gallery) Len() int {
	return len(g.samples)
}

// Labels returns the distinct labels of the gallery in load order
func (g *Gallery) Labels() []string {

	seen := make(map[string]bool)
	var labels []string

	for _, s := range g.samples {
		if !seen[s.label] {
			seen[s.label] = true
			labels = append(labels, s.label)
		}
	}

	return labels
}

// Classify returns the label of the nearest gallery sample and its distance.
// When the nearest sample is further than tolerance the label is unknown,
// the distance is always that of the nearest sample.
func (g *Gallery) Classify(d face.Descriptor, tolerance float64, unknown string) (string, float64) {

	best := -1
	bestDist := math.Inf(1)

	for i, s := range g.samples {

		dist := math.Sqrt(face.SquaredEuclideanDistance(s.descriptor, d))

		if dist < bestDist {
			best = i
			bestDist = dist
		}
	}

	if best == -1 || bestDist > tolerance {
		return unknown, bestDist
	}

	return g.samples[best].label, bestDist
}

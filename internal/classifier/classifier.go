
package classifier

import (
	"errors"
	"fmt"

	"modelcat/internal/models"
)

// Bucket selects annotations by which metadata shape they carry.
type Bucket string

const (
	All          Bucket = "all"
	JSONResponse Bucket = "json_response"
	Microdata    Bucket = Bucket(models.Microdata)
	JSONLD       Bucket = Bucket(models.JSONLD)
	OpenGraph    Bucket = Bucket(models.OpenGraph)
	Microformat  Bucket = Bucket(models.Microformat)
	RDFa         Bucket = Bucket(models.RDFa)
	MetaContent  Bucket = "meta_content"
)

var ErrInvalidBucket = errors.New("invalid bucket")

var buckets = []Bucket{All, JSONResponse, Microdata, JSONLD, OpenGraph, Microformat, RDFa, MetaContent}

// Buckets lists every valid bucket.
func Buckets() []Bucket { return append([]Bucket(nil), buckets...) }

func ParseBucket(s string) (Bucket, error) {
	for _, b := range buckets {
		if string(b) == s {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidBucket, s)
}

type Classifier struct{}

func New() *Classifier { return &Classifier{} }

// Classify keeps the records matching bucket, in their original order. All
// returns records itself.
func (c *Classifier) Classify(records []models.Annotation, bucket Bucket) ([]models.Annotation, error) {
	if bucket == All {
		return records, nil
	}
	match, err := predicate(bucket)
	if err != nil {
		return nil, err
	}
	out := []models.Annotation{}
	for _, r := range records {
		if match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Summarize counts how many records fall in each bucket.
func (c *Classifier) Summarize(records []models.Annotation) map[Bucket]int {
	counts := make(map[Bucket]int, len(buckets))
	counts[All] = len(records)
	for _, b := range buckets[1:] {
		match, _ := predicate(b)
		for _, r := range records {
			if match(r) {
				counts[b]++
			}
		}
	}
	return counts
}

func predicate(b Bucket) (func(models.Annotation) bool, error) {
	switch b {
	case All:
		return func(models.Annotation) bool { return true }, nil
	case JSONResponse:
		return func(a models.Annotation) bool { return a.JSONResponse != nil }, nil
	case MetaContent:
		return func(a models.Annotation) bool { return a.MetaContent != nil }, nil
	case Microdata, JSONLD, OpenGraph, Microformat, RDFa:
		v := models.Vocabulary(b)
		return func(a models.Annotation) bool {
			return a.StructuredData != nil && len(a.StructuredData[v]) > 0
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidBucket, string(b))
}

package model

import (
	"errors"
	"strconv"
)

// ErrUnknownVariant is returned by ParseVariant for sizes without a thumbnail.
var ErrUnknownVariant = errors.New("unknown variant size")

// Variant selects either the original content of an image or one of its thumbnails.
// The zero value is the original.
type Variant int

const (
	VariantOriginal Variant = 0
	Variant500      Variant = 500
	Variant250      Variant = 250
	Variant100      Variant = 100
)

// ThumbnailVariants lists every size the thumbnail worker renders.
var ThumbnailVariants = []Variant{Variant500, Variant250, Variant100}

// ParseVariant maps the "size" query value to a Variant.
// An empty string and "0" both mean the original.
func ParseVariant(s string) (Variant, error) {
	if s == "" {
		return VariantOriginal, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return VariantOriginal, ErrUnknownVariant
	}
	if n == int(VariantOriginal) {
		return VariantOriginal, nil
	}
	for _, v := range ThumbnailVariants {
		if int(v) == n {
			return v, nil
		}
	}
	return VariantOriginal, ErrUnknownVariant
}

// Key returns the blob key holding this variant of the blob stored at localPath.
func (v Variant) Key(localPath string) string {
	if v == VariantOriginal {
		return localPath
	}
	return localPath + "_" + strconv.Itoa(int(v))
}

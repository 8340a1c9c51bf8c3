// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package session

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
)

// Profile photo limits.
const (
	MaxPhotoBytes  = 5 << 20
	MaxPhotoPixels = 25_000_000
	MaxPhotoSide   = 300
	PhotoQuality   = 70
	photoURLPrefix = "data:image/jpeg;base64,"
)

// ErrInvalidPhoto is returned for empty, oversized or undecodable images.
// Oversized covers both the encoded size and the decoded pixel count.
var ErrInvalidPhoto = errors.New("invalid profile photo")

// EncodePhoto decodes a JPEG, PNG, GIF or WebP image, fits it inside
// MaxPhotoSide x MaxPhotoSide keeping the aspect ratio, and returns it as
// a JPEG data URL. Images already small enough are re-encoded unscaled.
func EncodePhoto(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty", ErrInvalidPhoto)
	}
	if len(data) > MaxPhotoBytes {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidPhoto, len(data), MaxPhotoBytes)
	}

	// Decoders allocate from the header dimensions, so check them first.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPhoto, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPhotoPixels {
		return "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidPhoto, cfg.Width, cfg.Height, MaxPhotoPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPhoto, err)
	}

	img := fit(src, MaxPhotoSide)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: PhotoQuality}); err != nil {
		return "", fmt.Errorf("encode photo: %w", err)
	}
	return photoURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// fit scales src down so neither side exceeds limit.
func fit(src image.Image, limit int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= limit && h <= limit {
		return src
	}

	nw, nh := limit, limit
	if w >= h {
		nh = max(1, h*limit/w)
	} else {
		nw = max(1, w*limit/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

package probe

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"strconv"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"imgbundle/pkg/fetch"
)

// ErrUnknownSize is returned when an SVG declares no usable size
var ErrUnknownSize = errors.New("image declares no intrinsic size")

// Dimensions reads the intrinsic pixel size from the start of an image.
// Raster formats are identified by their magic bytes; SVG by content type
// or by sniffing for an <svg> root.
func Dimensions(r *bufio.Reader, contentType string) (int, int, error) {
	if isSVG(r, contentType) {
		return svgDimensions(r)
	}

	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

func isSVG(r *bufio.Reader, contentType string) bool {
	if fetch.MediaType(contentType) == "image/svg+xml" {
		return true
	}
	head, _ := r.Peek(512)
	head = bytes.TrimSpace(bytes.ToLower(head))
	if bytes.HasPrefix(head, []byte("<svg")) {
		return true
	}
	return (bytes.HasPrefix(head, []byte("<?xml")) || bytes.HasPrefix(head, []byte("<!doctype svg"))) &&
		bytes.Contains(head, []byte("<svg"))
}

// svgDimensions reads width/height from the root element, falling back to
// the viewBox. One missing side is derived from the viewBox aspect ratio.
func svgDimensions(r io.Reader) (int, int, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false

	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, 0, errors.New("no <svg> element found")
			}
			return 0, 0, err
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "svg" {
			return 0, 0, errors.New("root element is not <svg>")
		}

		var width, height, vbW, vbH float64
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "width":
				width = parseLength(attr.Value)
			case "height":
				height = parseLength(attr.Value)
			case "viewBox":
				vbW, vbH = parseViewBox(attr.Value)
			}
		}

		switch {
		case width > 0 && height > 0:
		case width > 0 && vbW > 0 && vbH > 0:
			height = width * vbH / vbW
		case height > 0 && vbW > 0 && vbH > 0:
			width = height * vbW / vbH
		case vbW > 0 && vbH > 0:
			width, height = vbW, vbH
		default:
			return 0, 0, ErrUnknownSize
		}
		if !usableLength(width) || !usableLength(height) {
			return 0, 0, ErrUnknownSize
		}

		return int(math.Round(width)), int(math.Round(height)), nil
	}
}

// parseLength accepts unitless and px lengths; anything relative yields 0
func parseLength(v string) float64 {
	v = strings.TrimSpace(v)
	v = strings.TrimSuffix(v, "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || !usableLength(f) {
		return 0
	}
	return f
}

// usableLength rejects NaN, infinities and sizes past math.MaxInt32
func usableLength(f float64) bool {
	return f > 0 && f <= math.MaxInt32
}

func parseViewBox(v string) (float64, float64) {
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' || r == '\n' })
	if len(fields) != 4 {
		return 0, 0
	}
	w, err1 := strconv.ParseFloat(fields[2], 64)
	h, err2 := strconv.ParseFloat(fields[3], 64)
	if err1 != nil || err2 != nil || !usableLength(w) || !usableLength(h) {
		return 0, 0
	}
	return w, h
}

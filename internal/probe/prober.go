package probe

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"imgbundle/pkg/fetch"
	"imgbundle/pkg/models"
)

// Opener opens an image for reading; *fetch.Client implements it
type Opener interface {
	Open(ctx context.Context, url string) (*fetch.Stream, error)
}

// Prober reads the intrinsic size of an image and, optionally, its byte size
type Prober struct {
	opener      Opener
	measureSize bool
}

// NewProber creates a Prober. With measureSize the whole body is read so
// ByteSize is known; otherwise only the header is read and ByteSize stays 0.
func NewProber(opener Opener, measureSize bool) *Prober {
	return &Prober{opener: opener, measureSize: measureSize}
}

// Probe never returns a record with a different SourceURL. On error the
// record holds whatever was learned before the failure.
func (p *Prober) Probe(ctx context.Context, url string) (models.ImageRecord, error) {
	rec := models.ImageRecord{SourceURL: url}

	stream, err := p.opener.Open(ctx, url)
	if err != nil {
		return rec, err
	}
	defer stream.Close()

	counter := &countingReader{r: stream.Body}
	br := bufio.NewReaderSize(counter, 64<<10)

	w, h, decodeErr := Dimensions(br, stream.ContentType)
	if decodeErr == nil {
		rec.Width, rec.Height = w, h
	}

	if p.measureSize {
		if _, err := io.Copy(io.Discard, br); err != nil {
			return rec, fmt.Errorf("read %s: %w", url, err)
		}
		rec.ByteSize = counter.n
	}

	if decodeErr != nil {
		return rec, fmt.Errorf("decode %s: %w", url, decodeErr)
	}
	return rec, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

package resource

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/arloliu/resio/internal/types"
	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxSize is the default limit for ReadAll.
const DefaultMaxSize int64 = 16 * 1024 * 1024 // 16MB

// ReadAll reads the whole content of r. Content larger than limit bytes is
// rejected with types.ErrTooLarge; a limit <= 0 selects DefaultMaxSize.
func ReadAll(ctx context.Context, r types.Resource, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultMaxSize
	}

	rc, err := r.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	// Read one byte past limit to detect oversized content. At MaxInt64
	// there is no room for the extra byte and nothing can exceed the limit.
	n := limit
	if n < math.MaxInt64 {
		n++
	}

	data, err := io.ReadAll(io.LimitReader(rc, n))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.Description(), err)
	}

	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s: %w (%d bytes)", r.Description(), types.ErrTooLarge, limit)
	}

	return data, nil
}

// ContentType detects the MIME type of r from its leading bytes.
func ContentType(ctx context.Context, r types.Resource) (string, error) {
	rc, err := r.Open(ctx)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	mt, err := mimetype.DetectReader(rc)
	if err != nil {
		return "", fmt.Errorf("detect content type of %s: %w", r.Description(), err)
	}

	return mt.String(), nil
}

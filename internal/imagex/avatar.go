// Package imagex prepares profile images for upload: decode, scale down to
// a fixed box, re-encode as JPEG. The output for a given input is stable, so
// re-uploading the same picture overwrites the stored blob with equal bytes.
package imagex

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif" // register gif
	"image/jpeg"
	_ "image/png" // register png

	"github.com/dmitrijs2005/wellbeing/internal/common"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/image/draw"
)

const (
	AvatarSize    = 400
	AvatarQuality = 80
	ContentType   = "image/jpeg"
)

// NormalizeAvatar decodes a JPEG, PNG or GIF image, fits it into an
// AvatarSize square preserving aspect ratio and encodes it as JPEG.
// Images already inside the box are re-encoded without scaling.
func NormalizeAvatar(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidImage, err)
	}

	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: empty image", common.ErrInvalidImage)
	}

	w, h := fit(b.Dx(), b.Dy(), AvatarSize)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: AvatarQuality}); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return out.Bytes(), nil
}

// fit scales (w, h) down so that neither side exceeds max.
func fit(w, h, max int) (int, int) {
	if w <= max && h <= max {
		return w, h
	}
	if w >= h {
		nh := h * max / w
		if nh < 1 {
			nh = 1
		}
		return max, nh
	}
	nw := w * max / h
	if nw < 1 {
		nw = 1
	}
	return nw, max
}

// Fingerprint is the hex blake2b-256 digest of data.
func Fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

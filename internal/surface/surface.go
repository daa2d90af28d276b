package surface

import (
	"fmt"
	"image"

	"github.com/ironsheep/image-fit/internal/errs"
)

// Surface is a drawing buffer on loan from a Pool.
type Surface struct {
	pool     *Pool
	entry    *entry
	img      *image.NRGBA
	released bool
}

func newSurface(p *Pool, e *entry, w, h int) *Surface {
	return &Surface{
		pool:  p,
		entry: e,
		img:   e.img.SubImage(image.Rect(0, 0, w, h)).(*image.NRGBA),
	}
}

// Image returns the w x h view of the surface. It must not be used after
// Release.
func (s *Surface) Image() *image.NRGBA { return s.img }

// Width of the surface view.
func (s *Surface) Width() int { return s.img.Rect.Dx() }

// Height of the surface view.
func (s *Surface) Height() int { return s.img.Rect.Dy() }

// Release returns the surface to its pool.
func (s *Surface) Release() error {
	if s == nil || s.pool == nil {
		return errs.Invalidf("release of nil surface")
	}
	return s.pool.Release(s)
}

// AllocationError reports a surface the pool could not provide. It matches
// errs.ErrSurfaceAllocationFailed with errors.Is.
type AllocationError struct {
	Width, Height int
	Reason        string

	// Stats is the pool state at the time of the failure.
	Stats Stats
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("%s: %dx%d: %s", errs.ErrSurfaceAllocationFailed, e.Width, e.Height, e.Reason)
}

func (e *AllocationError) Unwrap() error { return errs.ErrSurfaceAllocationFailed }

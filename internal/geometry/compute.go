package geometry

import (
	"image"
	"math"

	"github.com/ironsheep/image-fit/internal/errs"
)

// round4 rounds v to 4 decimal places.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func floor4(v float64) int { return int(math.Floor(round4(v))) }

func ceil4(v float64) int { return int(math.Ceil(round4(v))) }

// Compute returns the plan for fitting a srcW x srcH source into a boxW x boxH
// box with the given policy, without padding or trimming.
func Compute(boxW, boxH, srcW, srcH int, policy Policy) (Plan, error) {
	if !policy.Valid() {
		return Plan{}, errs.Invalidf("no valid fit policy set (%s)", policy)
	}
	if boxW <= 0 || boxH <= 0 {
		return Plan{}, errs.Invalidf("box %dx%d must be positive", boxW, boxH)
	}
	if srcW <= 0 || srcH <= 0 {
		return Plan{}, errs.Invalidf("source %dx%d must be positive", srcW, srcH)
	}
	return compute(boxW, boxH, srcW, srcH, policy, false), nil
}

// PlanRequest validates req and computes its plan for a srcW x srcH source.
func PlanRequest(req Request, srcW, srcH int) (Plan, error) {
	if err := req.Validate(); err != nil {
		return Plan{}, err
	}
	boxW, boxH, err := req.Size.Resolve(srcW, srcH)
	if err != nil {
		return Plan{}, err
	}

	innerW := boxW - req.Padding.Horizontal()
	innerH := boxH - req.Padding.Vertical()
	if innerW <= 0 || innerH <= 0 {
		return Plan{}, errs.Invalidf("padding %+v leaves no room in a %dx%d box", req.Padding, boxW, boxH)
	}

	plan := compute(innerW, innerH, srcW, srcH, req.Policy, req.Trim)
	plan.Dst = plan.Dst.Add(image.Pt(req.Padding.Left, req.Padding.Top))
	plan.Canvas = plan.Canvas.Add(image.Pt(req.Padding.Horizontal(), req.Padding.Vertical()))
	return plan, nil
}

func compute(boxW, boxH, srcW, srcH int, policy Policy, trim bool) Plan {
	fw := float64(boxW) / float64(srcW)
	fh := float64(boxH) / float64(srcH)

	switch policy {
	case Cover:
		scale := math.Max(fw, fh)
		cropW := min(srcW, ceil4(float64(boxW)/scale))
		cropH := min(srcH, ceil4(float64(boxH)/scale))
		ox := floor4(float64(srcW-cropW) / 2)
		oy := floor4(float64(srcH-cropH) / 2)
		return Plan{
			Policy: policy,
			ScaleX: round4(scale),
			ScaleY: round4(scale),
			Src:    image.Rect(ox, oy, ox+cropW, oy+cropH),
			Dst:    image.Rect(0, 0, boxW, boxH),
			Canvas: image.Pt(boxW, boxH),
		}

	case Fill:
		return Plan{
			Policy: policy,
			ScaleX: round4(fw),
			ScaleY: round4(fh),
			Src:    image.Rect(0, 0, srcW, srcH),
			Dst:    image.Rect(0, 0, boxW, boxH),
			Canvas: image.Pt(boxW, boxH),
		}

	case Contain:
		scale := math.Min(1, math.Min(fw, fh))
		return centered(boxW, boxH, srcW, srcH, scale, policy, trim)

	case ShrinkOnly:
		scale := math.Min(1, math.Min(fw, fh))
		return centered(boxW, boxH, srcW, srcH, scale, policy, true)

	case GrowOnly:
		scale := math.Max(1, math.Min(fw, fh))
		return centered(boxW, boxH, srcW, srcH, scale, policy, true)
	}

	return Plan{}
}

// centered places the whole source, scaled uniformly, in the middle of the
// box. With shrinkCanvas the canvas is the scaled content itself.
func centered(boxW, boxH, srcW, srcH int, scale float64, policy Policy, shrinkCanvas bool) Plan {
	cw := max(1, floor4(float64(srcW)*scale))
	ch := max(1, floor4(float64(srcH)*scale))

	plan := Plan{
		Policy: policy,
		ScaleX: round4(scale),
		ScaleY: round4(scale),
		Src:    image.Rect(0, 0, srcW, srcH),
	}
	if shrinkCanvas {
		plan.Dst = image.Rect(0, 0, cw, ch)
		plan.Canvas = image.Pt(cw, ch)
		return plan
	}

	ox := floor4(float64(boxW-cw) / 2)
	oy := floor4(float64(boxH-ch) / 2)
	plan.Dst = image.Rect(ox, oy, ox+cw, oy+ch)
	plan.Canvas = image.Pt(boxW, boxH)
	return plan
}

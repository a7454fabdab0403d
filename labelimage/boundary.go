package labelimage

import (
	"sort"

	"github.com/cyclopcam/logs"
)

// BoundaryLabels returns the sorted non-zero labels touching the first/last row or column
func BoundaryLabels(img *LabelImage) []uint32 {
	if img.Width == 0 || img.Height == 0 {
		return nil
	}
	set := make(map[uint32]struct{})
	add := func(x, y int) {
		if l := img.At(x, y); l != 0 {
			set[l] = struct{}{}
		}
	}
	for x := 0; x < img.Width; x++ {
		add(x, 0)
		add(x, img.Height-1)
	}
	for y := 0; y < img.Height; y++ {
		add(0, y)
		add(img.Width-1, y)
	}
	labels := make([]uint32, 0, len(set))
	for l := range set {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

// RemoveBoundaryLabels returns a copy of img with every region touching the border set to background,
// together with the removed labels
func RemoveBoundaryLabels(img *LabelImage) (*LabelImage, []uint32) {
	out := img.Clone()
	removed := BoundaryLabels(img)
	if len(removed) == 0 {
		return out, removed
	}
	drop := make(map[uint32]struct{}, len(removed))
	for _, l := range removed {
		drop[l] = struct{}{}
	}
	for i, l := range out.Pix {
		if _, ok := drop[l]; ok {
			out.Pix[i] = 0
		}
	}
	return out, removed
}

// ApplyBoundaryRemoval runs RemoveBoundaryLabels on every frame
func ApplyBoundaryRemoval(log logs.Log, images map[int]*LabelImage) map[int]*LabelImage {
	out := make(map[int]*LabelImage, len(images))
	keys := make([]int, 0, len(images))
	for k := range images {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		cleaned, removed := RemoveBoundaryLabels(images[k])
		if len(removed) > 0 && log != nil {
			log.Debugf("Frame %d removed labels at boundaries: %v", k, removed)
		}
		out[k] = cleaned
	}
	return out
}

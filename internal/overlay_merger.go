package internal

import (
	"github.com/lychee-technology/chartpreset"
)

// ActiveOverlays returns the overlays whose trigger variable was resolved,
// keeping declaration order.
func ActiveOverlays(overlays []chartpreset.Overlay, resolved *chartpreset.ResolvedColumns) []chartpreset.Overlay {
	active := make([]chartpreset.Overlay, 0, len(overlays))
	for _, overlay := range overlays {
		if _, ok := resolved.Get(overlay.Trigger); ok {
			active = append(active, overlay)
		}
	}
	return active
}

// ApplyConditionalOverlays deep-merges every active overlay into spec in place
// and returns the triggers that were applied, in merge order.
//
// With OverlayOrderDeclaration later overlays overwrite earlier ones; with
// OverlayOrderReverse the merge runs last-to-first so earlier overlays win.
// Fragments are copied into spec, never aliased.
func ApplyConditionalOverlays(spec *chartpreset.Object, overlays []chartpreset.Overlay, resolved *chartpreset.ResolvedColumns, order chartpreset.OverlayOrder) []string {
	active := ActiveOverlays(overlays, resolved)
	if order == chartpreset.OverlayOrderReverse {
		for i, j := 0, len(active)-1; i < j; i, j = i+1, j-1 {
			active[i], active[j] = active[j], active[i]
		}
	}

	applied := make([]string, 0, len(active))
	for _, overlay := range active {
		spec.Merge(overlay.Fragment)
		applied = append(applied, overlay.Trigger)
	}
	return applied
}

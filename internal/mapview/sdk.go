// Package mapview coordinates an interactive map of hospitals: the SDK
// lifecycle, one marker per locatable hospital, and the selected hospital.
package mapview

import (
	"context"

	"github.com/medivisit/hospitalfinder/internal/domain/entities"
)

// SDK loads a mapping runtime. The runtime's display language is fixed at
// load time, so a language change needs a fresh Load.
type SDK interface {
	Load(ctx context.Context, language string) (Runtime, error)
}

// Runtime is a loaded SDK able to create maps.
type Runtime interface {
	NewMap(opts MapOptions) (Map, error)
}

// Map is one live map instance.
type Map interface {
	AddMarker(opts MarkerOptions) (Marker, error)
	PanTo(center entities.LatLng)
	SetZoom(zoom int)
	// OnCenterChanged registers a listener and returns the function that detaches it.
	// The listener may fire synchronously from PanTo.
	OnCenterChanged(fn func(entities.LatLng)) (detach func())
	Destroy()
}

// Marker is a map pin with an info overlay. Overlay state is per marker.
type Marker interface {
	OpenOverlay(content Overlay)
	CloseOverlay()
	OverlayOpen() bool
	Remove()
}

type MapOptions struct {
	Center   entities.LatLng
	Zoom     int
	Language string
}

type MarkerOptions struct {
	Position entities.LatLng
	Title    string
	// OnClick is called by the SDK when the marker is clicked. It must not be
	// called from inside AddMarker.
	OnClick func()
}

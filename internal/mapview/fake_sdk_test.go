package mapview

import (
	"context"
	"sync"

	"github.com/medivisit/hospitalfinder/internal/domain/entities"
)

type fakeSDK struct {
	mu        sync.Mutex
	loadErr   error
	loads     []string
	maps      []*fakeMap
	markerErr map[string]error
	// syncCenterEvents makes PanTo fire the center listener before returning.
	syncCenterEvents bool
}

func (s *fakeSDK) Load(_ context.Context, language string) (Runtime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads = append(s.loads, language)
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return &fakeRuntime{sdk: s, language: language}, nil
}

func (s *fakeSDK) lastMap() *fakeMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.maps) == 0 {
		return nil
	}
	return s.maps[len(s.maps)-1]
}

type fakeRuntime struct {
	sdk      *fakeSDK
	language string
}

func (r *fakeRuntime) NewMap(opts MapOptions) (Map, error) {
	m := &fakeMap{opts: opts, center: opts.Center, zoom: opts.Zoom, sdk: r.sdk}
	r.sdk.mu.Lock()
	r.sdk.maps = append(r.sdk.maps, m)
	r.sdk.mu.Unlock()
	return m, nil
}

type fakeMap struct {
	sdk       *fakeSDK
	opts      MapOptions
	center    entities.LatLng
	zoom      int
	pans      []entities.LatLng
	markers   []*fakeMarker
	listener  func(entities.LatLng)
	detached  bool
	destroyed bool
}

func (m *fakeMap) AddMarker(opts MarkerOptions) (Marker, error) {
	if err := m.sdk.markerErr[opts.Title]; err != nil {
		return nil, err
	}
	mk := &fakeMarker{opts: opts}
	m.markers = append(m.markers, mk)
	return mk, nil
}

func (m *fakeMap) PanTo(center entities.LatLng) {
	m.pans = append(m.pans, center)
	if m.sdk.syncCenterEvents {
		m.drag(center)
		return
	}
	m.center = center
}

func (m *fakeMap) SetZoom(zoom int) { m.zoom = zoom }

func (m *fakeMap) OnCenterChanged(fn func(entities.LatLng)) func() {
	m.listener = fn
	return func() {
		m.listener = nil
		m.detached = true
	}
}

func (m *fakeMap) Destroy() { m.destroyed = true }

// drag simulates the user moving the map.
func (m *fakeMap) drag(to entities.LatLng) {
	m.center = to
	if m.listener != nil {
		m.listener(to)
	}
}

func (m *fakeMap) liveMarkers() []*fakeMarker {
	var out []*fakeMarker
	for _, mk := range m.markers {
		if !mk.removed {
			out = append(out, mk)
		}
	}
	return out
}

func (m *fakeMap) markerTitled(title string) *fakeMarker {
	for _, mk := range m.liveMarkers() {
		if mk.opts.Title == title {
			return mk
		}
	}
	return nil
}

type fakeMarker struct {
	opts    MarkerOptions
	open    bool
	content Overlay
	removed bool
}

func (mk *fakeMarker) OpenOverlay(content Overlay) {
	mk.open = true
	mk.content = content
}

func (mk *fakeMarker) CloseOverlay()     { mk.open = false }
func (mk *fakeMarker) OverlayOpen() bool { return mk.open }
func (mk *fakeMarker) Remove()           { mk.removed = true }

func (mk *fakeMarker) click() { mk.opts.OnClick() }

package mapview

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/rs/zerolog"

	"github.com/medivisit/hospitalfinder/internal/domain/codes"
	"github.com/medivisit/hospitalfinder/internal/domain/entities"
	"github.com/medivisit/hospitalfinder/internal/infrastructure/observability"
)

// State is the coordinator's lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateReady
	// StateFailed is inert: the SDK could not be loaded and nothing is retried
	// until the language changes or the coordinator is destroyed and remounted.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrAlreadyMounted is returned by Mount on a coordinator that has not been destroyed.
var ErrAlreadyMounted = errors.New("mapview: coordinator already mounted")

// Props is the page-owned input. The coordinator reads it but never changes it.
type Props struct {
	Hospitals         []entities.EnrichedHospital
	Center            entities.LatLng
	Zoom              int
	UserLocation      *entities.LatLng
	IsLoadingLocation bool
	Language          string
}

// Callbacks report user interaction back to the page. Any may be nil.
type Callbacks struct {
	OnCenterChanged        func(entities.LatLng)
	OnHospitalSelect       func(*entities.EnrichedHospital)
	OnReturnToUserLocation func(entities.LatLng)
	OnRequestLocation      func()
}

type markerEntry struct {
	marker     Marker
	hospital   entities.EnrichedHospital
	generation uint64
}

// Coordinator owns one map instance and its markers. It is safe for
// concurrent use. Callbacks, and map calls that may fire listeners
// synchronously (PanTo, SetZoom), run without the internal lock held, so
// they may call back into the coordinator.
type Coordinator struct {
	sdk       SDK
	callbacks Callbacks

	mu           sync.Mutex
	state        State
	props        Props
	language     string
	m            Map
	detachCenter func()
	markers      []*markerEntry
	selected     *markerEntry
	generation   uint64
}

func NewCoordinator(sdk SDK, callbacks Callbacks) *Coordinator {
	return &Coordinator{
		sdk:       sdk,
		callbacks: callbacks,
	}
}

// Mount loads the SDK in props.Language, creates the map and builds markers.
// A load failure leaves the coordinator in StateFailed and is returned.
func (c *Coordinator) Mount(ctx context.Context, props Props) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateUninitialized {
		return ErrAlreadyMounted
	}
	c.props = props
	return c.mountLocked(ctx)
}

// Update applies new props. A language change reloads the SDK from scratch,
// a different hospital list rebuilds the markers, and a new center or zoom
// moves the existing map.
func (c *Coordinator) Update(ctx context.Context, props Props) error {
	c.mu.Lock()

	prev := c.props
	c.props = props
	languageChanged := codes.NormalizeLanguage(props.Language) != c.language

	var pending []func()
	var err error
	var moves []func()

	switch {
	case c.state == StateUninitialized:
	case languageChanged:
		pending = c.teardownLocked()
		err = c.mountLocked(ctx)
	case c.state == StateFailed:
	default:
		if !reflect.DeepEqual(prev.Hospitals, props.Hospitals) {
			pending = c.clearMarkersLocked()
			c.buildMarkersLocked(ctx)
		}
		m := c.m
		if prev.Center != props.Center {
			center := props.Center
			moves = append(moves, func() { m.PanTo(center) })
		}
		if prev.Zoom != props.Zoom {
			zoom := props.Zoom
			moves = append(moves, func() { m.SetZoom(zoom) })
		}
	}

	c.mu.Unlock()
	run(moves)
	run(pending)
	return err
}

// Destroy removes all markers, detaches the center listener and releases the
// map. A selection is reported as cleared. The coordinator can be mounted
// again afterwards.
func (c *Coordinator) Destroy() {
	c.mu.Lock()
	pending := c.teardownLocked()
	c.mu.Unlock()
	run(pending)
}

// Deselect clears the selection on the page's behalf, closing the selected
// marker's overlay. No selection callback is emitted.
func (c *Coordinator) Deselect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selected != nil {
		c.selected.marker.CloseOverlay()
		c.selected = nil
	}
}

// Selected returns a copy of the selected hospital, or nil.
func (c *Coordinator) Selected() *entities.EnrichedHospital {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selected == nil {
		return nil
	}
	h := c.selected.hospital
	return &h
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// MarkerCount reports how many hospitals currently have a marker.
func (c *Coordinator) MarkerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.markers)
}

// ReturnControlDisabled reports whether the "return to my location" control
// should be drawn disabled. It does not block ReturnToUserLocation.
func (c *Coordinator) ReturnControlDisabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.props.IsLoadingLocation
}

// ReturnToUserLocation pans to the user's location, or asks the page to
// obtain one when it is not known yet.
func (c *Coordinator) ReturnToUserLocation() {
	c.mu.Lock()
	loc := c.props.UserLocation
	if loc == nil {
		c.mu.Unlock()
		if c.callbacks.OnRequestLocation != nil {
			c.callbacks.OnRequestLocation()
		}
		return
	}

	target := *loc
	var m Map
	if c.state == StateReady {
		m = c.m
	}
	c.mu.Unlock()

	if m != nil {
		m.PanTo(target)
	}
	if c.callbacks.OnCenterChanged != nil {
		c.callbacks.OnCenterChanged(target)
	}
	if c.callbacks.OnReturnToUserLocation != nil {
		c.callbacks.OnReturnToUserLocation(target)
	}
}

func (c *Coordinator) mountLocked(ctx context.Context) error {
	logger := c.logger(ctx)
	c.language = codes.NormalizeLanguage(c.props.Language)

	runtime, err := c.sdk.Load(ctx, c.language)
	if err != nil {
		c.state = StateFailed
		logger.Error().Err(err).Str("language", c.language).Msg("map SDK failed to load; map disabled")
		return fmt.Errorf("loading map SDK: %w", err)
	}

	m, err := runtime.NewMap(MapOptions{
		Center:   c.props.Center,
		Zoom:     c.props.Zoom,
		Language: c.language,
	})
	if err != nil {
		c.state = StateFailed
		logger.Error().Err(err).Msg("map creation failed; map disabled")
		return fmt.Errorf("creating map: %w", err)
	}

	c.m = m
	c.detachCenter = m.OnCenterChanged(c.centerChanged)
	c.state = StateReady
	c.buildMarkersLocked(ctx)

	logger.Debug().Str("language", c.language).Int("markers", len(c.markers)).Msg("map ready")
	return nil
}

// teardownLocked returns the callbacks to run once the lock is released.
func (c *Coordinator) teardownLocked() []func() {
	pending := c.clearMarkersLocked()
	if c.detachCenter != nil {
		c.detachCenter()
		c.detachCenter = nil
	}
	if c.m != nil {
		c.m.Destroy()
		c.m = nil
	}
	c.state = StateUninitialized
	return pending
}

// clearMarkersLocked removes every marker. A selection that disappears with
// its marker is reported as cleared.
func (c *Coordinator) clearMarkersLocked() []func() {
	for _, e := range c.markers {
		e.marker.Remove()
	}
	c.markers = nil
	c.generation++

	if c.selected == nil {
		return nil
	}
	c.selected = nil
	if cb := c.callbacks.OnHospitalSelect; cb != nil {
		return []func(){func() { cb(nil) }}
	}
	return nil
}

func (c *Coordinator) buildMarkersLocked(ctx context.Context) {
	gen := c.generation
	for _, h := range c.props.Hospitals {
		pos, ok := h.Position()
		if !ok {
			continue
		}
		e := &markerEntry{hospital: h, generation: gen}
		marker, err := c.m.AddMarker(MarkerOptions{
			Position: pos,
			Title:    h.Name,
			OnClick:  func() { c.markerClicked(e) },
		})
		if err != nil {
			c.logger(ctx).Warn().Err(err).Str("ykiho", h.FacilityID).Msg("marker creation failed")
			continue
		}
		e.marker = marker
		c.markers = append(c.markers, e)
	}
}

func (c *Coordinator) markerClicked(e *markerEntry) {
	c.mu.Lock()
	if c.state != StateReady || e.generation != c.generation || e.marker == nil {
		c.mu.Unlock()
		return
	}

	var selection *entities.EnrichedHospital
	if e.marker.OverlayOpen() {
		e.marker.CloseOverlay()
		c.selected = nil
	} else {
		e.marker.OpenOverlay(BuildOverlay(e.hospital, c.language))
		c.selected = e
		h := e.hospital
		selection = &h
	}
	cb := c.callbacks.OnHospitalSelect
	c.mu.Unlock()

	if cb != nil {
		cb(selection)
	}
}

func (c *Coordinator) centerChanged(center entities.LatLng) {
	if c.callbacks.OnCenterChanged != nil {
		c.callbacks.OnCenterChanged(center)
	}
}

func (c *Coordinator) logger(ctx context.Context) *zerolog.Logger {
	l := observability.LoggerFromContext(ctx).With().Str("component", "mapview").Logger()
	return &l
}

func run(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}

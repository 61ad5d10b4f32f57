// Package region holds the rectangular regions edited in a session.
//
// A region is either predefined (seeded from an entity detection finding) or
// custom (drawn by the user). Both share the same rectangle payload and are
// told apart by Kind; operations switch on Kind to decide what may change.
// Predefined geometry is fixed and only its Active flag can be toggled, so a
// disabled finding stays visible for audit. Custom regions can be created,
// moved, resized and removed, and always count as active.
//
// Set is an immutable value. Every mutation returns a new Set, clamps geometry
// into the image, and rejects degenerate rectangles, so any Set handed to the
// bake engine only holds in-bounds, non-empty regions.
package region

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ironsheep/region-editor-mcp/internal/geometry"
)

var (
	// ErrNotFound is returned when no region has the requested id.
	ErrNotFound = errors.New("region not found")

	// ErrDegenerate is returned when a rectangle has no area after clamping.
	ErrDegenerate = errors.New("degenerate region geometry")

	// ErrPredefinedRemoval is returned when removing a detected region is
	// attempted. Detected regions are toggled off instead.
	ErrPredefinedRemoval = errors.New("predefined regions cannot be removed")

	// ErrNoSelection is returned when a selection is required but absent.
	ErrNoSelection = errors.New("no selection")
)

// Kind tells predefined and custom regions apart.
type Kind int

const (
	// KindPredefined marks a region seeded from a detection finding.
	KindPredefined Kind = iota
	// KindCustom marks a region drawn by the user.
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindPredefined:
		return "predefined"
	case KindCustom:
		return "custom"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText encodes the kind as its name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "predefined":
		*k = KindPredefined
	case "custom":
		*k = KindCustom
	default:
		return fmt.Errorf("unknown region kind %q", b)
	}
	return nil
}

// Region is a rectangle of interest in natural space.
type Region struct {
	ID   string               `json:"id"`
	Kind Kind                 `json:"kind"`
	Rect geometry.NaturalRect `json:"rect"`

	// Active is user-controlled for predefined regions and always true for
	// custom ones.
	Active bool `json:"active"`

	// Label and Score carry the detection entity type and confidence.
	Label string  `json:"label,omitempty"`
	Score float64 `json:"score,omitempty"`
}

// Seed describes one detection finding to turn into a predefined region.
type Seed struct {
	Rect  geometry.NaturalRect
	Label string
	Score float64
}

// Patch describes a change to a region. Nil fields are left alone.
type Patch struct {
	Rect   *geometry.NaturalRect
	Active *bool
}

// Set is the ordered, immutable collection of regions of one session.
type Set struct {
	regions []Region
	width   int
	height  int
	single  bool
}

// NewSet returns an empty set clamped to an image of the given natural size.
func NewSet(width, height int) Set {
	return Set{width: width, height: height}
}

// NewSelection returns an empty set that holds at most one region. Adding a
// region to a full selection replaces the existing one.
func NewSelection(width, height int) Set {
	return Set{width: width, height: height, single: true}
}

// Size returns the natural bounds the set clamps against.
func (s Set) Size() (width, height int) {
	return s.width, s.height
}

// IsSelection reports whether the set is a single-member selection.
func (s Set) IsSelection() bool {
	return s.single
}

// Len returns the number of regions.
func (s Set) Len() int {
	return len(s.regions)
}

// All returns a copy of every region in order.
func (s Set) All() []Region {
	out := make([]Region, len(s.regions))
	copy(out, s.regions)
	return out
}

// Get returns the region with the given id.
func (s Set) Get(id string) (Region, bool) {
	if i := s.index(id); i >= 0 {
		return s.regions[i], true
	}
	return Region{}, false
}

// Active returns the regions that count toward baking: predefined regions
// with Active set and every custom region.
func (s Set) Active() []Region {
	out := make([]Region, 0, len(s.regions))
	for _, r := range s.regions {
		switch r.Kind {
		case KindCustom:
			out = append(out, r)
		case KindPredefined:
			if r.Active {
				out = append(out, r)
			}
		}
	}
	return out
}

// Selected returns the single member of a selection.
func (s Set) Selected() (Region, error) {
	if len(s.regions) != 1 {
		return Region{}, ErrNoSelection
	}
	r := s.regions[0]
	if r.Rect.Empty() {
		return Region{}, ErrDegenerate
	}
	return r, nil
}

// AddCustom clamps rect, assigns a fresh id and appends a custom region.
func (s Set) AddCustom(rect geometry.NaturalRect) (Set, Region, error) {
	rect = geometry.ClampToImage(rect, s.width, s.height)
	if rect.Empty() {
		return s, Region{}, ErrDegenerate
	}
	r := Region{ID: uuid.NewString(), Kind: KindCustom, Rect: rect, Active: true}

	next := s.clone()
	if s.single {
		next.regions = next.regions[:0]
	}
	next.regions = append(next.regions, r)
	return next, r, nil
}

// Seed appends one active predefined region per finding. Findings that are
// empty once clamped are skipped and counted in the returned value.
func (s Set) Seed(seeds []Seed) (Set, int) {
	next := s.clone()
	skipped := 0
	for _, sd := range seeds {
		rect := geometry.ClampToImage(sd.Rect, s.width, s.height)
		if rect.Empty() {
			skipped++
			continue
		}
		next.regions = append(next.regions, Region{
			ID:     uuid.NewString(),
			Kind:   KindPredefined,
			Rect:   rect,
			Active: true,
			Label:  sd.Label,
			Score:  sd.Score,
		})
	}
	return next, skipped
}

// Update applies p to the region with the given id. Geometry changes to a
// predefined region and Active changes to a custom region are ignored.
func (s Set) Update(id string, p Patch) (Set, error) {
	i := s.index(id)
	if i < 0 {
		return s, ErrNotFound
	}
	r := s.regions[i]

	switch r.Kind {
	case KindPredefined:
		if p.Active != nil {
			r.Active = *p.Active
		}
	case KindCustom:
		if p.Rect != nil {
			rect := geometry.ClampToImage(*p.Rect, s.width, s.height)
			if rect.Empty() {
				return s, ErrDegenerate
			}
			r.Rect = rect
		}
	}

	next := s.clone()
	next.regions[i] = r
	return next, nil
}

// Toggle flips Active on a predefined region. Custom regions are left as is.
func (s Set) Toggle(id string) (Set, error) {
	r, ok := s.Get(id)
	if !ok {
		return s, ErrNotFound
	}
	active := !r.Active
	return s.Update(id, Patch{Active: &active})
}

// Remove deletes a custom region.
func (s Set) Remove(id string) (Set, error) {
	i := s.index(id)
	if i < 0 {
		return s, ErrNotFound
	}
	if s.regions[i].Kind == KindPredefined {
		return s, ErrPredefinedRemoval
	}

	next := s.clone()
	next.regions = append(next.regions[:i], next.regions[i+1:]...)
	return next, nil
}

// Clear returns an empty set with the same bounds and mode.
func (s Set) Clear() Set {
	return Set{width: s.width, height: s.height, single: s.single}
}

func (s Set) index(id string) int {
	for i, r := range s.regions {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s Set) clone() Set {
	next := s
	next.regions = make([]Region, len(s.regions), len(s.regions)+1)
	copy(next.regions, s.regions)
	return next
}

package workflow

import "fmt"

// PlaceMeta holds per-place metadata. AllowedRoles restricts who may view
// subjects sitting in the place; empty means unrestricted.
type PlaceMeta struct {
	AllowedRoles []string
}

// Definition is the immutable declaration of a workflow: its places,
// transitions and role metadata. Built once at startup and treated as
// read-only afterwards.
type Definition struct {
	initial     Place
	places      map[Place]PlaceMeta
	transitions []*Transition
	byName      map[string]*Transition
}

// NewDefinition validates and assembles a workflow definition
func NewDefinition(initial Place, places map[Place]PlaceMeta, transitions []*Transition) (*Definition, error) {
	if !initial.IsValid() {
		return nil, fmt.Errorf("%w: initial place %q", ErrInvalidPlace, initial)
	}
	if _, ok := places[initial]; !ok {
		return nil, fmt.Errorf("%w: initial place %q not declared", ErrInvalidPlace, initial)
	}

	byName := make(map[string]*Transition, len(transitions))
	for _, t := range transitions {
		if t.Name == "" {
			return nil, fmt.Errorf("transition with empty name")
		}
		if _, dup := byName[t.Name]; dup {
			return nil, fmt.Errorf("duplicate transition %q", t.Name)
		}
		if len(t.From) == 0 || len(t.To) == 0 {
			return nil, fmt.Errorf("transition %q must declare from and to places", t.Name)
		}
		for _, p := range t.From {
			if _, ok := places[p]; !ok {
				return nil, fmt.Errorf("%w: transition %q from %q", ErrInvalidPlace, t.Name, p)
			}
		}
		for _, p := range t.To {
			if _, ok := places[p]; !ok {
				return nil, fmt.Errorf("%w: transition %q to %q", ErrInvalidPlace, t.Name, p)
			}
		}
		byName[t.Name] = t
	}

	placesCopy := make(map[Place]PlaceMeta, len(places))
	for p, meta := range places {
		placesCopy[p] = meta
	}

	return &Definition{
		initial:     initial,
		places:      placesCopy,
		transitions: transitions,
		byName:      byName,
	}, nil
}

// InitialPlace returns the place new subjects start in
func (d *Definition) InitialPlace() Place {
	return d.initial
}

// Transition looks up a transition by name
func (d *Definition) Transition(name string) (*Transition, bool) {
	t, ok := d.byName[name]
	return t, ok
}

// Transitions returns all transitions in declaration order
func (d *Definition) Transitions() []*Transition {
	return d.transitions
}

// Places returns all declared places
func (d *Definition) Places() []Place {
	places := make([]Place, 0, len(d.places))
	for p := range d.places {
		places = append(places, p)
	}
	return places
}

// PlaceMeta returns the metadata for a place
func (d *Definition) PlaceMeta(place Place) (PlaceMeta, bool) {
	meta, ok := d.places[place]
	return meta, ok
}

// HasPlace returns true if the place belongs to this definition
func (d *Definition) HasPlace(place Place) bool {
	_, ok := d.places[place]
	return ok
}

// IsTerminal returns true if the place has no outgoing transitions
func (d *Definition) IsTerminal(place Place) bool {
	for _, t := range d.transitions {
		if t.IsEnabledFrom(place) {
			return false
		}
	}
	return true
}

package xref

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyProperty is returned when registering a property without a reference.
	ErrEmptyProperty = errors.New("property reference is empty")
	// ErrDuplicateProperty is returned when a property is registered twice.
	ErrDuplicateProperty = errors.New("property already registered")
	// ErrUnknownProperty is returned for references to unregistered properties.
	ErrUnknownProperty = errors.New("property not registered")
)

// Property is a tracked external-reference kind.
//
// Priority is assigned by registration order; lower values sort first. The
// bare-id pseudo property owns priority 0.
type Property struct {
	Ref      string
	Priority int
	Mnemonic string
}

// IsMain reports whether p is the bare-id pseudo property.
func (p *Property) IsMain() bool { return p.Priority == 0 }

// Registry is the ordered catalog of tracked properties.
type Registry struct {
	main  *Property
	props []*Property
	byRef map[string]*Property
}

// NewRegistry creates a registry holding only the bare-id pseudo property.
func NewRegistry() *Registry {
	return &Registry{
		main:  &Property{Priority: 0},
		byRef: make(map[string]*Property),
	}
}

// Register adds a tracked property with the next priority rank.
// Registering the same reference twice is rejected.
func (r *Registry) Register(ref string) (*Property, error) {
	if ref == "" {
		return nil, ErrEmptyProperty
	}
	if _, ok := r.byRef[ref]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateProperty, ref)
	}
	p := &Property{Ref: ref, Priority: len(r.props) + 1}
	r.props = append(r.props, p)
	r.byRef[ref] = p
	return p, nil
}

// SetMnemonic assigns a short display name to a registered property.
func (r *Registry) SetMnemonic(ref, mnemonic string) error {
	p, ok := r.byRef[ref]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProperty, ref)
	}
	p.Mnemonic = mnemonic
	return nil
}

// Lookup returns the tracked property for ref.
func (r *Registry) Lookup(ref string) (*Property, bool) {
	p, ok := r.byRef[ref]
	return p, ok
}

// Main returns the bare-id pseudo property.
func (r *Registry) Main() *Property { return r.main }

// Properties returns the registered properties in priority order.
func (r *Registry) Properties() []*Property {
	out := make([]*Property, len(r.props))
	copy(out, r.props)
	return out
}

// Len returns the number of registered properties.
func (r *Registry) Len() int { return len(r.props) }

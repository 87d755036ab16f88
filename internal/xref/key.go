package xref

import "strings"

// Key identifies one identifier node: either a bare id or a
// property-qualified value. Keys are comparable and used directly as map keys.
type Key struct {
	Property *Property
	Value    string
}

// IsBare reports whether the key is a bare id.
func (k Key) IsBare() bool { return k.Property == nil || k.Property.IsMain() }

// Priority returns the priority of the key's property.
func (k Key) Priority() int {
	if k.Property == nil {
		return 0
	}
	return k.Property.Priority
}

// String returns the textual form: VALUE for bare ids, PROPERTY/VALUE otherwise.
func (k Key) String() string {
	if k.IsBare() {
		return k.Value
	}
	return k.Property.Ref + "/" + k.Value
}

// Less orders keys by priority and then by value.
func (k Key) Less(o Key) bool {
	if pa, pb := k.Priority(), o.Priority(); pa != pb {
		return pa < pb
	}
	return k.Value < o.Value
}

// BareKey returns the key for a bare id. Empty ids are not tracked.
func (r *Registry) BareKey(id string) (Key, bool) {
	if id == "" {
		return Key{}, false
	}
	return Key{Property: r.main, Value: id}, true
}

// PropertyKey returns the key for a property-qualified value. Empty values
// are not tracked.
func (r *Registry) PropertyKey(p *Property, value string) (Key, bool) {
	if p == nil || value == "" {
		return Key{}, false
	}
	return Key{Property: p, Value: value}, true
}

// ParseKey parses the textual form of a key.
//
// Text without a slash is a bare id. Otherwise the text is split at the first
// slash after position 0 into PROPERTY/VALUE; the key is only tracked when
// PROPERTY is registered and VALUE is not empty.
func (r *Registry) ParseKey(text string) (Key, bool) {
	delim := strings.IndexByte(text, '/')
	if delim == 0 {
		if next := strings.IndexByte(text[1:], '/'); next >= 0 {
			delim = next + 1
		} else {
			delim = -1
		}
	}
	if delim < 0 {
		return r.BareKey(text)
	}
	p, ok := r.byRef[text[:delim]]
	if !ok {
		return Key{}, false
	}
	return r.PropertyKey(p, text[delim+1:])
}

package frame

import "strconv"

// Reserved slot names.
const (
	SlotID  = "id"
	SlotIs  = "is"
	SlotIsA = "isa"
)

// MnemonicsID is the id of the frame mapping short names to property refs.
const MnemonicsID = "/w/mnemonics"

// Kind is the type tag of a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindString
	KindRef
	KindNumber
	KindFrame
)

// Value is a tagged slot value.
type Value struct {
	Kind  Kind    `json:"k"`
	Str   string  `json:"s,omitempty"`
	Num   float64 `json:"n,omitempty"`
	Frame *Frame  `json:"f,omitempty"`
}

// String returns a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Ref returns a reference to the frame with the given id.
func Ref(id string) Value { return Value{Kind: KindRef, Str: id} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// Nested returns a value holding an anonymous frame.
func Nested(f *Frame) Value { return Value{Kind: KindFrame, Frame: f} }

func (v Value) IsString() bool { return v.Kind == KindString }
func (v Value) IsRef() bool    { return v.Kind == KindRef }
func (v Value) IsNil() bool    { return v.Kind == KindNil }

// Text returns the string form of a string or ref value, and false otherwise.
func (v Value) Text() (string, bool) {
	switch v.Kind {
	case KindString, KindRef:
		return v.Str, true
	default:
		return "", false
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return strconv.Quote(v.Str)
	case KindRef:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindFrame:
		return "{...}"
	default:
		return "nil"
	}
}

// Resolve follows a qualified statement: a nested frame with an "is" slot
// resolves to that slot's value. Any other value resolves to itself.
func Resolve(v Value) Value {
	if v.Kind != KindFrame || v.Frame == nil {
		return v
	}
	if is, ok := v.Frame.Get(SlotIs); ok {
		return is
	}
	return v
}

// Slot is a named value.
type Slot struct {
	Name  string `json:"n"`
	Value Value  `json:"v"`
}

// Frame is an ordered list of slots.
type Frame struct {
	Slots []Slot `json:"slots"`
}

// New returns a frame with the given slots.
func New(slots ...Slot) *Frame {
	return &Frame{Slots: slots}
}

// Add appends a slot.
func (f *Frame) Add(name string, v Value) *Frame {
	f.Slots = append(f.Slots, Slot{Name: name, Value: v})
	return f
}

// AddID appends an "id" slot.
func (f *Frame) AddID(id string) *Frame {
	return f.Add(SlotID, String(id))
}

// Get returns the value of the first slot with the given name.
func (f *Frame) Get(name string) (Value, bool) {
	for _, s := range f.Slots {
		if s.Name == name {
			return s.Value, true
		}
	}
	return Value{}, false
}

// ID returns the first id of the frame, or "" for anonymous frames.
func (f *Frame) ID() string {
	for _, s := range f.Slots {
		if s.Name == SlotID {
			if id, ok := s.Value.Text(); ok {
				return id
			}
		}
	}
	return ""
}

// IDs returns all ids of the frame in slot order.
func (f *Frame) IDs() []string {
	var ids []string
	for _, s := range f.Slots {
		if s.Name == SlotID {
			if id, ok := s.Value.Text(); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// Len returns the number of slots.
func (f *Frame) Len() int { return len(f.Slots) }

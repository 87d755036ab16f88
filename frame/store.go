package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateID is returned when two frames in a Store share an id.
	ErrDuplicateID = errors.New("frame: duplicate frame id")
	// ErrAnonymous is returned when a frame without id is added to a Store.
	ErrAnonymous = errors.New("frame: anonymous frame")
)

// Symbol is an index into a Store's symbol table.
type Symbol int32

// NoSymbol is returned for names that are not interned.
const NoSymbol Symbol = -1

// Store holds output frames and a symbol table interning every frame id and
// string value referenced by them.
type Store struct {
	frames  []*Frame
	byID    map[string]int
	symbols map[string]Symbol
	names   []string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		byID:    make(map[string]int),
		symbols: make(map[string]Symbol),
	}
}

// AllocateSymbolTable pre-sizes the symbol table for n symbols.
func (s *Store) AllocateSymbolTable(n int) {
	if n <= len(s.names) {
		return
	}
	symbols := make(map[string]Symbol, n)
	for name, sym := range s.symbols {
		symbols[name] = sym
	}
	s.symbols = symbols

	names := make([]string, len(s.names), n)
	copy(names, s.names)
	s.names = names
}

// Intern returns the symbol for name, adding it if needed.
func (s *Store) Intern(name string) Symbol {
	if sym, ok := s.symbols[name]; ok {
		return sym
	}
	sym := Symbol(len(s.names))
	s.symbols[name] = sym
	s.names = append(s.names, name)
	return sym
}

// Symbol returns the symbol of name, or NoSymbol.
func (s *Store) Symbol(name string) Symbol {
	if sym, ok := s.symbols[name]; ok {
		return sym
	}
	return NoSymbol
}

// Name returns the name of sym.
func (s *Store) Name(sym Symbol) string {
	return s.names[sym]
}

// Symbols returns the interned names in symbol order. The slice is shared.
func (s *Store) Symbols() []string { return s.names }

// Add adds a frame with a non-empty, unique id and interns its ids and
// string values.
func (s *Store) Add(f *Frame) error {
	id := f.ID()
	if id == "" {
		return ErrAnonymous
	}
	if _, ok := s.byID[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	s.byID[id] = len(s.frames)
	s.frames = append(s.frames, f)
	s.internFrame(f)
	return nil
}

func (s *Store) internFrame(f *Frame) {
	for _, slot := range f.Slots {
		switch slot.Value.Kind {
		case KindString, KindRef:
			s.Intern(slot.Value.Str)
		case KindFrame:
			if slot.Value.Frame != nil {
				s.internFrame(slot.Value.Frame)
			}
		}
	}
}

// Lookup returns the frame with the given id.
func (s *Store) Lookup(id string) (*Frame, bool) {
	i, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return s.frames[i], true
}

// Frames returns the frames in insertion order. The slice is shared.
func (s *Store) Frames() []*Frame { return s.frames }

// Len returns the number of frames.
func (s *Store) Len() int { return len(s.frames) }

// GC drops symbols that no frame references and renumbers the remaining
// symbols in their original order. It returns the number of dropped symbols.
func (s *Store) GC() int {
	live := make(map[string]struct{}, len(s.names))
	var mark func(f *Frame)
	mark = func(f *Frame) {
		for _, slot := range f.Slots {
			switch slot.Value.Kind {
			case KindString, KindRef:
				live[slot.Value.Str] = struct{}{}
			case KindFrame:
				if slot.Value.Frame != nil {
					mark(slot.Value.Frame)
				}
			}
		}
	}
	for _, f := range s.frames {
		mark(f)
	}

	if len(live) == len(s.names) {
		return 0
	}

	names := make([]string, 0, len(live))
	symbols := make(map[string]Symbol, len(live))
	for _, name := range s.names {
		if _, ok := live[name]; ok {
			symbols[name] = Symbol(len(names))
			names = append(names, name)
		}
	}
	dropped := len(s.names) - len(names)
	s.names = names
	s.symbols = symbols
	return dropped
}

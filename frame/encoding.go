package frame

import (
	"fmt"

	"github.com/hupe1980/xref/codec"
	"github.com/hupe1980/xref/recordio"
)

// Encoder writes frames to a record file, one record per frame.
type Encoder struct {
	w     *recordio.Writer
	codec codec.Codec
}

// NewEncoder returns an encoder using c (or codec.Default if nil).
func NewEncoder(w *recordio.Writer, c codec.Codec) *Encoder {
	if c == nil {
		c = codec.Default
	}
	return &Encoder{w: w, codec: c}
}

// Encode appends f keyed by its id.
func (e *Encoder) Encode(f *Frame) error {
	data, err := e.codec.Marshal(f)
	if err != nil {
		return fmt.Errorf("frame: encode %q: %w", f.ID(), err)
	}
	return e.w.Append([]byte(f.ID()), 0, data)
}

// EncodeStore appends every frame of s in insertion order.
func (e *Encoder) EncodeStore(s *Store) error {
	for _, f := range s.frames {
		if err := e.Encode(f); err != nil {
			return err
		}
	}
	return nil
}

// Unmarshal decodes a frame from a record value.
func Unmarshal(c codec.Codec, data []byte) (*Frame, error) {
	if c == nil {
		c = codec.Default
	}
	f := &Frame{}
	if err := c.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("frame: decode: %w", err)
	}
	return f, nil
}

// Decoder reads frames from a record file.
type Decoder struct {
	r     *recordio.Reader
	codec codec.Codec
}

// NewDecoder returns a decoder using c (or codec.Default if nil).
func NewDecoder(r *recordio.Reader, c codec.Codec) *Decoder {
	if c == nil {
		c = codec.Default
	}
	return &Decoder{r: r, codec: c}
}

// Next returns the next frame, or io.EOF at the end of the file.
func (d *Decoder) Next() (*Frame, error) {
	rec, err := d.r.Next()
	if err != nil {
		return nil, err
	}
	return Unmarshal(d.codec, rec.Value)
}

// ReadStore decodes all remaining frames into a new Store.
func (d *Decoder) ReadStore() (*Store, error) {
	s := NewStore()
	for !d.r.Done() {
		f, err := d.Next()
		if err != nil {
			return nil, err
		}
		if err := s.Add(f); err != nil {
			return nil, fmt.Errorf("frame: record at %d: %w", d.r.Tell(), err)
		}
	}
	return s, nil
}

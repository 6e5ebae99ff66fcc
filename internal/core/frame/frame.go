// Package frame defines the opaque media value exchanged between nodes.
// The engine never inspects pixel content; it passes Frame handles
// through and fingerprints their descriptors.
package frame

import "time"

// Descriptor identifies a frame cheaply. Two frames with equal
// descriptors are treated as the same decoded data for cache purposes.
type Descriptor struct {
	ID     string        `json:"id" msgpack:"id"`
	Width  int           `json:"width" msgpack:"width"`
	Height int           `json:"height" msgpack:"height"`
	Format string        `json:"format" msgpack:"format"`
	Seq    uint64        `json:"seq" msgpack:"seq"`
	PTS    time.Duration `json:"pts" msgpack:"pts"`
}

// Equal reports whether two descriptors identify the same frame data.
func (d Descriptor) Equal(o Descriptor) bool {
	return d == o
}

// Frame is a handle to decoded media supplied by an external pipeline.
// A nil *Frame is the explicit "absent" value: nodes must tolerate it,
// and producing it is not an error.
type Frame struct {
	Descriptor Descriptor `json:"descriptor"`
	// Data is the opaque pixel payload. Owned by the media pipeline,
	// never inspected here.
	Data any `json:"-"`
}

// New builds a frame around an opaque payload.
func New(desc Descriptor, data any) *Frame {
	return &Frame{Descriptor: desc, Data: data}
}

// Derive returns a frame that shares the payload but carries a new
// descriptor id. Transform nodes use it to stamp their outputs.
func (f *Frame) Derive(id string, data any) *Frame {
	if f == nil {
		return nil
	}
	desc := f.Descriptor
	desc.ID = id
	return &Frame{Descriptor: desc, Data: data}
}

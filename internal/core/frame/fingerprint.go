package frame

import (
	"encoding/hex"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"lukechampine.com/blake3"
)

// Fingerprint is a cheap, approximate identity for a node's resolved
// inputs. It hashes descriptors, not pixel content, so it is best-effort
// equality: a "same" match is only guaranteed correct when the upstream
// pipeline reuses byte-identical decoded frames under one descriptor.
// It is not cryptographic content equality.
type Fingerprint [32]byte

// Zero is the fingerprint of nothing; it never matches a stored entry.
var Zero Fingerprint

// String returns a short hex form for logs and diagnostics.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:8])
}

// fingerprintEnvelope is the canonical encoding input. Inputs are kept
// in port resolution order; absent inputs occupy their slot explicitly
// so S→(nil,B) never collides with S→(B,nil).
type fingerprintEnvelope struct {
	Inputs   []*Descriptor `msgpack:"inputs"`
	ParamRev uint64        `msgpack:"param_rev"`
}

// Compute derives the fingerprint of an ordered input set plus the
// owning node's parameter revision.
func Compute(inputs []*Frame, paramRev uint64) (Fingerprint, error) {
	env := fingerprintEnvelope{
		Inputs:   make([]*Descriptor, len(inputs)),
		ParamRev: paramRev,
	}
	for i, in := range inputs {
		if in != nil {
			d := in.Descriptor
			env.Inputs[i] = &d
		}
	}
	data, err := msgpack.Marshal(env)
	if err != nil {
		return Zero, fmt.Errorf("fingerprint encoding failed: %w", err)
	}
	return blake3.Sum256(data), nil
}

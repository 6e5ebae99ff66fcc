package graph

// ParamKind tags the value stored in a ParamValue.
type ParamKind string

const (
	// ParamKindNumber holds a float64
	ParamKindNumber ParamKind = "number"
	// ParamKindBool holds a boolean
	ParamKindBool ParamKind = "bool"
	// ParamKindText holds a string
	ParamKindText ParamKind = "text"
)

// ParamValue is a tagged union for node parameters. Heterogeneous node
// kinds each declare a schema of expected keys and kinds; values of a
// different kind are rejected instead of dynamically cast.
type ParamValue struct {
	Kind   ParamKind `json:"kind" msgpack:"kind"`
	Number float64   `json:"number,omitempty" msgpack:"number,omitempty"`
	Bool   bool      `json:"bool,omitempty" msgpack:"bool,omitempty"`
	Text   string    `json:"text,omitempty" msgpack:"text,omitempty"`
}

// NumberParam wraps a float64 as a ParamValue.
func NumberParam(v float64) ParamValue {
	return ParamValue{Kind: ParamKindNumber, Number: v}
}

// BoolParam wraps a bool as a ParamValue.
func BoolParam(v bool) ParamValue {
	return ParamValue{Kind: ParamKindBool, Bool: v}
}

// TextParam wraps a string as a ParamValue.
func TextParam(v string) ParamValue {
	return ParamValue{Kind: ParamKindText, Text: v}
}

// Equal reports whether two parameter values are identical.
func (v ParamValue) Equal(o ParamValue) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case ParamKindNumber:
		return v.Number == o.Number
	case ParamKindBool:
		return v.Bool == o.Bool
	case ParamKindText:
		return v.Text == o.Text
	}
	return false
}

// ParamSchema maps parameter keys to the kind each key must hold.
type ParamSchema map[string]ParamKind

package value

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Value is any runtime value: a primitive, a sentinel, or an *Object.
type Value = any

type undefinedType struct{}

func (undefinedType) String() string { return "undefined" }

type nullType struct{}

func (nullType) String() string { return "null" }

var (
	// Undefined is the absent value. A nil interface is treated the same way.
	Undefined Value = undefinedType{}
	// Null is the intentional empty value.
	Null Value = nullType{}
)

// IsUndefined reports whether v is Undefined (or a nil interface).
func IsUndefined(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(undefinedType)
	return ok
}

// IsNull reports whether v is Null or a nil *Object.
func IsNull(v Value) bool {
	switch x := v.(type) {
	case nullType:
		return true
	case *Object:
		return x == nil
	}
	return false
}

// Symbol is a unique primitive. Two symbols are equal only if they are the same pointer.
type Symbol struct {
	description string
}

// NewSymbol creates a fresh symbol with the given description.
func NewSymbol(description string) *Symbol {
	return &Symbol{description: description}
}

// Description returns the symbol's description.
func (s *Symbol) Description() string { return s.description }

func (s *Symbol) String() string { return "Symbol(" + s.description + ")" }

// Tag returns the builtin class tag of v, the string that appears in
// "[object Tag]". Values that do not belong to the model return "".
func Tag(v Value) string {
	switch x := v.(type) {
	case nil, undefinedType:
		return "Undefined"
	case nullType:
		return "Null"
	case bool:
		return "Boolean"
	case string:
		return "String"
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "Number"
	case *Symbol:
		return "Symbol"
	case *big.Int:
		return "BigInt"
	case *Object:
		if x == nil {
			return "Null"
		}
		return string(x.class)
	}
	return ""
}

// IsPrimitive reports whether v is not an object.
func IsPrimitive(v Value) bool {
	if o, ok := v.(*Object); ok {
		return o == nil
	}
	return true
}

// Truthy applies the usual boolean coercion.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case nil, undefinedType, nullType:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0 && !math.IsNaN(x)
	case float32:
		return x != 0 && !math.IsNaN(float64(x))
	case int:
		return x != 0
	case int64:
		return x != 0
	case *big.Int:
		return x.Sign() != 0
	case *Object:
		return x != nil
	}
	return true
}

// Describe renders v for logs and CLI output.
func Describe(v Value) string {
	switch x := v.(type) {
	case nil, undefinedType:
		return "undefined"
	case nullType:
		return "null"
	case string:
		return strconv.Quote(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case *Symbol:
		return x.String()
	case *big.Int:
		return x.String() + "n"
	case *Object:
		if x == nil {
			return "null"
		}
		return x.describe()
	}
	return fmt.Sprint(v)
}

func (o *Object) describe() string {
	switch {
	case o.class.Callable():
		name, _ := o.ownData("name")
		if s, ok := name.(string); ok && s != "" {
			return "[" + string(o.class) + ": " + s + "]"
		}
		return "[" + string(o.class) + " (anonymous)]"
	case o.class == ClassRegExp:
		return "/" + o.source + "/" + o.flags
	case o.class == ClassArray:
		parts := make([]string, len(o.elements))
		for i, e := range o.elements {
			parts[i] = Describe(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case o.primitive != nil:
		return "[" + string(o.class) + ": " + Describe(o.primitive) + "]"
	case o.entries != nil:
		return fmt.Sprintf("%s(%d)", o.class, o.entries.len())
	}
	return "[object " + string(o.class) + "]"
}

package mock

import (
	"github.com/oxjest/mockgraph/runtime/value"
)

// Category is the semantic shape of a value as far as mirroring is concerned.
type Category string

const (
	// None means the value is not mirrored. Non-root slots holding it are omitted.
	None Category = ""

	CategoryObject     Category = "object"
	CategoryArray      Category = "array"
	CategoryRegExp     Category = "regexp"
	CategoryFunction   Category = "function"
	CategoryConstant   Category = "constant"
	CategoryCollection Category = "collection"
	CategoryNull       Category = "null"
	CategoryUndefined  Category = "undefined"
)

// Categories lists every mirrorable category.
var Categories = []Category{
	CategoryObject,
	CategoryArray,
	CategoryRegExp,
	CategoryFunction,
	CategoryConstant,
	CategoryCollection,
	CategoryNull,
	CategoryUndefined,
}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// registered reports whether values of this category take part in reference
// tracking. Everything else is copied by value.
func (c Category) registered() bool {
	switch c {
	case CategoryObject, CategoryArray, CategoryRegExp, CategoryFunction:
		return true
	}
	return false
}

// Classify maps v to its Category, or None when v must not be mirrored.
func Classify(v value.Value) Category {
	tag := value.Tag(v)
	switch tag {
	case "Function", "AsyncFunction", "GeneratorFunction", "AsyncGeneratorFunction":
		return CategoryFunction
	}
	if o, ok := v.(*value.Object); ok && o != nil && o.Class() == value.ClassArray {
		return CategoryArray
	}
	switch tag {
	case "Object", "Module":
		return CategoryObject
	case "Number", "String", "Boolean", "Symbol":
		return CategoryConstant
	case "Map", "WeakMap", "Set":
		return CategoryCollection
	case "RegExp":
		return CategoryRegExp
	case "Undefined":
		return CategoryUndefined
	case "Null":
		return CategoryNull
	}
	return None
}

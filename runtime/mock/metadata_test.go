package mock

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxjest/mockgraph/runtime/value"
)

func TestMetadata_JSONRoundTripKeepsMemberOrder(t *testing.T) {
	root := value.NewObject()
	root.Set("zeta", 1.0)
	root.Set("alpha", "a")
	root.Set("mid", value.Null)
	root.Set("self", root)

	md, err := BuildMetadata(root)
	require.NoError(t, err)

	data, err := json.Marshal(md)
	require.NoError(t, err)

	var decoded Metadata
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, []string{"zeta", "alpha", "mid", "self"}, decoded.MemberNames())

	self, _ := decoded.Member("self")
	assert.True(t, self.IsRef())
	assert.Equal(t, 0, *self.Ref)

	mid, _ := decoded.Member("mid")
	assert.True(t, value.IsNull(mid.Value))

	mirrored, err := GenerateMock(&decoded)
	require.NoError(t, err)
	assert.Same(t, mirrored, get(t, mirrored, "self"))
	assert.Equal(t, "a", get(t, mirrored, "alpha"))
}

func TestMetadata_JSONRoundTripNonFiniteNumbers(t *testing.T) {
	root := value.NewObject()
	root.Set("max", math.Inf(1))
	root.Set("min", math.Inf(-1))
	root.Set("nan", math.NaN())
	root.Set("one", 1.0)

	md, err := BuildMetadata(root)
	require.NoError(t, err)

	data, err := json.Marshal(md)
	require.NoError(t, err)
	assert.Contains(t, string(data), `{"$number":"Infinity"}`)
	assert.Contains(t, string(data), `{"$number":"-Infinity"}`)
	assert.Contains(t, string(data), `{"$number":"NaN"}`)

	var decoded Metadata
	require.NoError(t, json.Unmarshal(data, &decoded))

	posInf, _ := decoded.Member("max")
	assert.True(t, math.IsInf(posInf.Value.(float64), 1))
	negInf, _ := decoded.Member("min")
	assert.True(t, math.IsInf(negInf.Value.(float64), -1))
	nan, _ := decoded.Member("nan")
	assert.True(t, math.IsNaN(nan.Value.(float64)))
	one, _ := decoded.Member("one")
	assert.Equal(t, 1.0, one.Value)

	var bad Metadata
	err = json.Unmarshal([]byte(`{"type":"constant","value":{"$number":"huge"}}`), &bad)
	assert.Error(t, err)
}

func TestMetadata_JSONKeys(t *testing.T) {
	name := "fetch"
	md := &Metadata{
		Type:  CategoryFunction,
		RefID: intPtr(0),
		Name:  &name,
		PriorBehavior: func(value.Value, []value.Value) (value.Value, error) {
			return nil, nil
		},
		Members: []Member{{Name: "again", Node: &Metadata{Ref: intPtr(0)}}},
	}

	data, err := json.Marshal(md)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"function","refId":0,"name":"fetch","hasPriorBehavior":true,"members":{"again":{"ref":0}}}`,
		string(data))

	var decoded Metadata
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded.PriorBehavior)
}

func TestMetadata_LeafEncodings(t *testing.T) {
	boxed, err := value.NewBoxed(5.0)
	require.NoError(t, err)

	root := value.NewObject()
	root.Set("sym", value.NewSymbol("token"))
	root.Set("boxed", boxed)
	root.Set("map", value.NewMap())

	md, err := BuildMetadata(root)
	require.NoError(t, err)
	data, err := json.Marshal(md)
	require.NoError(t, err)

	var decoded Metadata
	require.NoError(t, json.Unmarshal(data, &decoded))

	sym, _ := decoded.Member("sym")
	s, ok := sym.Value.(*value.Symbol)
	require.True(t, ok)
	assert.Equal(t, "token", s.Description())

	box, _ := decoded.Member("boxed")
	obj, ok := box.Value.(*value.Object)
	require.True(t, ok)
	assert.Equal(t, 5.0, obj.Primitive())

	m, _ := decoded.Member("map")
	coll, ok := m.Value.(*value.Object)
	require.True(t, ok)
	assert.Equal(t, value.ClassMap, coll.Class())
	assert.Equal(t, 0, coll.Size())
}

func TestMetadata_UnknownCollectionClass(t *testing.T) {
	var md Metadata
	err := json.Unmarshal([]byte(`{"type":"collection","value":{"$collection":"Date"}}`), &md)
	assert.Error(t, err)
}

func TestMetadata_Walk(t *testing.T) {
	md, err := BuildMetadata(greeterModule())
	require.NoError(t, err)

	var paths []string
	md.Walk(func(path []string, node *Metadata) bool {
		if node.Type == CategoryFunction {
			paths = append(paths, strings.Join(path, "."))
		}
		return true
	})

	assert.Equal(t, []string{"greet", "Greeter", "Greeter.prototype.greet", "Greeter.greetStatic"}, paths)
}

func TestMetadata_WalkStops(t *testing.T) {
	md, err := BuildMetadata(greeterModule())
	require.NoError(t, err)

	visited := 0
	md.Walk(func([]string, *Metadata) bool {
		visited++
		return visited < 2
	})
	assert.Equal(t, 2, visited)
}

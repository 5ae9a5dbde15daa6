package mock

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxjest/mockgraph/runtime/value"
)

func TestBuildMetadata_LeavesCapturedByValue(t *testing.T) {
	tags := value.NewSet("a")
	o := value.NewObject()
	o.Set("count", 5.0)
	o.Set("tags", tags)
	o.Set("none", value.Null)
	o.Set("missing", value.Undefined)

	md, err := BuildMetadata(o)
	require.NoError(t, err)

	count, ok := md.Member("count")
	require.True(t, ok)
	assert.Equal(t, CategoryConstant, count.Type)
	assert.Equal(t, 5.0, count.Value)
	assert.Nil(t, count.RefID)

	set, ok := md.Member("tags")
	require.True(t, ok)
	assert.Equal(t, CategoryCollection, set.Type)
	assert.Same(t, tags, set.Value)
	assert.Nil(t, set.RefID)
	assert.Empty(t, set.Members)

	null, _ := md.Member("none")
	assert.Equal(t, CategoryNull, null.Type)
	undef, _ := md.Member("missing")
	assert.Equal(t, CategoryUndefined, undef.Type)
}

func TestBuildMetadata_SelfReference(t *testing.T) {
	a := value.NewObject()
	a.Set("self", a)

	md, err := BuildMetadata(a)
	require.NoError(t, err)

	require.NotNil(t, md.RefID)
	assert.Equal(t, 0, *md.RefID)

	self, ok := md.Member("self")
	require.True(t, ok)
	assert.True(t, self.IsRef())
	assert.Equal(t, 0, *self.Ref)
	assert.Equal(t, None, self.Type)
}

func TestBuildMetadata_SharedReference(t *testing.T) {
	shared := value.NewObject()
	shared.Set("v", 1.0)

	root := value.NewObject()
	root.Set("x", shared)
	root.Set("y", shared)

	md, stats, err := BuildMetadataWithStats(root)
	require.NoError(t, err)

	x, _ := md.Member("x")
	y, _ := md.Member("y")
	require.NotNil(t, x.RefID)
	assert.Equal(t, 1, *x.RefID)
	assert.True(t, y.IsRef())
	assert.Equal(t, 1, *y.Ref)

	assert.Equal(t, 2, stats.Refs)
	assert.Equal(t, 1, stats.BackRefs)
}

func TestBuildMetadata_RefIDsArePreOrder(t *testing.T) {
	inner := value.NewObject()
	inner.Set("fn", greetFunc())

	root := value.NewObject()
	root.Set("a", inner)
	root.Set("list", value.NewArray(1.0))
	root.Set("re", value.MustRegExp("x", ""))

	md, err := BuildMetadata(root)
	require.NoError(t, err)

	var ids []int
	md.Walk(func(_ []string, node *Metadata) bool {
		if node.RefID != nil {
			ids = append(ids, *node.RefID)
		}
		return true
	})
	assert.Equal(t, []int{0, 1, 2, 3, 4}, ids)
}

func TestBuildMetadata_ArrayContentsNotVisited(t *testing.T) {
	root := value.NewObject()
	root.Set("list", value.NewArray(1.0, greetFunc(), value.NewObject()))

	md, stats, err := BuildMetadataWithStats(root)
	require.NoError(t, err)

	list, ok := md.Member("list")
	require.True(t, ok)
	assert.Equal(t, CategoryArray, list.Type)
	assert.NotNil(t, list.RefID)
	assert.Empty(t, list.Members)
	assert.Equal(t, 2, stats.Refs)
}

func TestBuildMetadata_OmitsUnclassifiableSlots(t *testing.T) {
	root := value.NewObject()
	root.Set("when", value.NewDate(time.Now()))
	root.Set("n", 1.0)

	md, stats, err := BuildMetadataWithStats(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"n"}, md.MemberNames())
	assert.Equal(t, 1, stats.Omitted)
}

func TestBuildMetadata_UnclassifiableRoot(t *testing.T) {
	md, err := BuildMetadata(value.NewDate(time.Now()))
	assert.Nil(t, md)
	require.ErrorIs(t, err, ErrUnclassifiable)

	var mErr *Error
	require.True(t, errors.As(err, &mErr))
	assert.Equal(t, CodeUnclassifiable, mErr.Code)
	assert.Equal(t, PhaseBuild, mErr.Phase)
}

func TestBuildMetadata_FunctionName(t *testing.T) {
	md, err := BuildMetadata(greetFunc())
	require.NoError(t, err)

	require.NotNil(t, md.Name)
	assert.Equal(t, "greet", *md.Name)
	assert.Empty(t, md.Members)
	assert.Nil(t, md.PriorBehavior)
}

func TestBuildMetadata_NonStringNameIgnored(t *testing.T) {
	fn := value.NewFunction("", 0, nil)
	fn.DefineDataProperty("name", 7.0, false, false, true)

	md, err := BuildMetadata(fn)
	require.NoError(t, err)
	assert.Nil(t, md.Name)
}

func TestBuildMetadata_ReservedNamesNeverMirrored(t *testing.T) {
	fn := value.NewSloppyFunction("legacy", 3, nil)
	md, err := BuildMetadata(fn)
	require.NoError(t, err)
	for _, name := range []string{"length", "caller", "arguments", "name"} {
		_, ok := md.Member(name)
		assert.False(t, ok, name)
	}

	re, err := BuildMetadata(value.MustRegExp("a", "g"))
	require.NoError(t, err)
	for _, name := range []string{"source", "global", "ignoreCase", "multiline"} {
		_, ok := re.Member(name)
		assert.False(t, ok, name)
	}
	_, ok := re.Member("lastIndex")
	assert.True(t, ok)
}

func TestBuildMetadata_StubBookkeepingSkipped(t *testing.T) {
	stub := NewStub("fetch").MockReturnValue("cached")
	stub.Func().Set("retries", 3.0)
	_, _ = stub.Call()

	md, stats, err := BuildMetadataWithStats(stub.Func())
	require.NoError(t, err)

	assert.Equal(t, []string{"retries"}, md.MemberNames())
	require.NotNil(t, md.PriorBehavior)
	out, err := md.PriorBehavior(value.Undefined, nil)
	require.NoError(t, err)
	assert.Equal(t, "cached", out)
	assert.Equal(t, 1, stats.Stubs)
}

func TestBuildMetadata_MockPrefixKeptOnPlainFunctions(t *testing.T) {
	fn := greetFunc()
	fn.Set("mockable", true)

	md, err := BuildMetadata(fn)
	require.NoError(t, err)
	assert.Equal(t, []string{"mockable"}, md.MemberNames())
}

func TestBuildMetadata_ClassConstructorCycle(t *testing.T) {
	md, err := BuildMetadata(greeterModule())
	require.NoError(t, err)

	greeter, ok := md.Member("Greeter")
	require.True(t, ok)
	assert.Equal(t, []string{"prototype", "greetStatic"}, greeter.MemberNames())

	proto, _ := greeter.Member("prototype")
	ctor, ok := proto.Member("constructor")
	require.True(t, ok)
	assert.True(t, ctor.IsRef())
	assert.Equal(t, *greeter.RefID, *ctor.Ref)
}

func TestBuildMetadata_InteropExportGetters(t *testing.T) {
	exports := value.NewInteropExports()
	exports.DefineExport("default", func() value.Value { return greetFunc() })

	md, err := BuildMetadata(exports)
	require.NoError(t, err)

	def, ok := md.Member("default")
	require.True(t, ok)
	assert.Equal(t, CategoryFunction, def.Type)

	marker, ok := md.Member(value.InteropMarker)
	require.True(t, ok)
	assert.Equal(t, true, marker.Value)
}

func TestBuildMetadata_GetterFailure(t *testing.T) {
	boom := errors.New("binding not initialised")
	exports := value.NewInteropExports()
	getter := value.NewFunction("get broken", 0, func(value.Value, []value.Value) (value.Value, error) {
		return nil, boom
	})
	exports.DefineAccessorProperty("broken", getter, nil, true, false)

	_, err := BuildMetadata(exports)
	require.ErrorIs(t, err, ErrSlotRead)
	assert.ErrorIs(t, err, boom)

	var mErr *Error
	require.True(t, errors.As(err, &mErr))
	assert.Equal(t, "<root>.broken", mErr.Path)
}

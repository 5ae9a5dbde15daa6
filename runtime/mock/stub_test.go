package mock

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxjest/mockgraph/runtime/value"
)

func TestStub_RecordsCalls(t *testing.T) {
	stub := NewStub("fetch")
	receiver := value.NewObject()

	_, err := value.Call(stub.Func(), receiver, "a", 1.0)
	require.NoError(t, err)
	_, err = stub.Call()
	require.NoError(t, err)

	calls := stub.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []value.Value{"a", 1.0}, calls[0].Args)
	assert.Same(t, receiver, calls[0].This)
	assert.Equal(t, ResultReturn, calls[0].Result.Type)
	assert.True(t, value.IsUndefined(calls[0].Result.Value))
	assert.Less(t, calls[0].Order, calls[1].Order)

	last, ok := stub.LastCall()
	require.True(t, ok)
	assert.Empty(t, last.Args)
}

func TestStub_InvocationOrderAcrossStubs(t *testing.T) {
	a := NewStub("a")
	b := NewStub("b")

	_, _ = b.Call()
	_, _ = a.Call()

	bCall, _ := b.LastCall()
	aCall, _ := a.LastCall()
	assert.Less(t, bCall.Order, aCall.Order)
}

func TestStub_OnceQueueBeforePersistent(t *testing.T) {
	stub := NewStub("next").
		MockReturnValue("default").
		MockReturnValueOnce("first").
		MockReturnValueOnce("second")

	var got []value.Value
	for i := 0; i < 4; i++ {
		out, err := stub.Call()
		require.NoError(t, err)
		got = append(got, out)
	}
	assert.Equal(t, []value.Value{"first", "second", "default", "default"}, got)
}

func TestStub_NilOnceEntryFallsBackToPersistent(t *testing.T) {
	stub := NewStub("next").
		MockReturnValue("default").
		MockImplementationOnce(nil).
		MockReturnValueOnce("second")
	fn := stub.Func()

	// A non-callable argument queues an empty one-shot entry.
	_, err := value.Call(get(t, fn, "mockImplementationOnce"), fn, 42.0)
	require.NoError(t, err)

	var got []value.Value
	for i := 0; i < 4; i++ {
		out, err := stub.Call()
		require.NoError(t, err)
		got = append(got, out)
	}
	assert.Equal(t, []value.Value{"default", "second", "default", "default"}, got)
}

func TestStub_Implementation(t *testing.T) {
	stub := NewStub("sum").MockImplementation(func(_ value.Value, args []value.Value) (value.Value, error) {
		return args[0].(float64) + args[1].(float64), nil
	})

	out, err := stub.Call(2.0, 3.0)
	require.NoError(t, err)
	assert.Equal(t, 5.0, out)
}

func TestStub_Throw(t *testing.T) {
	boom := errors.New("boom")
	stub := NewStub("fail").MockThrow(boom)

	_, err := stub.Call()
	require.ErrorIs(t, err, boom)

	last, _ := stub.LastCall()
	assert.Equal(t, ResultThrow, last.Result.Type)
	assert.Equal(t, boom, last.Result.Err)
}

func TestStub_ClearAndReset(t *testing.T) {
	stub := NewStub("f").MockReturnValue(1.0)
	_, _ = stub.Call()

	stub.MockClear()
	assert.Equal(t, 0, stub.CallCount())
	out, _ := stub.Call()
	assert.Equal(t, 1.0, out)

	stub.MockReturnValueOnce(2.0).MockReset()
	assert.Equal(t, 0, stub.CallCount())
	assert.Nil(t, stub.Implementation())
	out, _ = stub.Call()
	assert.True(t, value.IsUndefined(out))
}

func TestStub_LastCallEmpty(t *testing.T) {
	_, ok := NewStub("f").LastCall()
	assert.False(t, ok)
}

func TestStub_FunctionSideConfiguration(t *testing.T) {
	stub := NewStub("greet")
	fn := stub.Func()

	ret, err := value.Call(get(t, fn, "mockReturnValue"), fn, "mocked")
	require.NoError(t, err)
	assert.Same(t, fn, ret)

	out, err := value.Call(fn, value.Undefined)
	require.NoError(t, err)
	assert.Equal(t, "mocked", out)

	impl := value.NewFunction("impl", 1, func(_ value.Value, args []value.Value) (value.Value, error) {
		return args[0], nil
	})
	_, err = value.Call(get(t, fn, "mockImplementationOnce"), fn, impl)
	require.NoError(t, err)

	out, _ = value.Call(fn, value.Undefined, "echo")
	assert.Equal(t, "echo", out)
	out, _ = value.Call(fn, value.Undefined, "echo")
	assert.Equal(t, "mocked", out)

	_, err = value.Call(get(t, fn, "mockReset"), fn)
	require.NoError(t, err)
	assert.Equal(t, 0, stub.CallCount())
}

func TestStub_StateObject(t *testing.T) {
	boom := errors.New("nope")
	stub := NewStub("f").MockReturnValueOnce("ok").MockImplementation(func(value.Value, []value.Value) (value.Value, error) {
		return nil, boom
	})
	fn := stub.Func()

	_, _ = stub.Call(1.0)
	_, _ = stub.Call(2.0, 3.0)

	calls := get(t, fn, "mock", "calls").(*value.Object)
	require.Equal(t, 2, calls.Len())
	second := calls.Index(1).(*value.Object)
	assert.Equal(t, []value.Value{2.0, 3.0}, second.Elements())

	results := get(t, fn, "mock", "results").(*value.Object)
	assert.Equal(t, "return", get(t, results.Index(0), "type"))
	assert.Equal(t, "ok", get(t, results.Index(0), "value"))
	assert.Equal(t, "throw", get(t, results.Index(1), "type"))
	errObj := get(t, results.Index(1), "value").(*value.Object)
	assert.Equal(t, value.ClassError, errObj.Class())

	order := get(t, fn, "mock", "invocationCallOrder").(*value.Object)
	assert.Equal(t, 2, order.Len())
}

func TestStub_StateIsNotAnOwnDataSlot(t *testing.T) {
	fn := NewStub("f").Func()
	prop, ok := fn.GetOwnProperty("mock")
	require.True(t, ok)
	assert.True(t, prop.IsAccessor())
	assert.False(t, prop.Enumerable)
}

func TestStub_ConcurrentCalls(t *testing.T) {
	stub := NewStub("f").MockReturnValue("v")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = stub.Call(float64(i))
		}(i)
	}
	wg.Wait()

	calls := stub.Calls()
	require.Len(t, calls, 50)
	seen := make(map[int64]bool)
	for _, c := range calls {
		assert.Equal(t, ResultReturn, c.Result.Type)
		assert.False(t, seen[c.Order])
		seen[c.Order] = true
	}
}

func TestAsStub(t *testing.T) {
	stub := NewStub("f")

	got, ok := AsStub(stub.Func())
	require.True(t, ok)
	assert.Same(t, stub, got)

	_, ok = AsStub(greetFunc())
	assert.False(t, ok)
	_, ok = AsStub("f")
	assert.False(t, ok)
	assert.False(t, IsStub((*value.Object)(nil)))
}

package mock

import (
	"github.com/oxjest/mockgraph/runtime/value"
)

// installBookkeeping exposes the stub's state and configuration on its
// function object, under names starting with BookkeepingPrefix.
func (s *Stub) installBookkeeping() {
	state := value.NewFunction("get mock", 0, func(value.Value, []value.Value) (value.Value, error) {
		return s.stateObject(), nil
	})
	s.fn.DefineAccessorProperty("mock", state, nil, false, true)

	chain := func(name string, length int, apply func(args []value.Value)) {
		value.DefineMethod(s.fn, name, length, func(_ value.Value, args []value.Value) (value.Value, error) {
			apply(args)
			return s.fn, nil
		})
	}

	chain("mockClear", 0, func([]value.Value) { s.MockClear() })
	chain("mockReset", 0, func([]value.Value) { s.MockReset() })
	chain("mockReturnValue", 1, func(args []value.Value) { s.MockReturnValue(argAt(args, 0)) })
	chain("mockReturnValueOnce", 1, func(args []value.Value) { s.MockReturnValueOnce(argAt(args, 0)) })
	chain("mockImplementation", 1, func(args []value.Value) { s.MockImplementation(delegate(argAt(args, 0))) })
	chain("mockImplementationOnce", 1, func(args []value.Value) { s.MockImplementationOnce(delegate(argAt(args, 0))) })
}

// stateObject renders the call log as {calls, contexts, results, invocationCallOrder}.
func (s *Stub) stateObject() *value.Object {
	calls := s.Calls()

	argLists := make([]value.Value, len(calls))
	contexts := make([]value.Value, len(calls))
	results := make([]value.Value, len(calls))
	order := make([]value.Value, len(calls))

	for i, c := range calls {
		argLists[i] = value.NewArray(c.Args...)
		contexts[i] = c.This

		r := value.NewObject()
		r.Set("type", string(c.Result.Type))
		if c.Result.Err != nil {
			r.Set("value", value.NewError(c.Result.Err.Error()))
		} else {
			r.Set("value", c.Result.Value)
		}
		results[i] = r

		order[i] = float64(c.Order)
	}

	state := value.NewObject()
	state.Set("calls", value.NewArray(argLists...))
	state.Set("contexts", value.NewArray(contexts...))
	state.Set("results", value.NewArray(results...))
	state.Set("invocationCallOrder", value.NewArray(order...))
	return state
}

func argAt(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined
}

// delegate adapts a function value into an implementation. Non-callable
// values clear the implementation.
func delegate(fn value.Value) value.CallFunc {
	o, ok := fn.(*value.Object)
	if !ok || o == nil || !o.Callable() {
		return nil
	}
	return func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Call(o, this, args...)
	}
}

package mock

import (
	"sync"
	"sync/atomic"

	"github.com/oxjest/mockgraph/runtime/value"
)

// ResultType is the outcome of one stub invocation.
type ResultType string

const (
	ResultReturn     ResultType = "return"
	ResultThrow      ResultType = "throw"
	ResultIncomplete ResultType = "incomplete"
)

// Result records what an invocation produced.
type Result struct {
	Type  ResultType
	Value value.Value
	Err   error
}

// Call records one invocation of a stub.
type Call struct {
	This   value.Value
	Args   []value.Value
	Result Result
	// Order is the position of this call among all stub invocations in the process.
	Order int64
}

// invocationOrder is shared by every stub so calls on different stubs can be ordered.
var invocationOrder atomic.Int64

type stubKey struct{}

// Stub is an observable stand-in for a function. The callable side lives in
// Func; the Go side configures behaviour and reads the call log.
type Stub struct {
	fn   *value.Object
	name string

	mu    sync.Mutex
	calls []*Call
	impl  value.CallFunc
	once  []value.CallFunc
}

// NewStub creates a stub that returns Undefined until configured.
func NewStub(name string) *Stub {
	s := &Stub{name: name}
	s.fn = value.NewFunction(name, 0, s.invoke)
	s.fn.SetHostData(stubKey{}, s)
	s.installBookkeeping()
	return s
}

// AsStub returns the stub behind v, if v is a stub's function.
func AsStub(v value.Value) (*Stub, bool) {
	o, ok := v.(*value.Object)
	if !ok || o == nil {
		return nil, false
	}
	data, ok := o.HostData(stubKey{})
	if !ok {
		return nil, false
	}
	s, ok := data.(*Stub)
	return s, ok
}

// IsStub reports whether v is a stub's function.
func IsStub(v value.Value) bool {
	_, ok := AsStub(v)
	return ok
}

// Func returns the callable function object.
func (s *Stub) Func() *value.Object { return s.fn }

// Name returns the name the stub was created with.
func (s *Stub) Name() string { return s.name }

// Call invokes the stub with an undefined receiver.
func (s *Stub) Call(args ...value.Value) (value.Value, error) {
	return value.Call(s.fn, value.Undefined, args...)
}

func (s *Stub) invoke(this value.Value, args []value.Value) (value.Value, error) {
	call := &Call{
		This:   this,
		Args:   append([]value.Value{}, args...),
		Result: Result{Type: ResultIncomplete, Value: value.Undefined},
		Order:  invocationOrder.Add(1),
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	impl := s.impl
	if len(s.once) > 0 {
		// A nil one-shot entry is still consumed but defers to impl.
		if next := s.once[0]; next != nil {
			impl = next
		}
		s.once = s.once[1:]
	}
	s.mu.Unlock()

	if impl == nil {
		s.settle(call, Result{Type: ResultReturn, Value: value.Undefined})
		return value.Undefined, nil
	}

	out, err := impl(this, args)
	if err != nil {
		s.settle(call, Result{Type: ResultThrow, Value: value.Undefined, Err: err})
		return value.Undefined, err
	}
	s.settle(call, Result{Type: ResultReturn, Value: out})
	return out, nil
}

func (s *Stub) settle(call *Call, r Result) {
	s.mu.Lock()
	call.Result = r
	s.mu.Unlock()
}

// Calls returns a snapshot of the call log.
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	for i, c := range s.calls {
		out[i] = *c
	}
	return out
}

// CallCount returns the number of recorded calls.
func (s *Stub) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// LastCall returns the most recent call.
func (s *Stub) LastCall() (Call, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return Call{}, false
	}
	return *s.calls[len(s.calls)-1], true
}

// Implementation returns the persistent implementation, or nil.
func (s *Stub) Implementation() value.CallFunc {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.impl
}

// MockImplementation sets the behaviour used when no one-shot behaviour is queued.
func (s *Stub) MockImplementation(fn value.CallFunc) *Stub {
	s.mu.Lock()
	s.impl = fn
	s.mu.Unlock()
	return s
}

// MockImplementationOnce queues a behaviour for the next call only. A nil fn
// leaves that call to the persistent behaviour.
func (s *Stub) MockImplementationOnce(fn value.CallFunc) *Stub {
	s.mu.Lock()
	s.once = append(s.once, fn)
	s.mu.Unlock()
	return s
}

// MockReturnValue makes every call return v.
func (s *Stub) MockReturnValue(v value.Value) *Stub {
	return s.MockImplementation(returning(v))
}

// MockReturnValueOnce makes the next call return v.
func (s *Stub) MockReturnValueOnce(v value.Value) *Stub {
	return s.MockImplementationOnce(returning(v))
}

// MockThrow makes every call fail with err.
func (s *Stub) MockThrow(err error) *Stub {
	return s.MockImplementation(func(value.Value, []value.Value) (value.Value, error) {
		return value.Undefined, err
	})
}

// MockClear drops the call log and keeps configured behaviour.
func (s *Stub) MockClear() *Stub {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
	return s
}

// MockReset drops the call log and every configured behaviour.
func (s *Stub) MockReset() *Stub {
	s.mu.Lock()
	s.calls = nil
	s.impl = nil
	s.once = nil
	s.mu.Unlock()
	return s
}

func returning(v value.Value) value.CallFunc {
	return func(value.Value, []value.Value) (value.Value, error) {
		return v, nil
	}
}

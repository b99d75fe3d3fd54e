package funcapp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/funcworker/worker-e2e-tests/servicedef"
)

// Invocation gives a handler access to one call of its function: the input values, the
// output bindings and the invocation log.
//
// Outputs set during the call are only sent to the host after the handler returns.
type Invocation struct {
	function Function
	ctx      context.Context
	data     map[string]json.RawMessage
	metadata map[string]ldvalue.Value
	outputs  map[string]interface{}
	logs     []string
	lock     sync.Mutex
}

// NewInvocation creates an Invocation from a decoded host request. It is exported for
// testing handlers without a server.
func NewInvocation(ctx context.Context, f Function, req servicedef.InvokeRequest) *Invocation {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Invocation{
		function: f,
		ctx:      ctx,
		data:     req.Data,
		metadata: req.Metadata,
		outputs:  make(map[string]interface{}),
	}
}

// FunctionName returns the name of the invoked function.
func (inv *Invocation) FunctionName() string {
	return inv.function.Name
}

// Context is cancelled if the host abandons the invocation.
func (inv *Invocation) Context() context.Context {
	return inv.ctx
}

// Input returns the value of an input or trigger binding.
func (inv *Invocation) Input(name string) (Value, error) {
	b, ok := inv.function.Binding(name)
	if !ok || b.Direction != In {
		return Value{}, fmt.Errorf("%w: %q is not an input of %s", ErrUnknownBinding, name, inv.function.Name)
	}
	return Value{raw: inv.data[name], dataType: b.DataType}, nil
}

// HTTPRequest returns the request that triggered an HTTP-triggered function.
func (inv *Invocation) HTTPRequest() (*HTTPRequest, error) {
	if inv.function.Trigger.Type != TypeHTTPTrigger {
		return nil, fmt.Errorf("function %s is not HTTP-triggered", inv.function.Name)
	}
	var data servicedef.HTTPRequestData
	raw := inv.data[inv.function.Trigger.Name]
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("invalid HTTP trigger data: %w", err)
		}
	}
	return newHTTPRequest(data)
}

// Metadata returns a trigger metadata value, such as the name of a triggering blob. It is
// a null value if the host did not send it.
func (inv *Invocation) Metadata(key string) ldvalue.Value {
	return inv.metadata[key]
}

// SetOutput sets the value of an output binding other than $return. The value is encoded
// in the shape declared by the binding; an HTTP binding accepts a *HTTPResponse.
func (inv *Invocation) SetOutput(name string, value interface{}) error {
	b, ok := inv.function.Binding(name)
	if !ok || b.Direction != Out || b.IsReturn() {
		return fmt.Errorf("%w: %q is not an output of %s", ErrUnknownBinding, name, inv.function.Name)
	}
	encoded, err := encodeOutput(b, value)
	if err != nil {
		return fmt.Errorf("output %q: %w", name, err)
	}
	inv.lock.Lock()
	inv.outputs[name] = encoded
	inv.lock.Unlock()
	return nil
}

// Logf adds a line to the invocation log that is returned to the host.
func (inv *Invocation) Logf(format string, args ...interface{}) {
	inv.lock.Lock()
	inv.logs = append(inv.logs, fmt.Sprintf(format, args...))
	inv.lock.Unlock()
}

// Response builds the reply to the host from the outputs that were set and the handler's
// return value.
func (inv *Invocation) Response(returnValue interface{}) (servicedef.InvokeResponse, error) {
	inv.lock.Lock()
	defer inv.lock.Unlock()
	resp := servicedef.InvokeResponse{
		Outputs: make(map[string]interface{}, len(inv.outputs)),
		Logs:    append([]string{}, inv.logs...),
	}
	for k, v := range inv.outputs {
		resp.Outputs[k] = v
	}
	ret, hasReturn := inv.function.Binding(servicedef.ReturnBindingName)
	if !hasReturn {
		if returnValue != nil {
			return resp, fmt.Errorf("function %s returned a value but has no %s binding",
				inv.function.Name, servicedef.ReturnBindingName)
		}
		return resp, nil
	}
	encoded, err := encodeOutput(ret, returnValue)
	if err != nil {
		return resp, fmt.Errorf("return value: %w", err)
	}
	resp.ReturnValue = encoded
	return resp, nil
}

func encodeOutput(b Binding, value interface{}) (interface{}, error) {
	if b.Type == TypeHTTP {
		return encodeHTTPResponse(value)
	}
	return encodeValue(b.DataType, value)
}

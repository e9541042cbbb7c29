package models

// RPC is a JSON-RPC 2.0 envelope backed by an Object. It encodes as a
// plain object and decodes from one when *RPC is the expected type.
type RPC struct {
	obj *Object
}

// NewRPC creates a request for method with an empty parameter list.
func NewRPC(method string) *RPC {
	r := &RPC{obj: NewObject()}
	r.obj.Set("jsonrpc", "2.0")
	r.obj.Set("method", method)
	r.obj.Set("params", []any{})
	return r
}

// RPCFromObject wraps an already decoded object.
func RPCFromObject(o *Object) *RPC {
	if o == nil {
		o = NewObject()
	}
	return &RPC{obj: o}
}

// Backing returns the underlying object.
func (r *RPC) Backing() *Object {
	return r.obj
}

// Method returns the invoked method name.
func (r *RPC) Method() string {
	return r.obj.AsString("method")
}

// Params returns the positional parameters.
func (r *RPC) Params() []any {
	return r.obj.AsArray("params")
}

// Param returns the parameter at index, or nil when out of range.
func (r *RPC) Param(index int) any {
	params := r.Params()
	if index < 0 || index >= len(params) {
		return nil
	}
	return params[index]
}

// AddParam appends a parameter.
func (r *RPC) AddParam(value any) *RPC {
	r.obj.Set("params", append(r.Params(), value))
	return r
}

// ID returns the request id, if any.
func (r *RPC) ID() (any, bool) {
	return r.obj.Get("id")
}

// SetID sets the request id.
func (r *RPC) SetID(id any) *RPC {
	r.obj.Set("id", id)
	return r
}

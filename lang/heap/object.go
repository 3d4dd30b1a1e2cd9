package heap

import "fmt"

// ObjKind discriminates the eight heap-object kinds.
type ObjKind uint8

const (
	ObjString ObjKind = iota
	ObjFunction
	ObjNative
	ObjClosure
	ObjUpvalue
	ObjClass
	ObjInstance
	ObjBoundMethod
)

func (k ObjKind) String() string {
	switch k {
	case ObjString:
		return "string"
	case ObjFunction:
		return "function"
	case ObjNative:
		return "native"
	case ObjClosure:
		return "closure"
	case ObjUpvalue:
		return "upvalue"
	case ObjClass:
		return "class"
	case ObjInstance:
		return "instance"
	case ObjBoundMethod:
		return "bound method"
	default:
		return "object"
	}
}

// header is the common GC bookkeeping every heap object embeds: its mark
// bit and the intrusive next-pointer threading it onto the collector's
// global allocation list.
type header struct {
	marked bool
	next   Object
}

// Object is any loom heap-allocated value: one of the eight ObjKind
// kinds, each carrying a header for the mark-sweep collector. A Chunk is
// not an Object; it belongs to its Function.
type Object interface {
	// String returns the value's stringify() representation (§4.3).
	String() string
	// Type returns a short description of the object's runtime type.
	Type() string
	objKind() ObjKind
	gcHeader() *header
	// traceRefs invokes mark for every Object this one directly references,
	// implementing the collector's blacken step.
	traceRefs(mark func(Value))
}

// --- String ---

// String is an immutable UTF-8 byte sequence allocated at lex time, as a
// constant, or by string concatenation.
type String struct {
	header
	s string
}

func (s *String) String() string { return s.s }
func (s *String) Type() string { return "string" }
func (s *String) Str() string { return s.s }
func (s *String) objKind() ObjKind { return ObjString }
func (s *String) gcHeader() *header { return &s.header }
func (s *String) traceRefs(func(Value)) {}

// --- Function ---

// Function is the compiled, immutable form of a loom function or script
// body, as produced once by the compiler.
type Function struct {
	header
	Name         string
	Arity        int
	UpvalueCount int
	Chunk        *Chunk
}

func (f *Function) String() string {
	if f.Name == "" {
		return "<script>"
	}
	return fmt.Sprintf("[fn %s]", f.Name)
}
func (f *Function) Type() string { return "function" }
func (f *Function) objKind() ObjKind { return ObjFunction }
func (f *Function) gcHeader() *header { return &f.header }
func (f *Function) traceRefs(mark func(Value)) {
	for _, c := range f.Chunk.Constants {
		mark(c)
	}
}

// --- Native ---

// NativeFn is the Go function backing a Native callable.
type NativeFn func(args []Value) (Value, error)

// Native wraps a built-in callable installed as a global at VM startup.
type Native struct {
	header
	Name  string
	Arity int
	Fn    NativeFn
}

func (n *Native) String() string { return "<native fn>" }
func (n *Native) Type() string { return "native" }
func (n *Native) objKind() ObjKind { return ObjNative }
func (n *Native) gcHeader() *header { return &n.header }
func (n *Native) traceRefs(func(Value)) {}

// --- Closure ---

// Closure pairs a compiled Function with the upvalues it captured at
// OP_CLOSURE time.
type Closure struct {
	header
	Fn       *Function
	Upvalues []*Upvalue
}

func (c *Closure) String() string { return fmt.Sprintf("<fn %s>", c.Fn.Name) }
func (c *Closure) Type() string { return "closure" }
func (c *Closure) objKind() ObjKind { return ObjClosure }
func (c *Closure) gcHeader() *header { return &c.header }
func (c *Closure) traceRefs(mark func(Value)) {
	mark(FromObject(c.Fn))
	for _, uv := range c.Upvalues {
		// Newly allocated closures have unfilled upvalue slots (nil) until
		// OP_CLOSURE's capture loop runs; skip them the way clox's markObject
		// guards against a NULL object.
		if uv == nil {
			continue
		}
		mark(FromObject(uv))
	}
}

// --- Upvalue ---

// Upvalue is a first-class reference to a captured local. While open its
// Location points into the owning frame's stack slice; closeUpvalues
// copies the value into Closed and repoints Location at it.
type Upvalue struct {
	header
	Location *Value
	Closed   Value
	NextOpen *Upvalue // open-upvalue list link, sorted by decreasing stack address; nil once closed or at list end
}

func (u *Upvalue) String() string { return "<upvalue>" }
func (u *Upvalue) Type() string { return "upvalue" }
func (u *Upvalue) objKind() ObjKind { return ObjUpvalue }
func (u *Upvalue) gcHeader() *header { return &u.header }
func (u *Upvalue) traceRefs(mark func(Value)) {
	// An open upvalue's location is reached via the stack root; only the
	// closed value is an owned reference.
	mark(u.Closed)
}

// IsOpen reports whether the upvalue still points into a live stack slot.
func (u *Upvalue) IsOpen() bool { return u.Location != &u.Closed }

// --- Class ---

// Class is a named bag of methods, created by OP_CLASS and populated by
// OP_METHOD. Its method table never stores non-closure values.
type Class struct {
	header
	Name    string
	Methods *NameTable
}

func (c *Class) String() string { return c.Name }
func (c *Class) Type() string { return "class" }
func (c *Class) objKind() ObjKind { return ObjClass }
func (c *Class) gcHeader() *header { return &c.header }
func (c *Class) traceRefs(mark func(Value)) {
	c.Methods.Each(func(_ string, v *Closure) {
		mark(FromObject(v))
	})
}

// --- Instance ---

// Instance combines an optional Class reference with a per-object field
// table. Class is nil for the classless instances backing array and map
// literals (§4.3).
type Instance struct {
	header
	Class  *Class
	Fields *FieldTable
}

func (i *Instance) Type() string { return "instance" }
func (i *Instance) objKind() ObjKind { return ObjInstance }
func (i *Instance) gcHeader() *header { return &i.header }
func (i *Instance) traceRefs(mark func(Value)) {
	if i.Class != nil {
		mark(FromObject(i.Class))
	}
	i.Fields.Each(func(_ string, v Value) {
		mark(v)
	})
}

// --- BoundMethod ---

// BoundMethod pairs a receiver Value with the closure it was looked up
// on, produced whenever property access resolves to a method.
type BoundMethod struct {
	header
	Receiver Value
	Method   *Closure
}

func (b *BoundMethod) String() string { return fmt.Sprintf("<bound %s>", b.Method.Fn.Name) }
func (b *BoundMethod) Type() string { return "bound method" }
func (b *BoundMethod) objKind() ObjKind { return ObjBoundMethod }
func (b *BoundMethod) gcHeader() *header { return &b.header }
func (b *BoundMethod) traceRefs(mark func(Value)) {
	mark(b.Receiver)
	mark(FromObject(b.Method))
}

var (
	_ Object = (*String)(nil)
	_ Object = (*Function)(nil)
	_ Object = (*Native)(nil)
	_ Object = (*Closure)(nil)
	_ Object = (*Upvalue)(nil)
	_ Object = (*Class)(nil)
	_ Object = (*Instance)(nil)
	_ Object = (*BoundMethod)(nil)
)

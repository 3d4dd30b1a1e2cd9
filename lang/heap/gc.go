package heap

// RootProvider supplies a set of GC roots to the collector. It is called
// with a mark function during every collection; it must call mark once
// per root Value it owns. Registered by the VM (for the operand stack,
// open upvalues, globals, frames and the cached init-name string) and by
// the compiler (for the chain of functions currently being built), per
// §4.4's enumerated root set.
type RootProvider func(mark func(Value))

// initialNextGC is the byte threshold of the first collection; chosen
// small enough that a short test program still exercises at least one
// collection, large enough that trivial programs don't thrash.
const initialNextGC = 1 << 14

// approximate per-kind accounting sizes for bytesAllocated bookkeeping.
// These are not exact memory footprints; they only need to be stable and
// roughly proportional, since the only testable property (§8) is that
// bytesAllocated after a full collection equals the sum of sizes of the
// still-reachable objects as accounted by this same table.
var objSize = [...]int{
	ObjString:      32,
	ObjFunction:    64,
	ObjNative:      32,
	ObjClosure:     40,
	ObjUpvalue:     32,
	ObjClass:       48,
	ObjInstance:    48,
	ObjBoundMethod: 32,
}

// Collector is loom's mark-sweep, non-moving garbage collector. It owns
// every heap Object from allocation until sweep frees it, tracked on a
// single intrusive linked list.
type Collector struct {
	objects        Object
	bytesAllocated int64
	nextGC         int64
	gray           []Object
	roots          []RootProvider

	// Collections is incremented on every full mark-sweep pass; exposed
	// for tests that assert the GC actually ran.
	Collections int
}

// NewCollector returns a ready-to-use Collector with no live objects.
func NewCollector() *Collector {
	return &Collector{nextGC: initialNextGC}
}

// AddRootProvider registers a permanent root source (the VM's stack,
// globals, frames, open upvalues, and cached init-name). It returns no
// token because these providers live for the VM's whole lifetime.
func (c *Collector) AddRootProvider(rp RootProvider) {
	c.roots = append(c.roots, rp)
}

// PushRootProvider registers a root source that can later be withdrawn,
// used by the compiler to expose its currently-active function chain
// only while compilation is in progress.
func (c *Collector) PushRootProvider(rp RootProvider) (remove func()) {
	c.roots = append(c.roots, rp)
	idx := len(c.roots) - 1
	return func() {
		c.roots = append(c.roots[:idx], c.roots[idx+1:]...)
	}
}

// BytesAllocated returns the collector's current allocation accounting.
func (c *Collector) BytesAllocated() int64 { return c.bytesAllocated }

func (c *Collector) link(obj Object, kind ObjKind) {
	h := obj.gcHeader()
	h.next = c.objects
	c.objects = obj
	c.bytesAllocated += int64(objSize[kind])
}

func (c *Collector) maybeCollect() {
	if c.bytesAllocated >= c.nextGC {
		c.Collect()
	}
}

// Collect runs one full mark-sweep pass: mark every root-reachable
// object, trace the gray worklist to exhaustion, then sweep the
// allocation list, freeing anything left unmarked.
func (c *Collector) Collect() {
	c.gray = c.gray[:0]
	for _, rp := range c.roots {
		rp(c.markValue)
	}
	c.traceReferences()
	c.sweep()
	c.nextGC = c.bytesAllocated * 2
	if c.nextGC < initialNextGC {
		c.nextGC = initialNextGC
	}
	c.Collections++
}

func (c *Collector) markValue(v Value) {
	if v.kind == KindObject && v.obj != nil {
		c.mark(v.obj)
	}
}

func (c *Collector) mark(obj Object) {
	h := obj.gcHeader()
	if h.marked {
		return
	}
	h.marked = true
	c.gray = append(c.gray, obj)
}

func (c *Collector) traceReferences() {
	for len(c.gray) > 0 {
		obj := c.gray[len(c.gray)-1]
		c.gray = c.gray[:len(c.gray)-1]
		obj.traceRefs(c.markValue)
	}
}

func (c *Collector) sweep() {
	var prev Object
	cur := c.objects
	for cur != nil {
		h := cur.gcHeader()
		next := h.next
		if h.marked {
			h.marked = false
			prev = cur
		} else {
			if prev == nil {
				c.objects = next
			} else {
				prev.gcHeader().next = next
			}
			c.bytesAllocated -= int64(objSize[cur.objKind()])
		}
		cur = next
	}
}

// --- allocation ---

func (c *Collector) NewString(s string) *String {
	c.maybeCollect()
	o := &String{s: s}
	c.link(o, ObjString)
	return o
}

func (c *Collector) NewFunction(name string, arity int) *Function {
	c.maybeCollect()
	o := &Function{Name: name, Arity: arity, Chunk: &Chunk{}}
	c.link(o, ObjFunction)
	return o
}

func (c *Collector) NewNative(name string, arity int, fn NativeFn) *Native {
	c.maybeCollect()
	o := &Native{Name: name, Arity: arity, Fn: fn}
	c.link(o, ObjNative)
	return o
}

func (c *Collector) NewClosure(fn *Function) *Closure {
	c.maybeCollect()
	o := &Closure{Fn: fn, Upvalues: make([]*Upvalue, fn.UpvalueCount)}
	c.link(o, ObjClosure)
	return o
}

// NewUpvalue allocates an open upvalue pointing at loc.
func (c *Collector) NewUpvalue(loc *Value) *Upvalue {
	c.maybeCollect()
	o := &Upvalue{Location: loc}
	c.link(o, ObjUpvalue)
	return o
}

func (c *Collector) NewClass(name string) *Class {
	c.maybeCollect()
	o := &Class{Name: name, Methods: NewTable[*Closure](4)}
	c.link(o, ObjClass)
	return o
}

// NewInstance allocates an instance of cls, or a classless instance
// (cls == nil) backing an array or map literal.
func (c *Collector) NewInstance(cls *Class) *Instance {
	c.maybeCollect()
	o := &Instance{Class: cls, Fields: NewTable[Value](4)}
	c.link(o, ObjInstance)
	return o
}

func (c *Collector) NewBoundMethod(receiver Value, method *Closure) *BoundMethod {
	c.maybeCollect()
	o := &BoundMethod{Receiver: receiver, Method: method}
	c.link(o, ObjBoundMethod)
	return o
}

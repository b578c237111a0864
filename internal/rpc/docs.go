package rpc

// DeviceVisitor receives documentation for the callbacks of a device.
type DeviceVisitor interface {
	VisitCallback(name string) CallbackVisitor
}

// CallbackVisitor receives documentation for one callback. Calls chain.
type CallbackVisitor interface {
	Description(text string) CallbackVisitor
	ReturnValueDescription(text string) CallbackVisitor
	ParameterDescription(name, text string) CallbackVisitor
}

// MethodDoc is the recorded documentation of one method.
type MethodDoc struct {
	Description string            `json:"description,omitempty"`
	Returns     string            `json:"returns,omitempty"`
	Parameters  map[string]string `json:"parameters,omitempty"`
}

// Empty reports whether no documentation was recorded.
func (d MethodDoc) Empty() bool {
	return d.Description == "" && d.Returns == "" && len(d.Parameters) == 0
}

// docRecorder collects documentation keyed by callback name.
type docRecorder struct {
	docs map[string]*MethodDoc
}

func newDocRecorder() *docRecorder {
	return &docRecorder{docs: make(map[string]*MethodDoc)}
}

func (r *docRecorder) VisitCallback(name string) CallbackVisitor {
	doc, ok := r.docs[name]
	if !ok {
		doc = &MethodDoc{}
		r.docs[name] = doc
	}
	return &docEntry{doc: doc}
}

type docEntry struct {
	doc *MethodDoc
}

func (e *docEntry) Description(text string) CallbackVisitor {
	e.doc.Description = text
	return e
}

func (e *docEntry) ReturnValueDescription(text string) CallbackVisitor {
	e.doc.Returns = text
	return e
}

func (e *docEntry) ParameterDescription(name, text string) CallbackVisitor {
	if e.doc.Parameters == nil {
		e.doc.Parameters = make(map[string]string)
	}
	e.doc.Parameters[name] = text
	return e
}

package rpc

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"unicode"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/multierr"
)

// DefaultCacheSize is the number of host types whose method tables are cached.
const DefaultCacheSize = 64

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()

	paramTagPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// DefaultBinder is the process-wide binder used by Wrap.
var DefaultBinder = NewBinder(DefaultCacheSize)

// Binder builds method tables from host callbacks.
//
// Tables are validated and built once per host type, then cached; binding a
// host only attaches the receiver. A Binder is safe for concurrent use.
type Binder struct {
	tables *lru.Cache[reflect.Type, *methodTable]
}

type methodTable struct {
	specs []*methodSpec
	err   error
}

type methodSpec struct {
	name        string
	goName      string
	index       int
	withContext bool
	params      []Parameter
	numResults  int
	hasError    bool
	synchronize bool
}

// NewBinder creates a binder caching up to size host types.
func NewBinder(size int) *Binder {
	if size <= 0 {
		size = DefaultCacheSize
	}
	tables, err := lru.New[reflect.Type, *methodTable](size)
	if err != nil {
		// only possible for a non-positive size
		panic(err)
	}
	return &Binder{tables: tables}
}

// BindMethods returns the callable methods declared by host, in declaration
// order. Hosts that do not implement CallbackProvider have no methods.
//
// Every invalid callback is reported; a host with any invalid callback gets
// no methods at all.
func (b *Binder) BindMethods(host any) ([]*Method, error) {
	provider, ok := host.(CallbackProvider)
	if !ok {
		return nil, nil
	}

	t := reflect.TypeOf(host)
	table, ok := b.tables.Get(t)
	if !ok {
		table = buildTable(t, provider.Callbacks())
		b.tables.Add(t, table)
	}
	if table.err != nil {
		return nil, table.err
	}

	recv := reflect.ValueOf(host)
	methods := make([]*Method, len(table.specs))
	for i, spec := range table.specs {
		methods[i] = &Method{spec: spec, recv: recv}
	}
	return methods, nil
}

// CachedTypes returns the number of host types currently cached.
func (b *Binder) CachedTypes() int {
	return b.tables.Len()
}

func buildTable(t reflect.Type, callbacks []Callback) *methodTable {
	var errs error
	specs := make([]*methodSpec, 0, len(callbacks))
	seen := make(map[string]bool, len(callbacks))

	for _, cb := range callbacks {
		spec, err := buildSpec(t, cb)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if seen[spec.name] {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s declares %q more than once", ErrDuplicateMethod, t, spec.name))
			continue
		}
		seen[spec.name] = true
		specs = append(specs, spec)
	}

	if errs != nil {
		return &methodTable{err: errs}
	}
	return &methodTable{specs: specs}
}

func buildSpec(t reflect.Type, cb Callback) (*methodSpec, error) {
	m, ok := t.MethodByName(cb.Method)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no exported method %q", ErrInvalidCallback, t, cb.Method)
	}
	mt := m.Type
	if mt.IsVariadic() {
		return nil, fmt.Errorf("%w: %s.%s is variadic", ErrInvalidCallback, t, cb.Method)
	}

	spec := &methodSpec{
		name:        cb.Name,
		goName:      cb.Method,
		index:       m.Index,
		synchronize: !cb.Async,
	}
	if spec.name == "" {
		spec.name = lowerFirst(cb.Method)
	}

	// In(0) is the receiver.
	first := 1
	if mt.NumIn() > 1 && mt.In(1) == contextType {
		spec.withContext = true
		first = 2
	}

	if got, want := len(cb.Params), mt.NumIn()-first; got != want {
		return nil, fmt.Errorf("%w: %s.%s declares %d parameter tags for %d parameters",
			ErrInvalidCallback, t, cb.Method, got, want)
	}

	tags := make(map[string]bool, len(cb.Params))
	for i, tag := range cb.Params {
		if !paramTagPattern.MatchString(tag) {
			return nil, fmt.Errorf("%w: %s.%s parameter %d has tag %q", ErrInvalidParameterTag, t, cb.Method, i, tag)
		}
		if tags[tag] {
			return nil, fmt.Errorf("%w: %s.%s repeats tag %q", ErrInvalidParameterTag, t, cb.Method, tag)
		}
		tags[tag] = true

		gt := mt.In(first + i)
		semantic, err := semanticType(gt)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s parameter %q: %v", ErrInvalidCallback, t, cb.Method, tag, err)
		}
		spec.params = append(spec.params, Parameter{
			Name:     tag,
			Type:     semantic,
			Nullable: gt.Kind() == reflect.Pointer || gt.Kind() == reflect.Interface,
			goType:   gt,
		})
	}

	n := mt.NumOut()
	if n > 0 && mt.Out(n-1) == errorType {
		spec.hasError = true
		n--
	}
	for i := 0; i < n; i++ {
		switch mt.Out(i).Kind() {
		case reflect.Chan, reflect.Func, reflect.UnsafePointer:
			return nil, fmt.Errorf("%w: %s.%s result %d has unsupported type %s",
				ErrInvalidCallback, t, cb.Method, i, mt.Out(i))
		}
	}
	spec.numResults = n

	return spec, nil
}

type argumentTyper interface {
	ArgumentTypeName() string
}

var argumentTyperType = reflect.TypeOf((*argumentTyper)(nil)).Elem()

// semanticType returns the name reported to callers for a parameter type.
func semanticType(t reflect.Type) (string, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Interface && t.Kind() != reflect.Pointer && t.Implements(argumentTyperType) {
		return reflect.Zero(t).Interface().(argumentTyper).ArgumentTypeName(), nil
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "int", nil
	case reflect.Float32, reflect.Float64:
		return "number", nil
	case reflect.String:
		return "string", nil
	case reflect.Bool:
		return "boolean", nil
	case reflect.Slice:
		if _, err := semanticType(t.Elem()); err != nil {
			return "", err
		}
		return "array", nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return "", fmt.Errorf("map key must be a string, got %s", t.Key())
		}
		return "object", nil
	case reflect.Struct:
		return "object", nil
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return "any", nil
		}
	}
	return "", fmt.Errorf("unsupported type %s", t)
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

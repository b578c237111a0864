package rpc

import (
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
)

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

type validator interface {
	Validate() error
}

// convert turns a decoded argument into a value of type target.
//
// Arguments usually come from JSON, so numbers arrive as float64 or
// json.Number, objects as map[string]any and arrays as []any.
func convert(raw any, target reflect.Type) (reflect.Value, error) {
	if raw == nil {
		switch target.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
			return reflect.Zero(target), nil
		}
		return reflect.Value{}, fmt.Errorf("expected %s, got null", target)
	}
	if target.Kind() == reflect.Pointer {
		elem, err := convert(raw, target.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(target.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil
	}

	out := reflect.New(target).Elem()
	if err := assign(out, raw); err != nil {
		return reflect.Value{}, err
	}
	if err := validate(out); err != nil {
		return reflect.Value{}, err
	}
	return out, nil
}

func assign(out reflect.Value, raw any) error {
	target := out.Type()
	if raw == nil {
		return fmt.Errorf("expected %s, got null", target)
	}
	rv := reflect.ValueOf(raw)

	if rv.Type().AssignableTo(target) {
		out.Set(rv)
		return nil
	}

	if s, ok := raw.(string); ok && reflect.PointerTo(target).Implements(textUnmarshalerType) {
		return out.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s))
	}

	switch target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt64(raw)
		if err != nil {
			return err
		}
		if out.OverflowInt(n) {
			return fmt.Errorf("%d overflows %s", n, target)
		}
		out.SetInt(n)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := toInt64(raw)
		if err != nil {
			return err
		}
		if n < 0 || out.OverflowUint(uint64(n)) {
			return fmt.Errorf("%d overflows %s", n, target)
		}
		out.SetUint(uint64(n))
		return nil

	case reflect.Float32, reflect.Float64:
		f, err := toFloat64(raw)
		if err != nil {
			return err
		}
		if out.OverflowFloat(f) {
			return fmt.Errorf("%g overflows %s", f, target)
		}
		out.SetFloat(f)
		return nil

	case reflect.String:
		if rv.Kind() != reflect.String {
			return fmt.Errorf("expected string, got %T", raw)
		}
		out.SetString(rv.String())
		return nil

	case reflect.Bool:
		if rv.Kind() != reflect.Bool {
			return fmt.Errorf("expected boolean, got %T", raw)
		}
		out.SetBool(rv.Bool())
		return nil

	case reflect.Slice:
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return fmt.Errorf("expected array, got %T", raw)
		}
		slice := reflect.MakeSlice(target, rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem, err := convert(rv.Index(i).Interface(), target.Elem())
			if err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
			slice.Index(i).Set(elem)
		}
		out.Set(slice)
		return nil

	case reflect.Map:
		if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("expected object, got %T", raw)
		}
		m := reflect.MakeMapWithSize(target, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := iter.Key().String()
			elem, err := convert(iter.Value().Interface(), target.Elem())
			if err != nil {
				return fmt.Errorf("key %q: %w", key, err)
			}
			m.SetMapIndex(reflect.ValueOf(key).Convert(target.Key()), elem)
		}
		out.Set(m)
		return nil

	case reflect.Struct:
		if rv.Kind() != reflect.Map {
			return fmt.Errorf("expected object, got %T", raw)
		}
		data, err := json.Marshal(raw)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, out.Addr().Interface())
	}

	return fmt.Errorf("cannot use %T as %s", raw, target)
}

func validate(v reflect.Value) error {
	if v.CanAddr() {
		if val, ok := v.Addr().Interface().(validator); ok {
			return val.Validate()
		}
	}
	if val, ok := v.Interface().(validator); ok {
		return val.Validate()
	}
	return nil
}

func toInt64(raw any) (int64, error) {
	if num, ok := raw.(json.Number); ok {
		if n, err := num.Int64(); err == nil {
			return n, nil
		}
		f, err := num.Float64()
		if err != nil {
			return 0, fmt.Errorf("expected integer, got %q", num)
		}
		return floatToInt64(f)
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("%d out of range", u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return floatToInt64(rv.Float())
	}
	return 0, fmt.Errorf("expected integer, got %T", raw)
}

func floatToInt64(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("expected integer, got %v", f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%v out of range", f)
	}
	return int64(f), nil
}

func toFloat64(raw any) (float64, error) {
	if num, ok := raw.(json.Number); ok {
		f, err := num.Float64()
		if err != nil {
			return 0, fmt.Errorf("expected number, got %q", num)
		}
		return f, nil
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	}
	return 0, fmt.Errorf("expected number, got %T", raw)
}

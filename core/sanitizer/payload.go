package sanitizer

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"
)

const (
	// Hidden replaces values whose keys match a sensitive prefix.
	Hidden = "[HIDDEN]"

	// Circular replaces references to previously visited objects.
	Circular = "[Circular]"
)

// ErrDataClone is returned when a value cannot be represented as a plain
// object suitable for transmission.
var ErrDataClone = errors.New("payload must be a plain object")

// sensitivePrefixes are matched case-sensitively against key names. A
// matching key is masked whatever the type of its value.
var sensitivePrefixes = []string{"password", "creditcard"}

var (
	timeType   = reflect.TypeOf(time.Time{})
	regexpType = reflect.TypeOf(regexp.Regexp{})
)

// Sanitize returns a redacted deep copy of v. The copy never aliases the
// caller's value, so the original is left untouched.
//
// The top level must be a plain object: a string-keyed map or a struct.
// Within it, sensitive keys are replaced with Hidden, function and channel
// values are dropped, time.Time values pass through unchanged, regular
// expressions are reduced to their pattern source, and references to
// previously visited objects become Circular instead of recursing.
func Sanitize(v any) (map[string]any, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Interface || rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, ErrDataClone
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, ErrDataClone
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
			return nil, ErrDataClone
		}
	case reflect.Struct:
		if rv.Type() == timeType || rv.Type() == regexpType {
			return nil, ErrDataClone
		}
	default:
		return nil, ErrDataClone
	}

	out, keep := cloneValue(rv, make(map[uintptr]struct{}))
	if !keep {
		return nil, ErrDataClone
	}
	m, ok := out.(map[string]any)
	if !ok {
		return nil, ErrDataClone
	}
	return m, nil
}

func sensitiveKey(key string) bool {
	for _, prefix := range sensitivePrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// cloneValue copies a single value. The second return value is false when
// the value has no serializable representation and its key should be
// dropped entirely.
func cloneValue(rv reflect.Value, seen map[uintptr]struct{}) (any, bool) {
	if !rv.IsValid() {
		return nil, true
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return nil, true
		}
		return cloneValue(rv.Elem(), seen)

	case reflect.Pointer:
		if rv.IsNil() {
			return nil, true
		}
		if rv.Type() == reflect.PointerTo(regexpType) {
			return rv.Interface().(*regexp.Regexp).String(), true
		}
		ptr := rv.Pointer()
		if _, visited := seen[ptr]; visited {
			return Circular, true
		}
		seen[ptr] = struct{}{}
		return cloneValue(rv.Elem(), seen)

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		if rv.IsNil() {
			return nil, true
		}
		ptr := rv.Pointer()
		if _, visited := seen[ptr]; visited {
			return Circular, true
		}
		seen[ptr] = struct{}{}

		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := iter.Key().String()
			if sensitiveKey(key) {
				out[key] = Hidden
				continue
			}
			val, keep := cloneValue(iter.Value(), seen)
			if !keep {
				continue
			}
			out[key] = val
		}
		return out, true

	case reflect.Slice:
		if rv.IsNil() {
			return nil, true
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return b, true
		}
		ptr := rv.Pointer()
		if _, visited := seen[ptr]; visited {
			return Circular, true
		}
		seen[ptr] = struct{}{}
		return cloneSequence(rv, seen), true

	case reflect.Array:
		return cloneSequence(rv, seen), true

	case reflect.Struct:
		if rv.Type() == timeType {
			return rv.Interface(), true
		}
		if rv.Type() == regexpType {
			re := rv.Interface().(regexp.Regexp)
			return (&re).String(), true
		}
		return cloneStruct(rv, seen), true

	case reflect.Func, reflect.Chan, reflect.UnsafePointer,
		reflect.Complex64, reflect.Complex128, reflect.Uintptr:
		return nil, false

	default:
		// Scalars: strings, booleans, numeric kinds.
		return rv.Interface(), true
	}
}

func cloneSequence(rv reflect.Value, seen map[uintptr]struct{}) []any {
	out := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		val, keep := cloneValue(rv.Index(i), seen)
		if !keep {
			continue
		}
		out = append(out, val)
	}
	return out
}

func cloneStruct(rv reflect.Value, seen map[uintptr]struct{}) map[string]any {
	t := rv.Type()
	out := make(map[string]any, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag, ok := field.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		if sensitiveKey(name) {
			out[name] = Hidden
			continue
		}
		val, keep := cloneValue(rv.Field(i), seen)
		if !keep {
			continue
		}
		out[name] = val
	}
	return out
}

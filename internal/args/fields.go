package args

import (
	"reflect"
	"time"

	"github.com/pkg/errors"
)

// TagName is the struct tag naming the CLI flag of an option group field.
const TagName = "flag"

// ErrUnsupportedField is returned when a tagged field has a type that has
// no CLI encoding.
var ErrUnsupportedField = errors.New("unsupported option field type")

// Field is one defined option of a group, ready to store in a Map.
type Field struct {
	Key   string
	Value Value
}

var durationType = reflect.TypeOf(time.Duration(0))

// Fields returns the defined fields of an option group in declaration order.
//
// group must be a struct or a pointer to one; a nil pointer yields no
// fields. Every exported field tagged `flag:"name"` is considered; a field
// holding its zero value is undefined and skipped. Supported field types are
// string, bool, integers, floats, time.Duration and []string.
func Fields(group any) ([]Field, error) {
	if group == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(group)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, errors.Wrapf(ErrUnsupportedField, "option group must be a struct, got %s", rv.Type())
	}

	rt := rv.Type()
	fields := make([]Field, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		key := sf.Tag.Get(TagName)
		if key == "" || key == "-" || !sf.IsExported() {
			continue
		}
		v, err := encode(rv.Field(i))
		if err != nil {
			return nil, errors.Wrapf(err, "%s.%s", rt.Name(), sf.Name)
		}
		if v.Defined() {
			fields = append(fields, Field{Key: key, Value: v})
		}
	}
	return fields, nil
}

func encode(fv reflect.Value) (Value, error) {
	if fv.IsZero() {
		return Value{}, nil
	}
	if fv.Type() == durationType {
		return String(time.Duration(fv.Int()).String()), nil
	}
	switch fv.Kind() {
	case reflect.String:
		return String(fv.String()), nil
	case reflect.Bool:
		return Bool(fv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int64(fv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Uint64(fv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return Number(fv.Float()), nil
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			break
		}
		if fv.Len() == 0 {
			return Value{}, nil
		}
		items := make([]string, fv.Len())
		for i := range items {
			items[i] = fv.Index(i).String()
		}
		return List(items...), nil
	}
	return Value{}, errors.Wrapf(ErrUnsupportedField, "type %s", fv.Type())
}

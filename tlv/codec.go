package tlv

import (
	"reflect"

	"github.com/broadband-mesh/al1905/wire"
)

// Parse reads one type+length+body TLV from the front of buf and returns the
// decoded value together with the number of bytes consumed. EndOfMessage
// (type 0) parses like any other registered type here; cmdu, which drives a
// TLV *list*, consumes it as the end marker and does not keep it.
func Parse(buf []byte, opts ParseOptions) (TLV, int, error) {
	r := wire.NewReader(buf)
	t, ok := r.U8()
	if !ok {
		return nil, 0, ErrShortBuffer
	}
	length, ok := r.U16()
	if !ok {
		return nil, 0, ErrShortBuffer
	}
	if r.Remaining() < int(length) {
		return nil, 0, ErrShortBuffer
	}
	body, _ := r.N(int(length))

	fn, known := registry[Type(t)]
	if !known {
		return nil, 0, ErrUnknownType
	}
	val, err := fn(body, opts)
	if err != nil {
		return nil, 0, err
	}
	return val, 3 + int(length), nil
}

// Forge serializes t into type+length+body bytes. The total length always
// equals the body length plus 3.
func Forge(t TLV, opts ForgeOptions) ([]byte, error) {
	body, err := t.forgeBody(opts)
	if err != nil {
		return nil, err
	}
	if len(body) > MaxBodyLen {
		return nil, ErrTooLong
	}
	w := wire.NewWriter(3 + len(body))
	w.U8(byte(t.Type()))
	w.U16(uint16(len(body)))
	w.N(body)
	return w.Bytes(), nil
}

// Compare reports structural equality of two TLVs. Mismatched or nil
// arguments compare unequal.
func Compare(a, b TLV) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Type() != b.Type() {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// Visitor receives one (name, format, value) triple per leaf field during
// Visit, mirroring the original's print-callback-per-field traversal: a
// value-printer callback per field, given a name, format string, and
// pointer.
type Visitor func(name, format string, value interface{})

// Visit walks the exported fields of t, calling v for each leaf value. It
// recurses into nested structs and slices of structs, prefixing names with
// "parent.field" / "parent[i].field" the way a dump of nested TLV
// sub-records reads.
func Visit(t TLV, v Visitor) {
	if t == nil {
		return
	}
	rv := reflect.ValueOf(t)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	visitValue("", rv, v)
}

func visitValue(prefix string, rv reflect.Value, v Visitor) {
	if rv.Kind() != reflect.Struct {
		return
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}
		name := field.Name
		if prefix != "" {
			name = prefix + "." + name
		}
		fv := rv.Field(i)
		switch fv.Kind() {
		case reflect.Struct:
			visitValue(name, fv, v)
		case reflect.Slice, reflect.Array:
			if fv.Type().Elem().Kind() == reflect.Struct {
				for j := 0; j < fv.Len(); j++ {
					visitValue(indexName(name, j), fv.Index(j), v)
				}
				continue
			}
			v(name, "%v", fv.Interface())
		case reflect.Ptr:
			if fv.IsNil() {
				v(name, "%v", nil)
				continue
			}
			if fv.Elem().Kind() == reflect.Struct {
				visitValue(name, fv.Elem(), v)
				continue
			}
			v(name, "%v", fv.Elem().Interface())
		default:
			v(name, fieldFormat(fv.Kind()), fv.Interface())
		}
	}
}

func indexName(name string, i int) string {
	return name + "[" + itoa(i) + "]"
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

func fieldFormat(k reflect.Kind) string {
	switch k {
	case reflect.String:
		return "%s"
	case reflect.Bool:
		return "%t"
	default:
		return "%d"
	}
}

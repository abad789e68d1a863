// Package alme implements the private (non-standardized) Abstraction-Layer
// Management Entity primitive codec used for local CLI/ops control: ~18
// primitives, each a 1-byte type discriminator followed by a fixed or
// length-prefixed payload. Two primitives (get-metric-response and
// get-intf-list-response) embed standard TLVs and delegate to the tlv
// package; everything else is self-contained.
//
// Grounded on 1905_alme.c/1905_alme.h (original_source) for the exact byte
// layouts, and on the tlv package's Parse/Forge/Compare/Visit contract,
// which this layer mirrors.
package alme

import (
	"errors"
	"reflect"

	"github.com/broadband-mesh/al1905/wire"
)

// Type is the 1-byte ALME primitive discriminator.
type Type byte

const (
	TypeGetIntfListRequest     Type = 0x01
	TypeGetIntfListResponse    Type = 0x02
	TypeSetIntfPwrStateRequest Type = 0x03
	TypeSetIntfPwrStateConfirm Type = 0x04
	TypeGetIntfPwrStateRequest  Type = 0x05
	TypeGetIntfPwrStateResponse Type = 0x06
	TypeSetFwdRuleRequest      Type = 0x07
	TypeSetFwdRuleConfirm      Type = 0x08
	TypeGetFwdRulesRequest     Type = 0x09
	TypeModifyFwdRuleRequest   Type = 0x0A
	TypeModifyFwdRuleConfirm   Type = 0x0B
	TypeRemoveFwdRuleRequest   Type = 0x0C
	TypeRemoveFwdRuleConfirm   Type = 0x0D
	TypeGetMetricRequest       Type = 0x0E
	TypeGetMetricResponse      Type = 0x0F
	TypeGetFwdRulesResponse    Type = 0x10
	// TypeCustomCommand is shared by both the request and the
	// response/confirm direction of the non-standard custom-command
	// primitive; callers distinguish by which parse function they invoke
	// (ParseRequest vs ParseResponse), exactly as a socket-pair context
	// would in the original.
	TypeCustomCommand Type = 0xF0
)

var typeNames = map[Type]string{
	TypeGetIntfListRequest:      "getIntfListRequest",
	TypeGetIntfListResponse:     "getIntfListResponse",
	TypeSetIntfPwrStateRequest:  "setIntfPwrStateRequest",
	TypeSetIntfPwrStateConfirm:  "setIntfPwrStateConfirm",
	TypeGetIntfPwrStateRequest:  "getIntfPwrStateRequest",
	TypeGetIntfPwrStateResponse: "getIntfPwrStateResponse",
	TypeSetFwdRuleRequest:       "setFwdRuleRequest",
	TypeSetFwdRuleConfirm:       "setFwdRuleConfirm",
	TypeGetFwdRulesRequest:      "getFwdRulesRequest",
	TypeModifyFwdRuleRequest:    "modifyFwdRuleRequest",
	TypeModifyFwdRuleConfirm:    "modifyFwdRuleConfirm",
	TypeRemoveFwdRuleRequest:    "removeFwdRuleRequest",
	TypeRemoveFwdRuleConfirm:    "removeFwdRuleConfirm",
	TypeGetMetricRequest:        "getMetricRequest",
	TypeGetMetricResponse:       "getMetricResponse",
	TypeGetFwdRulesResponse:     "getFwdRulesResponse",
	TypeCustomCommand:           "customCommand",
}

// String renders the ALME type name for diagnostics.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Errors returned by ParseRequest/ParseResponse/Forge.
var (
	ErrShortBuffer  = errors.New("alme: buffer shorter than the primitive's declared length")
	ErrUnknownType  = errors.New("alme: unrecognized alme_type byte")
	ErrLengthMismatch = errors.New("alme: trailing bytes after a fixed-length primitive")
)

// Primitive is the common interface implemented by every ALME primitive.
type Primitive interface {
	Type() Type
	forgeBody() ([]byte, error)
}

type parseFunc func(body []byte) (Primitive, error)

var requestRegistry = map[Type]parseFunc{}
var responseRegistry = map[Type]parseFunc{}

func registerRequest(t Type, fn parseFunc)  { requestRegistry[t] = fn }
func registerResponse(t Type, fn parseFunc) { responseRegistry[t] = fn }

// Forge serializes p as alme_type followed by its body.
func Forge(p Primitive) ([]byte, error) {
	body, err := p.forgeBody()
	if err != nil {
		return nil, err
	}
	w := wire.NewWriter(1 + len(body))
	w.U8(byte(p.Type()))
	w.N(body)
	return w.Bytes(), nil
}

// ParseRequest decodes a primitive sent in the request/query direction.
func ParseRequest(buf []byte) (Primitive, error) {
	return parseWith(buf, requestRegistry)
}

// ParseResponse decodes a primitive sent in the response/confirm direction.
func ParseResponse(buf []byte) (Primitive, error) {
	return parseWith(buf, responseRegistry)
}

func parseWith(buf []byte, registry map[Type]parseFunc) (Primitive, error) {
	if len(buf) == 0 {
		return nil, ErrShortBuffer
	}
	fn, ok := registry[Type(buf[0])]
	if !ok {
		return nil, ErrUnknownType
	}
	return fn(buf[1:])
}

// Free releases any resources owned by p. Go's garbage collector makes
// this a no-op; kept for symmetry with tlv.Free and the original's
// ownership-transfer contract.
func Free(p Primitive) { _ = p }

// Compare reports structural equality of two primitives, mirroring
// tlv.Compare's nil/type-mismatch semantics.
func Compare(a, b Primitive) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Type() != b.Type() {
		return false
	}
	af, errA := a.forgeBody()
	bf, errB := b.forgeBody()
	if errA != nil || errB != nil {
		return false
	}
	if len(af) != len(bf) {
		return false
	}
	for i := range af {
		if af[i] != bf[i] {
			return false
		}
	}
	return true
}

// Visitor mirrors tlv.Visitor for the ALME codec.
type Visitor func(name, format string, value interface{})

// Visit walks the exported fields of p, calling v for each leaf value,
// mirroring tlv.Visit's nested-struct/slice traversal for ALME primitives
// (almetool's only use of this package is driving Visit over a decoded
// primitive to print it).
func Visit(p Primitive, v Visitor) {
	if p == nil {
		return
	}
	rv := reflect.ValueOf(p)
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
			continue
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

package valuecodec

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
	"unicode"
	"unicode/utf16"
)

// NativeValueCodec encodes primitive values without a Serializer.
type NativeValueCodec interface {
	// Handles reports whether v can be encoded natively.
	Handles(v any) bool
	Encode(v any) ([]byte, error)
	// Decode returns ok == false when data was not produced by Encode.
	Decode(data []byte) (v any, ok bool, err error)
}

// type markers, the first byte of a natively encoded value
const (
	markerByte          byte = 1
	markerBool          byte = 2
	markerInt32         byte = 3
	markerInt64         byte = 4
	markerChar          byte = 5
	markerString        byte = 6
	markerStringBuffer  byte = 7
	markerFloat32       byte = 8
	markerInt16         byte = 9
	markerFloat64       byte = 10
	markerDate          byte = 11
	markerStringBuilder byte = 12
	markerBytes         byte = 13

	markerInt    byte = 20
	markerUint   byte = 21
	markerUint8  byte = 22
	markerUint16 byte = 23
	markerUint32 byte = 24
	markerUint64 byte = 25
)

// payload sizes of fixed width markers
var fixedSize = map[byte]int{
	markerByte:    1,
	markerBool:    1,
	markerInt32:   4,
	markerInt64:   8,
	markerChar:    2,
	markerFloat32: 4,
	markerInt16:   2,
	markerFloat64: 8,
	markerDate:    8,
	markerInt:     8,
	markerUint:    8,
	markerUint8:   1,
	markerUint16:  2,
	markerUint32:  4,
	markerUint64:  8,
}

// NativeCodec is the default NativeValueCodec.
//
// A value is one marker byte followed by a big-endian payload, the layout
// other text protocol clients use for their primitive types. time.Time is
// stored as milliseconds since the epoch.
type NativeCodec struct{}

var _ NativeValueCodec = NativeCodec{}

func (NativeCodec) Handles(v any) bool {
	switch v.(type) {
	case bool, int8, int16, int32, int64, int, uint, uint8, uint16, uint32, uint64,
		float32, float64, string, []byte, time.Time:
		return true
	}
	return false
}

func (NativeCodec) Encode(v any) ([]byte, error) {
	switch x := v.(type) {
	case bool:
		b := byte(0)
		if x {
			b = 1
		}
		return []byte{markerBool, b}, nil
	case int8:
		return []byte{markerByte, byte(x)}, nil
	case int16:
		return binary.BigEndian.AppendUint16([]byte{markerInt16}, uint16(x)), nil
	case int32:
		return binary.BigEndian.AppendUint32([]byte{markerInt32}, uint32(x)), nil
	case int64:
		return binary.BigEndian.AppendUint64([]byte{markerInt64}, uint64(x)), nil
	case int:
		return binary.BigEndian.AppendUint64([]byte{markerInt}, uint64(x)), nil
	case uint:
		return binary.BigEndian.AppendUint64([]byte{markerUint}, uint64(x)), nil
	case uint8:
		return []byte{markerUint8, x}, nil
	case uint16:
		return binary.BigEndian.AppendUint16([]byte{markerUint16}, x), nil
	case uint32:
		return binary.BigEndian.AppendUint32([]byte{markerUint32}, x), nil
	case uint64:
		return binary.BigEndian.AppendUint64([]byte{markerUint64}, x), nil
	case float32:
		return binary.BigEndian.AppendUint32([]byte{markerFloat32}, math.Float32bits(x)), nil
	case float64:
		return binary.BigEndian.AppendUint64([]byte{markerFloat64}, math.Float64bits(x)), nil
	case time.Time:
		return binary.BigEndian.AppendUint64([]byte{markerDate}, uint64(x.UnixMilli())), nil
	case string:
		return append([]byte{markerString}, x...), nil
	case []byte:
		return append([]byte{markerBytes}, x...), nil
	default:
		return nil, fmt.Errorf("%w: type %T is not handled natively", ErrEncode, v)
	}
}

func (NativeCodec) Decode(data []byte) (any, bool, error) {
	if len(data) == 0 {
		return nil, false, nil
	}

	marker, payload := data[0], data[1:]
	if size, ok := fixedSize[marker]; ok && len(payload) != size {
		return nil, false, nil
	}

	switch marker {
	case markerBool:
		return payload[0] == 1, true, nil
	case markerByte:
		return int8(payload[0]), true, nil
	case markerInt16:
		return int16(binary.BigEndian.Uint16(payload)), true, nil
	case markerInt32:
		return int32(binary.BigEndian.Uint32(payload)), true, nil
	case markerInt64:
		return int64(binary.BigEndian.Uint64(payload)), true, nil
	case markerChar:
		return decodeChar(binary.BigEndian.Uint16(payload)), true, nil
	case markerInt:
		return int(binary.BigEndian.Uint64(payload)), true, nil
	case markerUint:
		return uint(binary.BigEndian.Uint64(payload)), true, nil
	case markerUint8:
		return payload[0], true, nil
	case markerUint16:
		return binary.BigEndian.Uint16(payload), true, nil
	case markerUint32:
		return binary.BigEndian.Uint32(payload), true, nil
	case markerUint64:
		return binary.BigEndian.Uint64(payload), true, nil
	case markerFloat32:
		return math.Float32frombits(binary.BigEndian.Uint32(payload)), true, nil
	case markerFloat64:
		return math.Float64frombits(binary.BigEndian.Uint64(payload)), true, nil
	case markerDate:
		return time.UnixMilli(int64(binary.BigEndian.Uint64(payload))), true, nil
	case markerString, markerStringBuffer, markerStringBuilder:
		return string(payload), true, nil
	case markerBytes:
		return append([]byte(nil), payload...), true, nil
	default:
		return nil, false, nil
	}
}

func decodeChar(unit uint16) rune {
	if utf16.IsSurrogate(rune(unit)) {
		return unicode.ReplacementChar
	}
	return rune(unit)
}

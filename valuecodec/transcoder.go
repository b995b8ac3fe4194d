package valuecodec

import (
	"fmt"
)

// Config configures a Transcoder.
type Config struct {
	// CompressEnable turns on gzip for payloads longer than CompressThreshold.
	CompressEnable bool
	// CompressThreshold in bytes, DefaultCompressThreshold when zero.
	CompressThreshold int
	// PrimitiveAsString stores and reads primitives as plain text.
	PrimitiveAsString bool
	// DefaultEncoding is a text encoding name ("UTF-8", "ISO-8859-1", ...).
	DefaultEncoding string
	// Native handles primitives, NativeCodec when nil.
	Native NativeValueCodec
	// Serializer handles everything else, gob when nil.
	Serializer Serializer
	// OnCompressError is called when compression fails and the value is stored uncompressed.
	OnCompressError func(err error)
}

// Transcoder converts values to Value and back. It is safe for concurrent use.
type Transcoder struct {
	compress          bool
	compressThreshold int
	primitiveAsString bool
	text              *textCodec
	native            NativeValueCodec
	serializer        Serializer
	onCompressError   func(err error)
}

// New returns a Transcoder for cfg.
func New(cfg Config) (*Transcoder, error) {
	text, err := newTextCodec(cfg.DefaultEncoding)
	if err != nil {
		return nil, err
	}

	t := &Transcoder{
		compress:          cfg.CompressEnable,
		compressThreshold: cfg.CompressThreshold,
		primitiveAsString: cfg.PrimitiveAsString,
		text:              text,
		native:            cfg.Native,
		serializer:        cfg.Serializer,
		onCompressError:   cfg.OnCompressError,
	}
	if t.compressThreshold <= 0 {
		t.compressThreshold = DefaultCompressThreshold
	}
	if t.native == nil {
		t.native = NativeCodec{}
	}
	if t.serializer == nil {
		t.serializer = NewGOBSerializer()
	}
	return t, nil
}

// Encoding returns the canonical name of the text encoding.
func (t *Transcoder) Encoding() string {
	return t.text.name
}

// Encode turns v into bytes and flags.
//
// Primitives are written as text when asString or PrimitiveAsString is set,
// otherwise with the native codec. Other values are serialized and flagged.
// The result is compressed when it is longer than the threshold.
func (t *Transcoder) Encode(v any, asString bool) (Value, error) {
	if v == nil {
		return Value{}, fmt.Errorf("%w: nil value", ErrEncode)
	}

	var (
		val Value
		err error
	)

	s, isText := textForm(v)
	switch {
	case isText && (asString || t.primitiveAsString):
		if val.Data, err = t.text.encode(s); err != nil {
			return Value{}, fmt.Errorf("%w: text encoding %s: %w", ErrEncode, t.text.name, err)
		}
	case t.native.Handles(v):
		if val.Data, err = t.native.Encode(v); err != nil {
			return Value{}, fmt.Errorf("%w: %w", ErrEncode, err)
		}
	default:
		if val.Data, err = t.serializer.Serialize(v); err != nil {
			return Value{}, fmt.Errorf("%w: %s serializer: %w", ErrEncode, t.serializer.Name(), err)
		}
		val.Flags |= FlagSerialized
	}

	if t.compress && len(val.Data) > t.compressThreshold {
		compressed, cErr := Compress(val.Data)
		if cErr != nil {
			if t.onCompressError != nil {
				t.onCompressError(cErr)
			}
			return val, nil
		}
		val.Data = compressed
		val.Flags |= FlagCompressed
	}

	return val, nil
}

// Decode reverses Encode for the value stored under key.
func (t *Transcoder) Decode(key string, val Value, dc DecodeContext) (any, error) {
	data := val.Data

	if val.Flags.Has(FlagCompressed) {
		var err error
		if data, err = Decompress(data); err != nil {
			return nil, fmt.Errorf("%w: gunzip %s: %w", ErrDecode, key, err)
		}
	}

	if val.Flags.Has(FlagSerialized) {
		v, err := t.serializer.Deserialize(data, dc.target(key))
		if err != nil {
			return nil, fmt.Errorf("%w: %s serializer, key %s: %w", ErrDecode, t.serializer.Name(), key, err)
		}
		return v, nil
	}

	if !dc.AsString && !t.primitiveAsString {
		v, ok, err := t.native.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%w: key %s: %w", ErrDecode, key, err)
		}
		if ok {
			return v, nil
		}
	}

	s, err := t.text.decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: text encoding %s, key %s: %w", ErrDecode, t.text.name, key, err)
	}
	return s, nil
}

package valuecodec

import (
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultEncoding is the text encoding used when none is configured.
const DefaultEncoding = "UTF-8"

type textCodec struct {
	name string
	enc  encoding.Encoding
	utf8 bool
}

func newTextCodec(name string) (*textCodec, error) {
	if name == "" {
		name = DefaultEncoding
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrUnknownEncoding, name, err)
	}
	canonical, _ := htmlindex.Name(enc)

	return &textCodec{
		name: canonical,
		enc:  enc,
		utf8: canonical == "utf-8",
	}, nil
}

func (tc *textCodec) encode(s string) ([]byte, error) {
	if tc.utf8 {
		return []byte(s), nil
	}
	return tc.enc.NewEncoder().Bytes([]byte(s))
}

func (tc *textCodec) decode(b []byte) (string, error) {
	if tc.utf8 {
		return string(b), nil
	}
	out, err := tc.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// textForm returns the text representation of a primitive, ok is false for other values.
func textForm(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int8:
		return strconv.FormatInt(int64(x), 10), true
	case int16:
		return strconv.FormatInt(int64(x), 10), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint:
		return strconv.FormatUint(uint64(x), 10), true
	case uint8:
		return strconv.FormatUint(uint64(x), 10), true
	case uint16:
		return strconv.FormatUint(uint64(x), 10), true
	case uint32:
		return strconv.FormatUint(uint64(x), 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case time.Time:
		return x.Format(time.RFC3339Nano), true
	}
	return "", false
}

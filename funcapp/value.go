package funcapp

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
)

// Value is the value of an input binding, as delivered by the host. It can be read in any
// of the three shapes; the declared DataType only decides how a JSON string is decoded.
type Value struct {
	raw      json.RawMessage
	dataType DataType
}

// Bytes returns the value as raw bytes. A JSON string is base64-decoded if the binding is
// binary and taken as UTF-8 text otherwise; any other JSON value is returned as it was
// received. A missing or null value is nil.
func (v Value) Bytes() ([]byte, error) {
	trimmed := bytes.TrimSpace(v.raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] != '"' {
		return append([]byte(nil), trimmed...), nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil, err
	}
	if v.dataType == DataTypeBinary {
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("binary value is not valid base64: %w", err)
		}
		return data, nil
	}
	return []byte(s), nil
}

// Text returns the value as a string.
func (v Value) Text() (string, error) {
	data, err := v.Bytes()
	return string(data), err
}

// Reader returns the value as a stream.
func (v Value) Reader() (io.Reader, error) {
	data, err := v.Bytes()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// Raw returns the JSON value exactly as the host sent it.
func (v Value) Raw() json.RawMessage {
	return v.raw
}

// IsNull returns true if the host sent no value.
func (v Value) IsNull() bool {
	trimmed := bytes.TrimSpace(v.raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// encodeValue converts a value set by a handler into its wire form for a non-HTTP binding.
func encodeValue(dataType DataType, value interface{}) (interface{}, error) {
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		if dataType != DataTypeBinary {
			return v, nil
		}
		data = []byte(v)
	case []byte:
		data = v
	case io.Reader:
		d, err := io.ReadAll(v)
		if err != nil {
			return nil, err
		}
		data = d
	default:
		return value, nil
	}
	if dataType == DataTypeBinary {
		return base64.StdEncoding.EncodeToString(data), nil
	}
	return string(data), nil
}

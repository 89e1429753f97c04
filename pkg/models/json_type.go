package models

import (
	"encoding/json"
	"fmt"
)

// JSONType is the primitive kind of a decoded JSON value.
type JSONType int

const (
	JSONNull JSONType = iota
	JSONBoolean
	JSONNumber
	JSONString
	JSONArray
	JSONObject
)

// AllJSONTypes lists every kind in declaration order.
var AllJSONTypes = []JSONType{JSONNull, JSONBoolean, JSONNumber, JSONString, JSONArray, JSONObject}

var jsonTypeNames = map[JSONType]string{
	JSONNull:    "null",
	JSONBoolean: "boolean",
	JSONNumber:  "number",
	JSONString:  "string",
	JSONArray:   "array",
	JSONObject:  "object",
}

func (t JSONType) String() string {
	if name, ok := jsonTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("JSONType(%d)", int(t))
}

// MarshalText lets JSONType be used as a JSON object key.
func (t JSONType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses the lowercase kind name.
func (t *JSONType) UnmarshalText(text []byte) error {
	for kind, name := range jsonTypeNames {
		if name == string(text) {
			*t = kind
			return nil
		}
	}
	return fmt.Errorf("unknown JSON type %q", string(text))
}

// IsScalar reports whether values of this kind can be extracted into a native column type.
func (t JSONType) IsScalar() bool {
	return t == JSONString || t == JSONNumber || t == JSONBoolean
}

// IsContainer reports whether the kind is an object or array.
func (t JSONType) IsContainer() bool {
	return t == JSONObject || t == JSONArray
}

// ClassifyValue maps a decoded JSON value to its primitive kind.
// Anything that is not a recognised scalar or container is treated as a string,
// which covers values produced by decoders that surface unusual scalar types.
func ClassifyValue(v any) JSONType {
	switch v.(type) {
	case nil:
		return JSONNull
	case bool:
		return JSONBoolean
	case json.Number, float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return JSONNumber
	case string:
		return JSONString
	case []any:
		return JSONArray
	case map[string]any:
		return JSONObject
	default:
		return JSONString
	}
}

// Package tagvalue implements the tagged-value sum type carried by node
// attributes: integers, floats, strings, byte blobs, timestamps, nested
// records, and references to a node's virtual file.
package tagvalue

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies which field of a Value is populated.
type Kind string

const (
	KindInt    Kind = "int"
	KindUint   Kind = "uint"
	KindFloat  Kind = "float"
	KindString Kind = "string"
	KindBytes  Kind = "bytes"
	KindTime   Kind = "time"
	KindRecord Kind = "record"
	KindVFile  Kind = "vfile"
)

// Value is a tagged union understood by the attribute system. Only one of
// the typed fields is meaningful, selected by Kind.
type Value struct {
	Kind   Kind
	Int    int64
	Uint   uint64
	Float  float64
	Str    string
	Bytes  []byte
	Time   time.Time
	Record map[string]Value
	// VFileKey names the vfile builder registered for this value; resolved
	// through a vfile.Registry rather than embedded directly, so dumping an
	// attribute bag never eagerly reads file contents.
	VFileKey string
}

func Int(v int64) Value           { return Value{Kind: KindInt, Int: v} }
func Uint(v uint64) Value         { return Value{Kind: KindUint, Uint: v} }
func Float(v float64) Value       { return Value{Kind: KindFloat, Float: v} }
func String(v string) Value       { return Value{Kind: KindString, Str: v} }
func Bytes(v []byte) Value        { return Value{Kind: KindBytes, Bytes: v} }
func Time(v time.Time) Value      { return Value{Kind: KindTime, Time: v} }
func Record(v map[string]Value) Value { return Value{Kind: KindRecord, Record: v} }
func VFile(key string) Value      { return Value{Kind: KindVFile, VFileKey: key} }

// wireValue is the JSON-on-the-wire shape: {"type": "...", "value": ...}.
type wireValue struct {
	Type  Kind            `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON renders the tagged value as {"type":"<kind>","value":<payload>}.
func (v Value) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.Kind {
	case KindInt:
		payload = v.Int
	case KindUint:
		payload = v.Uint
	case KindFloat:
		payload = v.Float
	case KindString:
		payload = v.Str
	case KindBytes:
		payload = base64.StdEncoding.EncodeToString(v.Bytes)
	case KindTime:
		payload = v.Time.UTC().Format(time.RFC3339Nano)
	case KindRecord:
		payload = v.Record
	case KindVFile:
		payload = v.VFileKey
	default:
		return nil, fmt.Errorf("tagvalue: unknown kind %q", v.Kind)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireValue{Type: v.Kind, Value: raw})
}

// UnmarshalJSON parses the {"type":...,"value":...} wire shape produced by
// MarshalJSON; this is the shape a client sends through POST /api/attribute.
func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("tagvalue: %w", err)
	}
	switch w.Type {
	case KindInt:
		var i int64
		if err := json.Unmarshal(w.Value, &i); err != nil {
			return err
		}
		*v = Int(i)
	case KindUint:
		var u uint64
		if err := json.Unmarshal(w.Value, &u); err != nil {
			return err
		}
		*v = Uint(u)
	case KindFloat:
		var f float64
		if err := json.Unmarshal(w.Value, &f); err != nil {
			return err
		}
		*v = Float(f)
	case KindString:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return err
		}
		*v = String(s)
	case KindBytes:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return err
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return fmt.Errorf("tagvalue: invalid base64 bytes: %w", err)
		}
		*v = Bytes(b)
	case KindTime:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("tagvalue: invalid time: %w", err)
		}
		*v = Time(t)
	case KindRecord:
		var m map[string]Value
		if err := json.Unmarshal(w.Value, &m); err != nil {
			return err
		}
		*v = Record(m)
	case KindVFile:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return err
		}
		*v = VFile(s)
	default:
		return fmt.Errorf("tagvalue: unknown kind %q", w.Type)
	}
	return nil
}

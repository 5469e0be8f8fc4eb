package kvdb

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Type identifies the payload stored for an item.
type Type uint8

const (
	// TypeContainer marks an item that only groups children.
	TypeContainer Type = iota
	TypeInt32
	TypeInt64
	TypeString
	// TypeRecord holds an opaque payload encoded by the caller.
	TypeRecord
)

func (t Type) valid() bool {
	return t <= TypeRecord
}

func (t Type) String() string {
	switch t {
	case TypeContainer:
		return "container"
	case TypeInt32:
		return "int32"
	case TypeInt64:
		return "int64"
	case TypeString:
		return "string"
	case TypeRecord:
		return "record"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// ErrType is returned when a value is read as the wrong type.
var ErrType = errors.New("kvdb: value type mismatch")

// Value is a typed payload attached to an item.
type Value struct {
	typ  Type
	data []byte
}

// Int32 returns a value holding v.
func Int32(v int32) Value {
	return Value{typ: TypeInt32, data: binary.LittleEndian.AppendUint32(nil, uint32(v))}
}

// Int64 returns a value holding v.
func Int64(v int64) Value {
	return Value{typ: TypeInt64, data: binary.LittleEndian.AppendUint64(nil, uint64(v))}
}

// String returns a value holding s.
func String(s string) Value {
	return Value{typ: TypeString, data: []byte(s)}
}

// Record returns a value holding an opaque encoded payload.
func Record(payload []byte) Value {
	return Value{typ: TypeRecord, data: payload}
}

// Type returns the type of the value.
func (v Value) Type() Type {
	return v.typ
}

// Bytes returns the raw payload.
func (v Value) Bytes() []byte {
	return v.data
}

// Int32 decodes an int32 value.
func (v Value) Int32() (int32, error) {
	if v.typ != TypeInt32 || len(v.data) != 4 {
		return 0, fmt.Errorf("%w: want int32, have %s", ErrType, v.typ)
	}
	return int32(binary.LittleEndian.Uint32(v.data)), nil
}

// Int64 decodes an int64 value.
func (v Value) Int64() (int64, error) {
	if v.typ != TypeInt64 || len(v.data) != 8 {
		return 0, fmt.Errorf("%w: want int64, have %s", ErrType, v.typ)
	}
	return int64(binary.LittleEndian.Uint64(v.data)), nil
}

// Str decodes a string value.
func (v Value) Str() (string, error) {
	if v.typ != TypeString {
		return "", fmt.Errorf("%w: want string, have %s", ErrType, v.typ)
	}
	return string(v.data), nil
}

// RecordBytes returns the payload of a record value.
func (v Value) RecordBytes() ([]byte, error) {
	if v.typ != TypeRecord {
		return nil, fmt.Errorf("%w: want record, have %s", ErrType, v.typ)
	}
	return v.data, nil
}

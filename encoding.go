package kvdoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
)

type Encoding int

const (
	MsgPack Encoding = iota
	JSON
)

// Every stored object starts with a format byte, so data written with one
// encoding stays readable after switching to another.
const (
	formatMsgPack byte = 0x81
	formatJSON    byte = 0x82
)

type jsonEnvelope struct {
	Type  string          `json:"t"`
	Value json.RawMessage `json:"v"`
}

func (enc Encoding) String() string {
	switch enc {
	case MsgPack:
		return "msgpack"
	case JSON:
		return "json"
	default:
		return fmt.Sprintf("encoding(%d)", int(enc))
	}
}

// ParseEncoding maps "msgpack" or "json" to an encoding method.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "", "msgpack":
		return MsgPack, nil
	case "json":
		return JSON, nil
	default:
		return 0, fmt.Errorf("unknown encoding %q", s)
	}
}

// encodeObject appends the envelope of objVal (type name + value) to buf.
func (enc Encoding) encodeObject(buf []byte, name string, objVal reflect.Value) []byte {
	switch enc {
	case MsgPack:
		bb := bytesBuilder{buf}
		bb.AppendByte(formatMsgPack)
		e := msgpack.GetEncoder()
		e.Reset(&bb)
		e.SetSortMapKeys(true)
		err := e.EncodeArrayLen(2)
		if err == nil {
			err = e.EncodeString(name)
		}
		if err == nil {
			err = e.EncodeValue(objVal)
		}
		msgpack.PutEncoder(e)
		if err != nil {
			panic(fmt.Errorf("failed to encode %s (%v) using MsgPack: %w", name, objVal.Type(), err))
		}
		return bb.Buf
	case JSON:
		raw, err := json.Marshal(objVal.Interface())
		if err != nil {
			panic(fmt.Errorf("failed to encode %s (%v) to JSON: %w", name, objVal.Type(), err))
		}
		env, err := json.Marshal(jsonEnvelope{name, raw})
		if err != nil {
			panic(fmt.Errorf("failed to encode %s envelope to JSON: %w", name, err))
		}
		buf = append(buf, formatJSON)
		return appendRaw(buf, env)
	default:
		panic("unsupported encoding")
	}
}

// decodeObject decodes an envelope produced by encodeObject into a new value
// of the registered type.
func decodeObject(buf []byte, scm *Schema) (any, error) {
	if len(buf) == 0 {
		return nil, dataErrf(buf, 0, nil, "empty object")
	}
	switch buf[0] {
	case formatMsgPack:
		var r bytes.Reader
		r.Reset(buf[1:])
		dec := msgpack.GetDecoder()
		defer msgpack.PutDecoder(dec)
		dec.Reset(&r)
		name, err := decodeMsgpackHeader(dec)
		if err != nil {
			return nil, dataErrf(buf, 1, err, "invalid object envelope")
		}
		rt, ok := scm.objectType(name)
		if !ok {
			return nil, dataErrf(buf, 1, nil, "unknown object type %q", name)
		}
		ptr := reflect.New(rt)
		err = dec.Decode(ptr.Interface())
		if err != nil {
			return nil, dataErrf(buf, 1, err, "failed to decode msgpack into %s (%v)", name, rt)
		}
		return ptr.Elem().Interface(), nil
	case formatJSON:
		var env jsonEnvelope
		err := json.Unmarshal(buf[1:], &env)
		if err != nil {
			return nil, dataErrf(buf, 1, err, "invalid JSON object envelope")
		}
		rt, ok := scm.objectType(env.Type)
		if !ok {
			return nil, dataErrf(buf, 1, nil, "unknown object type %q", env.Type)
		}
		ptr := reflect.New(rt)
		err = json.Unmarshal(env.Value, ptr.Interface())
		if err != nil {
			return nil, dataErrf(buf, 1, err, "failed to decode JSON into %s (%v)", env.Type, rt)
		}
		return ptr.Elem().Interface(), nil
	default:
		return nil, dataErrf(buf, 0, nil, "unknown object format 0x%02x", buf[0])
	}
}

// describeObject decodes an envelope without knowing the Go type, for dumps.
func describeObject(buf []byte) (string, any, error) {
	if len(buf) == 0 {
		return "", nil, dataErrf(buf, 0, nil, "empty object")
	}
	switch buf[0] {
	case formatMsgPack:
		var r bytes.Reader
		r.Reset(buf[1:])
		dec := msgpack.GetDecoder()
		defer msgpack.PutDecoder(dec)
		dec.Reset(&r)
		dec.UseLooseInterfaceDecoding(true)
		name, err := decodeMsgpackHeader(dec)
		if err != nil {
			return "", nil, dataErrf(buf, 1, err, "invalid object envelope")
		}
		v, err := dec.DecodeInterface()
		if err != nil {
			return name, nil, dataErrf(buf, 1, err, "failed to decode %s", name)
		}
		return name, v, nil
	case formatJSON:
		var env jsonEnvelope
		err := json.Unmarshal(buf[1:], &env)
		if err != nil {
			return "", nil, dataErrf(buf, 1, err, "invalid JSON object envelope")
		}
		var v any
		err = json.Unmarshal(env.Value, &v)
		if err != nil {
			return env.Type, nil, dataErrf(buf, 1, err, "failed to decode %s", env.Type)
		}
		return env.Type, v, nil
	default:
		return "", nil, dataErrf(buf, 0, nil, "unknown object format 0x%02x", buf[0])
	}
}

func decodeMsgpackHeader(dec *msgpack.Decoder) (string, error) {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return "", err
	}
	if n != 2 {
		return "", fmt.Errorf("envelope has %d elements, wanted 2", n)
	}
	return dec.DecodeString()
}

// Copyright 2024 The Arcana Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseJSON decodes data into a Value, preserving object key order.
//
// encoding/json's own Unmarshal into interface{} loses key order (it
// lands in a map[string]any), so Arcana drives the stdlib tokenizer
// directly and rebuilds an ordered Obj from the token stream -- the
// same technique the retrieved other_examples ordered-JSON parser
// (bennypowers-asimonim) uses, but riding on the stdlib scanner rather
// than a hand-rolled one.
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}
	if dec.More() {
		return Value{}, fmt.Errorf("trailing data after JSON value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObj()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("expected object key, got %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // closing '}'
				return Value{}, err
			}
			return NewObject(obj), nil
		case '[':
			var items []Value
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, val)
			}
			if _, err := dec.Token(); err != nil { // closing ']'
				return Value{}, err
			}
			return NewArray(items), nil
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %v", t)
		}
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, err
		}
		return NewNumber(f), nil
	case string:
		return NewString(t), nil
	case bool:
		return NewBool(t), nil
	case nil:
		return Nul(), nil
	default:
		return Value{}, fmt.Errorf("unsupported JSON token %v", tok)
	}
}

// Serialize renders v as JSON text, preserving object key order. With
// indent true the output is pretty-printed with a two-space indent.
func Serialize(v Value, indent bool) (string, error) {
	var b strings.Builder
	if err := writeValue(&b, v, indent, 0); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeValue(w io.Writer, v Value, indent bool, depth int) error {
	switch v.kind {
	case Null:
		_, err := io.WriteString(w, "null")
		return err
	case Bool:
		_, err := io.WriteString(w, strconv.FormatBool(v.b))
		return err
	case Number:
		buf, err := json.Marshal(v.n)
		if err != nil {
			return err
		}
		_, err = w.Write(buf)
		return err
	case String:
		buf, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		_, err = w.Write(buf)
		return err
	case Array:
		return writeArray(w, v.arr, indent, depth)
	case Object:
		return writeObject(w, v.obj, indent, depth)
	default:
		return fmt.Errorf("value: unknown kind %v", v.kind)
	}
}

func writeArray(w io.Writer, arr []Value, indent bool, depth int) error {
	if len(arr) == 0 {
		_, err := io.WriteString(w, "[]")
		return err
	}
	if _, err := io.WriteString(w, "["); err != nil {
		return err
	}
	for i, e := range arr {
		if i > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		if indent {
			writeIndent(w, depth+1)
		}
		if err := writeValue(w, e, indent, depth+1); err != nil {
			return err
		}
	}
	if indent {
		writeIndent(w, depth)
	}
	_, err := io.WriteString(w, "]")
	return err
}

func writeObject(w io.Writer, o *Obj, indent bool, depth int) error {
	if o.Len() == 0 {
		_, err := io.WriteString(w, "{}")
		return err
	}
	if _, err := io.WriteString(w, "{"); err != nil {
		return err
	}
	for i, k := range o.Keys() {
		if i > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		if indent {
			writeIndent(w, depth+1)
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return err
		}
		if _, err := w.Write(kb); err != nil {
			return err
		}
		if _, err := io.WriteString(w, ":"); err != nil {
			return err
		}
		if indent {
			if _, err := io.WriteString(w, " "); err != nil {
				return err
			}
		}
		vv, _ := o.Get(k)
		if err := writeValue(w, vv, indent, depth+1); err != nil {
			return err
		}
	}
	if indent {
		writeIndent(w, depth)
	}
	_, err := io.WriteString(w, "}")
	return err
}

func writeIndent(w io.Writer, depth int) {
	io.WriteString(w, "\n")
	for i := 0; i < depth; i++ {
		io.WriteString(w, "  ")
	}
}

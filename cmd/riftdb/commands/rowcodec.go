// Copyright 2021 Dolthub, Inc.
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

package commands

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/riftdb/riftdb/store/val"
)

// encodingByName maps the val.Encoding.String() names used in
// `riftdb create-table`'s column specs ("id:i32") back to their
// encodings, for the encodings listed here.
var encodingByName = map[string]val.Encoding{
	"bool": val.BoolEnc,
	"i8": val.Int8Enc, "i16": val.Int16Enc, "i32": val.Int32Enc, "i64": val.Int64Enc,
	"u8": val.Uint8Enc, "u16": val.Uint16Enc, "u32": val.Uint32Enc, "u64": val.Uint64Enc,
	"f32": val.Float32Enc, "f64": val.Float64Enc,
	"string": val.StringEnc,
	"bytes":  val.BytesEnc,
}

// parseColumnSpec splits a "name:type" column specification as given to
// `riftdb create-table`, e.g. "id:i32" or "name:string".
func parseColumnSpec(spec string) (name string, enc val.Encoding, err error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("column spec %q must be name:type", spec)
	}
	enc, ok := encodingByName[parts[1]]
	if !ok {
		return "", 0, fmt.Errorf("column spec %q: unknown type %q", spec, parts[1])
	}
	return parts[0], enc, nil
}

// encodeField turns a user-supplied command-line string into the raw
// little-endian field bytes store/table rows carry, per spec §3's BFLATN
// layout.
func encodeField(enc val.Encoding, raw string) ([]byte, error) {
	switch enc {
	case val.BoolEnc:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, err
		}
		if b {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case val.Int8Enc:
		n, err := strconv.ParseInt(raw, 10, 8)
		return []byte{byte(int8(n))}, err
	case val.Uint8Enc:
		n, err := strconv.ParseUint(raw, 10, 8)
		return []byte{byte(n)}, err
	case val.Int16Enc:
		n, err := strconv.ParseInt(raw, 10, 16)
		buf := make([]byte, 2)
		binary.LittleEndian.PutUint16(buf, uint16(int16(n)))
		return buf, err
	case val.Uint16Enc:
		n, err := strconv.ParseUint(raw, 10, 16)
		buf := make([]byte, 2)
		binary.LittleEndian.PutUint16(buf, uint16(n))
		return buf, err
	case val.Int32Enc:
		n, err := strconv.ParseInt(raw, 10, 32)
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(int32(n)))
		return buf, err
	case val.Uint32Enc:
		n, err := strconv.ParseUint(raw, 10, 32)
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(n))
		return buf, err
	case val.Int64Enc:
		n, err := strconv.ParseInt(raw, 10, 64)
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, uint64(n))
		return buf, err
	case val.Uint64Enc:
		n, err := strconv.ParseUint(raw, 10, 64)
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, n)
		return buf, err
	case val.Float32Enc:
		f, err := strconv.ParseFloat(raw, 32)
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(f)))
		return buf, err
	case val.Float64Enc:
		f, err := strconv.ParseFloat(raw, 64)
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, math.Float64bits(f))
		return buf, err
	case val.StringEnc:
		return []byte(raw), nil
	case val.BytesEnc:
		return []byte(raw), nil
	default:
		return nil, fmt.Errorf("unsupported column encoding %s", enc)
	}
}

// decodeField is encodeField's inverse, used to print a scanned row back
// out as text.
func decodeField(enc val.Encoding, b []byte) string {
	switch enc {
	case val.BoolEnc:
		return strconv.FormatBool(len(b) > 0 && b[0] != 0)
	case val.Int8Enc:
		return strconv.FormatInt(int64(int8(b[0])), 10)
	case val.Uint8Enc:
		return strconv.FormatUint(uint64(b[0]), 10)
	case val.Int16Enc:
		return strconv.FormatInt(int64(int16(binary.LittleEndian.Uint16(b))), 10)
	case val.Uint16Enc:
		return strconv.FormatUint(uint64(binary.LittleEndian.Uint16(b)), 10)
	case val.Int32Enc:
		return strconv.FormatInt(int64(int32(binary.LittleEndian.Uint32(b))), 10)
	case val.Uint32Enc:
		return strconv.FormatUint(uint64(binary.LittleEndian.Uint32(b)), 10)
	case val.Int64Enc:
		return strconv.FormatInt(int64(binary.LittleEndian.Uint64(b)), 10)
	case val.Uint64Enc:
		return strconv.FormatUint(binary.LittleEndian.Uint64(b), 10)
	case val.Float32Enc:
		return strconv.FormatFloat(float64(math.Float32frombits(binary.LittleEndian.Uint32(b))), 'g', -1, 32)
	case val.Float64Enc:
		return strconv.FormatFloat(math.Float64frombits(binary.LittleEndian.Uint64(b)), 'g', -1, 64)
	case val.StringEnc:
		return string(b)
	case val.BytesEnc:
		return string(b)
	default:
		return fmt.Sprintf("%x", b)
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package algo

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// ParseAppArg encodes one application argument:
//
//	int:1234   8-byte big-endian uint64
//	b64:A==    base64-decoded bytes
//	str:hello  raw string bytes
//	addr:XYZ   32-byte public key of the address
func ParseAppArg(arg string) ([]byte, error) {
	kind, value, ok := strings.Cut(arg, ":")
	if !ok {
		return nil, fmt.Errorf("app arg %q: missing type prefix (int:, b64:, str:, addr:)", arg)
	}
	switch kind {
	case "int":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("app arg %q: invalid uint64: %w", arg, err)
		}
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, n)
		return buf, nil
	case "b64":
		b, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("app arg %q: invalid base64: %w", arg, err)
		}
		return b, nil
	case "str":
		return []byte(value), nil
	case "addr":
		a, err := DecodeAddress(value)
		if err != nil {
			return nil, fmt.Errorf("app arg %q: %w", arg, err)
		}
		return a[:], nil
	default:
		return nil, fmt.Errorf("app arg %q: unknown type %q (want int, b64, str or addr)", arg, kind)
	}
}

// ParseAppArgs encodes args in order.
func ParseAppArgs(args []string) ([][]byte, error) {
	out := make([][]byte, 0, len(args))
	for _, a := range args {
		b, err := ParseAppArg(a)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

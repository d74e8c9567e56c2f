package event

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// U64 is a uint64 that the chain encodes as a JSON string.
type U64 uint64

func (u U64) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(u), 10))
}

func (u *U64) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid u64 %q: %w", s, err)
	}
	*u = U64(v)
	return nil
}

// Micros is a microsecond UNIX timestamp that the chain encodes as a JSON string.
type Micros int64

// Time converts the timestamp to a UTC time.Time.
func (m Micros) Time() time.Time {
	return time.UnixMicro(int64(m)).UTC()
}

func (m Micros) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(m), 10))
}

func (m *Micros) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid microsecond timestamp %q: %w", s, err)
	}
	*m = Micros(v)
	return nil
}

// HexBytes is a byte string that the chain encodes as 0x-prefixed hex.
type HexBytes []byte

func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal("0x" + hex.EncodeToString(h))
}

func (h *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return fmt.Errorf("invalid hex bytes %q: %w", s, err)
	}
	*h = b
	return nil
}

// Address is an account address, standardized on decode to 0x followed by
// 64 lowercase hex characters.
type Address string

func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*a = Address(StandardizeAddress(s))
	return nil
}

// StandardizeAddress left-pads a hex address to 64 characters and lowercases
// it, keeping the 0x prefix. Addresses that already conform pass through
// unchanged.
func StandardizeAddress(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, "0x"))
	if len(s) < 64 {
		s = strings.Repeat("0", 64-len(s)) + s
	}
	return "0x" + s
}

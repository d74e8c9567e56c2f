package event

import (
	"encoding/json"
	"fmt"
)

// Trigger identifies the causal action that bumped a market's nonce.
// The chain encodes it as a small integer.
type Trigger int16

const (
	TriggerPackagePublication Trigger = iota
	TriggerMarketRegistration
	TriggerSwapBuy
	TriggerSwapSell
	TriggerProvideLiquidity
	TriggerRemoveLiquidity
	TriggerChat
)

// DBName returns the database enum value.
func (t Trigger) DBName() string {
	switch t {
	case TriggerPackagePublication:
		return "package_publication"
	case TriggerMarketRegistration:
		return "market_registration"
	case TriggerSwapBuy:
		return "swap_buy"
	case TriggerSwapSell:
		return "swap_sell"
	case TriggerProvideLiquidity:
		return "provide_liquidity"
	case TriggerRemoveLiquidity:
		return "remove_liquidity"
	case TriggerChat:
		return "chat"
	}
	return ""
}

func (t Trigger) String() string { return t.DBName() }

// UnmarshalJSON accepts the chain's integer encoding and the string name.
func (t *Trigger) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		for v := TriggerPackagePublication; v <= TriggerChat; v++ {
			if s == v.DBName() {
				*t = v
				return nil
			}
		}
		return fmt.Errorf("unknown trigger %q", s)
	}
	var v int16
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v < 0 || v > int16(TriggerChat) {
		return fmt.Errorf("unknown trigger %d", v)
	}
	*t = Trigger(v)
	return nil
}

func (t Trigger) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.DBName())
}

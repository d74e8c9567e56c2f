package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEventStampBefore(t *testing.T) {
	assert.True(t, EventStamp{Version: 1, Index: 5}.Before(EventStamp{Version: 2, Index: 0}))
	assert.True(t, EventStamp{Version: 2, Index: 0}.Before(EventStamp{Version: 2, Index: 1}))
	assert.False(t, EventStamp{Version: 2, Index: 1}.Before(EventStamp{Version: 2, Index: 1}))
	assert.False(t, EventStamp{Version: 3, Index: 0}.Before(EventStamp{Version: 2, Index: 9}))
}

func TestRoundPrice(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"short untouched", "123.45", "123.45"},
		{"integer untouched", "1234567890123456", "1234567890123456"},
		{"fraction truncated", "0.123456781234567845", "0.1234567812345678"},
		{"half rounds to even", "0.12345678123456785", "0.1234567812345678"},
		{"half rounds up to even", "0.12345678123456775", "0.1234567812345678"},
		{"large integer keeps magnitude", "12345678901234567890", "12345678901234570000"},
		{"zero", "0", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := decimal.RequireFromString(tc.in)
			want := decimal.RequireFromString(tc.want)
			got := RoundPrice(in)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}
}

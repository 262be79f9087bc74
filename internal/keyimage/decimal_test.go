package keyimage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode64(b []byte) int64 {
	var u uint64
	for i := 7; i >= 0; i-- {
		u = u<<8 | uint64(b[i])
	}
	return int64(u)
}

func TestAppendDecimal_Scenarios(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1", 10000},
		{"1.5", 15000},
		{"-1.5", -15000},
		{"0.0001", 1},
		{"123.4567", 1234567},
		// spec §8 scenario 3.
		{"-3.14", -31400},
		{".5", 5000},
		{"1.", 10000},
	}
	for _, c := range cases {
		img := New(8)
		img.AppendDecimal(c.in, false)
		res := img.Finalize()
		require.True(t, res.Valid, "input %q", c.in)
		assert.Equal(t, c.want, decode64(res.Bytes), "input %q", c.in)
	}
}

func TestAppendDecimal_Malformed(t *testing.T) {
	for _, in := range []string{"abc", "1.23456", "1.2.3", ""} {
		img := New(8)
		img.AppendDecimal(in, false)
		res := img.Finalize()
		assert.False(t, res.Valid, "input %q", in)
	}
}

func TestAppendDecimal_Null(t *testing.T) {
	img := New(8)
	img.AppendDecimal("", true)
	res := img.Finalize()
	assert.True(t, res.Valid)
	assert.Equal(t, int64(0), decode64(res.Bytes))
}

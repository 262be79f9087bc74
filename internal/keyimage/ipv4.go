package keyimage

import (
	"strconv"
	"strings"
)

// AppendIPv4 appends a 4-byte IPv4 address as its four dotted-quad octets
// in address order (A.B.C.D encodes as bytes [A, B, C, D]). A string that
// is not four dot-separated octets in [0,255] is malformed.
func (img *Image) AppendIPv4(s string, isNull bool) {
	dst := img.take(4)
	if isNull {
		return
	}
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		img.invalidate()
		return
	}
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > 255 {
			img.invalidate()
			return
		}
		dst[i] = byte(v)
	}
}

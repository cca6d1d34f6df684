package probe

import "github.com/chewxy/math32"

// Values reported for a probe that did not answer or failed its checksum.
const (
	DisconnectedC float32 = -127
	DisconnectedF float32 = -196.6
)

// CToF converts degrees Celsius to degrees Fahrenheit.
func CToF(c float32) float32 {
	return c*1.8 + 32
}

// IsDisconnected reports whether f is the disconnected sentinel.
func IsDisconnected(f float32) bool {
	return math32.Abs(f-DisconnectedF) < 0.05
}

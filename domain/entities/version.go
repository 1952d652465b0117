package entities

import "fmt"

// Version is a packed sudo plugin API version: major in the high 16 bits,
// minor in the low 16 bits.
type Version uint32

const (
	// APIVersionMajor is the major API version this SDK is compiled against.
	APIVersionMajor = 1
	// APIVersionMinor is the minor API version this SDK is compiled against.
	APIVersionMinor = 9
)

// CompiledVersion is the API version advertised in the plugin table.
var CompiledVersion = MakeVersion(APIVersionMajor, APIVersionMinor)

// MakeVersion packs a major and minor version.
func MakeVersion(major, minor uint16) Version {
	return Version(uint32(major)<<16 | uint32(minor))
}

// Major returns the major component.
func (v Version) Major() uint16 {
	return uint16(v >> 16)
}

// Minor returns the minor component.
func (v Version) Minor() uint16 {
	return uint16(v & 0xffff)
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
}

// CompatibleWith reports whether a host advertising v can drive a plugin
// compiled against compiled. Majors must be equal and the host minor must be
// at least the compiled minor.
func (v Version) CompatibleWith(compiled Version) bool {
	return v.Major() == compiled.Major() && v.Minor() >= compiled.Minor()
}

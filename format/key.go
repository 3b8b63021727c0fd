package format

import (
	"fmt"
	"strconv"
	"strings"
)

// ResourceKey identifies a resource inside an archive by type, group and instance.
type ResourceKey struct {
	Type     uint32
	Group    uint32
	Instance uint64
}

// String formats the key as TTTTTTTT:GGGGGGGG:IIIIIIIIIIIIIIII.
func (k ResourceKey) String() string {
	return fmt.Sprintf("%08X:%08X:%016X", k.Type, k.Group, k.Instance)
}

// ParseResourceKey parses the form produced by ResourceKey.String.
func ParseResourceKey(s string) (ResourceKey, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return ResourceKey{}, fmt.Errorf("invalid resource key %q: want type:group:instance", s)
	}

	typ, err := strconv.ParseUint(parts[0], 16, 32)
	if err != nil {
		return ResourceKey{}, fmt.Errorf("invalid resource key type %q: %w", parts[0], err)
	}
	group, err := strconv.ParseUint(parts[1], 16, 32)
	if err != nil {
		return ResourceKey{}, fmt.Errorf("invalid resource key group %q: %w", parts[1], err)
	}
	inst, err := strconv.ParseUint(parts[2], 16, 64)
	if err != nil {
		return ResourceKey{}, fmt.Errorf("invalid resource key instance %q: %w", parts[2], err)
	}

	return ResourceKey{Type: uint32(typ), Group: uint32(group), Instance: inst}, nil
}

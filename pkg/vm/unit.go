package vm

import "sort"

// SysUnit is the unit that owns the program entry point. It is always laid
// out first so its code lands at the lowest ROM addresses.
const SysUnit = "Sys"

// Unit is the VM output of one compilation unit (one class or one .vm file).
// Name doubles as the namespace for its static segment.
type Unit struct {
	Name     string
	Commands []Command
}

// OrderUnits returns units with Sys first; the relative order of the other
// units is preserved.
func OrderUnits(units []Unit) []Unit {
	out := make([]Unit, len(units))
	copy(out, units)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name == SysUnit && out[j].Name != SysUnit
	})
	return out
}

package core

// TrafficLight is one signal head. Its colour is derived from the intersection
// phase; RemainingTicks is written by the active controller for display.
type TrafficLight struct {
	Color          Color
	RemainingTicks int
}

// IsGreen reports whether traffic may proceed through the stop line
func (l TrafficLight) IsGreen() bool {
	return l.Color == Green
}

// RemainingSeconds converts the countdown to whole seconds, rounding up
func (l TrafficLight) RemainingSeconds(tickRate int) int {
	if l.RemainingTicks <= 0 || tickRate <= 0 {
		return 0
	}
	return (l.RemainingTicks + tickRate - 1) / tickRate
}

// lightColors maps each phase to the NS and EW light colours
var lightColors = map[Phase][2]Color{
	NSGreen:  {Green, Red},
	NSYellow: {Yellow, Red},
	EWGreen:  {Red, Green},
	EWYellow: {Red, Yellow},
}

// LightColors returns the NS and EW colours for a phase
func LightColors(p Phase) (ns, ew Color) {
	c := lightColors[p]
	return c[0], c[1]
}

// Package core provides the intersection model: vehicles, traffic lights and
// the signal phase state machine.
package core

import (
	"fmt"

	"github.com/anggasct/urbanflow/pkg/utils"
)

// Path is the travel axis of a vehicle. Both roads are one-way in this model.
type Path int

const (
	// PathNS travels north to south along the y axis
	PathNS Path = iota
	// PathEW travels west to east along the x axis
	PathEW
)

// Paths lists both travel axes in a stable order
var Paths = [2]Path{PathNS, PathEW}

func (p Path) String() string {
	switch p {
	case PathNS:
		return "NS"
	case PathEW:
		return "EW"
	default:
		return fmt.Sprintf("Path(%d)", int(p))
	}
}

// Opposite returns the crossing axis
func (p Path) Opposite() Path {
	if p == PathNS {
		return PathEW
	}
	return PathNS
}

// Kind is the vehicle category
type Kind int

const (
	// KindCar is a regular vehicle
	KindCar Kind = iota
	// KindAmbulance is an emergency vehicle
	KindAmbulance
	// KindPolice is an emergency vehicle
	KindPolice
)

// Kinds lists every vehicle category
var Kinds = [3]Kind{KindCar, KindAmbulance, KindPolice}

func (k Kind) String() string {
	switch k {
	case KindCar:
		return "Car"
	case KindAmbulance:
		return "Ambulance"
	case KindPolice:
		return "Police"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsEmergency reports whether the kind may run a red light when first in line
func (k Kind) IsEmergency() bool {
	return k != KindCar
}

// Color is a traffic light colour
type Color int

const (
	Red Color = iota
	Yellow
	Green
)

func (c Color) String() string {
	switch c {
	case Red:
		return "Red"
	case Yellow:
		return "Yellow"
	case Green:
		return "Green"
	default:
		return fmt.Sprintf("Color(%d)", int(c))
	}
}

// Phase is the signal phase of the intersection
type Phase int

const (
	NSGreen Phase = iota
	NSYellow
	EWGreen
	EWYellow
)

// Phases lists the cycle in order
var Phases = [4]Phase{NSGreen, NSYellow, EWGreen, EWYellow}

var phaseNames = map[Phase]string{
	NSGreen:  "NS_GREEN",
	NSYellow: "NS_YELLOW",
	EWGreen:  "EW_GREEN",
	EWYellow: "EW_YELLOW",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// ParsePhase converts a phase name such as "EW_YELLOW" into a Phase
func ParsePhase(name string) (Phase, error) {
	for p, n := range phaseNames {
		if n == name {
			return p, nil
		}
	}
	return 0, utils.NewInvalidPhaseError(name)
}

// Valid reports whether p is one of the four cycle phases
func (p Phase) Valid() bool {
	_, ok := phaseNames[p]
	return ok
}

// Direction returns the axis that holds right-of-way during the phase
func (p Phase) Direction() Path {
	if p == NSGreen || p == NSYellow {
		return PathNS
	}
	return PathEW
}

// IsYellow reports whether the phase is a clearance phase
func (p Phase) IsYellow() bool {
	return p == NSYellow || p == EWYellow
}

// Next returns the successor in the cycle
func (p Phase) Next() Phase {
	return Phases[(int(p)+1)%len(Phases)]
}

// GreenPhase returns the green phase for a direction
func GreenPhase(dir Path) Phase {
	if dir == PathNS {
		return NSGreen
	}
	return EWGreen
}

// YellowPhase returns the yellow phase for a direction
func YellowPhase(dir Path) Phase {
	if dir == PathNS {
		return NSYellow
	}
	return EWYellow
}

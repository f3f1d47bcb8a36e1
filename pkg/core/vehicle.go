package core

import "github.com/anggasct/urbanflow/pkg/config"

// StopReason records why a vehicle is waiting
type StopReason int

const (
	// NotStopped means the vehicle moved this tick
	NotStopped StopReason = iota
	// StoppedAtLine means the vehicle holds at the stop line on a non-green light
	StoppedAtLine
	// StoppedBehind means the vehicle holds behind the vehicle ahead
	StoppedBehind
)

// Vehicle moves along a single axis at constant speed. Position is the rear
// edge of the vehicle; the leading edge is Position + Length.
type Vehicle struct {
	ID       int
	Path     Path
	Kind     Kind
	Position float64
	Length   float64
	Speed    float64

	// StopPos is the stop line coordinate on the vehicle's axis
	StopPos float64

	Waiting    bool
	WaitTicks  int
	StopReason StopReason

	// TotalWaitTicks counts every waiting tick over the vehicle's life and is never reset
	TotalWaitTicks int

	minGap float64
}

// IsEmergency reports whether the vehicle is an ambulance or police car
func (v *Vehicle) IsEmergency() bool {
	return v.Kind.IsEmergency()
}

// Moving reports whether the vehicle advanced on its last tick
func (v *Vehicle) Moving() bool {
	return !v.Waiting
}

// LeadingEdge returns the front coordinate along the travel axis
func (v *Vehicle) LeadingEdge() float64 {
	return v.Position + v.Length
}

// MinGap returns the following distance the vehicle keeps when queued
func (v *Vehicle) MinGap() float64 {
	return v.minGap
}

// Advance applies one tick of motion. ahead holds the same-path vehicles in
// front of v, nearest first; an empty slice means nothing blocks v.
func (v *Vehicle) Advance(isLightGreen bool, ahead []*Vehicle) {
	// a front already over the line has committed; one parked on it stays held
	atStopLine := v.LeadingEdge() <= v.StopPos && v.LeadingEdge()+v.Speed >= v.StopPos

	var front *Vehicle
	blocked := false
	if len(ahead) > 0 {
		front = ahead[0]
		blocked = front.Position-v.LeadingEdge() < v.minGap+v.Speed
	}

	redAtLine := atStopLine && !isLightGreen

	reason := NotStopped
	switch {
	case redAtLine && v.IsEmergency() && front == nil:
		// first in line with a siren: proceed through the red
	case blocked && (!redAtLine || front.Position-v.minGap < v.StopPos):
		// the leader holds v further back than the line would
		reason = StoppedBehind
		v.Position = front.Position - v.Length - v.minGap
	case redAtLine:
		reason = StoppedAtLine
		v.Position = v.StopPos - v.Length
	}

	v.StopReason = reason
	if reason != NotStopped {
		v.Waiting = true
		v.WaitTicks++
		v.TotalWaitTicks++
		return
	}

	v.Position += v.Speed
	v.Waiting = false
	v.WaitTicks = 0
}

// Geometry fixes the layout of the simulated area and the vehicle parameters.
type Geometry struct {
	Width             float64
	Height            float64
	StopLineOffset    float64
	LaneWidth         float64
	VehicleLength     float64
	VehicleWidth      float64
	MinFollowDistance float64
	CarSpeed          float64
	AmbulanceSpeed    float64
	PoliceSpeed       float64
}

// NewGeometry derives the geometry from a validated configuration
func NewGeometry(cfg config.Config) Geometry {
	return Geometry{
		Width:             cfg.Screen.Width,
		Height:            cfg.Screen.Height,
		StopLineOffset:    cfg.Road.StopLineOffset,
		LaneWidth:         cfg.Road.LaneWidth,
		VehicleLength:     cfg.Vehicles.Length,
		VehicleWidth:      cfg.Vehicles.Width,
		MinFollowDistance: cfg.Vehicles.MinFollowDistance,
		CarSpeed:          cfg.Vehicles.CarSpeed,
		AmbulanceSpeed:    cfg.Vehicles.AmbulanceSpeed,
		PoliceSpeed:       cfg.Vehicles.PoliceSpeed,
	}
}

// Center returns the intersection centre
func (g Geometry) Center() (x, y float64) {
	return g.Width / 2, g.Height / 2
}

// StopPosition returns the stop line coordinate on a path's axis
func (g Geometry) StopPosition(p Path) float64 {
	cx, cy := g.Center()
	if p == PathNS {
		return cy - g.StopLineOffset
	}
	return cx - g.StopLineOffset
}

// ExitPosition returns the coordinate past which a vehicle leaves the area
func (g Geometry) ExitPosition(p Path) float64 {
	if p == PathNS {
		return g.Height
	}
	return g.Width
}

// SpeedOf returns the constant speed for a vehicle kind
func (g Geometry) SpeedOf(k Kind) float64 {
	switch k {
	case KindAmbulance:
		return g.AmbulanceSpeed
	case KindPolice:
		return g.PoliceSpeed
	default:
		return g.CarSpeed
	}
}

// NewVehicle places a vehicle just before the visible area on its path
func (g Geometry) NewVehicle(id int, p Path, k Kind) *Vehicle {
	return &Vehicle{
		ID:       id,
		Path:     p,
		Kind:     k,
		Position: -g.VehicleLength,
		Length:   g.VehicleLength,
		Speed:    g.SpeedOf(k),
		StopPos:  g.StopPosition(p),
		minGap:   g.MinFollowDistance,
	}
}

// Exited reports whether v has crossed the far edge of the area
func (g Geometry) Exited(v *Vehicle) bool {
	return v.Position > g.ExitPosition(v.Path)
}

// Coordinates returns the top-left screen coordinates of v for drawing
func (g Geometry) Coordinates(v *Vehicle) (x, y float64) {
	cx, cy := g.Center()
	if v.Path == PathNS {
		return cx - g.LaneWidth/2 - g.VehicleWidth/2, v.Position
	}
	return v.Position, cy - g.LaneWidth/2 - g.VehicleWidth/2
}

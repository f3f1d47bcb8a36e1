package controllers

import (
	"github.com/anggasct/urbanflow/pkg/config"
	"github.com/anggasct/urbanflow/pkg/core"
)

// FixedTimeController alternates NS and EW on fixed green and yellow
// durations. It never looks at queues.
type FixedTimeController struct {
	greenTicks  int
	yellowTicks int

	timer    int
	dir      core.Path
	isYellow bool
}

// NewFixedTimeController creates a controller starting at the beginning of
// the NS green
func NewFixedTimeController(greenTicks, yellowTicks int) (*FixedTimeController, error) {
	cfg := config.FixedTimeConfig{GreenTicks: greenTicks, YellowTicks: yellowTicks}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &FixedTimeController{
		greenTicks:  greenTicks,
		yellowTicks: yellowTicks,
		timer:       greenTicks,
		dir:         core.PathNS,
	}, nil
}

// Name implements Controller
func (c *FixedTimeController) Name() string {
	return "fixed-time"
}

// Timer implements Controller
func (c *FixedTimeController) Timer() int {
	return c.timer
}

// IsYellow reports whether the controller is in a clearance interval
func (c *FixedTimeController) IsYellow() bool {
	return c.isYellow
}

// Update implements Controller. The reward is ignored.
func (c *FixedTimeController) Update(in *core.Intersection, _ float64) error {
	c.timer--

	var err error
	switch {
	case c.isYellow && c.timer <= 0:
		c.isYellow = false
		c.dir = c.dir.Opposite()
		c.timer = c.greenTicks
		err = in.SetPhase(core.GreenPhase(c.dir))
	case !c.isYellow && c.timer <= 0:
		c.isYellow = true
		c.timer = c.yellowTicks
		err = in.SetPhase(core.YellowPhase(c.dir))
	}

	in.SetCountdown(c.timer)
	return err
}

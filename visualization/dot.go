package visualization

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/anggasct/urbanflow/pkg/config"
	"github.com/anggasct/urbanflow/pkg/core"
)

// DOTGenerator generates Graphviz DOT format representations of the phase cycle
type DOTGenerator struct {
	options DOTOptions
}

// DOTOptions configures the DOT generation
type DOTOptions struct {
	RankDirection string // "TB", "LR", "BT", "RL"
	NodeShape     string

	// Dwell labels each phase with its ticks; phases without an entry get no label
	Dwell map[core.Phase]int
	// TickRate adds seconds next to dwell ticks when positive
	TickRate int
	// Highlight marks the active phase when set
	Highlight *core.Phase
	// EdgeLabels overrides the default "timer" label per source phase
	EdgeLabels map[core.Phase]string
}

// DefaultDOTOptions returns sensible default options for DOT generation
func DefaultDOTOptions() DOTOptions {
	return DOTOptions{
		RankDirection: "LR",
		NodeShape:     "box",
	}
}

// FixedTimeOptions labels the cycle with the fixed timer's dwell times
func FixedTimeOptions(cfg config.Config) DOTOptions {
	opts := DefaultDOTOptions()
	opts.TickRate = cfg.Screen.TickRate
	opts.Dwell = map[core.Phase]int{
		core.NSGreen:  cfg.FixedTime.GreenTicks,
		core.NSYellow: cfg.FixedTime.YellowTicks,
		core.EWGreen:  cfg.FixedTime.GreenTicks,
		core.EWYellow: cfg.FixedTime.YellowTicks,
	}
	return opts
}

// LearningOptions labels green phases with the decision interval and the
// exits from green with the SWITCH action
func LearningOptions(cfg config.Config) DOTOptions {
	opts := DefaultDOTOptions()
	opts.TickRate = cfg.Screen.TickRate
	opts.Dwell = map[core.Phase]int{
		core.NSYellow: cfg.QLearning.YellowTicks,
		core.EWYellow: cfg.QLearning.YellowTicks,
	}
	interval := fmt.Sprintf("SWITCH\\n(every %d ticks)", cfg.QLearning.DecisionInterval)
	opts.EdgeLabels = map[core.Phase]string{
		core.NSGreen: interval,
		core.EWGreen: interval,
	}
	return opts
}

// NewDOTGenerator creates a new DOT generator
func NewDOTGenerator(options ...DOTOptions) *DOTGenerator {
	opts := DefaultDOTOptions()
	if len(options) > 0 {
		opts = options[0]
	}
	return &DOTGenerator{options: opts}
}

// PhaseDOT renders the four-phase cycle with the given options
func PhaseDOT(opts DOTOptions) string {
	return NewDOTGenerator(opts).Generate()
}

// Generate creates a DOT representation of the phase cycle
func (g *DOTGenerator) Generate() string {
	var dot strings.Builder

	dot.WriteString("digraph PhaseCycle {\n")
	dot.WriteString(fmt.Sprintf("  rankdir=%s;\n", g.options.RankDirection))
	dot.WriteString(fmt.Sprintf("  node [shape=%s style=\"filled\"];\n", g.options.NodeShape))
	dot.WriteString("  edge [fontsize=10];\n\n")

	dot.WriteString("  // Phases\n")
	for _, p := range core.Phases {
		g.writePhaseNode(&dot, p)
	}

	dot.WriteString("  // Transitions\n")
	for _, p := range core.Phases {
		label := "timer"
		if l, ok := g.options.EdgeLabels[p]; ok {
			label = l
		}
		dot.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [label=\"%s\"];\n", p, p.Next(), label))
	}

	dot.WriteString("}\n")
	return dot.String()
}

func (g *DOTGenerator) writePhaseNode(dot *strings.Builder, p core.Phase) {
	fillColor := "palegreen"
	if p.IsYellow() {
		fillColor = "khaki"
	}
	label := p.String()

	if ticks, ok := g.options.Dwell[p]; ok {
		label += fmt.Sprintf("\\n%d ticks", ticks)
		if g.options.TickRate > 0 {
			label += fmt.Sprintf(" (%.1fs)", float64(ticks)/float64(g.options.TickRate))
		}
	}

	penWidth := 1
	if g.options.Highlight != nil && *g.options.Highlight == p {
		penWidth = 3
		label += "\\n(active)"
	}

	dot.WriteString(fmt.Sprintf("  \"%s\" [fillcolor=%s penwidth=%d label=\"%s\"];\n",
		p, fillColor, penWidth, label))
}

// GenerateToFile writes the DOT representation to a file
func (g *DOTGenerator) GenerateToFile(filename string) error {
	return os.WriteFile(filename, []byte(g.Generate()), 0644)
}

// GenerateSVG converts the DOT output to SVG with the Graphviz dot command
func (g *DOTGenerator) GenerateSVG() (string, error) {
	cmd := exec.Command("dot", "-Tsvg")
	cmd.Stdin = strings.NewReader(g.Generate())

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to execute dot command: %w (make sure Graphviz is installed)", err)
	}

	return out.String(), nil
}

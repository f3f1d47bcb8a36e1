// Package observers provides observers for monitoring intersection and
// simulation events
package observers

import (
	"fmt"
	"sync"

	"github.com/anggasct/urbanflow/pkg/core"
	"github.com/anggasct/urbanflow/pkg/monitoring"
	"github.com/anggasct/urbanflow/pkg/simulation"
)

// LogLevel represents the logging level
type LogLevel int

const (
	// LogError logs only errors
	LogError LogLevel = iota
	// LogWarning logs errors and warnings
	LogWarning
	// LogInfo logs errors, warnings, and info
	LogInfo
	// LogDebug logs errors, warnings, info, and debug
	LogDebug
)

// LoggingObserver logs simulation events through monitoring.Logf
type LoggingObserver struct {
	core.BaseObserver

	level     LogLevel
	prefix    string
	mutex     sync.RWMutex
	formatter LogFormatter
}

// LogFormatter formats log messages
type LogFormatter func(level LogLevel, format string, args ...interface{}) string

// DefaultLogFormatter provides default log formatting
func DefaultLogFormatter(level LogLevel, format string, args ...interface{}) string {
	levelStr := "INFO"
	switch level {
	case LogError:
		levelStr = "ERROR"
	case LogWarning:
		levelStr = "WARN"
	case LogInfo:
		levelStr = "INFO"
	case LogDebug:
		levelStr = "DEBUG"
	}

	return fmt.Sprintf("[%s] %s", levelStr, fmt.Sprintf(format, args...))
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(level LogLevel, prefix string) *LoggingObserver {
	return &LoggingObserver{
		level:     level,
		prefix:    prefix,
		formatter: DefaultLogFormatter,
	}
}

// NewDefaultLoggingObserver creates a logging observer at LogInfo
func NewDefaultLoggingObserver() *LoggingObserver {
	return NewLoggingObserver(LogInfo, "Intersection")
}

// SetFormatter sets the log formatter
func (o *LoggingObserver) SetFormatter(formatter LogFormatter) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.formatter = formatter
}

// SetLevel changes the verbosity
func (o *LoggingObserver) SetLevel(level LogLevel) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.level = level
}

func (o *LoggingObserver) log(level LogLevel, format string, args ...interface{}) {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	if level > o.level {
		return
	}

	prefix := ""
	if o.prefix != "" {
		prefix = fmt.Sprintf("[%s] ", o.prefix)
	}

	message := ""
	if o.formatter != nil {
		message = o.formatter(level, format, args...)
	} else {
		message = fmt.Sprintf(format, args...)
	}

	monitoring.Logf("%s%s", prefix, message)
}

// OnPhaseChange logs phase changes
func (o *LoggingObserver) OnPhaseChange(from, to core.Phase) {
	o.log(LogInfo, "Phase: %s -> %s", from, to)
}

// OnVehicleSpawned logs new vehicles
func (o *LoggingObserver) OnVehicleSpawned(v *core.Vehicle) {
	if v.IsEmergency() {
		o.log(LogWarning, "%s #%d incoming on %s", v.Kind, v.ID, v.Path)
		return
	}
	o.log(LogDebug, "Spawned %s #%d on %s", v.Kind, v.ID, v.Path)
}

// OnVehicleExited logs departures
func (o *LoggingObserver) OnVehicleExited(v *core.Vehicle) {
	o.log(LogDebug, "%s #%d left %s after waiting %d ticks", v.Kind, v.ID, v.Path, v.TotalWaitTicks)
}

// OnError logs errors
func (o *LoggingObserver) OnError(err error) {
	o.log(LogError, "Error: %v", err)
}

// OnRunFinished logs the run summary
func (o *LoggingObserver) OnRunFinished(s simulation.EpisodeSummary) {
	o.log(LogInfo, "Run %s finished: controller=%s ticks=%d passed=%d avg_wait=%.2fs reward=%.0f",
		s.RunID, s.Controller, s.Ticks, s.CarsPassed, s.AverageWaitSeconds, s.RewardSum)
}

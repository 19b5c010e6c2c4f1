package metrics

import (
	"fmt"
	"sync"
	"time"
)

// LogLevel controls which notifications a LoggingObserver prints.
type LogLevel int

const (
	LogError LogLevel = iota
	LogWarning
	LogInfo
	LogDebug
)

// LogFormatter renders one log line; callers may override the default to
// redirect or reshape output.
type LogFormatter func(level LogLevel, format string, args ...interface{}) string

// DefaultLogFormatter renders "[LEVEL] message".
func DefaultLogFormatter(level LogLevel, format string, args ...interface{}) string {
	var prefix string
	switch level {
	case LogError:
		prefix = "ERROR"
	case LogWarning:
		prefix = "WARN"
	case LogInfo:
		prefix = "INFO"
	default:
		prefix = "DEBUG"
	}
	return fmt.Sprintf("[%s] %s", prefix, fmt.Sprintf(format, args...))
}

// LoggingObserver prints every notification at or above its configured
// level, using fmt.Printf — this module's only logging dependency, kept
// consistent with the rest of the retrieval pack, which carries no
// third-party logging library.
type LoggingObserver struct {
	BaseObserver
	level     LogLevel
	prefix    string
	mutex     sync.RWMutex
	formatter LogFormatter
}

// NewLoggingObserver constructs a LoggingObserver at the given level.
func NewLoggingObserver(level LogLevel, prefix string) *LoggingObserver {
	return &LoggingObserver{level: level, prefix: prefix, formatter: DefaultLogFormatter}
}

// SetFormatter overrides the log line formatter.
func (l *LoggingObserver) SetFormatter(f LogFormatter) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.formatter = f
}

func (l *LoggingObserver) log(level LogLevel, format string, args ...interface{}) {
	l.mutex.RLock()
	f := l.formatter
	l.mutex.RUnlock()
	if level > l.level {
		return
	}
	fmt.Printf("%s%s\n", l.prefix, f(level, format, args...))
}

func (l *LoggingObserver) OnLaneTransition(laneID int, from, to string) {
	l.log(LogDebug, "lane %d: %s -> %s", laneID, from, to)
}

func (l *LoggingObserver) OnVehicleProcessed(laneID int, waited time.Duration) {
	l.log(LogDebug, "lane %d: vehicle processed after %v wait", laneID, waited)
}

func (l *LoggingObserver) OnContextSwitch(from, to int) {
	l.log(LogInfo, "context switch: lane %d -> lane %d", from, to)
}

func (l *LoggingObserver) OnBankerRejection(laneID int, reason string) {
	l.log(LogWarning, "lane %d: banker rejected request: %s", laneID, reason)
}

func (l *LoggingObserver) OnQueueOverflow(laneID int) {
	l.log(LogWarning, "lane %d: queue overflow", laneID)
}

func (l *LoggingObserver) OnEmergencyStart(laneID int, vehicleType string) {
	l.log(LogInfo, "emergency %s preempting for lane %d", vehicleType, laneID)
}

func (l *LoggingObserver) OnEmergencyClear(laneID int, responseTime time.Duration) {
	l.log(LogInfo, "emergency cleared for lane %d, response time %v", laneID, responseTime)
}

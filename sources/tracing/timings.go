package tracing

import (
	"time"
)

func ReportExecutionForRE[R any, E error](log *Logger, action func() (R, E), report func(l *Logger)) (R, E) {
	start := time.Now()
	result, err := action()
	report(log.With(ExecutionTime, time.Since(start).String()))
	return result, err
}

func ReportExecution(log *Logger, action func(), report func(l *Logger)) {
	start := time.Now()
	action()
	report(log.With(ExecutionTime, time.Since(start).String()))
}

package ports

import "time"

type DispatchMetrics interface {
	RecordCycle(state string, took time.Duration)
	RecordSkipped(reason string)
	RecordTaskSuccess(taskType string)
	RecordTaskFailure(taskType string)
	RecordPanic()
}

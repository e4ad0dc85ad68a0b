package observability

// Metric namespace
const (
	Namespace = "socialstakes"
)

// Label keys
const (
	LabelCategory  = "category"
	LabelResult    = "result"
	LabelType      = "type"
	LabelEventType = "event_type"
	LabelSink      = "sink"
	LabelMethod    = "method"
	LabelRoute     = "route"
	LabelStatus    = "status"
)

// Settlement results
const (
	ResultResolved  = "resolved"
	ResultRefunded  = "refunded"
	ResultCancelled = "cancelled"
)

// Forwarding results
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

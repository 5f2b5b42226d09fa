package ipc

// CollectorState represents the state of a result collector
type CollectorState string

const (
	StateCollecting CollectorState = "collecting"
	StateComplete   CollectorState = "complete"
)

// Method names for JSON-RPC
const (
	MethodStatusGet    = "status.get"
	MethodResultSubmit = "result.submit"
)

// StatusResponse is the response for "status.get" method
type StatusResponse struct {
	State    CollectorState `json:"state"`
	PID      int            `json:"pid"`
	Expected int            `json:"expected"`
	Received int            `json:"received"`
}

// SubmitParams is the params for "result.submit" method: one worker's
// partial result, sent exactly once. Hits maps the index of a keyword in the
// worker's task to the indices of the task files containing it, in scan
// order. Indices keep file names out of the JSON frame, which could not
// carry names that are not valid UTF-8.
type SubmitParams struct {
	WorkerID     int           `json:"worker_id"`
	PID          int           `json:"pid"`
	FilesScanned int           `json:"files_scanned"`
	Hits         map[int][]int `json:"hits"`
}

// SubmitResponse is the response for "result.submit" method
type SubmitResponse struct {
	Acknowledged bool `json:"acknowledged"`
	Received     int  `json:"received"`
}

package status

//Status represents the job orchestration state
type Status int

const (
	//Incomplete - some transcripts are missing
	Incomplete Status = iota + 1
	//LockWait - another run holds the job lock
	LockWait
	//Translating - a run was started by this call
	Translating
	//Completed - the result is persisted
	Completed
)

var (
	statusName = map[Status]string{Incomplete: "Incomplete", LockWait: "LockWait",
		Translating: "Translating", Completed: "Completed"}
	nameStatus = map[string]Status{"Incomplete": Incomplete, "LockWait": LockWait,
		"Translating": Translating, "Completed": Completed}
	// external state as seen by callers
	stateName = map[Status]string{Incomplete: "incomplete", LockWait: "processing",
		Translating: "processing", Completed: "completed"}
	progressName = map[Status]string{LockWait: "translating", Translating: "queued"}
)

//Name returns status name
func Name(st Status) string {
	return statusName[st]
}

//From parses status name
func From(st string) Status {
	return nameStatus[st]
}

//Result is the answer for a job status query
type Result struct {
	ID        string `json:"id"`
	State     string `json:"state"`
	Missing   []int  `json:"missing,omitempty"`
	Progress  string `json:"progress,omitempty"`
	Document  string `json:"document,omitempty"`
	PlainText string `json:"plainText,omitempty"`
	Status    Status `json:"-"`
}

//NewIncomplete makes a result listing missing transcript parts
func NewIncomplete(id string, missing []int) *Result {
	return &Result{ID: id, Status: Incomplete, State: stateName[Incomplete], Missing: missing}
}

//NewProcessing makes a result for a running job, st is LockWait or Translating
func NewProcessing(id string, st Status) *Result {
	return &Result{ID: id, Status: st, State: stateName[st], Progress: progressName[st]}
}

//NewCompleted makes a result with the translated documents
func NewCompleted(id string, document, plainText string) *Result {
	return &Result{ID: id, Status: Completed, State: stateName[Completed], Document: document, PlainText: plainText}
}

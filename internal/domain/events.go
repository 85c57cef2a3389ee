package domain

// Stage names one step of the retrieval pipeline. Stages are emitted
// in a fixed order within a single retrieval call.
type Stage string

const (
	StageStarting      Stage = "starting"
	StageInitialSearch Stage = "initial search"
	StageHypothetical  Stage = "generating hypothetical answer"
	StageFinalSearch   Stage = "final search"
	StageReranking     Stage = "re-ranking"
)

// ProgressEvent is a best-effort, one-way notification. Senders never
// block on it; slow consumers may miss intermediate stages.
type ProgressEvent struct {
	Stage Stage
}

// ChatEventKind discriminates the three event kinds of a streamed
// answer, plus a distinct error kind for failures mid-stream.
type ChatEventKind string

const (
	ChatEventProgress ChatEventKind = "progress"
	ChatEventToken    ChatEventKind = "token"
	ChatEventFinal    ChatEventKind = "final"
	ChatEventError    ChatEventKind = "error"
)

// ChatEvent is one element of the event sequence produced while
// answering a question: stage notifications, incremental tokens, then
// exactly one final event carrying the full answer and the passages
// it was grounded on. A failed stream ends with an error event.
type ChatEvent struct {
	Kind     ChatEventKind
	Stage    Stage
	Token    string
	Answer   string
	Passages []Passage
	Err      error
}

package models

// RunStatus is the lifecycle state of one assistant run on a thread.
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusIncomplete     RunStatus = "incomplete"
	RunStatusExpired        RunStatus = "expired"
)

// IsFailure reports whether the run ended without producing a reply.
func (s RunStatus) IsFailure() bool {
	switch s {
	case RunStatusFailed, RunStatusCancelled, RunStatusExpired:
		return true
	}
	return false
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const ContentTypeText = "text"

// ContentBlock is one part of a thread message. Text is only set for text blocks.
type ContentBlock struct {
	Type string
	Text string
}

// ThreadMessage is a message read back from an assistant thread.
type ThreadMessage struct {
	ID      string
	Role    string
	Content []ContentBlock
}

package ai

// ModelRole identifies the functional slot a backend model fills, independent
// of which concrete model is currently bound to it.
type ModelRole string

const (
	// RoleAnalysis serves general text work: chat, journal analysis,
	// categorization, analytics summaries.
	RoleAnalysis ModelRole = "analysis"
	// RoleTranscription serves media-heavy work: audio transcription and OCR.
	RoleTranscription ModelRole = "transcription"
)

// allRoles fixes the enumeration order used when building candidate lists.
var allRoles = []ModelRole{RoleAnalysis, RoleTranscription}

// TaskType tags a generation request with the calling feature's intent.
type TaskType string

const (
	TaskChat            TaskType = "chat"
	TaskJournalAnalysis TaskType = "journal_analysis"
	TaskCategorization  TaskType = "categorization"
	TaskOCR             TaskType = "ocr"
	TaskTranscription   TaskType = "transcription"
	TaskPunctuation     TaskType = "punctuation"
	TaskAnalytics       TaskType = "analytics"
)

// PreferredRole returns the role a task type is routed to by default.
// Media-bound tasks go to the transcription slot, everything else to analysis.
func (t TaskType) PreferredRole() ModelRole {
	switch t {
	case TaskOCR, TaskTranscription:
		return RoleTranscription
	default:
		return RoleAnalysis
	}
}

// Valid reports whether the task type is one of the known tags.
func (t TaskType) Valid() bool {
	switch t {
	case TaskChat, TaskJournalAnalysis, TaskCategorization, TaskOCR,
		TaskTranscription, TaskPunctuation, TaskAnalytics:
		return true
	default:
		return false
	}
}

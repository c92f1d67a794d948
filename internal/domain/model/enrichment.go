package model

import "time"

// MeetingSummary is one recent meeting carried in enrichment context.
type MeetingSummary struct {
	Title       string    `json:"title"`
	Subjects    []string  `json:"subjects,omitempty"`
	ActionItems []string  `json:"action_items,omitempty"`
	HeldAt      time.Time `json:"held_at"`
}

// MeetingContext groups recent meeting summaries used to personalize generation.
type MeetingContext struct {
	Meetings []MeetingSummary `json:"meetings"`
}

// HasMeetings reports whether at least one meeting is present.
func (m *MeetingContext) HasMeetings() bool {
	return m != nil && len(m.Meetings) > 0
}

// KnowledgeFile is one reference file available in the user's knowledge base.
type KnowledgeFile struct {
	Name       string    `json:"name"`
	Extracted  bool      `json:"extracted"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// KnowledgeBaseContext groups recently available reference files.
type KnowledgeBaseContext struct {
	Files []KnowledgeFile `json:"files"`
}

// RecentFile returns the most recently uploaded extracted file, or nil.
func (k *KnowledgeBaseContext) RecentFile() *KnowledgeFile {
	if k == nil {
		return nil
	}
	var recent *KnowledgeFile
	for i := range k.Files {
		f := &k.Files[i]
		if !f.Extracted {
			continue
		}
		if recent == nil || f.UploadedAt.After(recent.UploadedAt) {
			recent = f
		}
	}
	return recent
}

// EnrichmentContext is the single immutable value threaded through stage
// calls in place of repeated optional trailing parameters. A nil or empty
// context means the stages behave as if no enrichment existed.
type EnrichmentContext struct {
	Meetings      *MeetingContext       `json:"meeting_context,omitempty"`
	KnowledgeBase *KnowledgeBaseContext `json:"knowledge_base_context,omitempty"`
}

// Empty reports whether the context carries no enrichment at all.
func (e *EnrichmentContext) Empty() bool {
	if e == nil {
		return true
	}
	return !e.Meetings.HasMeetings() && (e.KnowledgeBase == nil || len(e.KnowledgeBase.Files) == 0)
}

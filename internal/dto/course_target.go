package dto

// CourseTarget is one entry of the structured course target format.
type CourseTarget struct {
	Course string `json:"course" yaml:"course" validate:"required_without=Code,max=200"`
	Prof   string `json:"prof" yaml:"prof" validate:"max=200"`
	Code   string `json:"code" yaml:"code" validate:"max=64"`
	Time   string `json:"time" yaml:"time" validate:"max=100"`
	Name   string `json:"name" yaml:"name" validate:"max=100"`
}

// MatchRequest resolves course targets against the latest snapshot.
type MatchRequest struct {
	Targets []CourseTarget `json:"targets" validate:"required,min=1,dive"`
}

// ChallengeReplyRequest carries a reply relayed by an out-of-process chat listener.
type ChallengeReplyRequest struct {
	InReplyTo string `json:"in_reply_to" validate:"required"`
	Content   string `json:"content" validate:"required"`
	Author    string `json:"author"`
}

// IngestSnapshotRequest submits a freshly scraped catalog.
type IngestSnapshotRequest struct {
	TakenAt  string           `json:"taken_at"`
	Sections []SectionPayload `json:"sections" validate:"dive"`
}

// SectionPayload is the wire shape of a scraped section.
type SectionPayload struct {
	Code       string           `json:"code" validate:"required"`
	CourseName string           `json:"course_name"`
	Professor  string           `json:"professor"`
	Schedule   []MeetingPayload `json:"schedule" validate:"dive"`
	Capacity   int              `json:"capacity" validate:"min=0"`
	Enrolled   int              `json:"enrolled" validate:"min=0"`
}

// MeetingPayload is the wire shape of one weekly meeting.
type MeetingPayload struct {
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Room      string `json:"room"`
}

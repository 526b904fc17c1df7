// Package lead holds the client-side data model for the pipeline:
// leads, stages, activities, pipeline stats, and generated messages,
// plus the pure filter/sort pipeline over them.
package lead

import "time"

// Stage is a lead's position in the seven-stage sales pipeline.
type Stage string

const (
	StageNew         Stage = "new"
	StageQualified   Stage = "qualified"
	StageContacted   Stage = "contacted"
	StageMeeting     Stage = "meeting"
	StageNegotiation Stage = "negotiation"
	StageClosedWon   Stage = "closed_won"
	StageClosedLost  Stage = "closed_lost"
)

// Stages lists every known stage in pipeline order.
var Stages = []Stage{
	StageNew,
	StageQualified,
	StageContacted,
	StageMeeting,
	StageNegotiation,
	StageClosedWon,
	StageClosedLost,
}

var stageRanks = map[Stage]int{
	StageNew:         1,
	StageQualified:   2,
	StageContacted:   3,
	StageMeeting:     4,
	StageNegotiation: 5,
	StageClosedWon:   6,
	StageClosedLost:  7,
}

// Rank returns the stage's position in pipeline order, 1..7.
// Unrecognized values rank 0 and sort before every known stage.
func (s Stage) Rank() int {
	return stageRanks[s]
}

// Known reports whether s is one of the seven pipeline stages.
func (s Stage) Known() bool {
	_, ok := stageRanks[s]
	return ok
}

// Lead is one prospective contact. Field names follow the service's
// wire contract. Score is nil until the lead has been scored.
type Lead struct {
	ID             int       `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	Company        string    `json:"company,omitempty"`
	CompanySize    string    `json:"company_size,omitempty"`
	JobTitle       string    `json:"job_title,omitempty"`
	Industry       string    `json:"industry,omitempty"`
	LinkedInURL    string    `json:"linkedin_url,omitempty"`
	Location       string    `json:"location,omitempty"`
	Website        string    `json:"website,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	Score          *float64  `json:"score"`
	ScoreReasoning string    `json:"score_reasoning,omitempty"`
	PipelineStage  Stage     `json:"pipeline_stage"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FullName returns "First Last" for display.
func (l Lead) FullName() string {
	switch {
	case l.FirstName == "":
		return l.LastName
	case l.LastName == "":
		return l.FirstName
	default:
		return l.FirstName + " " + l.LastName
	}
}

// ScoreValue returns the qualification score, treating unscored as 0.
func (l Lead) ScoreValue() float64 {
	if l.Score == nil {
		return 0
	}
	return *l.Score
}

// Draft is the body sent on create and update. The service fills in
// identity, score, stage, and timestamps.
type Draft struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone,omitempty"`
	Company     string `json:"company" validate:"required"`
	CompanySize string `json:"company_size" validate:"required"`
	JobTitle    string `json:"job_title" validate:"required"`
	Industry    string `json:"industry" validate:"required"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
	Location    string `json:"location,omitempty"`
	Website     string `json:"website,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// CompanySizes enumerates the size buckets offered in the lead forms.
var CompanySizes = []string{"1-10", "11-50", "51-200", "201-500", "501-1000", "1000+"}

// Industries enumerates the industry choices; "Other" catches the rest.
var Industries = []string{"Technology", "Healthcare", "Finance", "Retail", "Manufacturing", "Education", "Other"}

// ActivityType classifies an audit-trail entry.
type ActivityType string

const (
	ActivityLeadCreated      ActivityType = "lead_created"
	ActivityLeadScored       ActivityType = "lead_scored"
	ActivityMessageGenerated ActivityType = "message_generated"
	ActivityMessageTuned     ActivityType = "message_tuned"
	ActivityStageChange      ActivityType = "stage_change"
	ActivityAutoStageChange  ActivityType = "auto_stage_change"
	ActivityLeadDeleted      ActivityType = "lead_deleted"
)

// Activity is an immutable, timestamped audit entry belonging to one
// lead. Fetched fresh per lead, never mutated locally.
type Activity struct {
	ID           int          `json:"id"`
	LeadID       int          `json:"lead_id"`
	ActivityType ActivityType `json:"activity_type"`
	Description  string       `json:"description"`
	Notes        string       `json:"notes,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
}

// PipelineStat is the service's per-stage aggregate. Refreshed
// wholesale after any mutating operation; never derived locally.
type PipelineStat struct {
	Stage    Stage   `json:"stage"`
	Count    int     `json:"count"`
	AvgScore float64 `json:"avg_score"`
}

// MessageType tags a generated outreach message.
type MessageType string

const (
	MessageInitialOutreach MessageType = "initial_outreach"
	MessageFollowUp        MessageType = "follow_up"
	MessageValueProp       MessageType = "value_proposition"
	MessageMeetingRequest  MessageType = "meeting_request"
	MessageProblemSolution MessageType = "problem_solution"
	MessageCasualCheckIn   MessageType = "casual_check_in"
)

// GeneratedMessage is transient AI-produced outreach text. It is never
// part of the Lead; exactly one may be open at a time.
type GeneratedMessage struct {
	Subject     string      `json:"subject"`
	Content     string      `json:"content"`
	MessageType MessageType `json:"-"`
}

// MessageOption is one entry in the per-stage generate menu.
type MessageOption struct {
	Type        MessageType
	Label       string
	Recommended bool
}

var messageOptionsByStage = map[Stage][]MessageOption{
	StageNew: {
		{Type: MessageInitialOutreach, Label: "Initial Outreach", Recommended: true},
		{Type: MessageValueProp, Label: "Value Proposition"},
		{Type: MessageProblemSolution, Label: "Problem-Solution"},
	},
	StageQualified: {
		{Type: MessageInitialOutreach, Label: "Initial Outreach", Recommended: true},
		{Type: MessageValueProp, Label: "Value Proposition"},
		{Type: MessageProblemSolution, Label: "Problem-Solution"},
	},
	StageContacted: {
		{Type: MessageFollowUp, Label: "Follow-up", Recommended: true},
		{Type: MessageValueProp, Label: "Value Proposition"},
		{Type: MessageMeetingRequest, Label: "Meeting Request"},
	},
	StageMeeting: {
		{Type: MessageMeetingRequest, Label: "Meeting Confirmation", Recommended: true},
		{Type: MessageValueProp, Label: "Pre-Meeting Info"},
		{Type: MessageFollowUp, Label: "Meeting Follow-up"},
	},
	StageNegotiation: {
		{Type: MessageValueProp, Label: "Value Summary", Recommended: true},
		{Type: MessageFollowUp, Label: "Negotiation Follow-up"},
		{Type: MessageProblemSolution, Label: "Address Concerns"},
	},
	StageClosedWon: {
		{Type: MessageCasualCheckIn, Label: "Thank You Note", Recommended: true},
		{Type: MessageFollowUp, Label: "Onboarding Check-in"},
		{Type: MessageValueProp, Label: "Success Story"},
	},
	StageClosedLost: {
		{Type: MessageCasualCheckIn, Label: "Stay in Touch", Recommended: true},
		{Type: MessageFollowUp, Label: "Re-engagement"},
		{Type: MessageValueProp, Label: "New Value Prop"},
	},
}

// RecommendedMessageTypes returns the generate menu for a stage, the
// recommended option first. Unknown stages fall back to the "new" menu.
func RecommendedMessageTypes(stage Stage) []MessageOption {
	if opts, ok := messageOptionsByStage[stage]; ok {
		return opts
	}
	return messageOptionsByStage[StageNew]
}

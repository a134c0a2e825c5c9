package domain

import "time"

// Stage is the lifecycle state of a lead. Automated transitions only
// ever move forward; a manual stage set through the API is the single
// way back.
type Stage string

const (
	StageNew       Stage = "new"
	StageContacted Stage = "contacted"
	StageQuoted    Stage = "quoted"
	StageScheduled Stage = "scheduled"
	StageWon       Stage = "won"
	StageLost      Stage = "lost"
	StageCompleted Stage = "completed"
)

// stageRank orders stages along the pipeline. Quoted and scheduled sit
// at the same depth (branches out of contacted), as do the terminal
// stages.
var stageRank = map[Stage]int{
	StageNew:       0,
	StageContacted: 1,
	StageQuoted:    2,
	StageScheduled: 2,
	StageWon:       3,
	StageLost:      3,
	StageCompleted: 3,
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	_, ok := stageRank[s]
	return ok
}

// Terminal reports whether the lead pipeline ends at this stage.
func (s Stage) Terminal() bool {
	return s == StageWon || s == StageLost || s == StageCompleted
}

// Priority escalation rank: low < medium < high.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// Lead is one contact record per (tenant, email).
type Lead struct {
	ID          string `json:"id" gorm:"primaryKey"`
	TenantID    string `json:"tenant_id" gorm:"index:idx_tenant_email,unique;not null"`
	Email       string `json:"email" gorm:"index:idx_tenant_email,unique;not null"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	ServiceType string `json:"service_type"`

	Stage    Stage    `json:"stage" gorm:"default:new"`
	Priority Priority `json:"priority" gorm:"default:medium"`
	Category string   `json:"category"`
	Tags     string   `json:"tags"`

	AppointmentAt    *time.Time `json:"appointment_at,omitempty"`
	AppointmentNotes string     `json:"appointment_notes,omitempty"`

	LastContactAt *time.Time `json:"last_contact_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// AdvanceStage moves the lead forward to next. Backward or sideways
// moves are rejected so automation can never undo pipeline progress.
func (l *Lead) AdvanceStage(next Stage) bool {
	if !next.Valid() || stageRank[next] <= stageRank[l.Stage] {
		return false
	}
	l.Stage = next
	return true
}

// EscalatePriority raises the priority to p if p ranks strictly
// higher. Automation never downgrades priority.
func (l *Lead) EscalatePriority(p Priority) bool {
	if p.Rank() <= l.Priority.Rank() {
		return false
	}
	l.Priority = p
	return true
}

// MergeContact fills in contact fields from a fresh extraction.
// Existing non-empty values win; only blanks are overwritten.
func (l *Lead) MergeContact(name, phone, address, serviceType string) {
	if l.Name == "" && name != "" {
		l.Name = name
	}
	if l.Phone == "" && phone != "" {
		l.Phone = phone
	}
	if l.Address == "" && address != "" {
		l.Address = address
	}
	if l.ServiceType == "" && serviceType != "" {
		l.ServiceType = serviceType
	}
}

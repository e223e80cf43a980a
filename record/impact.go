package record

import "time"

// Goal statuses.
const (
	GoalPending    = "pending"
	GoalInProgress = "in-progress"
	GoalAchieved   = "achieved"
	GoalMissed     = "missed"
)

// ImpactMeasurement is one recorded outcome of a project in an impact
// category.
type ImpactMeasurement struct {
	ID                  string    `json:"id"`
	ProjectID           string    `json:"projectId"`
	CategoryID          string    `json:"categoryId"`
	Value               float64   `json:"value"`
	Target              float64   `json:"target,omitempty"`
	VolunteerHours      float64   `json:"volunteerHours"`
	BeneficiaryOutcomes float64   `json:"beneficiaryOutcomes,omitempty"`
	Notes               string    `json:"notes,omitempty"`
	Date                time.Time `json:"date"`
}

func (m ImpactMeasurement) GetID() string { return m.ID }

func (m ImpactMeasurement) Validate() error {
	v := problems{kind: KindMeasurement, id: m.ID}
	if m.ProjectID == "" {
		v.addf("project id is required")
	}
	v.nonNegative("volunteer hours", m.VolunteerHours)
	return v.err()
}

// ImpactGoal is a target value for one impact category of a project.
type ImpactGoal struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	CategoryID  string    `json:"categoryId"`
	TargetValue float64   `json:"targetValue"`
	Progress    float64   `json:"progress"`
	Deadline    time.Time `json:"deadline"`
	Status      string    `json:"status"`
}

func (g ImpactGoal) GetID() string { return g.ID }

// GoalStatusAt derives the status a goal has once its progress is set:
// achieved when progress reaches the target, missed once the deadline has
// passed, in progress otherwise.
func GoalStatusAt(g ImpactGoal, progress float64, now time.Time) string {
	switch {
	case progress >= g.TargetValue:
		return GoalAchieved
	case !g.Deadline.IsZero() && g.Deadline.Before(now):
		return GoalMissed
	default:
		return GoalInProgress
	}
}

func (g ImpactGoal) Validate() error {
	v := problems{kind: KindGoal, id: g.ID}
	if g.ProjectID == "" {
		v.addf("project id is required")
	}
	v.nonNegative("target value", g.TargetValue)
	v.oneOf("status", g.Status, GoalPending, GoalInProgress, GoalAchieved, GoalMissed)
	return v.err()
}

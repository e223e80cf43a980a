package record

import "time"

// NGO project categories.
const (
	CategoryEducation            = "education"
	CategoryHealth               = "health"
	CategoryEnvironment          = "environment"
	CategoryCommunityDevelopment = "community_development"
	CategoryEmergencyRelief      = "emergency_relief"
	CategoryOther                = "other"
)

// NGO project statuses.
const (
	StatusPlanned   = "planned"
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusOnHold    = "on_hold"
	StatusCancelled = "cancelled"
)

// Budget is the funding of an NGO project.
type Budget struct {
	Total    float64 `json:"total"`
	Used     float64 `json:"used"`
	Currency string  `json:"currency,omitempty"`
}

type TeamMember struct {
	UserID           string  `json:"userId"`
	Name             string  `json:"name"`
	Role             string  `json:"role,omitempty"`
	HoursContributed float64 `json:"hoursContributed"`
}

// Beneficiary is an individual or a community group reached by a project.
type Beneficiary struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Type  string `json:"type,omitempty"` // individual, community
	Count int    `json:"count"`
}

// CorrelationPoint is one dated sample of project activity against outcomes.
type CorrelationPoint struct {
	Date                time.Time `json:"date"`
	VolunteerHours      float64   `json:"volunteerHours"`
	BeneficiaryOutcomes float64   `json:"beneficiaryOutcomes"`
	Donations           float64   `json:"donations"`
}

// NGOProject is a charitable project with a budget, a team and beneficiaries.
type NGOProject struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	Category      string             `json:"category"`
	Status        string             `json:"status"`
	Location      string             `json:"location,omitempty"`
	Budget        Budget             `json:"budget"`
	Team          []TeamMember       `json:"team,omitempty"`
	Beneficiaries []Beneficiary      `json:"beneficiaries,omitempty"`
	Donations     []Donation         `json:"donations,omitempty"`
	Volunteers    int                `json:"volunteers"`
	Correlation   []CorrelationPoint `json:"correlationData,omitempty"`
	StartDate     time.Time          `json:"startDate"`
	EndDate       *time.Time         `json:"endDate,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

func (p NGOProject) GetID() string { return p.ID }

// BeneficiaryCount sums the count of every beneficiary entry.
func (p NGOProject) BeneficiaryCount() int {
	var n int
	for _, b := range p.Beneficiaries {
		n += b.Count
	}
	return n
}

// TeamHours sums the hours contributed by the team.
func (p NGOProject) TeamHours() float64 {
	var h float64
	for _, m := range p.Team {
		h += m.HoursContributed
	}
	return h
}

func (p NGOProject) Validate() error {
	v := problems{kind: KindNGOProject, id: p.ID}
	if p.Name == "" {
		v.addf("name is required")
	}
	v.oneOf("category", p.Category, CategoryEducation, CategoryHealth, CategoryEnvironment,
		CategoryCommunityDevelopment, CategoryEmergencyRelief, CategoryOther)
	v.oneOf("status", p.Status, StatusPlanned, StatusOngoing, StatusCompleted, StatusOnHold, StatusCancelled)
	v.nonNegative("budget total", p.Budget.Total)
	v.nonNegative("budget used", p.Budget.Used)
	if p.Volunteers < 0 {
		v.addf("volunteers must not be negative (got %d)", p.Volunteers)
	}
	for _, b := range p.Beneficiaries {
		if b.Count < 0 {
			v.addf("beneficiary %s has a negative count", b.ID)
		}
	}
	return v.err()
}

// Donation frequencies.
const (
	FrequencyOneTime   = "one_time"
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
	FrequencyAnnually  = "annually"
)

// Payment statuses of a donation.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// Donation is a single gift, possibly recurring.
type Donation struct {
	ID        string    `json:"id"`
	DonorID   string    `json:"donorId"`
	ProjectID string    `json:"projectId,omitempty"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Frequency string    `json:"frequency"`
	Status    string    `json:"status"`
	Anonymous bool      `json:"anonymous,omitempty"`
	Message   string    `json:"message,omitempty"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}

func (d Donation) GetID() string { return d.ID }

func (d Donation) Validate() error {
	v := problems{kind: KindDonation, id: d.ID}
	v.nonNegative("amount", d.Amount)
	if d.Currency != "" && len(d.Currency) != 3 {
		v.addf("currency %q is not a 3-letter code", d.Currency)
	}
	v.oneOf("frequency", d.Frequency, FrequencyOneTime, FrequencyMonthly, FrequencyQuarterly, FrequencyAnnually)
	v.oneOf("status", d.Status, PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded)
	return v.err()
}

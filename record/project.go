package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ProjectType tags a film project and selects its Details payload.
type ProjectType string

const (
	ProjectFeature     ProjectType = "feature"
	ProjectSeries      ProjectType = "series"
	ProjectCommercial  ProjectType = "commercial"
	ProjectMusicVideo  ProjectType = "music_video"
	ProjectDocumentary ProjectType = "documentary"
	ProjectWebSeries   ProjectType = "web_series"
	ProjectAnimation   ProjectType = "animation"
)

// ProjectTypes lists every project type.
var ProjectTypes = []ProjectType{
	ProjectFeature, ProjectSeries, ProjectCommercial, ProjectMusicVideo,
	ProjectDocumentary, ProjectWebSeries, ProjectAnimation,
}

// ProjectDetails is the type-specific payload of a Project. Each project type
// has exactly one implementation.
type ProjectDetails interface {
	ProjectType() ProjectType
}

type FeatureDetails struct {
	Genre        string `json:"genre,omitempty"`
	Runtime      int    `json:"runtime,omitempty"` // minutes
	ScriptStage  string `json:"scriptStage,omitempty"`
	Distribution string `json:"distribution,omitempty"`
}

type SeriesDetails struct {
	Format            string `json:"format,omitempty"`
	Platform          string `json:"platform,omitempty"`
	TargetAudience    string `json:"targetAudience,omitempty"`
	NumberOfSeasons   int    `json:"numberOfSeasons,omitempty"`
	EpisodesPerSeason int    `json:"episodesPerSeason,omitempty"`
	EpisodeDuration   int    `json:"episodeDuration,omitempty"`
}

type CommercialDetails struct {
	Client         string  `json:"client,omitempty"`
	Brand          string  `json:"brand,omitempty"`
	CampaignName   string  `json:"campaignName,omitempty"`
	Format         string  `json:"format,omitempty"`
	TargetAudience string  `json:"targetAudience,omitempty"`
	Duration       int     `json:"duration,omitempty"` // seconds
	Budget         float64 `json:"budget,omitempty"`
}

type MusicVideoDetails struct {
	Artist      string `json:"artist,omitempty"`
	SongTitle   string `json:"songTitle,omitempty"`
	Genre       string `json:"genre,omitempty"`
	RecordLabel string `json:"recordLabel,omitempty"`
	Concept     string `json:"concept,omitempty"`
	VisualStyle string `json:"visualStyle,omitempty"`
	Duration    int    `json:"duration,omitempty"`
}

type DocumentaryDetails struct {
	Subject          string `json:"subject,omitempty"`
	Style            string `json:"style,omitempty"`
	ResearchStatus   string `json:"researchStatus,omitempty"`
	IntervieweeCount int    `json:"intervieweeCount,omitempty"`
	ExpectedDuration int    `json:"expectedDuration,omitempty"`
	ArchivalFootage  bool   `json:"archivalFootage,omitempty"`
}

type WebSeriesDetails struct {
	Platform             string `json:"platform,omitempty"`
	Genre                string `json:"genre,omitempty"`
	ReleaseSchedule      string `json:"releaseSchedule,omitempty"`
	ContentRating        string `json:"contentRating,omitempty"`
	MonetizationStrategy string `json:"monetizationStrategy,omitempty"`
	EpisodeCount         int    `json:"episodeCount,omitempty"`
	EpisodeDuration      int    `json:"episodeDuration,omitempty"`
}

type AnimationDetails struct {
	Technique       string `json:"technique,omitempty"`
	Style           string `json:"style,omitempty"`
	RenderEngine    string `json:"renderEngine,omitempty"`
	FrameRate       int    `json:"frameRate,omitempty"`
	CharacterCount  int    `json:"characterCount,omitempty"`
	Duration        int    `json:"duration,omitempty"`
	RiggingRequired bool   `json:"riggingRequired,omitempty"`
}

func (FeatureDetails) ProjectType() ProjectType     { return ProjectFeature }
func (SeriesDetails) ProjectType() ProjectType      { return ProjectSeries }
func (CommercialDetails) ProjectType() ProjectType  { return ProjectCommercial }
func (MusicVideoDetails) ProjectType() ProjectType  { return ProjectMusicVideo }
func (DocumentaryDetails) ProjectType() ProjectType { return ProjectDocumentary }
func (WebSeriesDetails) ProjectType() ProjectType   { return ProjectWebSeries }
func (AnimationDetails) ProjectType() ProjectType   { return ProjectAnimation }

// newDetails returns a pointer to the zero payload for t.
func newDetails(t ProjectType) (ProjectDetails, error) {
	switch t {
	case ProjectFeature:
		return &FeatureDetails{}, nil
	case ProjectSeries:
		return &SeriesDetails{}, nil
	case ProjectCommercial:
		return &CommercialDetails{}, nil
	case ProjectMusicVideo:
		return &MusicVideoDetails{}, nil
	case ProjectDocumentary:
		return &DocumentaryDetails{}, nil
	case ProjectWebSeries:
		return &WebSeriesDetails{}, nil
	case ProjectAnimation:
		return &AnimationDetails{}, nil
	default:
		return nil, fmt.Errorf("unknown project type %q", t)
	}
}

// Project is a film or media production.
type Project struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Type        ProjectType    `json:"type"`
	Phase       string         `json:"phase,omitempty"`
	Status      string         `json:"status,omitempty"`
	Progress    float64        `json:"progress"`
	Budget      float64        `json:"budget,omitempty"`
	Currency    string         `json:"currency,omitempty"`
	StartDate   time.Time      `json:"startDate"`
	TargetDate  *time.Time     `json:"targetDate,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Details     ProjectDetails `json:"-"`
}

func (p Project) GetID() string { return p.ID }

type projectJSON struct {
	*projectAlias
	TypeData json.RawMessage `json:"typeData,omitempty"`
}

type projectAlias Project

// MarshalJSON writes Details under "typeData".
func (p Project) MarshalJSON() ([]byte, error) {
	out := projectJSON{projectAlias: (*projectAlias)(&p)}
	if p.Details != nil {
		data, err := json.Marshal(p.Details)
		if err != nil {
			return nil, fmt.Errorf("encode %s details: %w", p.Type, err)
		}
		out.TypeData = data
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes "typeData" into the payload selected by "type".
// Fields that do not belong to that payload are rejected.
func (p *Project) UnmarshalJSON(data []byte) error {
	in := projectJSON{projectAlias: (*projectAlias)(p)}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	p.Details = nil
	if len(in.TypeData) == 0 || string(in.TypeData) == "null" {
		return nil
	}

	details, err := newDetails(p.Type)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(in.TypeData))
	dec.DisallowUnknownFields()
	if err := dec.Decode(details); err != nil {
		return fmt.Errorf("decode %s details: %w", p.Type, err)
	}
	p.Details = deref(details)
	return nil
}

// deref stores payloads by value so that type switches on Details see
// FeatureDetails rather than *FeatureDetails.
func deref(d ProjectDetails) ProjectDetails {
	switch v := d.(type) {
	case *FeatureDetails:
		return *v
	case *SeriesDetails:
		return *v
	case *CommercialDetails:
		return *v
	case *MusicVideoDetails:
		return *v
	case *DocumentaryDetails:
		return *v
	case *WebSeriesDetails:
		return *v
	case *AnimationDetails:
		return *v
	default:
		return d
	}
}

// DetailsAs returns the payload of p as D when p carries one of that type.
//
//	if doc, ok := record.DetailsAs[record.DocumentaryDetails](p); ok { ... }
func DetailsAs[D ProjectDetails](p Project) (D, bool) {
	d, ok := p.Details.(D)
	return d, ok
}

// Validate checks the type tag and that Details matches it.
func (p Project) Validate() error {
	v := problems{kind: KindProject, id: p.ID}
	if p.Title == "" {
		v.addf("title is required")
	}
	if _, err := newDetails(p.Type); err != nil {
		v.addf("%v", err)
	}
	if p.Details != nil && p.Details.ProjectType() != p.Type {
		v.addf("%s details attached to a %s project", p.Details.ProjectType(), p.Type)
	}
	if p.Progress < 0 || p.Progress > 100 {
		v.addf("progress %g is outside [0, 100]", p.Progress)
	}
	v.nonNegative("budget", p.Budget)
	v.oneOf("status", p.Status, "draft", "active", "on-hold", "completed", "archived")
	v.oneOf("phase", p.Phase, "Development", "Pre-Production", "Production", "Post-Production", "Distribution")
	if p.TargetDate != nil && !p.StartDate.IsZero() && p.TargetDate.Before(p.StartDate) {
		v.addf("target date is before start date")
	}
	return v.err()
}

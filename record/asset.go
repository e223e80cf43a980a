package record

import "time"

// Asset statuses.
const (
	AssetDraft    = "draft"
	AssetInReview = "in-review"
	AssetApproved = "approved"
	AssetArchived = "archived"
	AssetRejected = "rejected"
)

// AssetVersion is one entry of an asset's history.
type AssetVersion struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
	Changes   string    `json:"changes,omitempty"`
}

// Asset is a production file: footage, artwork, audio, documents or models.
type Asset struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Type          string         `json:"type"`
	Category      string         `json:"category"`
	Status        string         `json:"status"`
	Version       int            `json:"version"`
	Versions      []AssetVersion `json:"versions,omitempty"`
	Format        string         `json:"format,omitempty"`
	FileSize      int64          `json:"fileSize"`
	DownloadCount int            `json:"downloadCount"`
	URL           string         `json:"url,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	LastModified  time.Time      `json:"lastModified"`
}

func (a Asset) GetID() string { return a.ID }

func (a Asset) Validate() error {
	v := problems{kind: KindAsset, id: a.ID}
	if a.Name == "" {
		v.addf("name is required")
	}
	v.oneOf("type", a.Type, "media", "graphic", "audio", "document", "3d-model")
	v.oneOf("category", a.Category, "pre-production", "production", "post-production")
	v.oneOf("status", a.Status, AssetDraft, AssetInReview, AssetApproved, AssetArchived, AssetRejected)
	if a.FileSize < 0 {
		v.addf("file size must not be negative (got %d)", a.FileSize)
	}
	if a.DownloadCount < 0 {
		v.addf("download count must not be negative (got %d)", a.DownloadCount)
	}
	return v.err()
}

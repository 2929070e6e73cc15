package catalog

import "time"

// Visibility is the moderation state of a catalog record.
type Visibility string

const (
	VisibilityDraft         Visibility = "draft"
	VisibilityPendingReview Visibility = "pending_review"
	VisibilityPublished     Visibility = "published"
)

// Valid reports whether v is one of the defined moderation states.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityDraft, VisibilityPendingReview, VisibilityPublished:
		return true
	}
	return false
}

// Category is the regional/production grouping of a record.
type Category string

const (
	CategoryHollywood Category = "Hollywood"
	CategoryBollywood Category = "Bollywood"
	CategorySouth     Category = "South"
	CategoryKorean    Category = "Korean"
	CategoryAnime     Category = "Anime"

	// CategoryAll is the wildcard sentinel accepted by listing filters.
	CategoryAll Category = "All"
)

// Categories lists the assignable categories (the wildcard excluded).
var Categories = []Category{
	CategoryHollywood,
	CategoryBollywood,
	CategorySouth,
	CategoryKorean,
	CategoryAnime,
}

// Valid reports whether c is an assignable category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Quality is an enumerated resolution tier under which download links are grouped.
type Quality string

const (
	Quality480p  Quality = "480p"
	Quality720p  Quality = "720p"
	Quality1080p Quality = "1080p"
	Quality4K    Quality = "4K"
)

// Qualities lists all known tiers in ascending order.
var Qualities = []Quality{Quality480p, Quality720p, Quality1080p, Quality4K}

// Valid reports whether q is a known quality tier.
func (q Quality) Valid() bool {
	for _, known := range Qualities {
		if q == known {
			return true
		}
	}
	return false
}

// ImageRole tags what an image reference is used for.
type ImageRole string

const (
	ImagePoster     ImageRole = "poster"
	ImageBackdrop   ImageRole = "backdrop"
	ImageScreenshot ImageRole = "screenshot"
	ImageBanner     ImageRole = "banner"
)

// Valid reports whether r is a known image role.
func (r ImageRole) Valid() bool {
	switch r {
	case ImagePoster, ImageBackdrop, ImageScreenshot, ImageBanner:
		return true
	}
	return false
}

// TransportKind describes how a server link delivers content.
type TransportKind string

const (
	TransportDirect    TransportKind = "direct"
	TransportTorrent   TransportKind = "torrent"
	TransportStreaming TransportKind = "streaming"
)

// Valid reports whether k is a known transport kind.
func (k TransportKind) Valid() bool {
	switch k {
	case TransportDirect, TransportTorrent, TransportStreaming:
		return true
	}
	return false
}

// Image is a media reference attached to a record.
// Screenshots may be tied to a specific quality tier.
type Image struct {
	Role    ImageRole `json:"role"`
	URL     string    `json:"url"`
	Quality Quality   `json:"quality,omitempty"`
}

// ServerLink is one mirror inside a download link group.
type ServerLink struct {
	URL    string        `json:"url"`
	Server string        `json:"server"`
	Kind   TransportKind `json:"kind"`
}

// DownloadLinkSet groups mirrored server links under one quality tier.
// The same shape is used by records and by individual episodes.
type DownloadLinkSet struct {
	Quality Quality      `json:"quality"`
	Size    string       `json:"size,omitempty"`
	Servers []ServerLink `json:"servers"`
}

// Available reports whether the group carries at least one usable mirror.
// Groups created as placeholders (no non-empty URLs) are never offered
// to end users.
func (d DownloadLinkSet) Available() bool {
	for _, s := range d.Servers {
		if s.URL != "" {
			return true
		}
	}
	return false
}

// StreamingLink points at an external streaming platform.
type StreamingLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// Record is one film or series entry in the catalog.
type Record struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`

	Title       string   `json:"title"`
	Description string   `json:"description"`
	Year        int      `json:"year"`
	Category    Category `json:"category"`
	Genres      []string `json:"genres"`
	Languages   []string `json:"languages"`
	IsDualAudio bool     `json:"is_dual_audio"`
	Director    string   `json:"director,omitempty"`
	Cast        []string `json:"cast,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	Images         []Image           `json:"images"`
	DownloadLinks  []DownloadLinkSet `json:"download_links,omitempty"`
	StreamingLinks []StreamingLink   `json:"streaming_links,omitempty"`

	IsSeries      bool `json:"is_series"`
	TotalEpisodes int  `json:"total_episodes"`

	Visibility    Visibility `json:"visibility"`
	IsAIGenerated bool       `json:"is_ai_generated"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`

	Views     int64 `json:"views"`
	Downloads int64 `json:"downloads"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Poster returns the canonical poster image, if present.
func (r *Record) Poster() *Image {
	for i := range r.Images {
		if r.Images[i].Role == ImagePoster {
			return &r.Images[i]
		}
	}
	return nil
}

// AvailableDownloadLinks returns the link groups that carry at least one
// usable mirror, preserving order. Placeholder groups are dropped.
func (r *Record) AvailableDownloadLinks() []DownloadLinkSet {
	out := make([]DownloadLinkSet, 0, len(r.DownloadLinks))
	for _, g := range r.DownloadLinks {
		if g.Available() {
			out = append(out, g)
		}
	}
	return out
}

// Episode is one episode owned by a series record.
type Episode struct {
	ID       int64 `json:"id"`
	RecordID int64 `json:"record_id"`

	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	Duration      int    `json:"duration,omitempty"` // minutes
	Thumbnail     string `json:"thumbnail,omitempty"`
	AirDate       string `json:"air_date,omitempty"` // YYYY-MM-DD

	DownloadLinks  []DownloadLinkSet `json:"download_links,omitempty"`
	StreamingLinks []StreamingLink   `json:"streaming_links,omitempty"`

	Views     int64 `json:"views"`
	Downloads int64 `json:"downloads"`

	CreatedAt time.Time `json:"created_at"`
}

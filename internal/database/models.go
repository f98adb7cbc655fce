package database

import (
	"time"
)

// Library is a configured scan root. Deleting one cascades to every
// MediaItem it owns (and transitively their Streams and Subtitles), handled
// in a single transaction — see Store.DeleteLibrary.
type Library struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Path          string    `gorm:"not null;uniqueIndex" json:"path"`
	Kind          string    `gorm:"type:varchar(16);not null" json:"kind"` // movie, tv, music
	LastScannedAt *time.Time `json:"last_scanned_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

const (
	LibraryKindMovie = "movie"
	LibraryKindTV    = "tv"
	LibraryKindMusic = "music"
)

// MediaItem is one physical file on disk: a movie, a TV episode, or a music
// track. Path is globally unique — re-probing an existing item updates it
// in place rather than creating a duplicate row.
type MediaItem struct {
	ID         string `gorm:"type:varchar(36);primaryKey" json:"id"`
	LibraryID  string `gorm:"type:varchar(36);not null;index" json:"library_id"`
	Kind       string `gorm:"type:varchar(16);not null;index" json:"kind"` // movie, episode, track
	Path       string `gorm:"not null;uniqueIndex" json:"path"`
	SizeBytes  int64  `gorm:"not null" json:"size_bytes"`

	Container    string `json:"container,omitempty"`
	DurationMs   int64  `json:"duration_ms,omitempty"`
	BitrateKbps  int    `json:"bitrate_kbps,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	VideoCodec   string `json:"video_codec,omitempty"`
	AudioCodec   string `json:"audio_codec,omitempty"`

	Title string `gorm:"index" json:"title"`
	Year  int    `json:"year,omitempty"`

	// SearchText is the lowercased Title, rewritten by the store on every
	// upsert, and backs the media_fts virtual table for full-text catalog
	// search. Show and album titles are not included in it.
	SearchText string `gorm:"index" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	MediaKindMovie   = "movie"
	MediaKindEpisode = "episode"
	MediaKindTrack   = "track"
)

// MediaStream is one stream within a MediaItem's container. The set of
// streams for an item is fully replaced (delete-then-insert, same
// transaction) on every successful probe.
type MediaStream struct {
	ID          string `gorm:"type:varchar(36);primaryKey" json:"id"`
	MediaItemID string `gorm:"type:varchar(36);not null;index" json:"media_item_id"`
	StreamIndex int    `gorm:"not null" json:"stream_index"`
	Type        string `gorm:"type:varchar(16);not null;index" json:"type"` // video, audio, subtitle

	CodecName     string `json:"codec_name"`
	CodecLongName string `json:"codec_long_name"`
	Profile       string `json:"profile,omitempty"`
	Language      string `json:"language,omitempty"`
	Title         string `json:"title,omitempty"`
	Default       bool   `json:"default"`
	Forced        bool   `json:"forced"`

	// Video attributes.
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
	FrameRate      string `json:"frame_rate,omitempty"`
	PixelFormat    string `json:"pixel_format,omitempty"`
	BitDepth       int    `json:"bit_depth,omitempty"`
	ColorSpace     string `json:"color_space,omitempty"`
	ColorTransfer  string `json:"color_transfer,omitempty"`
	ColorPrimaries string `json:"color_primaries,omitempty"`

	// Audio attributes.
	Channels     int    `json:"channels,omitempty"`
	ChannelLayout string `json:"channel_layout,omitempty"`
	SampleRate   int    `json:"sample_rate,omitempty"`

	BitrateKbps int `json:"bitrate_kbps,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

const (
	StreamTypeVideo    = "video"
	StreamTypeAudio    = "audio"
	StreamTypeSubtitle = "subtitle"
)

// ExternalSubtitle is a sidecar or extracted-embedded subtitle file
// associated with a MediaItem.
type ExternalSubtitle struct {
	ID          string `gorm:"type:varchar(36);primaryKey" json:"id"`
	MediaItemID string `gorm:"type:varchar(36);not null;index" json:"media_item_id"`
	Path        string `gorm:"not null" json:"path"`
	Format      string `gorm:"type:varchar(8);not null" json:"format"` // srt, ass, ssa, vtt, ...
	Language    string `json:"language,omitempty"`
	Title       string `json:"title,omitempty"`
	Forced      bool   `json:"forced"`
	SDH         bool   `json:"sdh"`
	SizeBytes   int64  `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// Show is a TV series, keyed by a normalized title within its library so
// episodes from different files resolve to the same show.
type Show struct {
	ID             string `gorm:"type:varchar(36);primaryKey" json:"id"`
	LibraryID      string `gorm:"type:varchar(36);not null;index" json:"library_id"`
	Title          string `gorm:"not null" json:"title"`
	NormalizedTitle string `gorm:"not null;index" json:"-"`
	Overview       string `gorm:"type:text" json:"overview,omitempty"`
	Poster         string `json:"poster,omitempty"`
	Backdrop       string `json:"backdrop,omitempty"`
	TmdbID         string `gorm:"index" json:"tmdb_id,omitempty"`
	FetchedAt      *time.Time `json:"fetched_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Season belongs to exactly one Show.
type Season struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ShowID       string    `gorm:"type:varchar(36);not null;index" json:"show_id"`
	SeasonNumber int       `gorm:"not null;index" json:"season_number"`
	Poster       string    `json:"poster,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Episode links a MediaItem to its (Show, Season, episode number).
type Episode struct {
	ID            string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	MediaItemID   string     `gorm:"type:varchar(36);not null;uniqueIndex" json:"media_item_id"`
	ShowID        string     `gorm:"type:varchar(36);not null;index" json:"show_id"`
	SeasonID      string     `gorm:"type:varchar(36);not null;index" json:"season_id"`
	EpisodeNumber int        `gorm:"not null;index" json:"episode_number"`
	Title         string     `json:"title,omitempty"`
	Overview      string     `gorm:"type:text" json:"overview,omitempty"`
	AirDate       *time.Time `json:"air_date,omitempty"`
	StillImage    string     `json:"still_image,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Movie is the one-to-one enrichment extension of a movie-kind MediaItem. A
// skeleton row (id only) is inserted when the file is first discovered;
// the enricher populates the rest.
type Movie struct {
	MediaItemID   string     `gorm:"type:varchar(36);primaryKey" json:"media_item_id"`
	Overview      string     `gorm:"type:text" json:"overview,omitempty"`
	Tagline       string     `json:"tagline,omitempty"`
	ReleaseDate   *time.Time `json:"release_date,omitempty"`
	Rating        float64    `json:"rating,omitempty"`
	ContentRating string     `json:"content_rating,omitempty"`
	TmdbID        string     `gorm:"index" json:"tmdb_id,omitempty"`
	ImdbID        string     `gorm:"index" json:"imdb_id,omitempty"`
	Poster        string     `json:"poster,omitempty"`
	Backdrop      string     `json:"backdrop,omitempty"`
	Genres        string     `gorm:"type:text" json:"genres,omitempty"` // JSON array
	FetchedAt     *time.Time `json:"fetched_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// PlaybackProgress is per (user, media item) resume position.
type PlaybackProgress struct {
	UserID       string    `gorm:"type:varchar(36);primaryKey" json:"user_id"`
	MediaItemID  string    `gorm:"type:varchar(36);primaryKey" json:"media_item_id"`
	PositionMs   int64     `json:"position_ms"`
	Completed    bool      `json:"completed"`
	PlayCount    int       `json:"play_count"`
	LastPlayedAt time.Time `json:"last_played_at"`
}

// User, Collection, Playlist, Webhook are peripheral: the core only needs
// a stable id to hang PlaybackProgress and webhook subscriptions off of.

type User struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Collection struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Playlist struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Webhook registers a URL interested in a set of event types (§3's
// supplemented webhook delivery). Dispatch logic lives in the peripheral's
// responsibility; the core only publishes onto the event bus.
type Webhook struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	URL        string    `gorm:"not null" json:"url"`
	EventTypes string    `gorm:"type:text" json:"event_types"` // JSON array
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Package enrich implements the Metadata Enricher (spec §4.8): it fills in
// Movie/Show/Episode fields by querying a capability-bound metadata
// provider, rate-limited and running HTTP work ahead of any database
// write, grounded on the teacher's tmdb_enricher_v2 plugin's
// capability-interface pattern (generalized per spec §9's "capability-
// bound, not concrete type" note).
package enrich

import "context"

// MovieResult is one provider search hit for a movie query.
type MovieResult struct {
	ProviderID int
	Title      string
	Year       int
	Popularity float64
}

// MovieDetails is the full enrichment payload for a matched movie.
type MovieDetails struct {
	ProviderID     int
	Overview       string
	Tagline        string
	ReleaseDate    string
	Rating         float64
	ContentRating  string
	ImdbID         string
	PosterPath     string
	BackdropPath   string
	Genres         []string
}

// TvResult is one provider search hit for a show query.
type TvResult struct {
	ProviderID int
	Name       string
	FirstYear  int
	Popularity float64
}

// TvDetails is the full enrichment payload for a matched show.
type TvDetails struct {
	ProviderID   int
	Overview     string
	PosterPath   string
	BackdropPath string
}

// EpisodeDetails is per-episode enrichment for one season.
type EpisodeDetails struct {
	EpisodeNumber int
	Title         string
	Overview      string
	AirDate       string
	StillPath     string
}

// Provider is the capability-bound metadata source interface; a concrete
// TMDb-backed implementation lives in provider_tmdb.go, but callers should
// depend only on this interface so other providers can be swapped in.
type Provider interface {
	SearchMovie(ctx context.Context, query string, year int) ([]MovieResult, error)
	GetMovieDetails(ctx context.Context, providerID int) (MovieDetails, error)
	SearchTv(ctx context.Context, query string) ([]TvResult, error)
	GetTvDetails(ctx context.Context, providerID int) (TvDetails, error)
	GetSeasonEpisodes(ctx context.Context, providerID, seasonNumber int) ([]EpisodeDetails, error)
	// ImageBaseURL returns the base URL to prefix a poster/backdrop path
	// with, or "" if the provider returns fully-qualified URLs already.
	ImageBaseURL() string
}

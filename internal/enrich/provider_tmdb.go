package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// TMDbProvider is the concrete Provider (spec §4.8) backed by The Movie
// Database's v3 REST API.
type TMDbProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	imageBase  string
}

func NewTMDbProvider(baseURL, apiKey string, requestTimeout time.Duration) *TMDbProvider {
	if baseURL == "" {
		baseURL = "https://api.themoviedb.org/3"
	}
	return &TMDbProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		imageBase:  "https://image.tmdb.org/t/p/original",
	}
}

func (p *TMDbProvider) ImageBaseURL() string { return p.imageBase }

func (p *TMDbProvider) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", p.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", p.baseURL, path, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb request %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type tmdbMovieSearchResponse struct {
	Results []struct {
		ID          int     `json:"id"`
		Title       string  `json:"title"`
		ReleaseDate string  `json:"release_date"`
		Popularity  float64 `json:"popularity"`
	} `json:"results"`
}

func (p *TMDbProvider) SearchMovie(ctx context.Context, query string, year int) ([]MovieResult, error) {
	q := url.Values{"query": {query}}
	if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}
	var raw tmdbMovieSearchResponse
	if err := p.get(ctx, "/search/movie", q, &raw); err != nil {
		return nil, err
	}
	results := make([]MovieResult, 0, len(raw.Results))
	for _, r := range raw.Results {
		results = append(results, MovieResult{
			ProviderID: r.ID,
			Title:      r.Title,
			Year:       yearFromDate(r.ReleaseDate),
			Popularity: r.Popularity,
		})
	}
	return results, nil
}

type tmdbMovieDetailsResponse struct {
	Overview    string  `json:"overview"`
	Tagline     string  `json:"tagline"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	PosterPath  string  `json:"poster_path"`
	BackdropPath string `json:"backdrop_path"`
	ImdbID      string  `json:"imdb_id"`
	Genres      []struct {
		Name string `json:"name"`
	} `json:"genres"`
	ReleaseDates struct {
		Results []struct {
			Iso3166_1     string `json:"iso_3166_1"`
			ReleaseDates []struct {
				Certification string `json:"certification"`
			} `json:"release_dates"`
		} `json:"results"`
	} `json:"release_dates"`
}

func (p *TMDbProvider) GetMovieDetails(ctx context.Context, providerID int) (MovieDetails, error) {
	q := url.Values{"append_to_response": {"release_dates"}}
	var raw tmdbMovieDetailsResponse
	if err := p.get(ctx, fmt.Sprintf("/movie/%d", providerID), q, &raw); err != nil {
		return MovieDetails{}, err
	}
	genres := make([]string, 0, len(raw.Genres))
	for _, g := range raw.Genres {
		genres = append(genres, g.Name)
	}
	details := MovieDetails{
		ProviderID:   providerID,
		Overview:     raw.Overview,
		Tagline:      raw.Tagline,
		ReleaseDate:  raw.ReleaseDate,
		Rating:       raw.VoteAverage,
		ImdbID:       raw.ImdbID,
		PosterPath:   raw.PosterPath,
		BackdropPath: raw.BackdropPath,
		Genres:       genres,
	}
	for _, country := range raw.ReleaseDates.Results {
		if country.Iso3166_1 != "US" {
			continue
		}
		for _, rd := range country.ReleaseDates {
			if rd.Certification != "" {
				details.ContentRating = rd.Certification
				break
			}
		}
	}
	return details, nil
}

type tmdbTvSearchResponse struct {
	Results []struct {
		ID           int     `json:"id"`
		Name         string  `json:"name"`
		FirstAirDate string  `json:"first_air_date"`
		Popularity   float64 `json:"popularity"`
	} `json:"results"`
}

func (p *TMDbProvider) SearchTv(ctx context.Context, query string) ([]TvResult, error) {
	q := url.Values{"query": {query}}
	var raw tmdbTvSearchResponse
	if err := p.get(ctx, "/search/tv", q, &raw); err != nil {
		return nil, err
	}
	results := make([]TvResult, 0, len(raw.Results))
	for _, r := range raw.Results {
		results = append(results, TvResult{
			ProviderID: r.ID,
			Name:       r.Name,
			FirstYear:  yearFromDate(r.FirstAirDate),
			Popularity: r.Popularity,
		})
	}
	return results, nil
}

type tmdbTvDetailsResponse struct {
	Overview     string `json:"overview"`
	PosterPath   string `json:"poster_path"`
	BackdropPath string `json:"backdrop_path"`
}

func (p *TMDbProvider) GetTvDetails(ctx context.Context, providerID int) (TvDetails, error) {
	var raw tmdbTvDetailsResponse
	if err := p.get(ctx, fmt.Sprintf("/tv/%d", providerID), nil, &raw); err != nil {
		return TvDetails{}, err
	}
	return TvDetails{
		ProviderID:   providerID,
		Overview:     raw.Overview,
		PosterPath:   raw.PosterPath,
		BackdropPath: raw.BackdropPath,
	}, nil
}

type tmdbSeasonResponse struct {
	Episodes []struct {
		EpisodeNumber int    `json:"episode_number"`
		Name          string `json:"name"`
		Overview      string `json:"overview"`
		AirDate       string `json:"air_date"`
		StillPath     string `json:"still_path"`
	} `json:"episodes"`
}

func (p *TMDbProvider) GetSeasonEpisodes(ctx context.Context, providerID, seasonNumber int) ([]EpisodeDetails, error) {
	var raw tmdbSeasonResponse
	path := fmt.Sprintf("/tv/%d/season/%d", providerID, seasonNumber)
	if err := p.get(ctx, path, nil, &raw); err != nil {
		return nil, err
	}
	episodes := make([]EpisodeDetails, 0, len(raw.Episodes))
	for _, e := range raw.Episodes {
		episodes = append(episodes, EpisodeDetails{
			EpisodeNumber: e.EpisodeNumber,
			Title:         e.Name,
			Overview:      e.Overview,
			AirDate:       e.AirDate,
			StillPath:     e.StillPath,
		})
	}
	return episodes, nil
}

func yearFromDate(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ferrite-media/ferrite/internal/database"
	"github.com/ferrite-media/ferrite/internal/logger"
)

const matchThreshold = 0.6

// Enricher runs spec §4.8's metadata fill-in pass: for every MediaItem
// lacking enrichment, do the HTTP work first (search, details, images),
// then a single transactional DB write.
type Enricher struct {
	Store              *database.Store
	Provider           Provider
	Images             *ImageCache
	Limiter            *rate.Limiter
	MovieConcurrency   int
	ShowConcurrency    int
	StillConcurrency   int
}

func NewEnricher(store *database.Store, provider Provider, images *ImageCache, ratePerSecond, movieConcurrency, showConcurrency int) *Enricher {
	if movieConcurrency < 1 {
		movieConcurrency = 8
	}
	if showConcurrency < 1 {
		showConcurrency = 4
	}
	if ratePerSecond < 1 {
		ratePerSecond = 4
	}
	return &Enricher{
		Store:            store,
		Provider:         provider,
		Images:           images,
		Limiter:          rate.NewLimiter(rate.Limit(ratePerSecond), ratePerSecond),
		MovieConcurrency: movieConcurrency,
		ShowConcurrency:  showConcurrency,
		StillConcurrency: 8,
	}
}

func (e *Enricher) wait(ctx context.Context) error {
	return e.Limiter.Wait(ctx)
}

// RunLibrary enriches every unenriched movie and show, bounded by separate
// concurrency pools per spec §4.8.
func (e *Enricher) RunLibrary(ctx context.Context, batchSize int) error {
	movies, err := e.Store.MoviesNeedingEnrichment(batchSize)
	if err != nil {
		return fmt.Errorf("listing unenriched movies: %w", err)
	}
	e.runBounded(ctx, len(movies), e.MovieConcurrency, func(i int) {
		if err := e.enrichMovie(ctx, movies[i]); err != nil {
			logger.Warn("movie enrichment failed", []logger.Field{
				logger.String("media_item_id", movies[i].MediaItemID),
				logger.Err("cause", err),
			})
		}
	})

	shows, err := e.Store.ShowsNeedingEnrichment(batchSize)
	if err != nil {
		return fmt.Errorf("listing unenriched shows: %w", err)
	}
	e.runBounded(ctx, len(shows), e.ShowConcurrency, func(i int) {
		if err := e.enrichShow(ctx, shows[i]); err != nil {
			logger.Warn("show enrichment failed", []logger.Field{
				logger.String("show_id", shows[i].ShowID),
				logger.Err("cause", err),
			})
		}
	})
	return nil
}

func (e *Enricher) runBounded(ctx context.Context, n, concurrency int, work func(i int)) {
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			work(i)
		}(i)
	}
	wg.Wait()
}

// matchMovie runs spec §4.8 steps 1-2: build candidate queries, search
// each in order, and return the first result clearing the match
// threshold.
func (e *Enricher) matchMovie(ctx context.Context, title string, year int) (MovieResult, bool, error) {
	normalized, extractedYear := normalizeQuery(title)
	if year == 0 {
		year = extractedYear
	}
	for _, candidate := range candidateQueries(normalized) {
		if err := e.wait(ctx); err != nil {
			return MovieResult{}, false, err
		}
		results, err := e.Provider.SearchMovie(ctx, candidate, year)
		if err != nil {
			return MovieResult{}, false, err
		}
		if best, ok := bestMovieMatch(normalized, year, results); ok {
			return best, true, nil
		}
	}
	return MovieResult{}, false, nil
}

func bestMovieMatch(title string, year int, results []MovieResult) (MovieResult, bool) {
	var best MovieResult
	bestScore := 0.0
	found := false
	for _, r := range results {
		score := titleScore(title, year, r.Title, r.Year)
		if score >= matchThreshold && score > bestScore {
			best = r
			bestScore = score
			found = true
		}
	}
	return best, found
}

func (e *Enricher) enrichMovie(ctx context.Context, item database.UnenrichedMovie) error {
	match, ok, err := e.matchMovie(ctx, item.Title, item.Year)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := e.wait(ctx); err != nil {
		return err
	}
	details, err := e.Provider.GetMovieDetails(ctx, match.ProviderID)
	if err != nil {
		return err
	}

	posterFile, _ := e.Images.fetchWithRetry(ctx, imageURL(e.Provider, details.PosterPath), posterFileName(match.ProviderID))
	backdropFile, _ := e.Images.fetchWithRetry(ctx, imageURL(e.Provider, details.BackdropPath), backdropFileName(match.ProviderID))

	genresJSON, err := json.Marshal(details.Genres)
	if err != nil {
		return err
	}

	return e.Store.ApplyMovieEnrichment(database.MovieEnrichment{
		MediaItemID:   item.MediaItemID,
		TmdbID:        fmt.Sprintf("%d", match.ProviderID),
		Overview:      details.Overview,
		Tagline:       details.Tagline,
		ReleaseDate:   parseDate(details.ReleaseDate),
		Rating:        details.Rating,
		ContentRating: details.ContentRating,
		ImdbID:        details.ImdbID,
		Poster:        posterFile,
		Backdrop:      backdropFile,
		Genres:        string(genresJSON),
		FetchedAt:     time.Now(),
	})
}

func (e *Enricher) enrichShow(ctx context.Context, show database.UnenrichedShow) error {
	normalized, _ := normalizeQuery(show.Title)

	var match TvResult
	matched := false
	for _, candidate := range candidateQueries(normalized) {
		if err := e.wait(ctx); err != nil {
			return err
		}
		results, err := e.Provider.SearchTv(ctx, candidate)
		if err != nil {
			return err
		}
		for _, r := range results {
			if titleScore(normalized, 0, r.Name, r.FirstYear) >= matchThreshold {
				match = r
				matched = true
				break
			}
		}
		if matched {
			break
		}
	}
	if !matched {
		return nil
	}

	if err := e.wait(ctx); err != nil {
		return err
	}
	details, err := e.Provider.GetTvDetails(ctx, match.ProviderID)
	if err != nil {
		return err
	}

	posterFile, _ := e.Images.fetchWithRetry(ctx, imageURL(e.Provider, details.PosterPath), posterFileName(match.ProviderID))
	backdropFile, _ := e.Images.fetchWithRetry(ctx, imageURL(e.Provider, details.BackdropPath), backdropFileName(match.ProviderID))

	seasonNumbers, err := e.Store.SeasonNumbersForShow(show.ShowID)
	if err != nil {
		return err
	}

	var episodes []database.EpisodeEnrichment
	var mu sync.Mutex
	for _, seasonNumber := range seasonNumbers {
		if err := e.wait(ctx); err != nil {
			return err
		}
		seasonEpisodes, err := e.Provider.GetSeasonEpisodes(ctx, match.ProviderID, seasonNumber)
		if err != nil {
			logger.Warn("season episode fetch failed", []logger.Field{
				logger.String("show_id", show.ShowID),
				logger.Int("season", seasonNumber),
				logger.Err("cause", err),
			})
			continue
		}

		e.runBounded(ctx, len(seasonEpisodes), e.StillConcurrency, func(i int) {
			ep := seasonEpisodes[i]
			stillFile, _ := e.Images.fetchWithRetry(ctx, imageURL(e.Provider, ep.StillPath), stillFileName(match.ProviderID, seasonNumber, ep.EpisodeNumber))
			mu.Lock()
			episodes = append(episodes, database.EpisodeEnrichment{
				SeasonNumber:  seasonNumber,
				EpisodeNumber: ep.EpisodeNumber,
				Title:         ep.Title,
				Overview:      ep.Overview,
				AirDate:       parseDate(ep.AirDate),
				StillImage:    stillFile,
			})
			mu.Unlock()
		})
	}

	return e.Store.ApplyShowEnrichment(show.ShowID, fmt.Sprintf("%d", match.ProviderID), details.Overview, posterFile, backdropFile, time.Now(), episodes)
}

func imageURL(p Provider, path string) string {
	if path == "" {
		return ""
	}
	return p.ImageBaseURL() + path
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

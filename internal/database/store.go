package database

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is the catalog store: a pooled connection abstraction fronting the
// embedded relational database, following the teacher's pattern of wrapping
// *gorm.DB in a narrow, transaction-aware API rather than passing *gorm.DB
// around directly.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB { return s.db }

func newID() string { return uuid.New().String() }

// CreateLibrary inserts a new library.
func (s *Store) CreateLibrary(path, kind string) (*Library, error) {
	lib := &Library{ID: newID(), Path: path, Kind: kind}
	if err := s.db.Create(lib).Error; err != nil {
		return nil, err
	}
	return lib, nil
}

func (s *Store) GetLibrary(id string) (*Library, error) {
	var lib Library
	if err := s.db.First(&lib, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lib, nil
}

func (s *Store) ListLibraries() ([]Library, error) {
	var libs []Library
	if err := s.db.Order("created_at").Find(&libs).Error; err != nil {
		return nil, err
	}
	return libs, nil
}

// DeleteLibrary cascades to every MediaItem it owns, and transitively their
// Streams and Subtitles, plus any Show/Season/Episode rows scoped to the
// library — all in one transaction, matching spec §3's cascade invariant.
func (s *Store) DeleteLibrary(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var itemIDs []string
		if err := tx.Model(&MediaItem{}).Where("library_id = ?", id).Pluck("id", &itemIDs).Error; err != nil {
			return err
		}
		if len(itemIDs) > 0 {
			if err := tx.Where("media_item_id IN ?", itemIDs).Delete(&MediaStream{}).Error; err != nil {
				return err
			}
			if err := tx.Where("media_item_id IN ?", itemIDs).Delete(&ExternalSubtitle{}).Error; err != nil {
				return err
			}
			if err := tx.Where("media_item_id IN ?", itemIDs).Delete(&Episode{}).Error; err != nil {
				return err
			}
			if err := tx.Where("media_item_id IN ?", itemIDs).Delete(&Movie{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", itemIDs).Delete(&MediaItem{}).Error; err != nil {
				return err
			}
		}
		var showIDs []string
		if err := tx.Model(&Show{}).Where("library_id = ?", id).Pluck("id", &showIDs).Error; err != nil {
			return err
		}
		if len(showIDs) > 0 {
			if err := tx.Where("show_id IN ?", showIDs).Delete(&Season{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("library_id = ?", id).Delete(&Show{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Library{}, "id = ?", id).Error
	})
}

func (s *Store) TouchLibraryScanned(id string) error {
	return s.db.Model(&Library{}).Where("id = ?", id).Update("last_scanned_at", time.Now()).Error
}

// ProbedItem is the normalized result of running the probe executor (§4.4)
// plus the filename parser (§4.1/§4.5) for one file.
type ProbedItem struct {
	Path        string
	SizeBytes   int64
	Container   string
	DurationMs  int64
	BitrateKbps int
	Width       int
	Height      int
	VideoCodec  string
	AudioCodec  string
	Streams     []MediaStream

	Title  string
	Year   int
	IsShow bool
	Show   string
	Season int
	Episode int
}

// UpsertMediaItem writes one scan result (MediaItem + its stream set, plus
// the skeleton Movie or Show/Season/Episode linkage) in a single
// transaction, per spec §4.5 step 3.
func (s *Store) UpsertMediaItem(libraryID string, kind string, item ProbedItem) (*MediaItem, error) {
	var result *MediaItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing MediaItem
		err := tx.Where("path = ?", item.Path).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			existing = MediaItem{
				ID:        newID(),
				LibraryID: libraryID,
				Kind:      kind,
				Path:      item.Path,
			}
		case err != nil:
			return err
		}

		existing.SizeBytes = item.SizeBytes
		existing.Container = item.Container
		existing.DurationMs = item.DurationMs
		existing.BitrateKbps = item.BitrateKbps
		existing.Width = item.Width
		existing.Height = item.Height
		existing.VideoCodec = item.VideoCodec
		existing.AudioCodec = item.AudioCodec
		existing.Title = item.Title
		existing.Year = item.Year
		existing.SearchText = strings.ToLower(item.Title)

		if err := tx.Save(&existing).Error; err != nil {
			return err
		}

		if err := tx.Where("media_item_id = ?", existing.ID).Delete(&MediaStream{}).Error; err != nil {
			return err
		}
		for i := range item.Streams {
			item.Streams[i].ID = newID()
			item.Streams[i].MediaItemID = existing.ID
		}
		if len(item.Streams) > 0 {
			if err := tx.Create(&item.Streams).Error; err != nil {
				return err
			}
		}

		switch kind {
		case MediaKindMovie:
			if err := tx.FirstOrCreate(&Movie{MediaItemID: existing.ID}, "media_item_id = ?", existing.ID).Error; err != nil {
				return err
			}
		case MediaKindEpisode:
			if item.IsShow {
				if err := s.linkEpisode(tx, libraryID, existing.ID, item); err != nil {
					return err
				}
			}
		}

		result = &existing
		return nil
	})
	return result, err
}

func normalizeTitle(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	var b strings.Builder
	prevSpace := false
	for _, r := range t {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevSpace = false
		default:
			if !prevSpace {
				b.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// linkEpisode upserts Show/Season/Episode for a parsed TV file, fuzzy
// matching against existing shows in the library via the normalized-title
// index, per spec §4.5 step 3.
func (s *Store) linkEpisode(tx *gorm.DB, libraryID, mediaItemID string, item ProbedItem) error {
	normalized := normalizeTitle(item.Show)

	var show Show
	err := tx.Where("library_id = ? AND normalized_title = ?", libraryID, normalized).First(&show).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		show = Show{
			ID:              newID(),
			LibraryID:       libraryID,
			Title:           item.Show,
			NormalizedTitle: normalized,
		}
		if err := tx.Create(&show).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	var season Season
	err = tx.Where("show_id = ? AND season_number = ?", show.ID, item.Season).First(&season).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		season = Season{ID: newID(), ShowID: show.ID, SeasonNumber: item.Season}
		if err := tx.Create(&season).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	var episode Episode
	err = tx.Where("media_item_id = ?", mediaItemID).First(&episode).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		episode = Episode{
			ID:            newID(),
			MediaItemID:   mediaItemID,
			ShowID:        show.ID,
			SeasonID:      season.ID,
			EpisodeNumber: item.Episode,
		}
		return tx.Create(&episode).Error
	}
	if err != nil {
		return err
	}
	episode.ShowID = show.ID
	episode.SeasonID = season.ID
	episode.EpisodeNumber = item.Episode
	return tx.Save(&episode).Error
}

// DeleteMediaItemsMissing removes MediaItems under the given library whose
// path is no longer present on disk, used by the incremental scan path.
func (s *Store) DeleteMediaItemsMissing(libraryID string, stillExisting func(path string) bool) (int, error) {
	var items []MediaItem
	if err := s.db.Where("library_id = ?", libraryID).Find(&items).Error; err != nil {
		return 0, err
	}
	var toDelete []string
	for _, item := range items {
		if !stillExisting(item.Path) {
			toDelete = append(toDelete, item.ID)
		}
	}
	if len(toDelete) == 0 {
		return 0, nil
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("media_item_id IN ?", toDelete).Delete(&MediaStream{}).Error; err != nil {
			return err
		}
		if err := tx.Where("media_item_id IN ?", toDelete).Delete(&ExternalSubtitle{}).Error; err != nil {
			return err
		}
		if err := tx.Where("media_item_id IN ?", toDelete).Delete(&Episode{}).Error; err != nil {
			return err
		}
		if err := tx.Where("media_item_id IN ?", toDelete).Delete(&Movie{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", toDelete).Delete(&MediaItem{}).Error
	})
	return len(toDelete), err
}

// CleanupEmptyShows removes seasons and shows left with no episodes at the
// end of a scan, per spec §4.5 step 6.
func (s *Store) CleanupEmptyShows(libraryID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var seasons []Season
		if err := tx.Joins("JOIN shows ON shows.id = seasons.show_id").
			Where("shows.library_id = ?", libraryID).Find(&seasons).Error; err != nil {
			return err
		}
		for _, season := range seasons {
			var count int64
			if err := tx.Model(&Episode{}).Where("season_id = ?", season.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				if err := tx.Delete(&season).Error; err != nil {
					return err
				}
			}
		}
		var shows []Show
		if err := tx.Where("library_id = ?", libraryID).Find(&shows).Error; err != nil {
			return err
		}
		for _, show := range shows {
			var count int64
			if err := tx.Model(&Season{}).Where("show_id = ?", show.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				if err := tx.Delete(&show).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// MediaItemByID fetches a single item for playback/classification.
func (s *Store) MediaItemByID(id string) (*MediaItem, error) {
	var item MediaItem
	if err := s.db.First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) StreamsForMediaItem(id string) ([]MediaStream, error) {
	var streams []MediaStream
	if err := s.db.Where("media_item_id = ?", id).Order("stream_index").Find(&streams).Error; err != nil {
		return nil, err
	}
	return streams, nil
}

// UpsertSubtitles replaces the subtitle row set for one media item with
// the freshly extracted sidecar/embedded results, by path (idempotent
// across repeated runs of the extractor).
func (s *Store) UpsertSubtitles(mediaItemID string, subs []ExternalSubtitle) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for i := range subs {
			var existing ExternalSubtitle
			err := tx.Where("media_item_id = ? AND path = ?", mediaItemID, subs[i].Path).First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				subs[i].ID = newID()
				if err := tx.Create(&subs[i]).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				subs[i].ID = existing.ID
				if err := tx.Save(&subs[i]).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// UnenrichedMovie is one movie-kind MediaItem paired with its skeleton
// Movie row, as handed to the enricher (spec §4.8).
type UnenrichedMovie struct {
	MediaItemID string
	Title       string
	Year        int
}

// MoviesNeedingEnrichment returns up to limit movies whose Movie.fetched_at
// is still NULL.
func (s *Store) MoviesNeedingEnrichment(limit int) ([]UnenrichedMovie, error) {
	var rows []UnenrichedMovie
	err := s.db.Model(&Movie{}).
		Select("movies.media_item_id as media_item_id, media_items.title as title, media_items.year as year").
		Joins("JOIN media_items ON media_items.id = movies.media_item_id").
		Where("movies.fetched_at IS NULL").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// UnenrichedShow is one show lacking enrichment, as handed to the
// enricher (spec §4.8).
type UnenrichedShow struct {
	ShowID string
	Title  string
}

// ShowsNeedingEnrichment returns up to limit shows whose fetched_at is
// still NULL.
func (s *Store) ShowsNeedingEnrichment(limit int) ([]UnenrichedShow, error) {
	var shows []Show
	if err := s.db.Where("fetched_at IS NULL").Limit(limit).Find(&shows).Error; err != nil {
		return nil, err
	}
	rows := make([]UnenrichedShow, 0, len(shows))
	for _, show := range shows {
		rows = append(rows, UnenrichedShow{ShowID: show.ID, Title: show.Title})
	}
	return rows, nil
}

// SeasonNumbersForShow returns the season numbers already on disk for a
// show, used by the enricher to know which seasons to fetch episode lists
// for (spec §4.8 step 4).
func (s *Store) SeasonNumbersForShow(showID string) ([]int, error) {
	var seasons []Season
	if err := s.db.Where("show_id = ?", showID).Order("season_number").Find(&seasons).Error; err != nil {
		return nil, err
	}
	numbers := make([]int, 0, len(seasons))
	for _, season := range seasons {
		numbers = append(numbers, season.SeasonNumber)
	}
	return numbers, nil
}

// MovieEnrichment is the provider-derived payload for one movie write,
// per spec §4.8 step 5.
type MovieEnrichment struct {
	MediaItemID   string
	TmdbID        string
	Overview      string
	Tagline       string
	ReleaseDate   *time.Time
	Rating        float64
	ContentRating string
	ImdbID        string
	Poster        string
	Backdrop      string
	Genres        string
	FetchedAt     time.Time
}

// ApplyMovieEnrichment writes one movie's enrichment payload inside its own
// transaction, per spec §4.8 step 5 (one transaction per item; the caller
// is responsible for finishing the HTTP work before calling it).
func (s *Store) ApplyMovieEnrichment(e MovieEnrichment) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var movie Movie
		if err := tx.Where("media_item_id = ?", e.MediaItemID).First(&movie).Error; err != nil {
			return err
		}
		movie.TmdbID = e.TmdbID
		movie.Overview = e.Overview
		movie.Tagline = e.Tagline
		movie.ReleaseDate = e.ReleaseDate
		movie.Rating = e.Rating
		movie.ContentRating = e.ContentRating
		movie.ImdbID = e.ImdbID
		movie.Poster = e.Poster
		movie.Backdrop = e.Backdrop
		movie.Genres = e.Genres
		movie.FetchedAt = &e.FetchedAt
		return tx.Save(&movie).Error
	})
}

// EpisodeEnrichment is one episode's provider-derived fields, written with
// COALESCE(new, existing) semantics so fields the provider didn't return
// don't clobber existing data (spec §4.8 step 5).
type EpisodeEnrichment struct {
	SeasonNumber  int
	EpisodeNumber int
	Title         string
	Overview      string
	AirDate       *time.Time
	StillImage    string
}

// ApplyShowEnrichment updates the Show row and, inside the same
// transaction, re-reads its current season set and applies each in-scope
// episode's enrichment with COALESCE(new, existing) semantics — per spec
// §4.8 step 5's note that seasons may have been added between the
// provider snapshot and lock acquisition.
func (s *Store) ApplyShowEnrichment(showID, tmdbID, overview, poster, backdrop string, fetchedAt time.Time, episodes []EpisodeEnrichment) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var show Show
		if err := tx.First(&show, "id = ?", showID).Error; err != nil {
			return err
		}
		show.TmdbID = tmdbID
		show.Overview = overview
		show.Poster = poster
		show.Backdrop = backdrop
		show.FetchedAt = &fetchedAt
		if err := tx.Save(&show).Error; err != nil {
			return err
		}

		var seasons []Season
		if err := tx.Where("show_id = ?", showID).Find(&seasons).Error; err != nil {
			return err
		}
		seasonIDByNumber := make(map[int]string, len(seasons))
		for _, season := range seasons {
			seasonIDByNumber[season.SeasonNumber] = season.ID
		}

		for _, enr := range episodes {
			seasonID, ok := seasonIDByNumber[enr.SeasonNumber]
			if !ok {
				continue
			}
			var episode Episode
			err := tx.Where("season_id = ? AND episode_number = ?", seasonID, enr.EpisodeNumber).First(&episode).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if enr.Title != "" {
				episode.Title = enr.Title
			}
			if enr.Overview != "" {
				episode.Overview = enr.Overview
			}
			if enr.AirDate != nil {
				episode.AirDate = enr.AirDate
			}
			if enr.StillImage != "" {
				episode.StillImage = enr.StillImage
			}
			if err := tx.Save(&episode).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ErrNotFound is returned when GORM's ErrRecordNotFound is translated to a
// domain-level sentinel for callers outside this package.
var ErrNotFound = gorm.ErrRecordNotFound

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Package photos is a client for the remote photo library API.
package photos

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a remote item or resource does not exist.
var ErrNotFound = errors.New("not found")

// MediaItem is one photo or video in the remote library.
type MediaItem struct {
	ID            string        `json:"id"`
	Filename      string        `json:"filename"`
	BaseURL       string        `json:"baseUrl"`
	Description   string        `json:"description,omitempty"`
	MediaMetadata MediaMetadata `json:"mediaMetadata"`
}

// MediaMetadata carries the capture timestamp (RFC 3339).
type MediaMetadata struct {
	CreationTime string `json:"creationTime,omitempty"`
}

// CreationTime parses the capture timestamp, if present.
func (m *MediaItem) CreationTime() (time.Time, bool) {
	if m.MediaMetadata.CreationTime == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, m.MediaMetadata.CreationTime)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Album is a named collection of media items.
type Album struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Date is a calendar date in a search filter.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// DateRange is an inclusive date range.
type DateRange struct {
	StartDate Date `json:"startDate"`
	EndDate   Date `json:"endDate"`
}

// DateFilter restricts a search to date ranges.
type DateFilter struct {
	Ranges []DateRange `json:"ranges"`
}

// FeatureFilter restricts a search to items with the given features.
type FeatureFilter struct {
	IncludedFeatures []string `json:"includedFeatures"`
}

// Filters is the filter block of a media item search.
type Filters struct {
	DateFilter    *DateFilter    `json:"dateFilter,omitempty"`
	FeatureFilter *FeatureFilter `json:"featureFilter,omitempty"`
}

// SearchRequest is the body of mediaItems:search. AlbumID and Filters are
// mutually exclusive on the wire.
type SearchRequest struct {
	AlbumID   string   `json:"albumId,omitempty"`
	PageSize  int      `json:"pageSize,omitempty"`
	PageToken string   `json:"pageToken,omitempty"`
	Filters   *Filters `json:"filters,omitempty"`
}

// SearchResponse is one page of search results.
type SearchResponse struct {
	MediaItems    []MediaItem `json:"mediaItems"`
	NextPageToken string      `json:"nextPageToken"`
}

// FavoritesFilter matches items marked as favorites.
func FavoritesFilter() *Filters {
	return &Filters{FeatureFilter: &FeatureFilter{IncludedFeatures: []string{"FAVORITES"}}}
}

// DateRangeFilter matches items captured between start and end (inclusive).
func DateRangeFilter(start, end time.Time) *Filters {
	return &Filters{DateFilter: &DateFilter{Ranges: []DateRange{{
		StartDate: Date{Year: start.Year(), Month: int(start.Month()), Day: start.Day()},
		EndDate:   Date{Year: end.Year(), Month: int(end.Month()), Day: end.Day()},
	}}}}
}

type albumsResponse struct {
	Albums        []Album `json:"albums"`
	NextPageToken string  `json:"nextPageToken"`
}

type newMediaItem struct {
	Description     string          `json:"description,omitempty"`
	SimpleMediaItem simpleMediaItem `json:"simpleMediaItem"`
}

type simpleMediaItem struct {
	UploadToken string `json:"uploadToken"`
}

type batchCreateRequest struct {
	NewMediaItems []newMediaItem `json:"newMediaItems"`
}

type itemStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type newMediaItemResult struct {
	Status    itemStatus `json:"status"`
	MediaItem *MediaItem `json:"mediaItem"`
}

type batchCreateResponse struct {
	NewMediaItemResults []newMediaItemResult `json:"newMediaItemResults"`
}

type batchAddRequest struct {
	MediaItemIDs []string `json:"mediaItemIds"`
}

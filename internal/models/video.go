package models

// VideoDetails is the catalog metadata for a single video. It is fetched on
// demand and never merged with previous fetches.
type VideoDetails struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// Video is the lightweight reference used for saved items, history entries and
// playlist entries. Identity is the URL within its owning list.
type Video struct {
	URL          string `json:"url"`
	VideoTitle   string `json:"videoTitle"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

type Playlist struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Videos []Video `json:"videos"`
}

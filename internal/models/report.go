package models

import "time"

// AnalysisReport holds the five category scores for one scan, each an integer
// percentage in [0,100]. A report is created once per scan and never mutated;
// rescanning a video produces a new report.
type AnalysisReport struct {
	VideoTitle                  string `json:"videoTitle"`
	ChannelName                 string `json:"channelName"`
	AdultVisuals                int    `json:"adultVisuals"`
	AggressiveBehavior          int    `json:"aggressiveBehavior"`
	NonTraditionalRelationships int    `json:"nonTraditionalRelationships"`
	InappropriateLanguage       int    `json:"inappropriateLanguage"`
	LGBTQRepresentation         int    `json:"lgbtqRepresentation"`
}

// ScanEntry is one append-only scan-history record, owned by a user and
// ordered by timestamp descending on read.
type ScanEntry struct {
	URL            string         `json:"url"`
	AnalysisResult AnalysisReport `json:"analysisResult"`
	VideoDetails   VideoDetails   `json:"videoDetails"`
	Timestamp      time.Time      `json:"timestamp"`
}

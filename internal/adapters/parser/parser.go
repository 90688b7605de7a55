// Package parser extracts structured song information from raw OCR
// text via a chat-completion model.
package parser

import "context"

// SongInfo is the structured outcome of parsing one score screen.
// Fields are nil when the model could not identify them.
type SongInfo struct {
	SongName   *string `json:"song_name"`
	ArtistName *string `json:"artist_name"`
}

// Parser turns full-page OCR text into song metadata.
type Parser interface {
	ParseSongInfo(ctx context.Context, ocrText string) (SongInfo, error)
}

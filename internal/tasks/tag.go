package tasks

import (
	"fmt"

	"github.com/bogem/id3v2/v2"
	"github.com/desertthunder/playlistdl/internal/models"
)

// TagFile writes the item's title and contributor as ID3v2 frames.
func TagFile(path string, item models.CatalogItem) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open tag: %w", err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(item.Title)
	if item.Contributor != "" {
		tag.SetArtist(item.Contributor)
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save tag: %w", err)
	}
	return nil
}

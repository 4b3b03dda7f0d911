// Package tagging writes ID3v2 tags to cut tracks.
package tagging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bogem/id3v2"
)

// Tags holds the values written to one track.
type Tags struct {
	Title  string
	Artist string
	Album  string
	Genre  string
	Number int
	Total  int
}

// Options controls which frames the Tagger writes.
type Options struct {
	Version    int
	WriteTitle bool
	WriteTotal bool
}

// Tagger writes ID3v2 frames in place.
type Tagger struct {
	opts Options
}

// NewTagger returns a Tagger. Versions other than 4 write ID3v2.3.
func NewTagger(opts Options) *Tagger {
	if opts.Version != 4 {
		opts.Version = 3
	}
	return &Tagger{opts: opts}
}

// Supports reports whether path has an extension ID3v2 tags belong to.
func Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".mp3")
}

// Apply replaces the title, artist, album, genre and track frames of the file
// at path. Empty values remove the corresponding frame.
func (t *Tagger) Apply(path string, tags Tags) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("tag %s: %w", path, err)
	}
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		if !errors.Is(err, id3v2.ErrUnsupportedVersion) {
			return fmt.Errorf("open tag %s: %w", path, err)
		}
		tag, err = id3v2.Open(path, id3v2.Options{Parse: false})
		if err != nil {
			return fmt.Errorf("open tag %s: %w", path, err)
		}
	}
	defer tag.Close()

	tag.SetVersion(byte(t.opts.Version))
	encoding := id3v2.EncodingUTF8
	if t.opts.Version == 3 {
		encoding = id3v2.EncodingUTF16
	}
	tag.SetDefaultEncoding(encoding)

	if t.opts.WriteTitle {
		setText(tag, "Title/Songname/Content description", tags.Title, encoding)
	}
	setText(tag, "Lead artist/Lead performer/Soloist/Performing group", tags.Artist, encoding)
	setText(tag, "Album/Movie/Show title", tags.Album, encoding)
	setText(tag, "Content type", tags.Genre, encoding)
	setText(tag, "Track number/Position in set", t.trackNumber(tags), encoding)

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save tag %s: %w", path, err)
	}
	return nil
}

func (t *Tagger) trackNumber(tags Tags) string {
	if tags.Number <= 0 {
		return ""
	}
	number := strconv.Itoa(tags.Number)
	if t.opts.WriteTotal && tags.Total >= tags.Number {
		number += "/" + strconv.Itoa(tags.Total)
	}
	return number
}

func setText(tag *id3v2.Tag, description, value string, encoding id3v2.Encoding) {
	id := tag.CommonID(description)
	tag.DeleteFrames(id)
	if value = strings.TrimSpace(value); value != "" {
		tag.AddTextFrame(id, encoding, value)
	}
}

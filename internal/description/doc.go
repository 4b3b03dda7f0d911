// Package description retrieves the free-form description text of a video.
//
// Sources are tried in order by Chain: a local file given on the command
// line, the metadata API, and finally a scrape of the public watch page. The
// returned text is handed untouched to the track-list parser.
package description

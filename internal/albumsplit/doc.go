// Package albumsplit turns one video into a directory of tagged tracks.
//
// A Runner resolves the video description, extracts and plans the track
// list, asks for confirmation, downloads (or reuses) the media, cuts every
// segment with bounded parallelism, tags the results and records the run in
// the history store. External tools sit behind small interfaces so tests can
// drive the pipeline without youtube-dl or ffmpeg.
package albumsplit

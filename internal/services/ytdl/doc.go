// Package ytdl wraps the youtube-dl command line: listing the available
// formats of a video, choosing the download format, and downloading the media
// into the staging area.
package ytdl

package model

// MashupRequest is the form a user submits to ask for a mashup
type MashupRequest struct {
	Artist       string `json:"artist" form:"artist" validate:"required"`
	Email        string `json:"email" form:"email" validate:"required,mashupemail"`
	ClipCount    int    `json:"clipCount" form:"clipCount" validate:"min=11"`
	ClipDuration int    `json:"clipDuration" form:"clipDuration" validate:"min=21"`
	JobID        string `json:"jobId,omitempty" form:"jobId" validate:"omitempty,uuid"`
}

// MashupForm is the submitted form as bound from a request body. Clip
// settings are pointers so an omitted field can be told apart from zero.
type MashupForm struct {
	Artist       string `json:"artist" form:"artist"`
	Email        string `json:"email" form:"email"`
	ClipCount    *int   `json:"clipCount" form:"clipCount"`
	ClipDuration *int   `json:"clipDuration" form:"clipDuration"`
	JobID        string `json:"jobId,omitempty" form:"jobId"`
}

// Request resolves the form, using the given defaults only for clip settings
// that were left out.
func (f MashupForm) Request(clipCount, clipDuration int) MashupRequest {
	req := MashupRequest{
		Artist:       f.Artist,
		Email:        f.Email,
		ClipCount:    clipCount,
		ClipDuration: clipDuration,
		JobID:        f.JobID,
	}
	if f.ClipCount != nil {
		req.ClipCount = *f.ClipCount
	}
	if f.ClipDuration != nil {
		req.ClipDuration = *f.ClipDuration
	}
	return req
}

// Track is an acquired audio file, kept in the order the search returned it
type Track struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	SourcePath  string `json:"-"`
	TrimmedPath string `json:"-"`
}

// MashupResult is reported once the archive has been delivered
type MashupResult struct {
	JobID           string  `json:"jobId"`
	Artist          string  `json:"artist"`
	Email           string  `json:"email"`
	RequestedCount  int     `json:"requestedCount"`
	TrackCount      int     `json:"trackCount"`
	Tracks          []Track `json:"tracks"`
	ClipDuration    int     `json:"clipDuration"`
	DurationSeconds float64 `json:"durationSeconds"`
	ArchiveName     string  `json:"archiveName"`
	ArchiveSize     int64   `json:"archiveSize"`
	Warning         string  `json:"warning,omitempty"`
}

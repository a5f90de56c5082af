package domain

// UploadJob describes a single story upload. It lives only for the duration
// of one call and is never persisted.
type UploadJob struct {
	Description string
	Image       []byte
	Filename    string
	Lat         *float64
	Lon         *float64
}

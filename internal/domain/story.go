package domain

// Story is one entry of the remote story feed. Identity is ID; the value is
// immutable once received.
type Story struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PhotoURL    string   `json:"photoUrl"`
	CreatedAt   string   `json:"createdAt"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
}

// HasLocation reports whether the story carries a geotag.
func (s Story) HasLocation() bool {
	return s.Lat != nil && s.Lon != nil
}

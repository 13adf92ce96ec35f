package mediasync

// Item describes one image of the desired gallery for a product. Items come
// from the local database; ObjectKey points at the stored bytes.
type Item struct {
	ID        int64  `json:"id"`
	Position  int    `json:"position"`
	IsCover   bool   `json:"is_cover"`
	ObjectKey string `json:"object_key"`
	FileName  string `json:"file_name"`
}

// RemoteImage describes one image currently present in the remote gallery.
// LocalID is the back-reference recorded when the image was uploaded; remote
// images added out-of-band carry none and are treated as foreign.
type RemoteImage struct {
	ExternalID string `json:"external_id"`
	LocalID    *int64 `json:"local_id,omitempty"`
	Position   int    `json:"position"`
	IsCover    bool   `json:"is_cover"`
}

// Diff is the minimal operation plan that converges a remote gallery with the
// desired one. It is computed per invocation and never persisted.
type Diff struct {
	ToUpload  []Item        `json:"to_upload"`
	ToDelete  []RemoteImage `json:"to_delete"`
	Unchanged []Item        `json:"unchanged"`

	CoverChanged bool `json:"cover_changed"`
	// NewCoverExternalID is set only when the new cover already exists
	// remotely. Empty with CoverChanged true means the cover is in the
	// upload set and the pointer can only move after that upload lands.
	NewCoverExternalID string `json:"new_cover_external_id,omitempty"`

	OrderChanged bool `json:"order_changed"`
	// PositionUpdates maps remote image IDs to their new ordinal position.
	// Only entries whose position actually moved appear here.
	PositionUpdates map[string]int `json:"position_updates,omitempty"`
}

// HasAnyChanges reports whether applying the diff would touch the remote
// gallery at all. Callers use it to skip the external API entirely.
func (d Diff) HasAnyChanges() bool {
	return len(d.ToUpload) > 0 || len(d.ToDelete) > 0 || d.CoverChanged || d.OrderChanged
}

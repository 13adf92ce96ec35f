package mediasync

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownGallery is returned by OpenGallery for an unregistered type.
var ErrUnknownGallery = errors.New("unknown gallery type")

// GalleryFactory opens a gallery instance. A nil sourceID means "first
// active instance of this type"; resolving that is the factory's concern.
type GalleryFactory func(sourceID *int64) (Gallery, error)

var (
	galleriesMu sync.RWMutex
	galleries   = make(map[string]GalleryFactory)
)

// RegisterGallery registers a factory for a gallery type. Adapters call this
// from their init or wiring code. Registering the same type twice replaces
// the previous factory.
func RegisterGallery(sourceType string, factory GalleryFactory) {
	galleriesMu.Lock()
	defer galleriesMu.Unlock()
	galleries[sourceType] = factory
}

// OpenGallery opens a gallery of the given type.
func OpenGallery(sourceType string, sourceID *int64) (Gallery, error) {
	galleriesMu.RLock()
	factory, ok := galleries[sourceType]
	galleriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGallery, sourceType)
	}
	return factory(sourceID)
}

// RegisteredGalleryTypes returns the registered gallery types, sorted.
func RegisteredGalleryTypes() []string {
	galleriesMu.RLock()
	defer galleriesMu.RUnlock()
	types := make([]string, 0, len(galleries))
	for t := range galleries {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

package region

import "strings"

// Store exposes region lookups for HTTP handlers.
type Store interface {
	List() []Region
	FindByTopic(topic string) (Region, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Region
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied regions.
func NewMemoryStore(items []Region) *MemoryStore {
	return &MemoryStore{items: append([]Region(nil), items...)}
}

// List returns the catalogue in declaration order.
func (s *MemoryStore) List() []Region {
	return append([]Region(nil), s.items...)
}

// FindByTopic matches a topic or route segment against region IDs and names,
// ignoring case.
func (s *MemoryStore) FindByTopic(topic string) (Region, bool) {
	topic = strings.TrimSpace(topic)
	for _, item := range s.items {
		if strings.EqualFold(item.ID, topic) || strings.EqualFold(item.Name, topic) {
			return item, true
		}
	}
	return Region{}, false
}

package events

import "time"

// TypeCatalogRebuilt signals that the reference-question index was
// re-seeded and running servers should reload it from the database.
const TypeCatalogRebuilt = "CATALOG_REBUILT"

// NewCatalogRebuilt builds the rebuild notification. Collections lists
// the collection IDs touched by the seeder; questionCount is the total
// number of reference questions embedded.
func NewCatalogRebuilt(collections []string, questionCount int) Event {
	data := make([]interface{}, len(collections))
	for i, c := range collections {
		data[i] = c
	}
	return BaseEvent{
		Type: TypeCatalogRebuilt,
		Data: map[string]interface{}{
			"collections":    data,
			"question_count": questionCount,
		},
		OccurredAt: time.Now(),
	}
}

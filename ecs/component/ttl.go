package component

// TTL despawns its entity through the bridge after the given number of update
// ticks. It is stripped on despawn so late readers never see a zero TTL.
type TTL struct {
	RemoveOnDespawn

	// Frames remaining (in update ticks)
	Frames int
}

var TTLComponent = NewComponent[TTL]()

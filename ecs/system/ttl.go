package system

import (
	"github.com/rs/zerolog/log"

	"github.com/milk9111/nodebridge/ecs"
	"github.com/milk9111/nodebridge/ecs/component"
)

// Despawner retires an entity together with its scene node.
type Despawner interface {
	DespawnAndFree(w *ecs.World, e ecs.Entity) error
}

// TTLSystem decrements frame-based TTL components and despawns entities when
// the TTL reaches zero.
type TTLSystem struct {
	despawner Despawner
}

func NewTTLSystem(d Despawner) *TTLSystem {
	return &TTLSystem{despawner: d}
}

func (s *TTLSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	var expired []ecs.Entity
	ecs.ForEach(w, component.TTLComponent.Kind(), func(e ecs.Entity, ttl *component.TTL) {
		if ttl == nil {
			return
		}
		if ttl.Frames > 0 {
			ttl.Frames--
		}
		if ttl.Frames <= 0 {
			expired = append(expired, e)
		}
	})

	for _, e := range expired {
		if s.despawner == nil {
			ecs.DestroyEntity(w, e)
			continue
		}
		if err := s.despawner.DespawnAndFree(w, e); err != nil {
			log.Warn().Err(err).Str("entity", e.String()).Msg("ttl despawn failed")
		}
	}
}

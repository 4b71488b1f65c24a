// Package save implements JSON serialization and deserialization of game state.
package save

import (
	"encoding/json"
	"fmt"

	"github.com/nathoo/lairgrid/engine/entity"
	"github.com/nathoo/lairgrid/engine/state"
)

// FormatVersion is bumped when SaveData changes incompatibly.
const FormatVersion = 1

// SaveData is the JSON-serializable save format. Entities carry base stats
// and active effects only; nothing derived is stored.
type SaveData struct {
	Format      int             `json:"format"`
	Version     string          `json:"version"`
	Game        string          `json:"game"`
	Turn        int             `json:"turn"`
	Seed        int64           `json:"rng_seed"`
	RNGPosition int64           `json:"rng_position"`
	NextID      int             `json:"next_id"`
	ActiveHero  string          `json:"active_hero,omitempty"`
	Entities    []entity.Record `json:"entities"`
	Lairs       []state.Lair    `json:"lairs"`
}

// Capture builds save data from the world.
func Capture(w *state.World, defs *state.Defs, seed, rngPosition int64, activeHero string) *SaveData {
	sd := &SaveData{
		Format:      FormatVersion,
		Version:     defs.Game.Version,
		Game:        defs.Game.Title,
		Turn:        w.Turn,
		Seed:        seed,
		RNGPosition: rngPosition,
		NextID:      w.NextID,
		ActiveHero:  activeHero,
		Entities:    make([]entity.Record, 0, len(w.Entities)),
		Lairs:       make([]state.Lair, 0, len(w.Lairs)),
	}
	for _, e := range w.Entities {
		sd.Entities = append(sd.Entities, e.Export())
	}
	for _, l := range w.Lairs {
		sd.Lairs = append(sd.Lairs, *l)
	}
	return sd
}

// Save serializes save data to indented JSON bytes.
func Save(sd *SaveData) ([]byte, error) {
	return json.MarshalIndent(sd, "", "  ")
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	if sd.Format > FormatVersion {
		return nil, fmt.Errorf("save format %d is newer than supported format %d", sd.Format, FormatVersion)
	}
	// Ensure slices and maps are never nil after load.
	if sd.Entities == nil {
		sd.Entities = []entity.Record{}
	}
	if sd.Lairs == nil {
		sd.Lairs = []state.Lair{}
	}
	for i := range sd.Entities {
		if sd.Entities[i].Stats == nil {
			sd.Entities[i].Stats = map[string]int{}
		}
	}
	if sd.NextID < 1 {
		sd.NextID = 1
	}
	return &sd, nil
}

// ApplySave replaces the world's contents with the saved ones. Entities are
// restored as loaded entities: no default table, no race or class scripts.
func ApplySave(w *state.World, sd *SaveData, tileSize float64) {
	w.Entities = make([]*entity.Entity, 0, len(sd.Entities))
	for _, r := range sd.Entities {
		w.Entities = append(w.Entities, entity.Restore(r, tileSize))
	}
	w.Lairs = make([]*state.Lair, 0, len(sd.Lairs))
	for i := range sd.Lairs {
		l := sd.Lairs[i]
		w.Lairs = append(w.Lairs, &l)
	}
	w.Turn = sd.Turn
	w.NextID = sd.NextID
}

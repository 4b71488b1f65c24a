package engine

import (
	"errors"
	"fmt"

	"github.com/nathoo/lairgrid/engine/save"
	"github.com/nathoo/lairgrid/types"
)

// ErrBusy is returned when saving while the enemies are still acting.
var ErrBusy = errors.New("cannot save during the enemy turn")

// Snapshot captures the world for saving. Saves are only taken on the
// player's turn so the phase never needs storing.
func (e *Engine) Snapshot() (*save.SaveData, error) {
	if e.Phase != types.PlayerTurn {
		return nil, ErrBusy
	}
	active := ""
	if h := e.ActiveHero(); h != nil {
		active = h.ID
	}
	return save.Capture(e.World, e.Defs, e.RNG.Seed(), e.RNG.Position(), active), nil
}

// Restore replaces the world with saved data and rewinds the RNG to the
// saved stream position.
func (e *Engine) Restore(sd *save.SaveData) error {
	if sd.Game != "" && e.Defs.Game.Title != "" && sd.Game != e.Defs.Game.Title {
		return fmt.Errorf("save belongs to %q, not %q", sd.Game, e.Defs.Game.Title)
	}
	save.ApplySave(e.World, sd, e.Config.TileSize)
	e.RestoreRNG(sd.Seed, sd.RNGPosition)
	e.Phase = types.PlayerTurn
	e.active = 0
	if sd.ActiveHero != "" {
		e.SetActive(sd.ActiveHero)
	}
	e.status = e.Status()
	e.Log.WithField("turn", e.World.Turn).Info("game restored")
	return nil
}

// Package storage keeps named save slots in a SQLite database through gorm.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nathoo/lairgrid/engine/entity"
	"github.com/nathoo/lairgrid/engine/save"
	"github.com/nathoo/lairgrid/engine/state"
	"github.com/nathoo/lairgrid/engine/stats"
	"github.com/nathoo/lairgrid/logger"
	"github.com/nathoo/lairgrid/types"
)

// ErrSlotNotFound is returned when a named slot does not exist.
var ErrSlotNotFound = errors.New("save slot not found")

// Slot is one named save. The world is split across slot_entities and
// slot_lairs so slots can be listed without decoding every entity.
type Slot struct {
	gorm.Model
	Name        string `gorm:"uniqueIndex;not null"`
	Game        string
	Version     string
	Format      int
	Turn        int
	Seed        int64
	RNGPosition int64
	NextID      int
	ActiveHero  string
	Heroes      int
	Enemies     int

	Entities []SlotEntity `gorm:"constraint:OnDelete:CASCADE;"`
	Lairs    []SlotLair   `gorm:"constraint:OnDelete:CASCADE;"`
}

// SlotEntity is one saved entity record.
type SlotEntity struct {
	ID        uint `gorm:"primarykey"`
	SlotID    uint `gorm:"index"`
	Position  int  // order within the world
	EntityID  string
	Name      string
	Role      string
	X, Y      int
	Guardian  bool
	Boss      bool
	Stats     map[string]int  `gorm:"serializer:json"`
	Effects   []stats.Effect  `gorm:"serializer:json"`
	Abilities []types.Ability `gorm:"serializer:json"`
}

// SlotLair is one saved lair.
type SlotLair struct {
	ID               uint `gorm:"primarykey"`
	SlotID           uint `gorm:"index"`
	Position         int
	X, Y             int
	GuardiansNeeded  int
	GuardiansSpawned bool
	SpawnTimer       int
	Guardian         string
	Roamer           string
}

// SlotInfo summarizes a slot for listings.
type SlotInfo struct {
	Name    string
	Game    string
	Turn    int
	Heroes  int
	Enemies int
	SavedAt time.Time
}

// Store wraps the save database.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the SQLite database at dsn and migrates
// the slot tables. The parent directory of a file path is created.
func Open(dsn string) (*Store, error) {
	if dsn != ":memory:" {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating save directory: %w", err)
			}
		}
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening save database: %w", err)
	}
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if err := db.AutoMigrate(&Slot{}, &SlotEntity{}, &SlotLair{}); err != nil {
		return nil, fmt.Errorf("migrating save database: %w", err)
	}
	logger.Log.WithField("dsn", dsn).Debug("save database ready")
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveSlot writes sd under name, replacing any slot with the same name.
func (s *Store) SaveSlot(ctx context.Context, name string, sd *save.SaveData) error {
	if name == "" {
		return errors.New("slot name is empty")
	}
	slot := toSlot(name, sd)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteSlot(tx, name); err != nil && !errors.Is(err, ErrSlotNotFound) {
			return err
		}
		if err := tx.Create(&slot).Error; err != nil {
			return fmt.Errorf("writing slot %q: %w", name, err)
		}
		logger.Log.WithFields(logrus.Fields{
			"slot":     name,
			"turn":     sd.Turn,
			"entities": len(sd.Entities),
		}).Info("slot saved")
		return nil
	})
}

// LoadSlot reads the slot called name.
func (s *Store) LoadSlot(ctx context.Context, name string) (*save.SaveData, error) {
	var slot Slot
	err := s.db.WithContext(ctx).
		Preload("Entities", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Lairs", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("name = ?", name).
		First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrSlotNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading slot %q: %w", name, err)
	}
	if slot.Format > save.FormatVersion {
		return nil, fmt.Errorf("slot %q has format %d, newer than supported %d", name, slot.Format, save.FormatVersion)
	}
	return fromSlot(slot), nil
}

// ListSlots returns every slot, most recently saved first.
func (s *Store) ListSlots(ctx context.Context) ([]SlotInfo, error) {
	var slots []Slot
	if err := s.db.WithContext(ctx).Order("updated_at desc").Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("listing slots: %w", err)
	}
	out := make([]SlotInfo, 0, len(slots))
	for _, sl := range slots {
		out = append(out, SlotInfo{
			Name:    sl.Name,
			Game:    sl.Game,
			Turn:    sl.Turn,
			Heroes:  sl.Heroes,
			Enemies: sl.Enemies,
			SavedAt: sl.UpdatedAt,
		})
	}
	return out, nil
}

// DeleteSlot removes a slot and its rows.
func (s *Store) DeleteSlot(ctx context.Context, name string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteSlot(tx, name)
	})
}

func deleteSlot(tx *gorm.DB, name string) error {
	var slot Slot
	err := tx.Where("name = ?", name).First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %q", ErrSlotNotFound, name)
	}
	if err != nil {
		return err
	}
	if err := tx.Where("slot_id = ?", slot.ID).Delete(&SlotEntity{}).Error; err != nil {
		return err
	}
	if err := tx.Where("slot_id = ?", slot.ID).Delete(&SlotLair{}).Error; err != nil {
		return err
	}
	// Unscoped so the unique name is free for the replacement row.
	return tx.Unscoped().Delete(&slot).Error
}

func toSlot(name string, sd *save.SaveData) Slot {
	slot := Slot{
		Name:        name,
		Game:        sd.Game,
		Version:     sd.Version,
		Format:      sd.Format,
		Turn:        sd.Turn,
		Seed:        sd.Seed,
		RNGPosition: sd.RNGPosition,
		NextID:      sd.NextID,
		ActiveHero:  sd.ActiveHero,
	}
	for i, r := range sd.Entities {
		switch r.Role {
		case types.RoleHero.String():
			slot.Heroes++
		case types.RoleEnemy.String():
			slot.Enemies++
		}
		slot.Entities = append(slot.Entities, SlotEntity{
			Position:  i,
			EntityID:  r.ID,
			Name:      r.Name,
			Role:      r.Role,
			X:         r.Cell.X,
			Y:         r.Cell.Y,
			Guardian:  r.Guardian,
			Boss:      r.Boss,
			Stats:     r.Stats,
			Effects:   r.Effects,
			Abilities: r.Abilities,
		})
	}
	for i, l := range sd.Lairs {
		slot.Lairs = append(slot.Lairs, SlotLair{
			Position:         i,
			X:                l.Cell.X,
			Y:                l.Cell.Y,
			GuardiansNeeded:  l.GuardiansNeeded,
			GuardiansSpawned: l.GuardiansSpawned,
			SpawnTimer:       l.SpawnTimer,
			Guardian:         l.Guardian,
			Roamer:           l.Roamer,
		})
	}
	return slot
}

func fromSlot(slot Slot) *save.SaveData {
	sd := &save.SaveData{
		Format:      slot.Format,
		Version:     slot.Version,
		Game:        slot.Game,
		Turn:        slot.Turn,
		Seed:        slot.Seed,
		RNGPosition: slot.RNGPosition,
		NextID:      slot.NextID,
		ActiveHero:  slot.ActiveHero,
		Entities:    make([]entity.Record, 0, len(slot.Entities)),
		Lairs:       make([]state.Lair, 0, len(slot.Lairs)),
	}
	for _, se := range slot.Entities {
		r := entity.Record{
			ID:        se.EntityID,
			Name:      se.Name,
			Role:      se.Role,
			Stats:     se.Stats,
			Effects:   se.Effects,
			Abilities: se.Abilities,
			Cell:      types.Cell{X: se.X, Y: se.Y},
			Guardian:  se.Guardian,
			Boss:      se.Boss,
		}
		if r.Stats == nil {
			r.Stats = map[string]int{}
		}
		sd.Entities = append(sd.Entities, r)
	}
	for _, sl := range slot.Lairs {
		sd.Lairs = append(sd.Lairs, state.Lair{
			Cell:             types.Cell{X: sl.X, Y: sl.Y},
			GuardiansNeeded:  sl.GuardiansNeeded,
			GuardiansSpawned: sl.GuardiansSpawned,
			SpawnTimer:       sl.SpawnTimer,
			Guardian:         sl.Guardian,
			Roamer:           sl.Roamer,
		})
	}
	if sd.NextID < 1 {
		sd.NextID = 1
	}
	return sd
}

package command

import (
	"fmt"
	"os"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-realm/internal/storage"
)

type StorageConfig struct {
	Characters AssetConfig[*game.Character] `json:"characters"`
	Rooms      AssetConfig[*game.Room]      `json:"rooms"`
	Mobiles    AssetConfig[*game.Mobile]    `json:"mobiles"`
	Weapons    AssetConfig[*game.Weapon]    `json:"weapons"`
}

// Stores holds the loaded content and character stores.
type Stores struct {
	Characters *storage.FileStore[*game.Character]
	Rooms      *storage.FileStore[*game.Room]
	Mobiles    *storage.FileStore[*game.Mobile]
	Weapons    *storage.FileStore[*game.Weapon]
}

func (c *StorageConfig) BuildStores() (*Stores, error) {
	chars, err := c.Characters.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating character store: %w", err)
	}
	rooms, err := c.Rooms.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating room store: %w", err)
	}
	mobiles, err := c.Mobiles.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating mobile store: %w", err)
	}
	weapons, err := c.Weapons.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating weapon store: %w", err)
	}

	return &Stores{
		Characters: chars,
		Rooms:      rooms,
		Mobiles:    mobiles,
		Weapons:    weapons,
	}, nil
}

func (c *StorageConfig) validate() error {
	el := errors.NewErrorList()
	el.Add(c.Characters.Validate("characters"))
	el.Add(c.Rooms.Validate("rooms"))
	el.Add(c.Mobiles.Validate("mobiles"))
	el.Add(c.Weapons.Validate("weapons"))
	return el.Err()
}

type AssetConfig[T storage.ValidatingSpec] struct {
	Path string `json:"path"`
}

func (c *AssetConfig[T]) Validate(name string) error {
	if c.Path == "" {
		return fmt.Errorf("%s: path is required", name)
	}
	_, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("%s: invalid path %q: %w", name, c.Path, err)
	}

	return nil
}

func (c *AssetConfig[T]) BuildFileStore() (*storage.FileStore[T], error) {
	return storage.NewFileStore[T](c.Path)
}

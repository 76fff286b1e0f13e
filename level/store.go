package level

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/quasilyte/gdata/v2"
)

// slotObject is the gdata object that holds every level slot.
const slotObject = "levels"

// ErrNoSlot is returned when loading a slot that was never saved.
var ErrNoSlot = errors.New("no such save slot")

var slotName = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Store keeps named level slots in the per-user data directory.
type Store struct {
	m *gdata.Manager
}

// OpenStore opens the data directory for appName.
func OpenStore(appName string) (*Store, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("opening save data: %w", err)
	}
	return &Store{m: m}, nil
}

func checkSlot(name string) error {
	if !slotName.MatchString(name) {
		return fmt.Errorf("invalid slot name %q", name)
	}
	return nil
}

// Exists reports whether slot name holds a level.
func (s *Store) Exists(name string) bool {
	if checkSlot(name) != nil {
		return false
	}
	return s.m.ObjectPropExists(slotObject, name)
}

// Save writes l to slot name, replacing any previous level there.
func (s *Store) Save(name string, l *Level) error {
	if err := checkSlot(name); err != nil {
		return err
	}
	if err := l.Validate(); err != nil {
		return err
	}
	data, err := Marshal(l, FormatMsgpack)
	if err != nil {
		return fmt.Errorf("encoding level: %w", err)
	}
	if err := s.m.SaveObjectProp(slotObject, name, data); err != nil {
		return fmt.Errorf("saving slot %q: %w", name, err)
	}
	return nil
}

// Load reads slot name.
func (s *Store) Load(name string) (*Level, error) {
	if err := checkSlot(name); err != nil {
		return nil, err
	}
	if !s.m.ObjectPropExists(slotObject, name) {
		return nil, fmt.Errorf("slot %q: %w", name, ErrNoSlot)
	}
	data, err := s.m.LoadObjectProp(slotObject, name)
	if err != nil {
		return nil, fmt.Errorf("loading slot %q: %w", name, err)
	}
	l, err := Unmarshal(data, FormatMsgpack)
	if err != nil {
		return nil, fmt.Errorf("slot %q: %w", name, err)
	}
	return l, nil
}

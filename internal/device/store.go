// AngelaMos | 2026
// store.go

package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	statusActive = "active"

	DefaultTheme = "white"
)

var ErrMissingDevice = errors.New("device id missing")

var validThemes = map[string]struct{}{
	"white":  {},
	"blue":   {},
	"purple": {},
	"green":  {},
	"dark":   {},
}

func ValidTheme(theme string) bool {
	_, ok := validThemes[theme]
	return ok
}

// State is the device level view a client needs to pick its screen.
type State struct {
	DeviceID  string `json:"device_id"`
	Activated bool   `json:"activated"`
	Theme     string `json:"theme"`
}

// Store keeps the Pro activation flag and theme preference of a device.
// Neither is tied to a user account.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns a Store. A zero ttl keeps device state forever.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func statusKey(id string) string {
	return "device:" + id + ":pro_status"
}

func themeKey(id string) string {
	return "device:" + id + ":theme"
}

func (s *Store) Activate(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return ErrMissingDevice
	}

	if err := s.client.Set(ctx, statusKey(deviceID), statusActive, s.ttl).Err(); err != nil {
		return fmt.Errorf("activate device: %w", err)
	}

	return nil
}

func (s *Store) IsActivated(ctx context.Context, deviceID string) (bool, error) {
	if deviceID == "" {
		return false, nil
	}

	val, err := s.client.Get(ctx, statusKey(deviceID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read device status: %w", err)
	}

	return val == statusActive, nil
}

func (s *Store) Deactivate(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return ErrMissingDevice
	}

	if err := s.client.Del(ctx, statusKey(deviceID)).Err(); err != nil {
		return fmt.Errorf("deactivate device: %w", err)
	}

	return nil
}

// SetTheme stores theme for the device. Unknown themes fall back to the
// default.
func (s *Store) SetTheme(ctx context.Context, deviceID, theme string) error {
	if deviceID == "" {
		return ErrMissingDevice
	}
	if !ValidTheme(theme) {
		theme = DefaultTheme
	}

	if err := s.client.Set(ctx, themeKey(deviceID), theme, s.ttl).Err(); err != nil {
		return fmt.Errorf("set device theme: %w", err)
	}

	return nil
}

func (s *Store) Theme(ctx context.Context, deviceID string) (string, error) {
	if deviceID == "" {
		return DefaultTheme, nil
	}

	val, err := s.client.Get(ctx, themeKey(deviceID)).Result()
	if errors.Is(err, redis.Nil) {
		return DefaultTheme, nil
	}
	if err != nil {
		return "", fmt.Errorf("read device theme: %w", err)
	}

	if !ValidTheme(val) {
		return DefaultTheme, nil
	}
	return val, nil
}

func (s *Store) State(ctx context.Context, deviceID string) (*State, error) {
	activated, err := s.IsActivated(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	theme, err := s.Theme(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	return &State{DeviceID: deviceID, Activated: activated, Theme: theme}, nil
}

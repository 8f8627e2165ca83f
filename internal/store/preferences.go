package store

import (
	"context"
	"errors"
	"fmt"
)

const (
	PreferenceNamespace = "prefs"
	ThemeKey            = "theme"

	ThemeDark  = "dark"
	ThemeLight = "light"
)

var ErrInvalidTheme = errors.New("theme must be dark or light")

// Preferences stores operator display settings in a KVStore.
type Preferences struct {
	KV KVStore
}

// Theme returns the stored theme, dark when none has been set.
func (p *Preferences) Theme(ctx context.Context) (string, error) {
	v, err := p.KV.Get(ctx, PreferenceNamespace, ThemeKey)
	if errors.Is(err, ErrNotFound) {
		return ThemeDark, nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (p *Preferences) SetTheme(ctx context.Context, theme string) error {
	if theme != ThemeDark && theme != ThemeLight {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, theme)
	}
	return p.KV.Set(ctx, PreferenceNamespace, ThemeKey, theme, 0)
}

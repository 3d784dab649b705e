// Package app is the composition root: it wires configuration, logging, the
// pantry client, the form store, the page controller, and the UI together.
package app

import (
	"context"
	"fmt"

	"github.com/larderhq/larder/internal/config"
	"github.com/larderhq/larder/internal/controller"
	"github.com/larderhq/larder/internal/form"
	"github.com/larderhq/larder/internal/logging"
	"github.com/larderhq/larder/internal/pantry"
	"github.com/larderhq/larder/internal/prefs"
	"github.com/larderhq/larder/internal/ui"
)

// Options configure the Larder application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/larder/prefs.toml
	Barcode    string
}

// Run boots the Larder TUI for one barcode until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Barcode == "" {
		return fmt.Errorf("barcode required")
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	userPrefs := prefs.Load(opts.PrefsPath)

	logger, err := logging.New(cfg.LogPath(), cfg.Debug)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	client, err := pantry.NewClient(cfg.APIBind)
	if err != nil {
		return fmt.Errorf("init pantry client: %w", err)
	}

	lang := cfg.DefaultLang
	if userPrefs.Language != "" {
		lang = userPrefs.Language
	}

	store := form.NewStore(lang)
	ctl := controller.New(client, store, logger, controller.Options{
		DefaultLang:       lang,
		DisplayDelay:      cfg.DisplayDelay,
		EnforceRequired:   cfg.EnforceRequiredFields,
		RequiredNutrients: cfg.RequiredNutrients,
		RequiredImages:    imageFields(cfg.RequiredImages),
	})
	defer ctl.Close()

	// Kick off the initial load before the UI starts observing.
	ctl.Load(ctx, opts.Barcode)

	return ui.Run(ui.Options{
		Context:    ctx,
		Controller: ctl,
		Store:      store,
		Barcode:    opts.Barcode,
		ThemeName:  userPrefs.Theme,
	})
}

func imageFields(names []string) []pantry.ImageField {
	fields := make([]pantry.ImageField, 0, len(names))
	for _, name := range names {
		for _, known := range pantry.ImageFields() {
			if name == string(known) {
				fields = append(fields, known)
			}
		}
	}
	return fields
}

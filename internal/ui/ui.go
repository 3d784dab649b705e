// Package ui renders the product detail page as a Bubble Tea program. It is
// a read-only observer of the form store; the only commands it issues are
// load and save on the controller.
package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/larderhq/larder/internal/controller"
	"github.com/larderhq/larder/internal/form"
)

// Options configure the UI runtime.
type Options struct {
	Context    context.Context
	Controller *controller.Controller
	Store      *form.Store
	Barcode    string
	ThemeName  string
}

// Run starts the detail page and blocks until the user quits or the context
// is cancelled.
func Run(opts Options) error {
	if opts.Controller == nil || opts.Store == nil {
		return fmt.Errorf("ui requires a controller and a store")
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	program := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

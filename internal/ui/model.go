package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/larderhq/larder/internal/controller"
	"github.com/larderhq/larder/internal/form"
	"github.com/larderhq/larder/internal/pantry"
)

// storeUpdatedMsg signals that the form store has a new snapshot.
type storeUpdatedMsg struct{}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx     context.Context
	ctrl    *controller.Controller
	store   *form.Store
	barcode string
	theme   Theme

	watch    <-chan struct{}
	snapshot form.Snapshot
	spinner  spinner.Model
	width    int
	height   int
}

// New creates the detail page model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	theme := themeByName(opts.ThemeName)
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Title

	return Model{
		ctx:      ctx,
		ctrl:     opts.Controller,
		store:    opts.Store,
		barcode:  opts.Barcode,
		theme:    theme,
		watch:    opts.Store.Watch(),
		snapshot: opts.Store.Snapshot(),
		spinner:  sp,
	}
}

// Init starts the spinner and the store subscription.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForUpdate())
}

func (m Model) waitForUpdate() tea.Cmd {
	ch := m.watch
	return func() tea.Msg {
		<-ch
		return storeUpdatedMsg{}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case storeUpdatedMsg:
		m.snapshot = m.store.Snapshot()
		return m, m.waitForUpdate()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.ctrl.Load(m.ctx, m.barcode)
			return m, nil
		case "s":
			if m.snapshot.State == form.StateProductDetails {
				m.ctrl.Save(m.ctx, m.barcode)
			}
			return m, nil
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the page for the current state.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("larder") + m.theme.Faint.Render("  "+m.barcode) + "\n\n")

	switch m.snapshot.State {
	case form.StateLoading:
		b.WriteString(m.spinner.View() + " Loading product…\n")
	case form.StateCompleted:
		if m.snapshot.JustUploaded {
			b.WriteString(m.theme.Banner.Render("✓ Uploaded") + "\n")
		} else {
			b.WriteString(m.theme.Banner.Render("✓ Loaded") + "\n")
		}
	case form.StateProductDetails:
		m.renderDetails(&b)
	case form.StateError:
		m.renderError(&b)
	}

	b.WriteString("\n" + m.theme.Faint.Render("r reload · s save · q quit") + "\n")
	return b.String()
}

func (m Model) renderDetails(b *strings.Builder) {
	snap := m.snapshot

	mode := "existing product"
	if snap.IsNewMode() {
		mode = "new product"
	}
	b.WriteString(m.theme.Faint.Render(mode) + "\n\n")
	if snap.JustUploaded {
		b.WriteString(m.theme.Banner.Render("✓ Changes uploaded") + "\n\n")
	}

	m.row(b, "Name", snap.Fields.ProductName)
	m.row(b, "Brand", snap.Fields.Brand)
	m.row(b, "Categories", strings.Join(snap.Fields.Categories, ","))
	m.row(b, "Weight", snap.Fields.Weight)
	m.row(b, "Serving size", snap.Fields.ServingSize)
	m.row(b, "Values per", string(snap.Fields.DataBasis))
	m.row(b, "Language", snap.Fields.PackageLanguage)

	b.WriteString("\n" + m.theme.Label.Render("Nutrients") + "\n")
	for _, entry := range snap.Nutrients {
		if !entry.DisplayInForm {
			continue
		}
		name := entry.Name
		if meta, ok := snap.Metadata[entry.ID]; ok && meta.Name != "" {
			name = meta.Name
		}
		value := entry.Value
		if value == "" {
			value = "—"
		}
		b.WriteString(fmt.Sprintf("  %s %s\n",
			m.theme.Value.Render(fmt.Sprintf("%-18s", name)),
			m.theme.Faint.Render(value+" "+entry.CurrentUnit.Code)))
	}

	b.WriteString("\n" + m.theme.Label.Render("Photos") + "\n")
	for _, field := range pantry.ImageFields() {
		mark := m.theme.Faint.Render("missing")
		if len(snap.Image(field)) > 0 {
			mark = m.theme.Banner.Render("present")
		}
		b.WriteString(fmt.Sprintf("  %-12s %s\n", field, mark))
	}

	if missing := m.ctrl.MissingRequiredFields(); len(missing) > 0 {
		b.WriteString("\n" + m.theme.Missing.Render("Required: "+strings.Join(missing, ", ")) + "\n")
	}
}

func (m Model) renderError(b *strings.Builder) {
	info := m.snapshot.Error
	if info == nil {
		info = &form.ErrorInfo{Title: "Error", Message: "unknown failure"}
	}
	b.WriteString(m.theme.Alert.Render(info.Title+"\n"+info.Message) + "\n")
	b.WriteString(m.theme.Faint.Render("press r to retry") + "\n")
}

func (m Model) row(b *strings.Builder, label, value string) {
	if value == "" {
		value = m.theme.Faint.Render("—")
	} else {
		value = m.theme.Value.Render(value)
	}
	b.WriteString(fmt.Sprintf("%s %s\n", m.theme.Label.Render(fmt.Sprintf("%-14s", label)), value))
}

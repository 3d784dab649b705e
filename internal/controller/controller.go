package controller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/larderhq/larder/internal/form"
	"github.com/larderhq/larder/internal/nutrient"
	"github.com/larderhq/larder/internal/pantry"
	"github.com/larderhq/larder/internal/product"
)

const defaultDisplayDelay = time.Second

// Options configure a page controller.
type Options struct {
	DefaultLang       string
	DisplayDelay      time.Duration
	EnforceRequired   bool
	RequiredNutrients []string
	RequiredImages    []pantry.ImageField
}

// Controller drives one product detail page: the load and save pipelines,
// the page state machine, and all form store mutations.
//
// Every invocation of Load or Save bumps a generation counter. Store writes
// and the delayed completed → productDetails flip carry the generation they
// were started under and are discarded once a newer invocation (or Close)
// has moved it on, so an abandoned pipeline can never clobber a fresh one.
type Controller struct {
	client pantry.API
	store  *form.Store
	log    *zap.Logger
	opts   Options

	mu         sync.Mutex
	generation uint64
	catalog    *nutrient.Catalog
	transition *time.Timer
}

// New builds a controller around the given client and store.
func New(client pantry.API, store *form.Store, logger *zap.Logger, opts Options) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DisplayDelay <= 0 {
		opts.DisplayDelay = defaultDisplayDelay
	}
	return &Controller{client: client, store: store, log: logger, opts: opts}
}

// Store exposes the observable form state.
func (c *Controller) Store() *form.Store { return c.store }

// Load starts the load pipeline for barcode and returns immediately.
func (c *Controller) Load(ctx context.Context, barcode string) {
	gen := c.begin()
	go c.runLoad(ctx, gen, barcode)
}

// Save starts the save pipeline for barcode and returns immediately.
func (c *Controller) Save(ctx context.Context, barcode string) {
	gen := c.begin()
	go c.runSave(ctx, gen, barcode)
}

// MissingRequiredFields lists the required fields still empty on the current
// form, or nil when the policy is disabled.
func (c *Controller) MissingRequiredFields() []string {
	snap := c.store.Snapshot()
	return snap.MissingRequiredFields(c.opts.EnforceRequired, c.opts.RequiredImages)
}

// Close invalidates in-flight pipelines and stops any pending transition.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	if c.transition != nil {
		c.transition.Stop()
		c.transition = nil
	}
}

// begin starts a new invocation: bumps the generation and cancels the
// pending display-delay transition of the previous one.
func (c *Controller) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	if c.transition != nil {
		c.transition.Stop()
		c.transition = nil
	}
	return c.generation
}

// apply forwards a mutation to the store unless gen has been superseded.
func (c *Controller) apply(gen uint64, mutate func(*form.Snapshot)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	c.store.Apply(mutate)
	return true
}

func (c *Controller) runLoad(ctx context.Context, gen uint64, barcode string) {
	c.log.Debug("load started", zap.String("barcode", barcode))

	// A fresh call fully re-derives state: reset to defaults, then show the
	// loading page.
	c.apply(gen, func(s *form.Snapshot) {
		*s = form.Snapshot{
			State:    form.StateLoading,
			Fields:   form.DefaultFields(c.opts.DefaultLang),
			Selected: make(map[string]bool),
			Images:   form.EmptyImages(),
		}
	})

	// The three fetches run concurrently and all complete before anything is
	// inspected; a plain errgroup deliberately does not cancel siblings when
	// one fails.
	var (
		defs []nutrient.Definition
		rec  *pantry.ProductRecord
		meta pantry.NutrientMetadata
		g    errgroup.Group
	)
	g.Go(func() error {
		var err error
		defs, err = c.client.FetchNutrientCatalog(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		rec, err = c.client.FetchProduct(ctx, barcode)
		return err
	})
	g.Go(func() error {
		var err error
		meta, err = c.client.FetchNutrientMetadata(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		c.fail(gen, "Loading failed", err)
		return
	}

	catalog := nutrient.NewCatalog(defs, c.opts.RequiredNutrients)
	mode := form.ModeNew
	fields := form.DefaultFields(c.opts.DefaultLang)
	images := form.EmptyImages()

	// Reset selection: the required rows a fresh form opens with. Seeded
	// from the catalog so the selection stays a subset of known ids.
	selected := make(map[string]bool)
	for _, entry := range catalog.Entries {
		if entry.IsImportant {
			selected[entry.ID] = true
		}
	}

	if rec != nil {
		mode = form.ModeView
		res := product.Reconcile(rec, catalog, selected, c.opts.DefaultLang)
		fields = res.Fields
		selected = res.Selected
		if len(res.ImageURLs) > 0 {
			fetched, err := c.client.FetchImages(ctx, res.ImageURLs)
			if err != nil {
				c.log.Warn("some product images failed to load",
					zap.String("barcode", barcode), zap.Error(err))
			}
			for field, data := range fetched {
				images[field] = data
			}
		}
	}

	c.mu.Lock()
	if gen == c.generation {
		c.catalog = catalog
	}
	c.mu.Unlock()

	// Single observable update: completed state, catalog, metadata, mode.
	entries := catalog.Values()
	applied := c.apply(gen, func(s *form.Snapshot) {
		s.State = form.StateCompleted
		s.Mode = mode
		s.Initialised = true
		s.Fields = fields
		s.Nutrients = entries
		s.Selected = selected
		s.Images = images
		s.Metadata = meta
		s.Error = nil
	})
	if !applied {
		c.log.Debug("load superseded", zap.String("barcode", barcode))
		return
	}

	c.log.Info("load completed",
		zap.String("barcode", barcode),
		zap.Bool("exists", rec != nil))
	c.scheduleDetails(gen, nil)
}

func (c *Controller) runSave(ctx context.Context, gen uint64, barcode string) {
	c.log.Debug("save started", zap.String("barcode", barcode))

	c.apply(gen, func(s *form.Snapshot) {
		s.State = form.StateLoading
		s.JustUploaded = false
		s.LastSubmitted = nil
		s.Error = nil
	})

	snap := c.store.Snapshot()

	// Image failures are logged and swallowed; they never abort the save.
	for _, err := range c.uploadImages(ctx, barcode, snap.Images) {
		c.log.Warn("image upload failed", zap.String("barcode", barcode), zap.Error(err))
	}

	payload := product.Compose(snap, barcode)
	if err := c.client.SubmitProduct(ctx, payload); err != nil {
		c.fail(gen, "Upload failed", err)
		return
	}

	if !c.apply(gen, func(s *form.Snapshot) { s.State = form.StateCompleted }) {
		c.log.Debug("save superseded", zap.String("barcode", barcode))
		return
	}

	c.log.Info("save completed", zap.String("barcode", barcode), zap.Int("fields", len(payload)))
	c.scheduleDetails(gen, func(s *form.Snapshot) {
		s.JustUploaded = true
		s.LastSubmitted = payload
	})
}

// uploadImages submits every populated photo concurrently and waits for all
// attempts to settle. All uploads are fired before any failure is observed;
// the returned errors are informational only.
func (c *Controller) uploadImages(ctx context.Context, barcode string, images map[pantry.ImageField][]byte) []error {
	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	for field, data := range images {
		if len(data) == 0 {
			continue
		}
		g.Go(func() error {
			err := c.client.SubmitImage(ctx, pantry.ImageUpload{Barcode: barcode, Field: field, Data: data})
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

// scheduleDetails flips completed → productDetails after the display delay.
// The flip is cosmetic: it runs off a timer tied to the controller lifetime
// and never blocks other operations.
func (c *Controller) scheduleDetails(gen uint64, extra func(*form.Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	c.transition = time.AfterFunc(c.opts.DisplayDelay, func() {
		c.apply(gen, func(s *form.Snapshot) {
			s.State = form.StateProductDetails
			if extra != nil {
				extra(s)
			}
		})
	})
}

// fail moves the page to the error state with a user-facing message. The
// form keeps whatever state it had; no partial merge has happened by the
// time fail can be reached.
func (c *Controller) fail(gen uint64, title string, err error) {
	c.log.Error("pipeline failed", zap.String("title", title), zap.Error(err))
	c.apply(gen, func(s *form.Snapshot) {
		s.State = form.StateError
		s.Error = &form.ErrorInfo{Title: title, Message: err.Error()}
	})
}

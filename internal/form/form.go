package form

import (
	"sync"

	"github.com/larderhq/larder/internal/nutrient"
	"github.com/larderhq/larder/internal/pantry"
)

// PageState is the detail page's lifecycle state. Exactly one value is active
// at a time; only the controller transitions it.
type PageState int

const (
	StateLoading PageState = iota
	StateCompleted
	StateProductDetails
	StateError
)

// String returns the state name for logs and rendering.
func (s PageState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateCompleted:
		return "completed"
	case StateProductDetails:
		return "productDetails"
	case StateError:
		return "error"
	}
	return "unknown"
}

// PageMode records whether the page shows an existing product or a new one.
// Derived once per load and immutable until the next load.
type PageMode int

const (
	ModeView PageMode = iota
	ModeNew
)

// DataBasis is the basis nutrient values are expressed against.
type DataBasis string

const (
	Per100g    DataBasis = "100g"
	PerServing DataBasis = "serving"
)

// ErrorInfo is the user-facing failure description the presentation layer
// renders as an alert.
type ErrorInfo struct {
	Title   string
	Message string
}

// Fields holds the scalar editable product fields.
type Fields struct {
	ProductName     string
	Brand           string
	Categories      []string
	Weight          string
	ServingSize     string
	DataBasis       DataBasis
	PackageLanguage string
}

// DefaultFields returns the reset defaults for a fresh page.
func DefaultFields(lang string) Fields {
	return Fields{DataBasis: Per100g, PackageLanguage: lang}
}

// Snapshot is the full observable page state at a point in time.
type Snapshot struct {
	State        PageState
	Mode         PageMode
	Initialised  bool
	JustUploaded bool
	Error        *ErrorInfo

	Fields    Fields
	Nutrients []nutrient.Entry
	Selected  map[string]bool
	Images    map[pantry.ImageField][]byte
	Metadata  pantry.NutrientMetadata

	// LastSubmitted holds the payload of the most recent successful upload,
	// present only immediately after one.
	LastSubmitted map[string]string
}

// IsViewMode reports whether the page shows an existing product.
func (s Snapshot) IsViewMode() bool { return s.Initialised && s.Mode == ModeView }

// IsNewMode reports whether the page creates a new product.
func (s Snapshot) IsNewMode() bool { return s.Initialised && s.Mode == ModeNew }

// Image returns the bytes for one photo slot; empty means no photo.
func (s Snapshot) Image(field pantry.ImageField) []byte { return s.Images[field] }

// MissingRequiredFields lists the required fields that are still empty, in
// display order. It returns nil when the required-fields policy is disabled.
func (s Snapshot) MissingRequiredFields(enforce bool, requiredImages []pantry.ImageField) []string {
	if !enforce {
		return nil
	}
	var missing []string
	if s.Fields.ProductName == "" {
		missing = append(missing, "product name")
	}
	if s.Fields.Weight == "" {
		missing = append(missing, "weight")
	}
	for _, field := range requiredImages {
		if len(s.Images[field]) == 0 {
			missing = append(missing, string(field)+" image")
		}
	}
	return missing
}

// EmptyImages returns an image map with every photo slot present and empty.
func EmptyImages() map[pantry.ImageField][]byte {
	images := make(map[pantry.ImageField][]byte, 3)
	for _, field := range pantry.ImageFields() {
		images[field] = nil
	}
	return images
}

// Store coordinates single-writer updates to the snapshot with any number of
// read-only observers.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	watchers []chan struct{}
}

// NewStore returns a store holding the reset defaults for lang.
func NewStore(lang string) *Store {
	return &Store{snapshot: Snapshot{
		State:    StateLoading,
		Fields:   DefaultFields(lang),
		Selected: make(map[string]bool),
		Images:   EmptyImages(),
	}}
}

// Apply runs mutate against the stored snapshot under the write lock and
// notifies watchers. It is the only mutation path; mutate must not block.
func (s *Store) Apply(mutate func(*Snapshot)) {
	s.mu.Lock()
	mutate(&s.snapshot)
	watchers := s.watchers
	s.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Snapshot returns an independent deep copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Fields.Categories = cloneSlice(s.snapshot.Fields.Categories)
	snap.Nutrients = cloneSlice(s.snapshot.Nutrients)
	snap.Selected = cloneMap(s.snapshot.Selected)
	snap.Metadata = cloneMap(s.snapshot.Metadata)
	snap.LastSubmitted = cloneMap(s.snapshot.LastSubmitted)
	if s.snapshot.Images != nil {
		snap.Images = make(map[pantry.ImageField][]byte, len(s.snapshot.Images))
		for field, data := range s.snapshot.Images {
			snap.Images[field] = cloneSlice(data)
		}
	}
	if s.snapshot.Error != nil {
		errCopy := *s.snapshot.Error
		snap.Error = &errCopy
	}
	return snap
}

// Watch registers an observer channel. A token is sent (coalesced, never
// blocking) after every Apply; observers read Snapshot for the data.
func (s *Store) Watch() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()
	return ch
}

func cloneSlice[T any](in []T) []T {
	if len(in) == 0 {
		return nil
	}
	dup := make([]T, len(in))
	copy(dup, in)
	return dup
}

func cloneMap[K comparable, V any, M ~map[K]V](in M) M {
	if in == nil {
		return nil
	}
	dup := make(M, len(in))
	for k, v := range in {
		dup[k] = v
	}
	return dup
}

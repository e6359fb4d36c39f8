package tree

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/gedcom"
	"github.com/matzehuels/kintree/pkg/observability"
)

// ErrUnknownLink is returned when a link index is out of range.
var ErrUnknownLink = errors.New("unknown link")

// ErrNotCollapsible is returned when collapsing an entity would hide
// nothing: a person without parents or a family without children.
var ErrNotCollapsible = errors.New("nothing to collapse")

// Listener is notified about layout changes. Callbacks run after the engine
// has released its lock, so they may call back into it.
type Listener interface {
	// SelectionChanged reports a new actual link. Indices refer to the
	// current layout; -1 means none.
	SelectionChanged(old, new int)
	// DataChanged reports that labels may need a repaint.
	DataChanged()
	// EntitiesChanged reports entities whose boxes show changed data.
	EntitiesChanged(ids []string)
	// StructureChanged reports a full re-layout.
	StructureChanged()
}

// Funcs adapts functions to a [Listener]. Nil fields are ignored.
type Funcs struct {
	OnSelection func(old, new int)
	OnData      func()
	OnEntities  func(ids []string)
	OnStructure func()
}

func (f *Funcs) SelectionChanged(old, new int) {
	if f.OnSelection != nil {
		f.OnSelection(old, new)
	}
}

func (f *Funcs) DataChanged() {
	if f.OnData != nil {
		f.OnData()
	}
}

func (f *Funcs) EntitiesChanged(ids []string) {
	if f.OnEntities != nil {
		f.OnEntities(ids)
	}
}

func (f *Funcs) StructureChanged() {
	if f.OnStructure != nil {
		f.OnStructure()
	}
}

// State is the persistable part of an engine.
type State struct {
	Root        string
	Collapsed   []string
	Config      Config
	StickToRoot bool
}

// Option configures an [Engine].
type Option func(*Engine)

// WithRoot sets the initial root. An id that does not resolve falls back to
// the first person.
func WithRoot(id string) Option {
	return func(e *Engine) { e.root = id }
}

// WithCollapsed collapses the given entities. Ids that do not resolve, or
// that have nothing to hide, are dropped.
func WithCollapsed(ids ...string) Option {
	return func(e *Engine) {
		for _, id := range ids {
			e.collapsed.Add(id)
		}
	}
}

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithStickToRoot makes double-clicks select instead of re-rooting.
func WithStickToRoot(stick bool) Option {
	return func(e *Engine) { e.stick = stick }
}

// WithHooks sets the instrumentation hooks. The default is
// observability.Tree().
func WithHooks(h observability.TreeHooks) Option {
	return func(e *Engine) {
		if h != nil {
			e.hooks = h
		}
	}
}

// Engine owns the layout of one tree view: its root, its collapse set and
// the current [Layout]. Every structural change rebuilds the layout from
// scratch.
//
// Engine is safe for concurrent use. Gather-and-publish happens under a
// lock; listeners are notified after it is released.
type Engine struct {
	mu        sync.Mutex
	src       Source
	cfg       Config
	root      string
	collapsed *CollapseSet
	layout    *Layout
	actual    int
	stick     bool
	err       error
	logger    *log.Logger
	hooks     observability.TreeHooks

	lmu       sync.Mutex
	listeners []Listener
}

// New creates an engine over src and gathers the first layout. It fails
// only for an invalid config; gather failures are reported by [Engine.Err]
// and leave the layout empty.
func New(src Source, cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		src:       src,
		cfg:       cfg,
		collapsed: NewCollapseSet(),
		actual:    -1,
		logger:    log.Default(),
		hooks:     observability.Tree(),
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, id := range e.collapsed.IDs() {
		if _, err := src.Entity(id); err != nil {
			e.logger.Debug("dropping collapsed entity", "id", id, "err", err)
			e.collapsed.Remove(id)
		} else if !Collapsible(src, id) {
			e.logger.Debug("dropping collapsed entity", "id", id, "err", ErrNotCollapsible)
			e.collapsed.Remove(id)
		}
	}
	if e.root != "" {
		if _, err := src.Entity(e.root); err != nil {
			e.logger.Warn("root not found, falling back", "root", e.root, "err", err)
			e.root = ""
		}
	}
	if e.root == "" {
		e.root = e.fallbackRoot()
	}
	_ = e.gather()
	return e, nil
}

// fallbackRoot returns the first person, else the first family, else "".
func (e *Engine) fallbackRoot() string {
	if p, ok := e.src.FirstPerson(); ok {
		return p.ID
	}
	if f, ok := e.src.FirstFamily(); ok {
		return f.ID
	}
	return ""
}

// gather rebuilds the layout. Callers hold e.mu.
func (e *Engine) gather() error {
	start := time.Now()
	e.hooks.OnGatherStart(e.root)

	layout, err := Gather(e.src, e.root, e.cfg, e.collapsed.Contains)
	if err != nil {
		e.logger.Error("gather failed", "root", e.root, "err", err)
		layout = emptyLayout(e.cfg)
	}
	e.layout = layout
	e.actual = layout.Root
	e.err = err

	e.hooks.OnGatherComplete(e.root, layout.Len(), time.Since(start), err)
	e.logger.Debug("gathered tree", "root", e.root, "links", layout.Len(), "duration", time.Since(start))
	return err
}

// =============================================================================
// Accessors
// =============================================================================

// Layout returns the current layout. It is never modified afterwards.
func (e *Engine) Layout() *Layout {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.layout
}

// Root returns the root entity id, or "" when there is none.
func (e *Engine) Root() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.root
}

// Config returns the layout config.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Err returns the error of the last gather, if any.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Actual returns the index of the selected link, or -1.
func (e *Engine) Actual() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.actual
}

// Snapshot is the published layout with its selection and gather error,
// read together.
type Snapshot struct {
	Layout *Layout
	Actual int
	Err    error
}

// Snapshot returns the layout, actual link and gather error under one lock,
// so the three always belong to the same gather.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{Layout: e.layout, Actual: e.actual, Err: e.err}
}

// IsCollapsed reports whether the entity's subtree is hidden.
func (e *Engine) IsCollapsed(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.collapsed.Contains(id)
}

// Collapsed returns the collapsed entity ids.
func (e *Engine) Collapsed() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.collapsed.IDs()
}

// StickToRoot reports whether double-clicks keep the root.
func (e *Engine) StickToRoot() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stick
}

// SetStickToRoot changes how double-clicks behave.
func (e *Engine) SetStickToRoot(stick bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stick = stick
}

// State returns the persistable state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Root:        e.root,
		Collapsed:   e.collapsed.IDs(),
		Config:      e.cfg,
		StickToRoot: e.stick,
	}
}

// =============================================================================
// Structural operations
// =============================================================================

// SetRoot makes id the root and re-gathers. The id must resolve to exactly
// one person or family.
func (e *Engine) SetRoot(id string) error {
	if _, err := e.src.Entity(id); err != nil {
		return err
	}
	e.mu.Lock()
	e.root = id
	err := e.gather()
	e.mu.Unlock()
	e.notify(structureChanged)
	return err
}

// Relayout re-gathers around the current root.
func (e *Engine) Relayout() error {
	e.mu.Lock()
	err := e.gather()
	e.mu.Unlock()
	e.notify(structureChanged)
	return err
}

// ToggleCollapse flips the stopper of id, re-gathers, and reports whether
// the entity is now collapsed. Expanding always succeeds. Collapsing an
// entity that is not [Collapsible] fails with [ErrNotCollapsible] and
// changes nothing.
func (e *Engine) ToggleCollapse(id string) (bool, error) {
	e.mu.Lock()
	if !e.collapsed.Contains(id) && !Collapsible(e.src, id) {
		e.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrNotCollapsible, id)
	}
	collapsed := e.collapsed.Toggle(id)
	e.hooks.OnCollapseToggled(id, collapsed)
	_ = e.gather()
	e.mu.Unlock()
	e.notify(structureChanged)
	return collapsed, nil
}

// SetVertical switches orientation.
func (e *Engine) SetVertical(vertical bool) error {
	return e.update(func(c *Config) { c.Vertical = vertical })
}

// SetBoxSize changes the box size for persons or families.
func (e *Engine) SetBoxSize(kind gedcom.Kind, size Size) error {
	return e.update(func(c *Config) {
		switch kind {
		case gedcom.KindPerson:
			c.PersonSize = size
		case gedcom.KindFamily:
			c.FamilySize = size
		}
	})
}

// SetConfig replaces the whole config.
func (e *Engine) SetConfig(cfg Config) error {
	return e.update(func(c *Config) { *c = cfg })
}

// update applies fn to a copy of the config and re-gathers if it changed.
func (e *Engine) update(fn func(*Config)) error {
	e.mu.Lock()
	cfg := e.cfg
	fn(&cfg)
	if cfg == e.cfg {
		e.mu.Unlock()
		return nil
	}
	if err := cfg.Validate(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.cfg = cfg
	err := e.gather()
	e.mu.Unlock()
	e.notify(structureChanged)
	return err
}

// =============================================================================
// Interaction
// =============================================================================

// Click activates link i. Person and family boxes become the actual link,
// markers toggle their entity, and a spouse hint marker re-roots to the
// spouse.
func (e *Engine) Click(i int) error {
	return e.activate(i, false)
}

// DoubleClick makes the entity of link i the root, unless the engine sticks
// to its root, in which case the link is selected. Markers behave as for
// [Engine.Click].
func (e *Engine) DoubleClick(i int) error {
	return e.activate(i, true)
}

func (e *Engine) activate(i int, double bool) error {
	e.mu.Lock()
	if i < 0 || i >= e.layout.Len() {
		e.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownLink, i)
	}
	l := e.layout.Links[i]
	stick := e.stick
	// The spouse hint's anchor indexes this layout, not whichever one is
	// current after the lock is released.
	var anchor string
	if l.Kind == KindMarker && l.Anchor >= 0 && l.Anchor < e.layout.Len() {
		anchor = e.layout.Links[l.Anchor].Entity
	}
	e.mu.Unlock()

	switch l.Kind {
	case KindMarker:
		if l.HasEntity() {
			_, err := e.ToggleCollapse(l.Entity)
			return err
		}
		if anchor != "" && !stick {
			return e.SetRoot(anchor)
		}
		return nil
	case KindPerson, KindFamily:
		if !l.HasEntity() {
			return nil
		}
		if double && !stick {
			return e.SetRoot(l.Entity)
		}
		e.setActual(i)
	}
	return nil
}

// Select makes the first box showing entity id the actual link. It reports
// whether the entity is in the layout.
func (e *Engine) Select(id string) bool {
	i, ok := e.Layout().LinkFor(id)
	if ok {
		e.setActual(i)
	}
	return ok
}

func (e *Engine) setActual(i int) {
	e.mu.Lock()
	old := e.actual
	e.actual = i
	e.mu.Unlock()
	if old != i {
		e.notify(func(l Listener) { l.SelectionChanged(old, i) })
	}
}

// =============================================================================
// Change handling
// =============================================================================

// HandleChange reacts to a committed transaction of the data store. Added
// or deleted entities and relationship edits re-gather; other property
// edits on entities in the layout only notify listeners.
func (e *Engine) HandleChange(c gedcom.Change) {
	if c.IsEmpty() {
		return
	}
	e.mu.Lock()
	if len(c.Added) > 0 || len(c.Deleted) > 0 {
		if e.root != "" && c.WasDeleted(e.root) {
			e.logger.Info("root deleted", "root", e.root)
			e.root = ""
		}
		if e.root == "" {
			e.root = e.fallbackRoot()
		}
	}
	if c.IsStructural() {
		_ = e.gather()
		e.mu.Unlock()
		e.notify(structureChanged)
		return
	}

	var ids []string
	for _, id := range c.Modified() {
		if e.layout.Contains(id) {
			ids = append(ids, id)
		}
	}
	e.mu.Unlock()
	if len(ids) == 0 {
		return
	}
	e.notify(func(l Listener) {
		l.EntitiesChanged(ids)
		l.DataChanged()
	})
}

// =============================================================================
// Listeners
// =============================================================================

// AddListener registers l.
func (e *Engine) AddListener(l Listener) {
	e.lmu.Lock()
	defer e.lmu.Unlock()
	e.listeners = append(e.listeners, l)
}

// RemoveListener unregisters l.
func (e *Engine) RemoveListener(l Listener) {
	e.lmu.Lock()
	defer e.lmu.Unlock()
	e.listeners = slices.DeleteFunc(e.listeners, func(x Listener) bool { return x == l })
}

func structureChanged(l Listener) { l.StructureChanged() }

func (e *Engine) notify(fn func(Listener)) {
	e.lmu.Lock()
	ls := slices.Clone(e.listeners)
	e.lmu.Unlock()
	for _, l := range ls {
		fn(l)
	}
}

var _ gedcom.Listener = (*Engine)(nil)

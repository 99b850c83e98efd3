// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package fileset

import (
	"errors"
	"fmt"
	"sync"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/config"
)

// Manager owns the file sets built over one base directory and keeps their
// documents in the metadata directory in sync.
type Manager struct {
	mu      sync.Mutex
	store   *Store
	baseDir string
	tree    []*FileItem
	sets    []*FileSet
	nextID  int
}

func NewManager(cfg config.StagingConfig) (*Manager, error) {
	cfg = cfg.WithDefaults()
	store, err := NewStore(cfg.MetadataDir)
	if err != nil {
		return nil, err
	}
	return &Manager{store: store, nextID: 1}, nil
}

// BuildTree walks baseDir and keeps the result as the current tree.
func (m *Manager) BuildTree(baseDir string) ([]*FileItem, error) {
	tree, err := BuildTree(baseDir)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseDir = baseDir
	m.tree = tree
	return tree, nil
}

func (m *Manager) Tree() []*FileItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tree
}

func (m *Manager) BaseDirectory() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseDir
}

func (m *Manager) AutoAssignAllAsOne() ([]*FileSet, error) {
	return m.reassign(AssignAllAsOne)
}

func (m *Manager) AutoAssignByTopLevelDirs() ([]*FileSet, error) {
	return m.reassign(AssignByTopLevelDirs)
}

func (m *Manager) AutoAssignAllDirectories() ([]*FileSet, error) {
	return m.reassign(AssignAllDirectories)
}

// reassign replaces every current set with the output of strategy.
func (m *Manager) reassign(strategy func(string, []*FileItem) []*FileSet) ([]*FileSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.clearLocked(); err != nil {
		return nil, err
	}
	sets := strategy(m.baseDir, m.tree)
	for _, fs := range sets {
		fs.Organize = OrganizeFlatten
		if err := m.addLocked(fs); err != nil {
			return nil, err
		}
	}
	return append([]*FileSet(nil), m.sets...), nil
}

// CreateManualFileSet normalizes the selection and appends a new set.
// An empty selection still yields a set; ValidateFileSets reports it.
func (m *Manager) CreateManualFileSet(name string, selected []*FileItem) (*FileSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fs := newFileSet(name, m.baseDir, NormalizeSelection(m.tree, selected))
	if err := m.addLocked(fs); err != nil {
		return nil, err
	}
	return fs, nil
}

func (m *Manager) addLocked(fs *FileSet) error {
	fs.ID = m.nextID
	m.nextID++
	m.sets = append(m.sets, fs)
	return m.store.Save(fs)
}

func (m *Manager) FileSets() []*FileSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*FileSet(nil), m.sets...)
}

func (m *Manager) FileSet(id int) *FileSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexLocked(id); i >= 0 {
		return m.sets[i]
	}
	return nil
}

func (m *Manager) indexLocked(id int) int {
	for i, fs := range m.sets {
		if fs.ID == id {
			return i
		}
	}
	return -1
}

// UpdateFileSet persists a set after its fields were edited.
func (m *Manager) UpdateFileSet(fs *FileSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexLocked(fs.ID) < 0 {
		return &NotFoundError{Path: fmt.Sprintf("file set %d", fs.ID)}
	}
	return m.store.Save(fs)
}

func (m *Manager) RemoveFileSet(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(id)
	if i < 0 {
		return &NotFoundError{Path: fmt.Sprintf("file set %d", id)}
	}
	fs := m.sets[i]
	m.sets = append(m.sets[:i], m.sets[i+1:]...)
	return m.store.Delete(fs.UUID)
}

func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clearLocked()
}

func (m *Manager) clearLocked() error {
	var errs []error
	for _, fs := range m.sets {
		errs = append(errs, m.store.Delete(fs.UUID))
	}
	m.sets = nil
	return errors.Join(errs...)
}

// ValidateFileSets returns ok=false and the problems found across the current sets.
func (m *Manager) ValidateFileSets() (bool, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := ValidateFileSets(m.sets)
	return len(msgs) == 0, msgs
}

// Validate is ValidateFileSets as an error.
func (m *Manager) Validate() error {
	if ok, msgs := m.ValidateFileSets(); !ok {
		return &ValidationError{Messages: msgs}
	}
	return nil
}

// SplitFileSet replaces set id by its capacity split, in place.
func (m *Manager) SplitFileSet(id int, capacity int64) ([]*FileSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexLocked(id)
	if i < 0 {
		return nil, &NotFoundError{Path: fmt.Sprintf("file set %d", id)}
	}
	parent := m.sets[i]
	children := Split(parent, capacity)
	if len(children) == 1 && children[0] == parent {
		return children, nil
	}

	for _, c := range children {
		c.ID = m.nextID
		m.nextID++
		if err := m.store.Save(c); err != nil {
			return nil, err
		}
	}
	rest := append([]*FileSet(nil), m.sets[i+1:]...)
	m.sets = append(append(m.sets[:i], children...), rest...)
	if err := m.store.Delete(parent.UUID); err != nil {
		return nil, err
	}
	return children, nil
}

// ResolveArchiveConflicts runs Resolve over the current sets and persists the outcome.
func (m *Manager) ResolveArchiveConflicts() ([]*FileSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := m.sets
	m.sets = Resolve(m.sets)

	alive := make(map[*FileSet]bool, len(m.sets))
	var errs []error
	for _, fs := range m.sets {
		alive[fs] = true
		errs = append(errs, m.store.Save(fs))
	}
	for _, fs := range before {
		if !alive[fs] {
			errs = append(errs, m.store.Delete(fs.UUID))
		}
	}
	return append([]*FileSet(nil), m.sets...), errors.Join(errs...)
}

// ApplySameAsPrevious copies the sample fields of the set preceding id into it.
func (m *Manager) ApplySameAsPrevious(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexLocked(id)
	if i < 0 {
		return &NotFoundError{Path: fmt.Sprintf("file set %d", id)}
	}
	if i == 0 {
		return errors.New("first file set has no previous set")
	}
	prev, fs := m.sets[i-1], m.sets[i]
	if prev.SampleMode == SampleSameAsPrevious {
		return fmt.Errorf("previous file set %q has no resolved sample", prev.Name)
	}
	fs.SampleMode = prev.SampleMode
	fs.SampleID = prev.SampleID
	fs.SampleName = prev.SampleName
	fs.SampleDescription = prev.SampleDescription
	fs.SampleComposition = prev.SampleComposition
	return m.store.Save(fs)
}

// ApplyPlan sets registration fields from plan defaults and per-set overrides.
func (m *Manager) ApplyPlan(plan *Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, fs := range m.sets {
		if err := plan.Defaults.apply(fs, m.tree); err != nil {
			return fmt.Errorf("plan defaults for %q: %w", fs.Name, err)
		}
		if e, ok := plan.entryFor(fs.Name); ok {
			if err := e.apply(fs, m.tree); err != nil {
				return fmt.Errorf("plan entry for %q: %w", fs.Name, err)
			}
		}
		if err := m.store.Save(fs); err != nil {
			return err
		}
	}
	return nil
}

// LoadAll replaces the in-memory sets with the persisted ones, newest first.
func (m *Manager) LoadAll() ([]*FileSet, error) {
	sets, err := m.store.LoadAll()
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets = sets
	m.nextID = 1
	for _, fs := range sets {
		if fs.ID >= m.nextID {
			m.nextID = fs.ID + 1
		}
	}
	return append([]*FileSet(nil), sets...), nil
}

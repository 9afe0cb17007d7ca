// Package host keeps the inventory of widget surfaces placed by the widget host.
//
// The widget host owns the inventory file; widgetsync only reads it when
// deciding whether a refresh is worth broadcasting. The mutating methods exist
// for development hosts and the `widgetsync host` command.
package host

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/jmylchreest/widgetsync/internal/model"
)

// InventoryFile is the file name of the surface inventory inside the data directory.
const InventoryFile = "surfaces.json"

// CurrentSchemaVersion is the current version of the inventory file schema.
const CurrentSchemaVersion = 1

// ErrUnknownSurface is returned when removing a surface that is not placed.
var ErrUnknownSurface = errors.New("unknown surface")

// inventoryFile is the on-disk layout of the inventory.
type inventoryFile struct {
	SchemaVersion int                                  `json:"schema_version"`
	NextID        model.SurfaceID                      `json:"next_id"`
	Surfaces      map[model.Provider][]model.SurfaceID `json:"surfaces"`
}

// FileInventory reads and writes the surface inventory file.
// Every query reads the file fresh; nothing is cached.
type FileInventory struct {
	path string
	mu   sync.Mutex
}

// NewFileInventory returns an inventory backed by the given file path.
func NewFileInventory(path string) *FileInventory {
	return &FileInventory{path: path}
}

// InventoryPath returns the inventory file path inside dataDir.
func InventoryPath(dataDir string) string {
	return filepath.Join(dataDir, InventoryFile)
}

// Path returns the inventory file path.
func (i *FileInventory) Path() string {
	return i.path
}

// ActiveSurfaces returns the surfaces currently placed for provider p.
// A missing inventory file means no widgets are placed.
func (i *FileInventory) ActiveSurfaces(p model.Provider) ([]model.SurfaceID, error) {
	inv, err := i.load()
	if err != nil {
		return nil, err
	}
	return slices.Clone(inv.Surfaces[p]), nil
}

// All returns every placed surface grouped by provider.
func (i *FileInventory) All() (map[model.Provider][]model.SurfaceID, error) {
	inv, err := i.load()
	if err != nil {
		return nil, err
	}
	out := make(map[model.Provider][]model.SurfaceID, len(inv.Surfaces))
	for p, ids := range inv.Surfaces {
		if len(ids) > 0 {
			out[p] = slices.Clone(ids)
		}
	}
	return out, nil
}

// Place registers a new surface for provider p and returns its ID.
func (i *FileInventory) Place(p model.Provider) (model.SurfaceID, error) {
	if !p.Valid() {
		return 0, fmt.Errorf("%w: %q", model.ErrUnknownProvider, p)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	inv, err := i.load()
	if err != nil {
		return 0, err
	}

	inv.NextID++
	id := inv.NextID
	inv.Surfaces[p] = append(inv.Surfaces[p], id)

	if err := i.save(inv); err != nil {
		return 0, err
	}
	return id, nil
}

// Remove deletes a placed surface.
func (i *FileInventory) Remove(id model.SurfaceID) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	inv, err := i.load()
	if err != nil {
		return err
	}

	for p, ids := range inv.Surfaces {
		idx := slices.Index(ids, id)
		if idx < 0 {
			continue
		}
		inv.Surfaces[p] = slices.Delete(ids, idx, idx+1)
		if len(inv.Surfaces[p]) == 0 {
			delete(inv.Surfaces, p)
		}
		return i.save(inv)
	}
	return fmt.Errorf("%w: %d", ErrUnknownSurface, id)
}

func (i *FileInventory) load() (*inventoryFile, error) {
	inv := &inventoryFile{
		SchemaVersion: CurrentSchemaVersion,
		Surfaces:      make(map[model.Provider][]model.SurfaceID),
	}

	data, err := os.ReadFile(i.path)
	if err != nil {
		if os.IsNotExist(err) {
			return inv, nil
		}
		return nil, fmt.Errorf("failed to read surface inventory: %w", err)
	}
	if len(data) == 0 {
		return inv, nil
	}

	if err := json.Unmarshal(data, inv); err != nil {
		return nil, fmt.Errorf("failed to parse surface inventory %s: %w", i.path, err)
	}
	if inv.SchemaVersion > CurrentSchemaVersion {
		return nil, fmt.Errorf("surface inventory schema version %d is newer than supported version %d",
			inv.SchemaVersion, CurrentSchemaVersion)
	}
	if inv.Surfaces == nil {
		inv.Surfaces = make(map[model.Provider][]model.SurfaceID)
	}
	return inv, nil
}

func (i *FileInventory) save(inv *inventoryFile) error {
	if err := os.MkdirAll(filepath.Dir(i.path), 0o700); err != nil {
		return err
	}
	inv.SchemaVersion = CurrentSchemaVersion

	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return err
	}

	// Write atomically via temp file
	tmpPath := i.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpPath, i.path)
}

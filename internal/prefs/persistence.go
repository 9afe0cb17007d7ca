package prefs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// FileExt is the extension of store files inside the prefs directory.
const FileExt = ".json"

// storeFile is the JSON structure of one store file.
type storeFile struct {
	SchemaVersion int              `json:"schema_version"`
	Entries       map[string]Value `json:"entries"`
}

// filePersistence reads and writes a single named store file.
type filePersistence struct {
	path     string
	lockPath string
}

func newFilePersistence(dir, name string) *filePersistence {
	return &filePersistence{
		path:     filepath.Join(dir, name+FileExt),
		lockPath: filepath.Join(dir, "."+name+FileExt+".lock"),
	}
}

// exists reports whether the store file is present on disk.
func (p *filePersistence) exists() bool {
	_, err := os.Stat(p.path)
	return err == nil
}

// load reads the store file. A missing file yields an empty map and no error.
func (p *filePersistence) load() (map[string]Value, []byte, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]Value{}, nil, nil
		}
		return nil, nil, fmt.Errorf("read %s: %w", p.path, err)
	}

	entries, err := decodeStore(data)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", p.path, err)
	}
	return entries, data, nil
}

// save writes entries atomically via a temp file and rename.
// It returns the bytes written so callers can recognise their own writes.
func (p *filePersistence) save(entries map[string]Value) ([]byte, error) {
	data, err := encodeStore(entries)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p.path), "."+filepath.Base(p.path)+".tmp*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("sync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, err
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		os.Remove(tmpPath)
		return nil, err
	}

	if err := os.Rename(tmpPath, p.path); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("replace %s: %w", p.path, err)
	}
	return data, nil
}

// update runs a read-modify-write of the store file while holding an
// exclusive advisory lock shared by every process using the directory.
// apply receives the entries currently on disk and returns the entries to write.
func (p *filePersistence) update(apply func(map[string]Value) map[string]Value) (map[string]Value, []byte, error) {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("create directory: %w", err)
	}

	lock := flock.New(p.lockPath)
	if err := lock.Lock(); err != nil {
		return nil, nil, fmt.Errorf("lock %s: %w", p.lockPath, err)
	}
	defer lock.Unlock()

	current, _, err := p.load()
	if err != nil {
		return nil, nil, err
	}

	next := apply(current)
	data, err := p.save(next)
	if err != nil {
		return nil, nil, err
	}
	return next, data, nil
}

// encodeStore renders entries in the canonical on-disk form.
func encodeStore(entries map[string]Value) ([]byte, error) {
	if entries == nil {
		entries = map[string]Value{}
	}
	data, err := json.MarshalIndent(storeFile{
		SchemaVersion: SchemaVersion,
		Entries:       entries,
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// decodeStore parses a store file.
func decodeStore(data []byte) (map[string]Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]Value{}, nil
	}

	var f storeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("unsupported schema version %d (max: %d)", f.SchemaVersion, SchemaVersion)
	}
	if f.Entries == nil {
		f.Entries = map[string]Value{}
	}
	return f.Entries, nil
}

// storeNameFromPath returns the store name for a path inside the prefs
// directory, or "" if the file is not a store file.
func storeNameFromPath(path string) string {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, FileExt) {
		return ""
	}
	name := strings.TrimSuffix(base, FileExt)
	if ValidName(name) != nil {
		return ""
	}
	return name
}

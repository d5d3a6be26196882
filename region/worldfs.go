package region

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ridgeline-games/voxelstream/voxel"
)

// WorldInfoFile is the name of the small sidecar file recording a world's
// size in chunks.
const WorldInfoFile = "WorldInfo.vgw"

// tempWorldDir is the staging directory name used while a world is loaded,
// per spec.md §4.3 and §9's directory layout.
const tempWorldDir = "Temp_World"

// regionFileName returns the on-disk name for the region containing rx,
// ry, rz in region coordinates.
func regionFileName(rx, ry, rz int32) string {
	return fmt.Sprintf("x%dy%dz%d.vgr", rx, ry, rz)
}

func regionCoord(chunkPos voxel.Pos) voxel.Pos {
	return voxel.Pos{
		X: floorDiv(chunkPos.X, RegionSize),
		Y: floorDiv(chunkPos.Y, RegionSize),
		Z: floorDiv(chunkPos.Z, RegionSize),
	}
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func regionLocalCoord(chunkPos voxel.Pos, rc voxel.Pos) voxel.Pos {
	return voxel.Pos{
		X: chunkPos.X - rc.X*RegionSize,
		Y: chunkPos.Y - rc.Y*RegionSize,
		Z: chunkPos.Z - rc.Z*RegionSize,
	}
}

type residentRegion struct {
	file *RegionFile
	refs int
}

// WorldFileSystem owns the reference-counted set of region files open for
// the currently loaded world, plus the temp-directory staging that keeps
// in-flight edits isolated from the saved world until SaveWorld runs
// (spec.md §4.3).
type WorldFileSystem struct {
	worldsRoot string

	mu       sync.Mutex
	worldDir string // tempWorldDir path for the currently loaded world
	name     string
	sizeInChunks uint32
	regions  map[voxel.Pos]*residentRegion
}

// NewWorldFileSystem builds a file system rooted at worldsRoot, the
// directory containing one subdirectory per named world (spec.md §9:
// Worlds/<WorldName>/...).
func NewWorldFileSystem(worldsRoot string) *WorldFileSystem {
	return &WorldFileSystem{
		worldsRoot: worldsRoot,
		regions:    make(map[voxel.Pos]*residentRegion),
	}
}

// SetWorld stages name's on-disk tree into a temp directory and reads its
// WorldInfo size. It returns an error if a world is already staged; that
// world must be saved (SaveWorld) or discarded (Discard) first.
func (w *WorldFileSystem) SetWorld(name string) (sizeInChunks uint32, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.worldDir != "" {
		return 0, fmt.Errorf("region: world %q already loaded, save or discard it first", w.name)
	}

	src := filepath.Join(w.worldsRoot, name)
	dst := filepath.Join(w.worldsRoot, tempWorldDir)

	if err := os.RemoveAll(dst); err != nil {
		return 0, fmt.Errorf("region: clear stale staging directory: %w", err)
	}
	if err := copyTree(src, dst); err != nil {
		return 0, fmt.Errorf("region: stage world %q: %w", name, err)
	}

	size, err := readWorldInfo(filepath.Join(dst, WorldInfoFile))
	if err != nil {
		os.RemoveAll(dst)
		return 0, err
	}

	w.worldDir = dst
	w.name = name
	w.sizeInChunks = size
	return size, nil
}

// SaveWorld closes every resident region file, replaces the original
// world tree with the staged tree, and clears the staging directory.
func (w *WorldFileSystem) SaveWorld() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.worldDir == "" {
		return fmt.Errorf("region: no world is currently loaded")
	}

	for pos, rr := range w.regions {
		if err := rr.file.Close(); err != nil {
			return fmt.Errorf("region: close region during save: %w", err)
		}
		delete(w.regions, pos)
	}

	dst := filepath.Join(w.worldsRoot, w.name)
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("region: remove saved world tree: %w", err)
	}
	if err := copyTree(w.worldDir, dst); err != nil {
		return fmt.Errorf("region: commit staged world: %w", err)
	}
	if err := os.RemoveAll(w.worldDir); err != nil {
		return fmt.Errorf("region: clear staging directory: %w", err)
	}

	w.worldDir = ""
	w.name = ""
	return nil
}

// Discard drops the staging directory without writing it back, leaving
// the saved world untouched. Closes every resident region file first.
func (w *WorldFileSystem) Discard() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.worldDir == "" {
		return nil
	}
	for pos, rr := range w.regions {
		rr.file.Close()
		delete(w.regions, pos)
	}
	err := os.RemoveAll(w.worldDir)
	w.worldDir = ""
	w.name = ""
	return err
}

// SizeInChunks returns the currently loaded world's size, as read from
// WorldInfo.
func (w *WorldFileSystem) SizeInChunks() uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sizeInChunks
}

// AddRegionFileReference opens (if not already resident) the region file
// covering chunkPos and increments its reference count. Callers must
// bracket every chunk load with a matching RemoveRegionFileReference.
func (w *WorldFileSystem) AddRegionFileReference(chunkPos voxel.Pos) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rc := regionCoord(chunkPos)
	if rr, ok := w.regions[rc]; ok {
		rr.refs++
		return nil
	}

	path := filepath.Join(w.worldDir, regionFileName(rc.X, rc.Y, rc.Z))
	rf, err := Open(path)
	if err != nil {
		return fmt.Errorf("region: open region for chunk %+v: %w", chunkPos, err)
	}
	w.regions[rc] = &residentRegion{file: rf, refs: 1}
	return nil
}

// RemoveRegionFileReference decrements the reference count for the
// region covering chunkPos, closing (and thereby flushing) the file when
// the count reaches zero.
func (w *WorldFileSystem) RemoveRegionFileReference(chunkPos voxel.Pos) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rc := regionCoord(chunkPos)
	rr, ok := w.regions[rc]
	if !ok {
		panic(fmt.Sprintf("region: RemoveRegionFileReference on non-resident region %+v", rc))
	}

	rr.refs--
	if rr.refs > 0 {
		return nil
	}

	delete(w.regions, rc)
	if err := rr.file.Close(); err != nil {
		return fmt.Errorf("region: close region %+v: %w", rc, err)
	}
	return nil
}

// GetChunkData reads the RLE stream for chunkPos, returning false if the
// chunk is absent from its region file (a short read or a fresh region
// both surface as "no data," per spec.md §7 — the caller treats that the
// same as a freshly generated, all-air chunk). The caller must already
// hold a reference via AddRegionFileReference.
func (w *WorldFileSystem) GetChunkData(chunkPos voxel.Pos) ([]byte, bool) {
	w.mu.Lock()
	rc := regionCoord(chunkPos)
	rr, ok := w.regions[rc]
	w.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("region: GetChunkData on non-resident region %+v", rc))
	}

	local := regionLocalCoord(chunkPos, rc)
	length, offset := rr.file.Locate(local)
	if length == 0 {
		return nil, false
	}
	out := make([]byte, length)
	if !rr.file.ReadStream(offset, out) {
		return nil, false
	}
	return out, true
}

// WriteChunkData persists data as the RLE stream for chunkPos. The
// caller must already hold a reference via AddRegionFileReference.
func (w *WorldFileSystem) WriteChunkData(chunkPos voxel.Pos, data []byte) {
	w.mu.Lock()
	rc := regionCoord(chunkPos)
	rr, ok := w.regions[rc]
	w.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("region: WriteChunkData on non-resident region %+v", rc))
	}

	local := regionLocalCoord(chunkPos, rc)
	rr.file.WriteStream(local, data)
}

func readWorldInfo(path string) (uint32, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("region: read %s: %w", WorldInfoFile, err)
	}
	if len(buf) < 4 {
		return 0, fmt.Errorf("region: %s is truncated", WorldInfoFile)
	}
	return binary.LittleEndian.Uint32(buf[:4]), nil
}

// WriteWorldInfo writes a world's size sidecar file. Used by the world
// generator when seeding a new world directory (spec.md §6).
func WriteWorldInfo(dir string, sizeInChunks uint32) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, sizeInChunks)
	return os.WriteFile(filepath.Join(dir, WorldInfoFile), buf, 0o644)
}

// copyTree recursively copies src to dst, creating dst and any
// intermediate directories. Used both to stage a world into Temp_World
// and to commit the staged tree back on save.
func copyTree(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := copyTree(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

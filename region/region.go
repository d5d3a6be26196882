// Package region implements the sectored on-disk region file format and
// the world file system that pools open region files for the currently
// loaded world, per spec.md §4.2–§4.3 and §6.
package region

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/ridgeline-games/voxelstream/voxel"
)

// RegionSize is the number of chunks along each edge of a region (R in
// spec.md): a region file covers RegionSize³ chunks.
const RegionSize = 16

// SectorSize is the fixed allocation granularity within a region file,
// in bytes.
const SectorSize = 4096

const tableEntryCount = RegionSize * RegionSize * RegionSize
const tableBytes = tableEntryCount * 4

// lookupEntry packs {sector_offset:24, sector_count:8} into a uint32,
// bit-exact with spec.md §6.
type lookupEntry uint32

func newLookupEntry(offset uint32, count uint8) lookupEntry {
	return lookupEntry((offset & 0xFFFFFF) | uint32(count)<<24)
}

func (e lookupEntry) offset() uint32 { return uint32(e) & 0xFFFFFF }
func (e lookupEntry) count() uint8   { return uint8(uint32(e) >> 24) }

func tableIndex(local voxel.Pos) int {
	return int(local.Y*RegionSize*RegionSize + local.X*RegionSize + local.Z)
}

// RegionFile is one sectored file covering RegionSize³ chunks. It keeps
// its lookup table resident in memory between Open and Close.
type RegionFile struct {
	file  *os.File
	table [tableEntryCount]lookupEntry
}

// Open opens or creates the region file at path. On first open the
// lookup table is zero-initialized and no sectors follow; on subsequent
// opens the table is read into memory and kept resident (spec.md §4.2's
// open contract).
func Open(path string) (*RegionFile, error) {
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("region: open %s: %w", path, err)
	}

	rf := &RegionFile{file: f}

	if fresh {
		if _, err := f.Write(make([]byte, tableBytes)); err != nil {
			f.Close()
			return nil, fmt.Errorf("region: init table for %s: %w", path, err)
		}
		return rf, nil
	}

	if err := rf.readTable(); err != nil {
		f.Close()
		return nil, err
	}
	return rf, nil
}

func (r *RegionFile) readTable() error {
	buf := make([]byte, tableBytes)
	if _, err := r.file.ReadAt(buf, 0); err != nil && err != io.EOF {
		return fmt.Errorf("region: read table: %w", err)
	}
	for i := 0; i < tableEntryCount; i++ {
		r.table[i] = lookupEntry(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return nil
}

// Close rewrites the in-memory table to the start of the file and closes
// it. Sectors are not touched on close — their state is already on disk
// from prior writes (spec.md §4.2's close contract).
func (r *RegionFile) Close() error {
	buf := make([]byte, tableBytes)
	for i, e := range r.table {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(e))
	}
	if _, err := r.file.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("region: write table: %w", err)
	}
	return r.file.Close()
}

// Locate returns the RLE stream length and sector offset for the chunk
// at local (a position within [0, RegionSize) on each axis). A length of
// 0 means the chunk is not present in the file yet; callers treat that
// as a freshly generated, empty chunk (spec.md §7: ShortRead/absence is
// not an error).
func (r *RegionFile) Locate(local voxel.Pos) (length uint32, sectorOffset uint32) {
	entry := r.table[tableIndex(local)]
	if entry.count() == 0 {
		return 0, 0
	}

	sectorOffset = entry.offset()
	lenBuf := make([]byte, 4)
	if _, err := r.file.ReadAt(lenBuf, int64(tableBytes)+int64(sectorOffset)*SectorSize); err != nil {
		return 0, 0
	}
	return binary.LittleEndian.Uint32(lenBuf), sectorOffset
}

// ReadStream reads len(out) bytes of RLE data for the chunk whose sector
// starts at sectorOffset into out. Any I/O error is reported by
// returning false; callers treat that the same as "chunk absent."
func (r *RegionFile) ReadStream(sectorOffset uint32, out []byte) bool {
	if len(out) == 0 {
		return true
	}
	start := int64(tableBytes) + int64(sectorOffset)*SectorSize + 4
	n, err := r.file.ReadAt(out, start)
	return err == nil && n == len(out)
}

// WriteStream persists data as the RLE stream for the chunk at local,
// allocating, overwriting in place, or relocating sectors as needed
// (spec.md §4.2's three write cases). A write failure is fatal — the
// core has no safe recovery (spec.md §7).
func (r *RegionFile) WriteStream(local voxel.Pos, data []byte) {
	idx := tableIndex(local)
	entry := r.table[idx]

	switch {
	case entry.count() == 0:
		r.table[idx] = r.addNewChunk(data)
	case uint32(entry.count())*SectorSize >= uint32(len(data)+4):
		r.writeInPlace(entry, data)
	default:
		r.table[idx] = r.relocateAndWrite(entry, data)
	}
}

func (r *RegionFile) currentSectorCount() uint32 {
	info, err := r.file.Stat()
	if err != nil {
		panic(fmt.Sprintf("region: stat failed: %v", err))
	}
	size := info.Size()
	if size < tableBytes {
		return 0
	}
	return uint32((size - tableBytes) / SectorSize)
}

func (r *RegionFile) addNewChunk(data []byte) lookupEntry {
	sectorCount := r.currentSectorCount()
	numSectors := 1 + uint8((uint32(len(data))+4)/SectorSize)

	if err := r.writeSectorPayload(uint32(sectorCount), data, numSectors); err != nil {
		panic(fmt.Sprintf("region: write new chunk: %v", err))
	}

	return newLookupEntry(sectorCount, numSectors)
}

func (r *RegionFile) writeInPlace(entry lookupEntry, data []byte) {
	if err := r.writeSectorPayload(entry.offset(), data, entry.count()); err != nil {
		panic(fmt.Sprintf("region: write in place: %v", err))
	}
}

// writeSectorPayload writes a 4-byte length, the data, and zero padding
// out to numSectors*SectorSize bytes, starting at the given sector
// offset.
func (r *RegionFile) writeSectorPayload(sectorOffset uint32, data []byte, numSectors uint8) error {
	start := int64(tableBytes) + int64(sectorOffset)*SectorSize

	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, uint32(len(data)))
	if _, err := r.file.WriteAt(lenBuf, start); err != nil {
		return err
	}
	if _, err := r.file.WriteAt(data, start+4); err != nil {
		return err
	}

	padLen := int64(numSectors)*SectorSize - int64(len(data)) - 4
	if padLen > 0 {
		if _, err := r.file.WriteAt(make([]byte, padLen), start+4+int64(len(data))); err != nil {
			return err
		}
	}
	return nil
}

// relocateAndWrite compacts the sectors after the relocated chunk's old
// range leftward over it, adjusts every other table entry whose offset
// was past the relocated range, then appends the chunk fresh at the new
// end of file (spec.md §4.2 case 3: Relocate).
func (r *RegionFile) relocateAndWrite(entry lookupEntry, data []byte) lookupEntry {
	oldOffset := entry.offset()
	oldCount := entry.count()

	tailStart := int64(tableBytes) + int64(oldOffset+uint32(oldCount))*SectorSize
	info, err := r.file.Stat()
	if err != nil {
		panic(fmt.Sprintf("region: stat failed: %v", err))
	}
	tailSize := info.Size() - tailStart

	if tailSize > 0 {
		tail := make([]byte, tailSize)
		if _, err := r.file.ReadAt(tail, tailStart); err != nil {
			panic(fmt.Sprintf("region: read relocation tail: %v", err))
		}

		newTailStart := tailStart - int64(oldCount)*SectorSize
		if _, err := r.file.WriteAt(tail, newTailStart); err != nil {
			panic(fmt.Sprintf("region: write relocation tail: %v", err))
		}
	}

	for i, e := range r.table {
		if e.count() != 0 && e.offset() > oldOffset {
			r.table[i] = newLookupEntry(e.offset()-uint32(oldCount), e.count())
		}
	}

	sectorCount := r.currentSectorCount()
	newOffset := sectorCount - uint32(oldCount)
	newNumSectors := 1 + uint8((uint32(len(data))+4)/SectorSize)

	if err := r.writeSectorPayload(newOffset, data, newNumSectors); err != nil {
		panic(fmt.Sprintf("region: write relocated chunk: %v", err))
	}

	return newLookupEntry(newOffset, newNumSectors)
}

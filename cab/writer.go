package cab

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sort"

	"github.com/klauspost/compress/flate"

	"github.com/cabinetforge/cabctl/archive"
)

const maxChunk = 0x8000

// ErrEmptyArchive is returned by BuildBytes for an archive with no
// entries: a CAB cannot have zero folders.
var ErrEmptyArchive = errors.New("cab: archive cannot be empty")

type block struct {
	encoded []byte
	plain   int
}

type folderBuild struct {
	key     int
	names   []string
	reserve []byte
	blocks  []block
}

// BuildBytes renders arc back to CAB bytes. When tmpl is non-nil its
// set id, reserved-area sizes/bytes, per-folder reserves, original
// file order and file→folder assignment are reproduced; names absent
// from tmpl are appended (sorted ascending when sort is true) and
// grouped into fresh folders numbered above any folder index tmpl
// used. When tmpl is nil, a template with no reserved areas is
// synthesized and every name lands in its own fresh folder group.
func BuildBytes(arc *archive.Archive, compress bool, tmpl *LayoutTemplate, sortNames bool) ([]byte, error) {
	if arc.Len() == 0 {
		return nil, ErrEmptyArchive
	}

	if tmpl == nil {
		tmpl = &LayoutTemplate{FileFolders: map[string]int{}}
	}

	orderedNames := orderNames(arc, tmpl, sortNames)

	useReserve := tmpl.CBCFHeader != 0 || tmpl.CBCFFolder != 0 || tmpl.CBCFData != 0 || len(tmpl.HeaderReserve) != 0
	var flags uint16
	if useReserve {
		flags = hdrReservePresent
	}

	folderBuilds := buildFolders(arc, orderedNames, tmpl, compress)
	if len(folderBuilds) == 0 {
		return nil, ErrEmptyArchive
	}

	headerSize := 36 // sizeof(cfHeader): 4+4+4+4+4+4+1+1+2+2+2+2+2 = 36
	if useReserve {
		headerSize += 4 /* CFHEADER_RESERVE */ + int(tmpl.CBCFHeader)
	}
	folderTableSize := len(folderBuilds) * (8 /* sizeof(cfFolder) */ + int(tmpl.CBCFFolder))
	coffFiles := headerSize + folderTableSize

	folderIndexByName := make(map[string]int, len(orderedNames))
	for idx, fb := range folderBuilds {
		for _, name := range fb.names {
			folderIndexByName[name] = idx
		}
	}

	offsetsByName := buildUncompressedOffsets(arc, folderBuilds)
	cffileBlob := buildCFFileBlob(arc, orderedNames, offsetsByName, folderIndexByName)

	cfdataStart := coffFiles + len(cffileBlob)
	cffolderBlob, cfdataBlob := buildFolderAndDataBlobs(folderBuilds, cfdataStart, int(tmpl.CBCFFolder), int(tmpl.CBCFData), compress)

	cabinetSize := headerSize + len(cffolderBlob) + len(cffileBlob) + len(cfdataBlob)

	var out bytes.Buffer
	hdr := cfHeader{
		Signature:    [4]byte{'M', 'S', 'C', 'F'},
		CBCabinet:    uint32(cabinetSize),
		COFFFiles:    uint32(coffFiles),
		VersionMinor: 3,
		VersionMajor: 1,
		CFolders:     uint16(len(folderBuilds)),
		CFiles:       uint16(len(orderedNames)),
		Flags:        flags,
		SetID:        tmpl.SetID,
	}
	binary.Write(&out, binary.LittleEndian, &hdr)

	if useReserve {
		res := cfHeaderReserve{CBCFHeader: tmpl.CBCFHeader, CBCFFolder: tmpl.CBCFFolder, CBCFData: tmpl.CBCFData}
		binary.Write(&out, binary.LittleEndian, &res)
		reserve := padTrunc(tmpl.HeaderReserve, int(tmpl.CBCFHeader))
		out.Write(reserve)
	}

	out.Write(cffolderBlob)
	out.Write(cffileBlob)
	out.Write(cfdataBlob)
	return out.Bytes(), nil
}

// orderNames starts with tmpl.FileOrder (keeping only names still
// present in arc), then appends the remaining archive names — sorted
// ascending when sortExtra is set, else in archive iteration order.
func orderNames(arc *archive.Archive, tmpl *LayoutTemplate, sortExtra bool) []string {
	remaining := make(map[string]bool)
	for _, k := range arc.Keys() {
		remaining[k] = true
	}

	ordered := make([]string, 0, arc.Len())
	for _, name := range tmpl.FileOrder {
		if remaining[name] {
			ordered = append(ordered, name)
			delete(remaining, name)
		}
	}

	var extras []string
	for _, k := range arc.Keys() {
		if remaining[k] {
			extras = append(extras, k)
		}
	}
	if sortExtra {
		sort.Strings(extras)
	}
	return append(ordered, extras...)
}

// buildFolders groups ordered names into folders per tmpl's
// file→folder assignment, assigning fresh folder keys above any
// existing key for names tmpl does not know about, then compresses
// (or stores) each folder's payload in 32768-byte chunks.
func buildFolders(arc *archive.Archive, orderedNames []string, tmpl *LayoutTemplate, compress bool) []folderBuild {
	maxExisting := -1
	for _, key := range tmpl.FileFolders {
		if key > maxExisting {
			maxExisting = key
		}
	}
	nextKey := maxExisting + 1

	keyed := make(map[int][]string)
	var keyOrder []int
	seenKey := make(map[int]bool)
	for _, name := range orderedNames {
		key, ok := tmpl.FileFolders[name]
		if !ok {
			key = nextKey
			nextKey++
		}
		keyed[key] = append(keyed[key], name)
		if !seenKey[key] {
			seenKey[key] = true
			keyOrder = append(keyOrder, key)
		}
	}

	out := make([]folderBuild, 0, len(keyOrder))
	for _, key := range keyOrder {
		names := keyed[key]
		var reserve []byte
		if key >= 0 && key < len(tmpl.FolderReserves) {
			reserve = tmpl.FolderReserves[key]
		}
		reserve = padTrunc(reserve, int(tmpl.CBCFFolder))

		var raw []byte
		for _, name := range names {
			raw = append(raw, arc.Get(name).Payload...)
		}
		chunks := chunkify(raw, maxChunk)
		if len(chunks) == 0 {
			chunks = [][]byte{{}}
		}

		blocks := make([]block, 0, len(chunks))
		for _, chunk := range chunks {
			var encoded []byte
			if compress {
				encoded = deflateMSZIP(chunk)
			} else {
				encoded = chunk
			}
			blocks = append(blocks, block{encoded: encoded, plain: len(chunk)})
		}

		out = append(out, folderBuild{key: key, names: names, reserve: reserve, blocks: blocks})
	}
	return out
}

func chunkify(data []byte, size int) [][]byte {
	if len(data) == 0 {
		return nil
	}
	var chunks [][]byte
	for off := 0; off < len(data); off += size {
		end := off + size
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[off:end])
	}
	return chunks
}

// deflateMSZIP raw-DEFLATEs plain at level 9 with no zlib wrapper and
// prepends the two-byte "CK" MS-ZIP marker.
func deflateMSZIP(plain []byte) []byte {
	var buf bytes.Buffer
	buf.Write(mszipSignature[:])
	w, _ := flate.NewWriter(&buf, flate.BestCompression)
	w.Write(plain)
	w.Close()
	return buf.Bytes()
}

func buildUncompressedOffsets(arc *archive.Archive, folders []folderBuild) map[string]int {
	offsets := make(map[string]int)
	for _, fb := range folders {
		offset := 0
		for _, name := range fb.names {
			offsets[name] = offset
			offset += len(arc.Get(name).Payload)
		}
	}
	return offsets
}

func buildCFFileBlob(arc *archive.Archive, orderedNames []string, offsets map[string]int, folderIndex map[string]int) []byte {
	var out bytes.Buffer
	for _, name := range orderedNames {
		e := arc.Get(name)
		filename := e.WinName
		if filename == "" {
			filename = name
		}
		f := cfFile{
			CBFile:          uint32(len(e.Payload)),
			UOffFolderStart: uint32(offsets[name]),
			IFolder:         uint16(folderIndex[name]),
			Date:            e.Date,
			Time:            e.Time,
			Attribs:         e.Attribs,
		}
		binary.Write(&out, binary.LittleEndian, &f)
		out.Write(encodeLatin1(filename))
		out.WriteByte(0)
	}
	return out.Bytes()
}

func buildFolderAndDataBlobs(folders []folderBuild, cfdataStart, cbCFFolder, cbCFData int, compress bool) (folderBlob, dataBlob []byte) {
	var folderBuf, dataBuf bytes.Buffer
	cursor := cfdataStart

	for _, fb := range folders {
		blockBytes := 0
		for _, b := range fb.blocks {
			csum := checksum(b.encoded, 0)
			var hdr [4]byte
			binary.LittleEndian.PutUint16(hdr[0:2], uint16(len(b.encoded)))
			binary.LittleEndian.PutUint16(hdr[2:4], uint16(b.plain))
			csum = checksum(hdr[:], csum)

			d := cfData{Checksum: csum, CBData: uint16(len(b.encoded)), CBUncomp: uint16(b.plain)}
			binary.Write(&dataBuf, binary.LittleEndian, &d)
			if cbCFData > 0 {
				dataBuf.Write(make([]byte, cbCFData))
			}
			dataBuf.Write(b.encoded)
			blockBytes += 8 /* sizeof(cfData) */ + cbCFData + len(b.encoded)
		}

		compType := uint16(compNone)
		if compress {
			compType = compMSZIP
		}
		f := cfFolder{COFFCabStart: uint32(cursor), CCFData: uint16(len(fb.blocks)), TypeCompress: compType}
		binary.Write(&folderBuf, binary.LittleEndian, &f)
		if cbCFFolder > 0 {
			folderBuf.Write(fb.reserve)
		}
		cursor += blockBytes
	}

	return folderBuf.Bytes(), dataBuf.Bytes()
}

func padTrunc(b []byte, n int) []byte {
	out := make([]byte, n)
	copy(out, b)
	return out
}

package cab

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/cabinetforge/cabctl/archive"
)

// fileRecord is an intermediate CFFILE entry, before its payload has
// been sliced out of its folder's decompressed data.
type fileRecord struct {
	cfFile
	name string
}

// Parse decodes a complete CAB byte buffer into an Archive. It also
// returns the LayoutTemplate captured from the same bytes so callers
// can later repack with CE-compatible layout; tmpl is nil when buf is
// not well-formed enough to support that (a genuine structural
// failure, as opposed to an otherwise-valid CAB).
func Parse(buf []byte) (arc *archive.Archive, tmpl *LayoutTemplate, err error) {
	r := bytes.NewReader(buf)

	var hdr cfHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, nil, structuralf("reading CFHEADER", err)
	}
	if !bytes.Equal(hdr.Signature[:], []byte("MSCF")) {
		return nil, nil, structuralf("bad signature", nil)
	}

	var cbCFHeader uint16
	var cbCFFolder, cbCFData uint8
	var headerReserve []byte
	if hdr.Flags&hdrReservePresent != 0 {
		var res cfHeaderReserve
		if err := binary.Read(r, binary.LittleEndian, &res); err != nil {
			return nil, nil, structuralf("reading CFHEADER_RESERVE", err)
		}
		cbCFHeader, cbCFFolder, cbCFData = res.CBCFHeader, res.CBCFFolder, res.CBCFData
		headerReserve = make([]byte, cbCFHeader)
		if _, err := readFull(r, headerReserve); err != nil {
			return nil, nil, structuralf("reading header reserve bytes", err)
		}
	}

	folders := make([]cfFolder, hdr.CFolders)
	folderReserves := make([][]byte, hdr.CFolders)
	for i := range folders {
		if err := binary.Read(r, binary.LittleEndian, &folders[i]); err != nil {
			return nil, nil, structuralf(fmt.Sprintf("reading CFFOLDER %d", i), err)
		}
		switch folders[i].TypeCompress & compMask {
		case compNone, compMSZIP:
		default:
			return nil, nil, structuralf(fmt.Sprintf("folder %d has unsupported compression type %d", i, folders[i].TypeCompress), nil)
		}
		reserve := make([]byte, cbCFFolder)
		if cbCFFolder > 0 {
			if _, err := readFull(r, reserve); err != nil {
				return nil, nil, structuralf("reading folder reserve bytes", err)
			}
		}
		folderReserves[i] = reserve
	}

	if _, err := r.Seek(int64(hdr.COFFFiles), 0); err != nil {
		return nil, nil, structuralf("seeking to CFFILE table", err)
	}
	files := make([]fileRecord, hdr.CFiles)
	for i := range files {
		if err := binary.Read(r, binary.LittleEndian, &files[i].cfFile); err != nil {
			return nil, nil, structuralf(fmt.Sprintf("reading CFFILE %d", i), err)
		}
		name, err := readCString(r)
		if err != nil {
			return nil, nil, structuralf(fmt.Sprintf("reading CFFILE %d name", i), err)
		}
		files[i].name = name
	}

	folderData := make([][]byte, len(folders))
	for i, fldr := range folders {
		data, err := decodeFolder(r, fldr, cbCFData)
		if err != nil {
			return nil, nil, structuralf(fmt.Sprintf("decoding folder %d", i), err)
		}
		folderData[i] = data
	}

	arc = archive.New()
	fileOrder := make([]string, 0, len(files))
	fileFolders := make(map[string]int, len(files))
	for _, f := range files {
		if int(f.IFolder) >= len(folderData) {
			return nil, nil, structuralf(fmt.Sprintf("file %q references out-of-range folder %d", f.name, f.IFolder), nil)
		}
		data := folderData[f.IFolder]
		start, end := int(f.UOffFolderStart), int(f.UOffFolderStart)+int(f.CBFile)
		if start < 0 || end > len(data) || start > end {
			return nil, nil, structuralf(fmt.Sprintf("file %q segment out of range", f.name), nil)
		}
		payload := make([]byte, end-start)
		copy(payload, data[start:end])

		arc.Set(f.name, &archive.Entry{
			Payload: payload,
			Date:    f.Date,
			Time:    f.Time,
			Attribs: f.Attribs,
			WinName: f.name,
		})
		fileOrder = append(fileOrder, f.name)
		fileFolders[f.name] = int(f.IFolder)
	}

	tmpl = &LayoutTemplate{
		SetID:          hdr.SetID,
		CBCFHeader:     cbCFHeader,
		CBCFFolder:     cbCFFolder,
		CBCFData:       cbCFData,
		HeaderReserve:  headerReserve,
		FolderReserves: folderReserves,
		FileOrder:      fileOrder,
		FileFolders:    fileFolders,
	}
	return arc, tmpl, nil
}

// decodeFolder reads and decompresses every CFDATA block of one
// folder, concatenating their uncompressed payloads. MS-ZIP blocks
// within a folder share a sliding-window history, so each block after
// the first is inflated with the previous block's plaintext as
// dictionary.
func decodeFolder(r *bytes.Reader, fldr cfFolder, cbCFData uint8) ([]byte, error) {
	if _, err := r.Seek(int64(fldr.COFFCabStart), 0); err != nil {
		return nil, fmt.Errorf("seeking to folder data: %w", err)
	}

	var out bytes.Buffer
	var history []byte
	for i := uint16(0); i < fldr.CCFData; i++ {
		var d cfData
		if err := binary.Read(r, binary.LittleEndian, &d); err != nil {
			return nil, fmt.Errorf("reading CFDATA %d: %w", i, err)
		}
		if cbCFData > 0 {
			if _, err := r.Seek(int64(cbCFData), 1); err != nil {
				return nil, fmt.Errorf("skipping data reserve: %w", err)
			}
		}
		block, err := io.ReadAll(ExactReader(r, int64(d.CBData)))
		if err != nil {
			return nil, fmt.Errorf("reading CFDATA %d payload: %w", i, err)
		}

		switch fldr.TypeCompress & compMask {
		case compNone:
			if int(d.CBData) != int(d.CBUncomp) {
				return nil, fmt.Errorf("block %d: stored size mismatch", i)
			}
			out.Write(block)
		case compMSZIP:
			if len(block) < 2 || block[0] != mszipSignature[0] || block[1] != mszipSignature[1] {
				return nil, fmt.Errorf("block %d: bad MS-ZIP signature", i)
			}
			var rc io.ReadCloser
			if len(history) == 0 {
				rc = flate.NewReader(bytes.NewReader(block[2:]))
			} else {
				rc = flate.NewReaderDict(bytes.NewReader(block[2:]), history)
			}
			plain := make([]byte, d.CBUncomp)
			_, err := io.ReadFull(rc, plain)
			rc.Close()
			if err != nil {
				return nil, fmt.Errorf("block %d: inflate: %w", i, err)
			}
			out.Write(plain)
			history = plain
		default:
			return nil, fmt.Errorf("block %d: unsupported compression", i)
		}
	}
	return out.Bytes(), nil
}

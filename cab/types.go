// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cab implements the byte-level Microsoft Cabinet (CAB)
// container format, including the reserved-area and per-folder
// layout fields that Windows CE installers rely on to agree with a
// repacked archive.
//
// Normative references are [MS-CAB] for the Cabinet file format and
// [MS-MCI] for the Microsoft ZIP Compression and Decompression Data
// Structure.
//
// [MS-CAB]: http://download.microsoft.com/download/4/d/a/4da14f27-b4ef-4170-a6e6-5b1ef85b1baa/[ms-cab].pdf
// [MS-MCI]: http://interoperability.blob.core.windows.net/files/MS-MCI/[MS-MCI].pdf
package cab

// cfHeader is the fixed CFHEADER record.
type cfHeader struct {
	Signature    [4]byte
	Reserved1    uint32
	CBCabinet    uint32 // size of this cabinet file in bytes
	Reserved2    uint32
	COFFFiles    uint32 // offset of the first CFFILE entry
	Reserved3    uint32
	VersionMinor uint8
	VersionMajor uint8
	CFolders     uint16 // number of CFFOLDER entries
	CFiles       uint16 // number of CFFILE entries
	Flags        uint16 // cabinet file option indicators
	SetID        uint16 // shared identifier across a cabinet set
	ICabinet     uint16 // index of this cabinet within its set
}

// cfHeaderReserve follows cfHeader when hdrReservePresent is set.
type cfHeaderReserve struct {
	CBCFHeader uint16 // size of the header's own app-specific reserve
	CBCFFolder uint8  // size of each folder's reserve area
	CBCFData   uint8  // size of each data block's reserve area
}

const (
	hdrPrevCabinet    uint16 = 1 << iota // cabinet continues a previous one in a set
	hdrNextCabinet                       // cabinet continues into a following one
	hdrReservePresent                    // CFHEADER_RESERVE + reserve areas follow
)

// cfFolder is the fixed CFFOLDER record.
type cfFolder struct {
	COFFCabStart uint32 // offset of the first CFDATA block
	CCFData      uint16 // number of CFDATA blocks
	TypeCompress uint16 // compression type indicator
}

const (
	compMask    uint16 = 0xf
	compNone           = 0x0
	compMSZIP          = 0x1
	compQuantum        = 0x2
	compLZX            = 0x3
)

// cfFile is the fixed CFFILE record (filename follows as a
// NUL-terminated string).
type cfFile struct {
	CBFile          uint32 // uncompressed size of this file
	UOffFolderStart uint32 // uncompressed offset within the folder
	IFolder         uint16 // index into the folder table
	Date            uint16
	Time            uint16
	Attribs         uint16
}

const (
	AttribReadOnly uint16 = 1 << iota
	AttribHidden
	AttribSystem
	_
	_
	AttribArchive
	AttribExec
	AttribNameIsUTF
)

// cfData is the fixed CFDATA record (payload bytes follow, after any
// per-block reserve bytes).
type cfData struct {
	Checksum uint32
	CBData   uint16 // compressed size
	CBUncomp uint16 // uncompressed size
}

// mszipSignature is the two-byte marker ("CK") prepended to every
// MS-ZIP-framed DEFLATE block.
var mszipSignature = [2]byte{'C', 'K'}

// ErrStructural marks failures that indicate the input is not a
// well-formed CAB — callers that only need a best-effort layout
// template treat this as "no template available" rather than fatal.
type ErrStructural struct {
	Detail string
	Err    error
}

func (e *ErrStructural) Error() string {
	if e.Err != nil {
		return "cab: structural error: " + e.Detail + ": " + e.Err.Error()
	}
	return "cab: structural error: " + e.Detail
}

func (e *ErrStructural) Unwrap() error { return e.Err }

func structuralf(detail string, err error) error {
	return &ErrStructural{Detail: detail, Err: err}
}

// Package editor orchestrates one loaded CAB archive: it keeps the
// archive, an optional `_setup.xml` manifest tree, and a derived
// display-level index in lockstep across load/add/update/remove/save.
package editor

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cabinetforge/cabctl/archive"
	"github.com/cabinetforge/cabctl/cab"
	"github.com/cabinetforge/cabctl/manifest"
	"github.com/cabinetforge/cabctl/signature"
)

// Record is a display-friendly join of one archive entry with its
// manifest mapping (if any).
type Record struct {
	DisplayName string
	SourceName  string
	Size        int
	Modified    string
	ParentType  string
}

// Editor is an in-memory editor for one loaded CAB archive. It is not
// safe for concurrent use; callers serialize access per workspace.
type Editor struct {
	Path            string
	LoadedName      string
	Archive         *archive.Archive
	ManifestRoot    *manifest.Node
	SetupEncoding   string
	Records         []Record
	Directories     []string
	SignatureBefore signature.Status
	layout          *cab.LayoutTemplate
}

const setupXMLName = "_setup.xml"

// New returns an empty, unloaded Editor.
func New() *Editor {
	return &Editor{LoadedName: "cabinetforge_output", SetupEncoding: "utf-8"}
}

// Load reads and indexes the CAB at path. displayName, if non-empty,
// overrides the loaded name derived from path's base name. On
// failure the Editor is left exactly as it was before the call.
func (e *Editor) Load(path string, rawBytes []byte, displayName string) error {
	arc, tmpl, err := cab.Parse(rawBytes)
	if err != nil {
		return newErr(StructuralDecode, "parsing cab", err)
	}

	candidate := displayName
	if candidate == "" {
		candidate = filepath.Base(path)
	}
	candidate = strings.TrimSuffix(strings.TrimSpace(candidate), filepath.Ext(candidate))
	loadedName := candidate
	if loadedName == "" {
		loadedName = "cabinetforge_output"
	}

	e.Path = path
	e.LoadedName = loadedName
	e.Archive = arc
	e.layout = tmpl
	e.loadSetupXML()
	e.rebuildIndex()
	e.SignatureBefore = signature.Probe(path)
	return nil
}

// UpdateFile replaces the payload of an existing entry and stamps the
// current time. payload must be non-empty and sourceName must already
// be a key in the archive.
func (e *Editor) UpdateFile(sourceName string, payload []byte) error {
	if err := e.requireArchive(); err != nil {
		return err
	}
	if len(payload) == 0 {
		return newErr(EmptyPayload, "uploaded file is empty", nil)
	}
	entry := e.Archive.Get(sourceName)
	if entry == nil {
		return newErr(EntryMissing, fmt.Sprintf("file %s not found in cab", sourceName), nil)
	}

	updated := &archive.Entry{Payload: payload, Attribs: entry.Attribs, WinName: entry.WinName}
	updated.SetModTime(time.Now())
	e.Archive.Set(sourceName, updated)
	e.rebuildIndex()
	return nil
}

// RemoveFile removes sourceName from the archive and, if a manifest is
// loaded, its corresponding file mapping. With a manifest loaded, a
// source name that has no mapping reports ManifestMismatch and nothing
// is removed. See SPEC_FULL.md §9 for the resolved
// no-manifest-missing-key behavior: without a manifest, a key that was
// not present reports EntryMissing.
func (e *Editor) RemoveFile(sourceName string) error {
	if err := e.requireArchive(); err != nil {
		return err
	}

	if e.ManifestRoot != nil {
		removed := manifest.RemoveFileNode(e.ManifestRoot, sourceName)
		if !removed {
			return newErr(ManifestMismatch, fmt.Sprintf("no matching _setup.xml entry for %s", sourceName), nil)
		}
		e.Archive.Delete(sourceName)
		e.updateNumFiles()
		e.syncSetupXML()
		e.rebuildIndex()
		return nil
	}

	if !e.Archive.Delete(sourceName) {
		return newErr(EntryMissing, fmt.Sprintf("file %s not found in cab", sourceName), nil)
	}
	e.rebuildIndex()
	return nil
}

// AddFile inserts a new payload under a generated source name, and —
// if a manifest is loaded — appends a matching file mapping under
// directory (see manifest.ResolveTargetParent).
func (e *Editor) AddFile(payload []byte, uploadFilename, displayName, directory string) error {
	if err := e.requireArchive(); err != nil {
		return err
	}
	if len(payload) == 0 {
		return newErr(EmptyPayload, "uploaded file is empty", nil)
	}

	finalName := strings.TrimSpace(displayName)
	if finalName == "" {
		finalName = sanitizeFilename(uploadFilename)
	}
	if finalName == "" {
		return newErr(InvariantViolation, "display name is required", nil)
	}

	existing := make(map[string]bool, e.Archive.Len())
	for _, k := range e.Archive.Keys() {
		existing[strings.ToLower(k)] = true
	}
	sourceName, err := GenerateSourceName(finalName, existing)
	if err != nil {
		return err
	}

	var parent *manifest.Node
	if e.ManifestRoot != nil {
		parent = manifest.ResolveTargetParent(e.ManifestRoot, directory)
		if parent == nil {
			return newErr(ManifestMismatch, "could not determine insertion directory in _setup.xml", nil)
		}
	}

	entry := &archive.Entry{Payload: payload}
	entry.SetModTime(time.Now())
	e.Archive.Set(sourceName, entry)

	if parent != nil {
		manifest.AppendFileNode(parent, finalName, sourceName)
		e.updateNumFiles()
		e.syncSetupXML()
	}

	e.rebuildIndex()
	return nil
}

// GetFileBytes returns the payload for sourceName.
func (e *Editor) GetFileBytes(sourceName string) ([]byte, error) {
	if err := e.requireArchive(); err != nil {
		return nil, err
	}
	entry := e.Archive.Get(sourceName)
	if entry == nil {
		return nil, newErr(EntryMissing, fmt.Sprintf("missing file: %s", sourceName), nil)
	}
	return entry.Payload, nil
}

// BuildCabBytes resyncs the manifest (if any) into the archive, then
// renders the archive back to CAB bytes using the captured layout
// template, sorting unrecognized names for deterministic output.
func (e *Editor) BuildCabBytes(compress bool) ([]byte, error) {
	if err := e.requireArchive(); err != nil {
		return nil, err
	}
	if e.ManifestRoot != nil {
		e.syncSetupXML()
	}
	out, err := cab.BuildBytes(e.Archive, compress, e.layout, true)
	if err != nil {
		return nil, newErr(InvariantViolation, "building cab bytes", err)
	}
	return out, nil
}

func (e *Editor) requireArchive() error {
	if e.Archive == nil {
		return newErr(NotLoaded, "no cab loaded", nil)
	}
	return nil
}

func (e *Editor) loadSetupXML() {
	e.ManifestRoot = nil
	e.SetupEncoding = "utf-8"
	if e.Archive == nil {
		return
	}
	entry := e.Archive.Get(setupXMLName)
	if entry == nil {
		return
	}
	node, enc, err := manifest.DecodeSetupXML(entry.Payload)
	if err != nil {
		return
	}
	e.ManifestRoot = node
	e.SetupEncoding = enc
}

func (e *Editor) syncSetupXML() {
	if e.Archive == nil || e.ManifestRoot == nil {
		return
	}
	entry := &archive.Entry{Payload: e.ManifestRoot.Serialize()}
	entry.SetModTime(time.Now())
	e.Archive.Set(setupXMLName, entry)
}

func (e *Editor) updateNumFiles() {
	if e.ManifestRoot == nil {
		return
	}
	e.rebuildIndex()
	manifest.RefreshNumFiles(e.ManifestRoot, len(e.Records))
}

func (e *Editor) rebuildIndex() {
	e.Records = nil
	e.Directories = nil
	if e.Archive == nil {
		return
	}

	if e.ManifestRoot == nil {
		for _, key := range e.Archive.Keys() {
			entry := e.Archive.Get(key)
			e.Records = append(e.Records, Record{
				DisplayName: key,
				SourceName:  key,
				Size:        len(entry.Payload),
				Modified:    formatEntryTime(entry),
			})
		}
		return
	}

	var parentTypes []string
	seen := make(map[string]bool)
	for _, fe := range manifest.IterFileNodes(e.ManifestRoot) {
		displayName := fe.DisplayName()
		sourceName := fe.SourceName()
		if displayName == "" || sourceName == "" {
			continue
		}
		entry := e.Archive.Get(sourceName)
		if entry == nil {
			continue
		}
		parentType := fe.ParentType()
		e.Records = append(e.Records, Record{
			DisplayName: displayName,
			SourceName:  sourceName,
			Size:        len(entry.Payload),
			Modified:    formatEntryTime(entry),
			ParentType:  parentType,
		})
		if parentType != "" && strings.HasPrefix(parentType, `\`) && !seen[parentType] {
			seen[parentType] = true
			parentTypes = append(parentTypes, parentType)
		}
	}
	sort.Strings(parentTypes)
	e.Directories = parentTypes
}

func formatEntryTime(entry *archive.Entry) string {
	t := entry.ModTime()
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}

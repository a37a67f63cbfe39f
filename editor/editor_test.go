package editor

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cabinetforge/cabctl/archive"
	"github.com/cabinetforge/cabctl/cab"
	"github.com/cabinetforge/cabctl/manifest"
)

const testManifestXML = `<wap-provisioningdoc>
<characteristic type="FileOperation">
<characteristic type="\Windows">
<characteristic type="One.txt" translation="install">
<characteristic type="Extract">
<parm name="Source" value="ONE.TXT"/>
</characteristic>
</characteristic>
<characteristic type="Two.txt" translation="install">
<characteristic type="Extract">
<parm name="Source" value="TWO.TXT"/>
</characteristic>
</characteristic>
</characteristic>
</characteristic>
<characteristic type="Install">
<parm name="NumFiles" value="2"/>
</characteristic>
</wap-provisioningdoc>`

func buildTestCAB(t *testing.T, withManifest bool) []byte {
	t.Helper()
	arc := archive.New()
	arc.Set("ONE.TXT", &archive.Entry{Payload: []byte("one payload")})
	arc.Set("TWO.TXT", &archive.Entry{Payload: []byte("two payload")})
	if withManifest {
		arc.Set("_setup.xml", &archive.Entry{Payload: []byte(testManifestXML)})
	}
	buf, err := cab.BuildBytes(arc, false, nil, false)
	if err != nil {
		t.Fatalf("BuildBytes: %v", err)
	}
	return buf
}

func TestLoadWithManifestAndRemove(t *testing.T) {
	raw := buildTestCAB(t, true)
	ed := New()
	if err := ed.Load("demo.cab", raw, ""); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ed.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(ed.Records))
	}

	if err := ed.RemoveFile("ONE.TXT"); err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}
	if len(ed.Records) != 1 {
		t.Fatalf("records after remove = %d, want 1", len(ed.Records))
	}

	out, err := ed.BuildCabBytes(false)
	if err != nil {
		t.Fatalf("BuildCabBytes: %v", err)
	}
	parsed, tmpl, err := cab.Parse(out)
	if err != nil {
		t.Fatalf("Parse rebuilt: %v", err)
	}
	if parsed.Len() != 2 { // TWO.TXT + _setup.xml
		t.Fatalf("parsed entry count = %d, want 2", parsed.Len())
	}
	_ = tmpl

	manifestEntry := parsed.Get("_setup.xml")
	if manifestEntry == nil {
		t.Fatal("_setup.xml missing after rebuild")
	}
	node, _, err := manifest.DecodeSetupXML(manifestEntry.Payload)
	if err != nil {
		t.Fatalf("decoding rebuilt manifest: %v", err)
	}
	install := node.FindChild("characteristic", "type", "Install")
	parm := install.FindChild("parm", "name", "NumFiles")
	if v, _ := parm.Attr("value"); v != "1" {
		t.Fatalf("NumFiles = %q, want 1", v)
	}
}

func TestRemoveFileNoManifestMissingKeyReportsEntryMissing(t *testing.T) {
	raw := buildTestCAB(t, false)
	ed := New()
	if err := ed.Load("demo.cab", raw, ""); err != nil {
		t.Fatalf("Load: %v", err)
	}
	err := ed.RemoveFile("NOPE.TXT")
	if !IsKind(err, EntryMissing) {
		t.Fatalf("err = %v, want EntryMissing", err)
	}
}

func TestRemoveFileNoManifestExistingKeySucceeds(t *testing.T) {
	raw := buildTestCAB(t, false)
	ed := New()
	if err := ed.Load("demo.cab", raw, ""); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := ed.RemoveFile("ONE.TXT"); err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}
	if ed.Archive.Has("ONE.TXT") {
		t.Fatal("entry still present after remove")
	}
}

func TestAddFileNoManifestGeneratesSourceName(t *testing.T) {
	raw := buildTestCAB(t, false)
	ed := New()
	if err := ed.Load("demo.cab", raw, ""); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := ed.AddFile([]byte("hello"), "readme.txt", "Readme.txt", ""); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	var found *Record
	for i := range ed.Records {
		if ed.Records[i].DisplayName == "Readme.txt" {
			found = &ed.Records[i]
		}
	}
	if found == nil {
		t.Fatal("added record not found")
	}
	if found.SourceName != "README~1.TXT" {
		t.Fatalf("source name = %q, want README~1.TXT", found.SourceName)
	}

	if err := ed.AddFile([]byte("hello again"), "readme.txt", "Readme.txt", ""); err != nil {
		t.Fatalf("second AddFile: %v", err)
	}
	var second *Record
	for i := range ed.Records {
		if ed.Records[i].SourceName == "README~2.TXT" {
			second = &ed.Records[i]
		}
	}
	if second == nil {
		t.Fatal("collision-resolved second entry not found")
	}
}

func TestUpdateFileRejectsEmptyPayload(t *testing.T) {
	raw := buildTestCAB(t, false)
	ed := New()
	if err := ed.Load("demo.cab", raw, ""); err != nil {
		t.Fatalf("Load: %v", err)
	}
	err := ed.UpdateFile("ONE.TXT", nil)
	if !IsKind(err, EmptyPayload) {
		t.Fatalf("err = %v, want EmptyPayload", err)
	}
}

func TestUpdateFileMissingEntry(t *testing.T) {
	raw := buildTestCAB(t, false)
	ed := New()
	if err := ed.Load("demo.cab", raw, ""); err != nil {
		t.Fatalf("Load: %v", err)
	}
	err := ed.UpdateFile("NOPE.TXT", []byte("x"))
	if !IsKind(err, EntryMissing) {
		t.Fatalf("err = %v, want EntryMissing", err)
	}
}

func TestOperationsRequireLoadedArchive(t *testing.T) {
	ed := New()
	if _, err := ed.GetFileBytes("ANY.TXT"); !IsKind(err, NotLoaded) {
		t.Fatalf("err = %v, want NotLoaded", err)
	}
}

func TestUTF16ManifestDetectedAndResyncedAsUTF8(t *testing.T) {
	enc := encodeUTF16BE(testManifestXML)
	arc := archive.New()
	arc.Set("ONE.TXT", &archive.Entry{Payload: []byte("one")})
	arc.Set("TWO.TXT", &archive.Entry{Payload: []byte("two")})
	arc.Set("_setup.xml", &archive.Entry{Payload: enc})
	raw, err := cab.BuildBytes(arc, false, nil, false)
	if err != nil {
		t.Fatalf("BuildBytes: %v", err)
	}

	ed := New()
	if err := ed.Load("demo.cab", raw, ""); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ed.SetupEncoding != "utf-16" {
		t.Fatalf("SetupEncoding = %q, want utf-16", ed.SetupEncoding)
	}

	if err := ed.UpdateFile("ONE.TXT", []byte("one updated")); err != nil {
		t.Fatalf("UpdateFile: %v", err)
	}
	out, err := ed.BuildCabBytes(false)
	if err != nil {
		t.Fatalf("BuildCabBytes: %v", err)
	}
	parsed, _, err := cab.Parse(out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	reEntry := parsed.Get("_setup.xml")
	if bytes.HasPrefix(reEntry.Payload, []byte{0xFE, 0xFF}) {
		t.Fatal("resynced manifest should be plain utf-8, not utf-16")
	}
	if !strings.Contains(string(reEntry.Payload), "ONE.TXT") {
		t.Fatal("resynced manifest lost file mapping")
	}
}

// encodeUTF16BE is a minimal big-endian UTF-16 encoder sufficient for
// this package's ASCII-only test fixtures.
func encodeUTF16BE(s string) []byte {
	out := make([]byte, 0, len(s)*2)
	for _, r := range s {
		out = append(out, byte(r>>8), byte(r))
	}
	return out
}

package manifest

import (
	"strings"
	"testing"
)

const sampleXML = `<wap-provisioningdoc>
<characteristic type="FileOperation">
<characteristic type="\Windows" translation="install">
<characteristic type="My App" translation="install">
<characteristic type="Extract">
<parm name="Source" value="MYAPP.EXE"/>
</characteristic>
</characteristic>
</characteristic>
</characteristic>
<characteristic type="Install">
<parm name="NumFiles" value="1"/>
</characteristic>
</wap-provisioningdoc>`

func TestParseAndIterFileNodes(t *testing.T) {
	root, err := Parse(sampleXML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	entries := IterFileNodes(root)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.DisplayName() != "My App" {
		t.Fatalf("DisplayName = %q", e.DisplayName())
	}
	if e.SourceName() != "MYAPP.EXE" {
		t.Fatalf("SourceName = %q", e.SourceName())
	}
	if e.ParentType() != `\Windows` {
		t.Fatalf("ParentType = %q", e.ParentType())
	}
}

func TestRemoveFileNode(t *testing.T) {
	root, err := Parse(sampleXML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !RemoveFileNode(root, "myapp.exe") {
		t.Fatal("RemoveFileNode returned false for existing entry")
	}
	if len(IterFileNodes(root)) != 0 {
		t.Fatal("entry still present after removal")
	}
	if RemoveFileNode(root, "missing.exe") {
		t.Fatal("RemoveFileNode returned true for absent entry")
	}
}

func TestAppendFileNodeAndResolveTargetParent(t *testing.T) {
	root, err := Parse(sampleXML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	parent := ResolveTargetParent(root, `\Windows`)
	if parent == nil {
		t.Fatal("ResolveTargetParent returned nil")
	}
	AppendFileNode(parent, "New File", "NEWFILE.BIN")

	entries := IterFileNodes(root)
	if len(entries) != 2 {
		t.Fatalf("got %d entries after append, want 2", len(entries))
	}

	var found bool
	for _, e := range entries {
		if e.SourceName() == "NEWFILE.BIN" && e.DisplayName() == "New File" {
			found = true
		}
	}
	if !found {
		t.Fatal("appended entry not found by IterFileNodes")
	}
}

func TestResolveTargetParentFallsBackToInstallTranslation(t *testing.T) {
	root, err := Parse(sampleXML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	parent := ResolveTargetParent(root, "\\Unknown Directory")
	if parent == nil {
		t.Fatal("ResolveTargetParent returned nil")
	}
	if v, _ := parent.Attr("translation"); v != "install" {
		t.Fatalf("fallback parent translation = %q, want install", v)
	}
}

func TestRefreshNumFiles(t *testing.T) {
	root, err := Parse(sampleXML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	RefreshNumFiles(root, 5)
	install := root.FindChild("characteristic", "type", "Install")
	parm := install.FindChild("parm", "name", "NumFiles")
	if v, _ := parm.Attr("value"); v != "5" {
		t.Fatalf("NumFiles = %q, want 5", v)
	}
}

func TestDirectories(t *testing.T) {
	root, err := Parse(sampleXML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	dirs := Directories(IterFileNodes(root))
	if len(dirs) != 1 || dirs[0] != `\Windows` {
		t.Fatalf("Directories = %v", dirs)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	root, err := Parse(sampleXML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out := string(root.Serialize())
	if !strings.Contains(out, "MYAPP.EXE") {
		t.Fatalf("serialized xml missing source name: %s", out)
	}
	reparsed, err := Parse(out)
	if err != nil {
		t.Fatalf("reparsing serialized xml: %v", err)
	}
	if len(IterFileNodes(reparsed)) != 1 {
		t.Fatal("round-tripped xml lost file entry")
	}
}

func TestDecodeSetupXMLUTF8(t *testing.T) {
	node, enc, err := DecodeSetupXML([]byte(sampleXML))
	if err != nil {
		t.Fatalf("DecodeSetupXML: %v", err)
	}
	if enc != "utf-8" {
		t.Fatalf("encoding = %q, want utf-8", enc)
	}
	if len(IterFileNodes(node)) != 1 {
		t.Fatal("decoded tree missing file entry")
	}
}

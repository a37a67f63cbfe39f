package manifest

import (
	"sort"
	"strconv"
	"strings"
)

// FileEntry is one resolved file-mapping triple found while walking
// the FileOperation characteristic tree: the directory node the file
// lives under, the file's own characteristic node, and its nested
// Extract/Source parm.
type FileEntry struct {
	Parent  *Node
	File    *Node
	Extract *Node
}

// DisplayName is the file node's "type" attribute — the install-time
// display name shown to the user.
func (e FileEntry) DisplayName() string {
	v, _ := e.File.Attr("type")
	return v
}

// SourceName is the CAB source name this file maps to, read from the
// nested Extract/Source parm's "value" attribute.
func (e FileEntry) SourceName() string {
	v, _ := e.Extract.Attr("value")
	return v
}

// ParentType is the directory node's "type" attribute, e.g. `\Windows`.
func (e FileEntry) ParentType() string {
	v, _ := e.Parent.Attr("type")
	return v
}

func fileOperationNode(root *Node) *Node {
	return root.FindChild("characteristic", "type", "FileOperation")
}

// IterFileNodes walks every characteristic under the FileOperation
// node and yields one FileEntry per child that carries a nested
// Extract/Source parm — a direct port of iter_file_nodes.
func IterFileNodes(root *Node) []FileEntry {
	fileop := fileOperationNode(root)
	if fileop == nil {
		return nil
	}

	var dirs []*Node
	fileop.descendantsByTag("characteristic", &dirs)

	var out []FileEntry
	for _, parent := range dirs {
		for _, fileNode := range parent.childrenByTag("characteristic") {
			extract := fileNode.FindChild("characteristic", "type", "Extract")
			if extract == nil {
				continue
			}
			source := extract.FindChild("parm", "name", "Source")
			if source == nil {
				continue
			}
			out = append(out, FileEntry{Parent: parent, File: fileNode, Extract: source})
		}
	}
	return out
}

// RemoveFileNode deletes the file mapping whose Source value matches
// sourceName (case-insensitively), wherever it is under FileOperation.
// Reports whether a match was found and removed.
func RemoveFileNode(root *Node, sourceName string) bool {
	fileop := fileOperationNode(root)
	if fileop == nil {
		return false
	}

	var dirs []*Node
	fileop.descendantsByTag("characteristic", &dirs)

	target := strings.ToLower(sourceName)
	for _, parent := range dirs {
		for _, fileNode := range parent.childrenByTag("characteristic") {
			extract := fileNode.FindChild("characteristic", "type", "Extract")
			if extract == nil {
				continue
			}
			source := extract.FindChild("parm", "name", "Source")
			if source == nil {
				continue
			}
			v, _ := source.Attr("value")
			if strings.ToLower(v) == target {
				parent.RemoveChild(fileNode)
				return true
			}
		}
	}
	return false
}

// AppendFileNode appends a new file characteristic mapping
// displayName to sourceName under parent, matching the
// <characteristic type="..." translation="install"> / Extract / Source
// shape append_xml_file_node builds.
func AppendFileNode(parent *Node, displayName, sourceName string) {
	fileNode := &Node{Tag: "characteristic", Attrs: []attr{
		{Name: "type", Value: displayName},
		{Name: "translation", Value: "install"},
	}}
	extract := &Node{Tag: "characteristic", Attrs: []attr{{Name: "type", Value: "Extract"}}}
	extract.AppendChild(&Node{Tag: "parm", Attrs: []attr{
		{Name: "name", Value: "Source"},
		{Name: "value", Value: sourceName},
	}})
	fileNode.AppendChild(extract)
	parent.AppendChild(fileNode)
}

// ResolveTargetParent picks the characteristic node new file mappings
// should be appended under: the named directory if it exists under
// FileOperation, else the first direct child of FileOperation marked
// translation="install", else FileOperation itself. Returns nil only when there is no
// FileOperation node at all.
func ResolveTargetParent(root *Node, directory string) *Node {
	fileop := fileOperationNode(root)
	if fileop == nil {
		return nil
	}

	if directory != "" {
		if node := fileop.FindChild("characteristic", "type", directory); node != nil {
			return node
		}
	}

	for _, node := range fileop.childrenByTag("characteristic") {
		if v, ok := node.Attr("translation"); ok && v == "install" {
			return node
		}
	}
	return fileop
}

// RefreshNumFiles sets the Install/NumFiles parm to count, matching
// _update_numfiles. It is a no-op when that parm is absent.
func RefreshNumFiles(root *Node, count int) {
	install := root.FindChild("characteristic", "type", "Install")
	if install == nil {
		return
	}
	parm := install.FindChild("parm", "name", "NumFiles")
	if parm == nil {
		return
	}
	parm.SetAttr("value", strconv.Itoa(count))
}

// Directories returns the sorted, de-duplicated set of parent
// directory types across entries, restricted to entries whose parent
// type starts with a path separator — matching the
// rec.parent_type.startswith("\\") filter in _rebuild_index.
func Directories(entries []FileEntry) []string {
	seen := make(map[string]bool)
	for _, e := range entries {
		pt := e.ParentType()
		if pt != "" && strings.HasPrefix(pt, `\`) {
			seen[pt] = true
		}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

package manifest

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// candidateEncodings lists the `_setup.xml` encodings tried in order,
// mirroring the Windows CE installer's own tolerance for BOM-less
// manifests authored on different toolchains. Plain UTF-8 is tried
// first since it needs no transcoding and is by far the common case.
var candidateEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"utf-8", nil},
	{"utf-16", unicode.UTF16(unicode.BigEndian, unicode.UseBOM)},
	{"utf-16le", unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	{"latin-1", charmap.ISO8859_1},
}

// DecodeSetupXML tries each candidate encoding in turn and parses the
// first one that both transcodes cleanly and yields well-formed XML.
// It returns the parsed tree and the name of the encoding that worked.
func DecodeSetupXML(raw []byte) (*Node, string, error) {
	var lastErr error
	for _, cand := range candidateEncodings {
		text, err := decodeWith(raw, cand.enc)
		if err != nil {
			lastErr = err
			continue
		}
		node, err := Parse(text)
		if err != nil {
			lastErr = err
			continue
		}
		return node, cand.name, nil
	}
	return nil, "", lastErr
}

func decodeWith(raw []byte, enc encoding.Encoding) (string, error) {
	if enc == nil {
		return string(raw), nil
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// EncodeSetupXML renders node back to bytes in the given encoding name
// (one of the candidateEncodings' names); unknown names fall back to
// UTF-8, matching ET.tostring's default in the editor this package
// mirrors.
func EncodeSetupXML(node *Node, encodingName string) ([]byte, error) {
	text := node.Serialize()
	for _, cand := range candidateEncodings {
		if cand.name != encodingName || cand.enc == nil {
			continue
		}
		return cand.enc.NewEncoder().Bytes(text)
	}
	return text, nil
}

package editor

import (
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestGenerateSourceNameBasic(t *testing.T) {
	got, err := GenerateSourceName("Readme.txt", map[string]bool{})
	if err != nil {
		t.Fatalf("GenerateSourceName: %v", err)
	}
	if got != "README~1.TXT" {
		t.Fatalf("got %q, want README~1.TXT", got)
	}
}

func TestGenerateSourceNameCollision(t *testing.T) {
	existing := map[string]bool{"readme~1.txt": true}
	got, err := GenerateSourceName("Readme.txt", existing)
	if err != nil {
		t.Fatalf("GenerateSourceName: %v", err)
	}
	if got != "README~2.TXT" {
		t.Fatalf("got %q, want README~2.TXT", got)
	}
}

func TestGenerateSourceNameWeirdCharacters(t *testing.T) {
	got, err := GenerateSourceName("weird!!!.tar.gz", map[string]bool{})
	if err != nil {
		t.Fatalf("GenerateSourceName: %v", err)
	}
	if got != "WEIRDT~1.GZ" {
		t.Fatalf("got %q, want WEIRDT~1.GZ", got)
	}
}

func TestGenerateSourceNameEmptyStemAndExt(t *testing.T) {
	got, err := GenerateSourceName("!!!", map[string]bool{})
	if err != nil {
		t.Fatalf("GenerateSourceName: %v", err)
	}
	if got != "PYFILE~1.BIN" {
		t.Fatalf("got %q, want PYFILE~1.BIN", got)
	}
}

func TestGenerateSourceNameFallback(t *testing.T) {
	defer func(orig func() time.Time) { nowFunc = orig }(nowFunc)
	nowFunc = func() time.Time { return time.Unix(1700000000, 0) }

	existing := map[string]bool{}
	for i := 1; i < 1000; i++ {
		existing[strings.ToLower(sourceNameFor(i))] = true
	}
	got, err := GenerateSourceName("Readme.txt", existing)
	if err != nil {
		t.Fatalf("GenerateSourceName: %v", err)
	}
	if got != "PY1700000000.DAT" {
		t.Fatalf("got %q, want PY1700000000.DAT", got)
	}
}

func sourceNameFor(i int) string {
	return "README~" + strconv.Itoa(i) + ".TXT"
}

func TestGenerateSourceNameNeverCollides(t *testing.T) {
	existing := map[string]bool{}
	for i := 0; i < 50; i++ {
		name, err := GenerateSourceName("shared.bin", existing)
		if err != nil {
			t.Fatalf("GenerateSourceName iteration %d: %v", i, err)
		}
		if existing[strings.ToLower(name)] {
			t.Fatalf("generated colliding name %q on iteration %d", name, i)
		}
		existing[strings.ToLower(name)] = true
	}
}

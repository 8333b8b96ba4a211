package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func buildTestJar(t *testing.T, withManifest bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.jar")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create jar: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	if withManifest {
		mw, err := zw.Create("META-INF/MANIFEST.MF")
		if err != nil {
			t.Fatalf("create manifest entry: %v", err)
		}
		if _, err := mw.Write([]byte("Manifest-Version: 1.0\r\nMain-Class: com.example.Main\r\n")); err != nil {
			t.Fatalf("write manifest: %v", err)
		}
	}
	cw, err := zw.Create("com/example/Main.class")
	if err != nil {
		t.Fatalf("create class entry: %v", err)
	}
	payload := []byte{0xCA, 0xFE, 0xBA, 0xBE, 0, 0, 0, 52}
	if _, err := cw.Write(payload); err != nil {
		t.Fatalf("write class bytes: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	return path
}

func TestOpenIndexesClassEntries(t *testing.T) {
	path := buildTestJar(t, false)
	js, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer js.Close()

	data, ok := js.ClassBytes("com/example/Main")
	if !ok {
		t.Fatalf("expected com/example/Main to be indexed")
	}
	if len(data) != 8 || data[0] != 0xCA {
		t.Errorf("unexpected class bytes: %v", data)
	}

	if _, ok := js.ClassBytes("does/not/Exist"); ok {
		t.Errorf("expected a miss for an unindexed class name")
	}
}

func TestOpenExtractsMainClassFromManifest(t *testing.T) {
	path := buildTestJar(t, true)
	js, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer js.Close()

	main, ok := js.MainClass()
	if !ok || main != "com/example/Main" {
		t.Errorf("MainClass() = %q, %v, want com/example/Main, true", main, ok)
	}
}

func TestNoManifestMeansNoMainClass(t *testing.T) {
	path := buildTestJar(t, false)
	js, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer js.Close()

	if _, ok := js.MainClass(); ok {
		t.Errorf("expected no main class without a manifest")
	}
}

// Package archive implements the archive source (§11.1): a jar is just a
// zip file, so this wraps archive/zip rather than hand-rolling a reader,
// the way the DirSource in classregistry wraps a plain directory walk for
// the unpacked case. It also extracts the Main-Class: manifest entry when
// present, so a host can run a jar without being told the entry point.
package archive

import (
	"archive/zip"
	"bufio"
	"path/filepath"
	"strings"
)

// JarSource implements classregistry.Source over a zip/jar file's central
// directory, read once at Open time; entry bytes are decompressed lazily
// on each ClassBytes call rather than held in memory up front.
type JarSource struct {
	reader    *zip.ReadCloser
	entries   map[string]*zip.File // canonical class name -> entry
	mainClass string
	hasMain   bool
}

// Open indexes every ".class" entry in path's central directory and looks
// for a META-INF/MANIFEST.MF Main-Class: line.
func Open(path string) (*JarSource, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	js := &JarSource{reader: zr, entries: make(map[string]*zip.File)}
	for _, f := range zr.File {
		switch {
		case strings.HasSuffix(f.Name, ".class"):
			name := strings.TrimSuffix(filepath.ToSlash(f.Name), ".class")
			js.entries[name] = f
		case f.Name == "META-INF/MANIFEST.MF":
			if main, ok, err := readMainClass(f); err == nil && ok {
				js.mainClass, js.hasMain = main, true
			}
		}
	}
	return js, nil
}

// Close releases the underlying zip reader's file handle.
func (js *JarSource) Close() error {
	return js.reader.Close()
}

// ClassBytes implements classregistry.Source.
func (js *JarSource) ClassBytes(name string) ([]byte, bool) {
	f, ok := js.entries[name]
	if !ok {
		return nil, false
	}
	rc, err := f.Open()
	if err != nil {
		return nil, false
	}
	defer rc.Close()

	buf := make([]byte, 0, f.UncompressedSize64)
	chunk := make([]byte, 32*1024)
	for {
		n, err := rc.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			break
		}
	}
	return buf, true
}

// MainClass implements classregistry.Source.
func (js *JarSource) MainClass() (string, bool) {
	return js.mainClass, js.hasMain
}

// readMainClass scans a MANIFEST.MF entry for the "Main-Class:" attribute,
// per the external jar-manifest format (key: value lines, continuation
// lines indented with a single space, which this reader ignores since a
// fully-qualified class name never needs to wrap).
func readMainClass(f *zip.File) (string, bool, error) {
	rc, err := f.Open()
	if err != nil {
		return "", false, err
	}
	defer rc.Close()

	sc := bufio.NewScanner(rc)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.HasPrefix(line, "Main-Class:") {
			name := strings.TrimSpace(strings.TrimPrefix(line, "Main-Class:"))
			return strings.ReplaceAll(name, ".", "/"), true, nil
		}
	}
	return "", false, sc.Err()
}

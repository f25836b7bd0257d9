package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/txtar"
)

var writeTxtarGolden = flag.Bool("write-txtar-golden", false, "If true, writes out golden files in txtar archives")

// Each archive in testdata is one scenario: every *.go file except
// golden.go is generator input, golden.go is the expected output, and a
// file named err holds a substring the returned error must contain.
func TestTxtarGenerate(t *testing.T) {
	txtarFiles, err := filepath.Glob("testdata/*.txtar")
	if err != nil {
		t.Fatalf("failed to find txtar files in testdata: %v", err)
	}
	if len(txtarFiles) == 0 {
		t.Skip("no txtar files found")
	}

	for _, txtarFile := range txtarFiles {
		t.Run(filepath.Base(txtarFile), func(t *testing.T) {
			runTxtarTest(t, txtarFile)
		})
	}
}

func runTxtarTest(t *testing.T, txtarFile string) {
	archive, err := txtar.ParseFile(txtarFile)
	if err != nil {
		t.Fatalf("failed to parse txtar file %s: %v", txtarFile, err)
	}

	var (
		inputs      []sourceFile
		golden      []byte
		expectedErr []byte
	)
	for _, file := range archive.Files {
		switch {
		case file.Name == "golden.go":
			golden = file.Data
		case file.Name == "err":
			expectedErr = file.Data
		case strings.HasSuffix(file.Name, ".go"):
			inputs = append(inputs, sourceFile{name: file.Name, data: file.Data})
		}
	}
	if len(inputs) == 0 {
		t.Fatal("no input files found in archive")
	}

	g := &generator{}
	var buf bytes.Buffer
	genErr := g.generate(&buf, inputs)

	if len(expectedErr) > 0 {
		expectedErrStr := strings.TrimSpace(string(expectedErr))
		if genErr == nil {
			t.Fatalf("expected error containing %q, but got none", expectedErrStr)
		}
		if !strings.Contains(genErr.Error(), expectedErrStr) {
			t.Errorf("expected error containing %q, got %q", expectedErrStr, genErr.Error())
		}
		t.Logf("generator.generate() got expected error = %v", genErr)
		return
	}

	if genErr != nil {
		if *writeTxtarGolden {
			updateArchiveFile(t, txtarFile, archive, "err", []byte(genErr.Error()))
			return
		}
		t.Fatalf("generator.generate() error = %v", genErr)
	}

	got := buf.String()

	if *writeTxtarGolden {
		updateArchiveFile(t, txtarFile, archive, "golden.go", buf.Bytes())
		return
	}

	if len(golden) == 0 {
		t.Fatalf("no golden file found, generated:\n%s", got)
	}

	if diff := cmp.Diff(string(golden), got); diff != "" {
		t.Errorf("generate() mismatch (-want +got):\n%s", diff)
	}
}

// updateArchiveFile rewrites one file inside a txtar archive on disk.
func updateArchiveFile(t *testing.T, txtarFile string, archive *txtar.Archive, name string, data []byte) {
	t.Helper()

	found := false
	for i, file := range archive.Files {
		if file.Name == name {
			archive.Files[i].Data = data
			found = true
			break
		}
	}
	if !found {
		archive.Files = append(archive.Files, txtar.File{Name: name, Data: data})
	}

	if err := os.WriteFile(txtarFile, txtar.Format(archive), 0o644); err != nil {
		t.Errorf("failed to write updated txtar file %s: %v", txtarFile, err)
		return
	}
	t.Logf("updated %s in %s", name, txtarFile)
}

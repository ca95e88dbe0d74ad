package lockfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileGivesEmptyLock(t *testing.T) {
	lf, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if langs, keys := lf.Stats(); langs != 0 || keys != 0 {
		t.Fatalf("Stats() = %d, %d, want empty", langs, keys)
	}
	if lf.Summary() != "empty" {
		t.Fatalf("Summary() = %q", lf.Summary())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	lf, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	lf.UpdateBatch("de", map[string]string{
		"hello": EntryContent("hello", "Hello"),
		"bye":   EntryContent("bye", "Goodbye"),
	})
	lf.UpdateBatch("fr", map[string]string{
		"hello": EntryContent("hello", "Hello"),
	})
	if err := lf.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	again, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if langs, keys := again.Stats(); langs != 2 || keys != 3 {
		t.Fatalf("Stats() = %d, %d, want 2, 3", langs, keys)
	}
	if got := again.Langs(); len(got) != 2 || got[0] != "de" || got[1] != "fr" {
		t.Fatalf("Langs() = %v", got)
	}
	if again.IsChanged("de", "hello", EntryContent("hello", "Hello")) {
		t.Fatal("unchanged key reported as changed after reload")
	}
}

func TestIsChanged(t *testing.T) {
	lf := &LockFile{Version: Version, Checksums: make(map[string]map[string]string)}
	lf.UpdateBatch("de", map[string]string{"hello": EntryContent("hello", "Hello")})

	if lf.IsChanged("de", "hello", EntryContent("hello", "Hello")) {
		t.Error("same content reported as changed")
	}
	if !lf.IsChanged("de", "hello", EntryContent("hello", "Hello!")) {
		t.Error("edited source not reported as changed")
	}
	if !lf.IsChanged("de", "greeting", EntryContent("greeting", "Hello")) {
		t.Error("new key not reported as changed")
	}
	if !lf.IsChanged("fr", "hello", EntryContent("hello", "Hello")) {
		t.Error("untracked language not reported as changed")
	}
}

func TestEntryContent_KeyRenameChangesHash(t *testing.T) {
	if Hash(EntryContent("old", "Hello")) == Hash(EntryContent("new", "Hello")) {
		t.Fatal("renamed key should hash differently")
	}
}

func TestFilterChanged(t *testing.T) {
	lf := &LockFile{Version: Version, Checksums: make(map[string]map[string]string)}
	lf.UpdateBatch("de", map[string]string{
		"hello": EntryContent("hello", "Hello"),
		"bye":   EntryContent("bye", "Goodbye"),
	})

	changed := lf.FilterChanged("de", map[string]string{
		"hello": EntryContent("hello", "Hello"),   // unchanged
		"bye":   EntryContent("bye", "Farewell"),  // edited
		"save":  EntryContent("save", "Save"),     // new
	})

	if len(changed) != 2 {
		t.Fatalf("FilterChanged() = %v, want 2 entries", changed)
	}
	for _, key := range []string{"bye", "save"} {
		if _, ok := changed[key]; !ok {
			t.Errorf("missing %q in changed set", key)
		}
	}
}

func TestClean(t *testing.T) {
	lf := &LockFile{Version: Version, Checksums: make(map[string]map[string]string)}
	lf.UpdateBatch("de", map[string]string{
		"hello":   EntryContent("hello", "Hello"),
		"deleted": EntryContent("deleted", "Gone"),
	})

	lf.Clean("de", []string{"hello"})

	if !lf.IsChanged("de", "deleted", EntryContent("deleted", "Gone")) {
		t.Error("cleaned key should count as changed again")
	}
	if lf.IsChanged("de", "hello", EntryContent("hello", "Hello")) {
		t.Error("surviving key lost its checksum")
	}
}

func TestRemoveLang(t *testing.T) {
	lf := &LockFile{Version: Version, Checksums: make(map[string]map[string]string)}
	lf.UpdateBatch("de", map[string]string{"hello": "x"})
	lf.UpdateBatch("fr", map[string]string{"hello": "x"})

	lf.RemoveLang("de")

	if langs, _ := lf.Stats(); langs != 1 {
		t.Fatalf("Stats() langs = %d, want 1", langs)
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, LockFileName), []byte("{not yaml\n\t:"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("corrupt lock file should error")
	}
}

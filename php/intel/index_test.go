package intel

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dhamidi/phpintel/php"
)

func declsOf(classes ...string) []php.Declaration {
	decls := make([]php.Declaration, len(classes))
	for i, class := range classes {
		decls[i] = php.Declaration{Class: class, Kind: php.KindFunc, Name: "m"}
	}
	return decls
}

func TestIndexUpdate(t *testing.T) {
	x := NewIndex()
	x.Update("/src/a.php", declsOf("A", "A", php.GlobalClass))
	x.Update("/src/b.php", declsOf("B"))

	want := map[string][]string{
		"A":             {"/src/a.php"},
		"B":             {"/src/b.php"},
		php.GlobalClass: {"/src/a.php"},
	}
	if diff := cmp.Diff(want, x.Snapshot()); diff != "" {
		t.Errorf("Snapshot() mismatch (-want +got):\n%s", diff)
	}
}

func TestIndexUpdateRemovesStaleClasses(t *testing.T) {
	x := NewIndex()
	x.Update("/src/thing.php", declsOf("Old"))
	x.Update("/src/other.php", declsOf("Old"))
	x.Update("/src/thing.php", declsOf("New"))

	if diff := cmp.Diff([]string{"/src/other.php"}, x.Files("Old")); diff != "" {
		t.Errorf("Files(Old) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/src/thing.php"}, x.Files("New")); diff != "" {
		t.Errorf("Files(New) mismatch (-want +got):\n%s", diff)
	}

	x.Update("/src/other.php", nil)
	if x.Has("Old") {
		t.Error("Has(Old) = true after its last file moved on")
	}
}

func TestIndexRemove(t *testing.T) {
	x := NewIndex()
	x.Update("/a.php", declsOf("A", "B"))
	x.Update("/b.php", declsOf("B"))
	x.Remove("/a.php")

	if diff := cmp.Diff([]string{"B"}, x.Classes()); diff != "" {
		t.Errorf("Classes() mismatch (-want +got):\n%s", diff)
	}
	if x.Len() != 1 {
		t.Errorf("Len() = %d, want 1", x.Len())
	}
}

func TestIndexUnknownClass(t *testing.T) {
	x := NewIndex()
	if x.Has("Nope") {
		t.Error("Has(Nope) = true")
	}
	if files := x.Files("Nope"); len(files) != 0 {
		t.Errorf("Files(Nope) = %v, want none", files)
	}
}

func TestIndexMerge(t *testing.T) {
	a := NewIndex()
	a.Update("/one/a.php", declsOf("A", php.GlobalClass))
	b := NewIndex()
	b.Update("/two/b.php", declsOf("B", php.GlobalClass))
	b.Update("/two/a.php", declsOf("A"))

	a.Merge(b)
	a.Merge(nil)
	a.Merge(a)

	want := map[string][]string{
		"A":             {"/one/a.php", "/two/a.php"},
		"B":             {"/two/b.php"},
		php.GlobalClass: {"/one/a.php", "/two/b.php"},
	}
	if diff := cmp.Diff(want, a.Snapshot()); diff != "" {
		t.Errorf("Snapshot() mismatch (-want +got):\n%s", diff)
	}
}

func TestIndexResetAndSnapshot(t *testing.T) {
	x := NewIndex()
	x.Update("/a.php", declsOf("A"))

	snapshot := x.Snapshot()
	rebuilt := IndexFromSnapshot(snapshot)
	if diff := cmp.Diff(snapshot, rebuilt.Snapshot()); diff != "" {
		t.Errorf("IndexFromSnapshot() mismatch (-want +got):\n%s", diff)
	}

	x.Reset()
	if x.Len() != 0 {
		t.Errorf("Len() = %d after Reset, want 0", x.Len())
	}
	if rebuilt.Len() != 1 {
		t.Errorf("rebuilt index changed by Reset: Len() = %d", rebuilt.Len())
	}
}

package stack

import (
	"testing"

	"absorb/internal/storeapi"
)

type fakeReader map[storeapi.OID]storeapi.CommitInfo

func (f fakeReader) ReadCommit(id storeapi.OID) (storeapi.CommitInfo, error) {
	c, ok := f[id]
	if !ok {
		return storeapi.CommitInfo{}, errNotFound(id)
	}
	return c, nil
}

type errNotFound storeapi.OID

func (e errNotFound) Error() string { return "commit not found: " + string(e) }

var me = storeapi.Signature{Name: "Dev", Email: "dev@example.com"}

func commit(id storeapi.OID, parents ...storeapi.OID) storeapi.CommitInfo {
	return storeapi.CommitInfo{ID: id, ParentIDs: parents, Author: me, Summary: string(id)}
}

// TestDiscover_S1S3S4 covers the two-commit stacks from spec scenarios
// S1, S3 and S4: A is root, B is A's child and current HEAD. The stack
// must include HEAD (B) as its newest entry — see the package doc.
func TestDiscover_S1S3S4(t *testing.T) {
	reader := fakeReader{
		"A": commit("A"),
		"B": commit("B", "A"),
	}

	entries, err := Discover(reader, "B", Options{CurrentUser: me}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Commit.ID != "B" || entries[1].Commit.ID != "A" {
		t.Fatalf("expected stack [B, A], got %+v", entries)
	}
}

// TestDiscover_S2S5 covers the single-root-commit scenarios S2 and S5:
// HEAD has no parent, and is itself the only (and correct) stack entry.
func TestDiscover_S2S5(t *testing.T) {
	reader := fakeReader{"A": commit("A")}

	entries, err := Discover(reader, "A", Options{CurrentUser: me}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Commit.ID != "A" {
		t.Fatalf("expected stack [A], got %+v", entries)
	}
}

// TestDiscover_S6 covers the empty-stack scenario: base equals HEAD, so
// no commit is eligible to absorb into.
func TestDiscover_S6(t *testing.T) {
	reader := fakeReader{
		"A": commit("A"),
		"B": commit("B", "A"),
	}

	entries, err := Discover(reader, "B", Options{Base: "B", CurrentUser: me}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty stack when base == head, got %+v", entries)
	}
}

func TestDiscover_StopsAtConfiguredBase(t *testing.T) {
	reader := fakeReader{
		"A": commit("A"),
		"B": commit("B", "A"),
		"C": commit("C", "B"),
	}

	entries, err := Discover(reader, "C", Options{Base: "A", CurrentUser: me}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Commit.ID != "C" || entries[1].Commit.ID != "B" {
		t.Fatalf("expected stack [C, B], got %+v", entries)
	}
}

func TestDiscover_ExcludesMergeCommit(t *testing.T) {
	reader := fakeReader{
		"A":     commit("A"),
		"B":     commit("B", "A"),
		"merge": commit("merge", "B", "A"),
	}

	entries, err := Discover(reader, "merge", Options{CurrentUser: me}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected a merge HEAD to exclude itself and stop the walk, got %+v", entries)
	}
}

func TestDiscover_StopsAtAuthorMismatchWithoutBase(t *testing.T) {
	other := storeapi.Signature{Name: "Other", Email: "other@example.com"}
	reader := fakeReader{
		"A": {ID: "A", Author: other, Summary: "A"},
		"B": commit("B", "A"),
	}

	entries, err := Discover(reader, "B", Options{CurrentUser: me}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Commit.ID != "B" {
		t.Fatalf("expected stack [B], stopping before the other author's commit, got %+v", entries)
	}
}

func TestDiscover_ForceOverridesAuthorMismatch(t *testing.T) {
	other := storeapi.Signature{Name: "Other", Email: "other@example.com"}
	reader := fakeReader{
		"A": {ID: "A", Author: other, Summary: "A"},
		"B": commit("B", "A"),
	}

	entries, err := Discover(reader, "B", Options{CurrentUser: me, Force: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[1].Commit.ID != "A" {
		t.Fatalf("expected force to include the other-authored commit, got %+v", entries)
	}
}

func TestDiscover_StopsAtMaxDepthWithoutBase(t *testing.T) {
	reader := fakeReader{
		"A": commit("A"),
		"B": commit("B", "A"),
		"C": commit("C", "B"),
	}

	entries, err := Discover(reader, "C", Options{CurrentUser: me, MaxDepth: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Commit.ID != "C" {
		t.Fatalf("expected MaxDepth=1 to include only HEAD, got %+v", entries)
	}
}

func TestDiscover_AuthorMismatchIgnoredWhenBaseConfigured(t *testing.T) {
	other := storeapi.Signature{Name: "Other", Email: "other@example.com"}
	reader := fakeReader{
		"R": commit("R"),
		"A": {ID: "A", ParentIDs: []storeapi.OID{"R"}, Author: other, Summary: "A"},
		"B": commit("B", "A"),
	}

	entries, err := Discover(reader, "B", Options{CurrentUser: me, Base: "R"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Commit.ID != "B" || entries[1].Commit.ID != "A" {
		t.Fatalf("expected stack [B, A] bounded by base, author heuristic should not apply, got %+v", entries)
	}
}

func TestDiscover_PropagatesReadCommitError(t *testing.T) {
	reader := fakeReader{}
	if _, err := Discover(reader, "missing", Options{CurrentUser: me}, nil); err == nil {
		t.Fatal("expected an error for an unreadable HEAD commit")
	}
}

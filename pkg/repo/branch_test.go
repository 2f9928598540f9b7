package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/odvcencio/gitgraph/pkg/object"
)

type history struct {
	p                        *fakeProvider
	root, side, main, merged object.Hash
}

// newHistory builds root <- main <- merged, with side merged as second parent.
func newHistory(t *testing.T) history {
	t.Helper()
	p := newFakeProvider()
	tree := p.tree(t, file("README", p.blob("readme\n")))
	h := history{p: p}
	h.root = p.commit(tree, "root", 1700001000)
	h.side = p.commit(tree, "side work", 1700002000, h.root)
	h.main = p.commit(tree, "main work", 1700003000, h.root)
	h.merged = p.commit(tree, "merge side", 1700004000, h.main, h.side)
	p.branches = []string{
		object.FormatBranchLine("main", h.merged, true, "merge side"),
		object.FormatBranchLine("side", h.side, false, "side work"),
		"  remotes/origin/HEAD -> origin/main",
		object.FormatBranchLine("remotes/origin/main", h.main, false, "main work"),
	}
	p.current = p.branches[0]
	return h
}

func TestBranches_SkipsAliases(t *testing.T) {
	h := newHistory(t)
	r := newTestRepo(t, h.p)

	bs, err := r.Branches(context.Background())
	if err != nil {
		t.Fatalf("Branches: %v", err)
	}
	if len(bs) != 3 {
		t.Fatalf("got %d branches, want 3", len(bs))
	}
	if bs[0].Name != "main" || !bs[0].Current || bs[0].Head.Hash != h.merged {
		t.Errorf("branch 0 = %+v", bs[0])
	}
	if bs[2].Name != "origin/main" || !bs[2].Remote || bs[2].HeadHash != h.main {
		t.Errorf("branch 2 = %+v", bs[2])
	}
	if got := bs[1].String(); got != "side "+h.side.Short() {
		t.Errorf("String = %q", got)
	}
}

func TestCurrentBranch(t *testing.T) {
	h := newHistory(t)
	r := newTestRepo(t, h.p)
	ctx := context.Background()

	b, err := r.CurrentBranch(ctx)
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if b.Name != "main" || b.HeadHash != h.merged {
		t.Errorf("current = %+v", b)
	}

	h.p.current = ""
	if _, err := r.CurrentBranch(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("CurrentBranch(none) = %v, want ErrNotFound", err)
	}
}

func TestCurrentBranch_Detached(t *testing.T) {
	h := newHistory(t)
	h.p.current = "* (HEAD detached at " + object.Abbrev(h.side, 7) + ") " + object.Abbrev(h.side, 7) + " side work"
	r := newTestRepo(t, h.p)

	b, err := r.CurrentBranch(context.Background())
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if !b.Detached || b.Name != "HEAD" || b.HeadHash != h.side {
		t.Errorf("detached = %+v", b)
	}
}

func TestFindBranch_PrefersLocal(t *testing.T) {
	h := newHistory(t)
	h.p.branches = append(h.p.branches, object.FormatBranchLine("remotes/side", h.root, false, "root"))
	r := newTestRepo(t, h.p)
	ctx := context.Background()

	b, err := r.FindBranch(ctx, "side")
	if err != nil {
		t.Fatalf("FindBranch: %v", err)
	}
	if b.Remote || b.HeadHash != h.side {
		t.Errorf("side = %+v", b)
	}
	if _, err := r.FindBranch(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindBranch(nope) = %v, want ErrNotFound", err)
	}
}

func TestWalkAncestry_FirstParent(t *testing.T) {
	h := newHistory(t)
	r := newTestRepo(t, h.p)
	ctx := context.Background()

	b, err := r.CurrentBranch(ctx)
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	chain, err := r.WalkAncestry(ctx, b)
	if err != nil {
		t.Fatalf("WalkAncestry: %v", err)
	}
	want := []object.Hash{h.merged, h.main, h.root}
	if len(chain) != len(want) {
		t.Fatalf("chain length = %d, want %d", len(chain), len(want))
	}
	for i, c := range chain {
		if c.Hash != want[i] {
			t.Errorf("chain[%d] = %s, want %s", i, c, want[i].Short())
		}
		if c.Hash == h.side {
			t.Error("second parent appeared in first-parent chain")
		}
	}
	if !chain[len(chain)-1].IsRoot() {
		t.Error("chain does not end at a root commit")
	}
}

func TestLog_Limit(t *testing.T) {
	h := newHistory(t)
	r := newTestRepo(t, h.p)
	ctx := context.Background()
	c, err := r.LoadCommit(ctx, string(h.merged))
	if err != nil {
		t.Fatalf("LoadCommit: %v", err)
	}
	chain, err := r.Log(ctx, c, 2)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(chain) != 2 || chain[1].Hash != h.main {
		t.Errorf("chain = %v", chain)
	}
}

func TestLog_CycleIsAnError(t *testing.T) {
	h := newHistory(t)
	r := newTestRepo(t, h.p)
	ctx := context.Background()
	c, err := r.LoadCommit(ctx, string(h.main))
	if err != nil {
		t.Fatalf("LoadCommit: %v", err)
	}
	root, err := r.LoadCommit(ctx, string(h.root))
	if err != nil {
		t.Fatalf("LoadCommit: %v", err)
	}
	root.Parent1 = c.Hash
	if _, err := r.Log(ctx, c, 0); err == nil {
		t.Error("Log over a parent cycle succeeded")
	}
}

func TestBranches_UnknownHeadFails(t *testing.T) {
	h := newHistory(t)
	h.p.branches = []string{"  ghost 0000000 nothing"}
	r := newTestRepo(t, h.p)
	if _, err := r.Branches(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Branches = %v, want ErrNotFound", err)
	}
}

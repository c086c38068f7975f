package stage

import (
	"testing"

	"github.com/huier-git/drillplan/internal/duration"
	"github.com/huier-git/drillplan/internal/task"
)

func TestComposeStageCutCountMatchesN(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{
		{1, 4},
		{2, 6},
		{3, 8},
		{5, 12},
	}
	for _, tc := range cases {
		cat := task.New(100000)
		cuts, err := Compose(cat, duration.Default(), tc.n)
		if err != nil {
			t.Fatalf("n=%d: Compose error: %v", tc.n, err)
		}
		if len(cuts) != tc.want {
			t.Errorf("n=%d: len(cuts) = %d, want %d", tc.n, len(cuts), tc.want)
		}
	}
}

func TestComposeRejectsNonPositiveN(t *testing.T) {
	cat := task.New(1000)
	if _, err := Compose(cat, duration.Default(), 0); err == nil {
		t.Fatal("expected error for n=0")
	}
}

func TestStageASafetyDelayIsThreeQuartersOfLift(t *testing.T) {
	cat := task.New(100000)
	dt := duration.Default()
	if _, err := A(cat, dt); err != nil {
		t.Fatalf("A: %v", err)
	}
	// A_FZ_AH defaults to 8, so the safety delay should be floor(0.75*8) = 6.
	lift := cat.Get("A_Fz_Lift")
	toHead := cat.Get("A_Me_ToHead")
	if lift == nil || toHead == nil {
		t.Fatal("expected Fz_Lift and Me_ToHead tasks to exist")
	}
	if got, want := truncate75(dt.Get("A_FZ_AH")), 6; got != want {
		t.Fatalf("truncate75(8) = %d, want %d", got, want)
	}
}

func TestStageBCarouselIndexAdvances(t *testing.T) {
	cat := task.New(100000)
	dt := duration.Default()
	end, err := A(cat, dt)
	if err != nil {
		t.Fatalf("A: %v", err)
	}
	anchor := From(end)
	for i := 1; i <= 4; i++ {
		var err error
		end, err = B(cat, dt, i, anchor)
		if err != nil {
			t.Fatalf("B(%d): %v", i, err)
		}
		anchor = From(end)

		sr := cat.Get(indexed("B", i, "Sr_Index"))
		if sr == nil {
			t.Fatalf("B(%d): missing Sr_Index task", i)
		}
		wantStart := carouselState(i - 1)
		wantEnd := carouselState(i)
		if sr.StartState != wantStart || sr.EndState != wantEnd {
			t.Errorf("B(%d): Sr_Index %s->%s, want %s->%s", i, sr.StartState, sr.EndState, wantStart, wantEnd)
		}
	}
}

func TestStageCCarouselIndexRetreats(t *testing.T) {
	cat := task.New(100000)
	dt := duration.Default()
	end, err := A(cat, dt)
	if err != nil {
		t.Fatalf("A: %v", err)
	}
	anchor := From(end)
	for i := 1; i <= 3; i++ {
		end, err = B(cat, dt, i, anchor)
		if err != nil {
			t.Fatalf("B(%d): %v", i, err)
		}
		anchor = From(end)
	}
	for i := 3; i >= 1; i-- {
		end, err = C(cat, dt, i, anchor)
		if err != nil {
			t.Fatalf("C(%d): %v", i, err)
		}
		anchor = From(end)

		sr := cat.Get(indexed("C", i, "Sr_Next"))
		if sr == nil {
			t.Fatalf("C(%d): missing Sr_Next task", i)
		}
		wantStart := carouselState(i)
		wantEnd := carouselState(i - 1)
		if sr.StartState != wantStart || sr.EndState != wantEnd {
			t.Errorf("C(%d): Sr_Next %s->%s, want %s->%s", i, sr.StartState, sr.EndState, wantStart, wantEnd)
		}
	}
}

func TestEveryStageTaskIsRegisteredExactlyOnce(t *testing.T) {
	cat := task.New(100000)
	dt := duration.Default()
	if _, err := Compose(cat, dt, 2); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	seen := make(map[string]bool)
	for _, tk := range cat.Tasks() {
		if seen[tk.Name] {
			t.Fatalf("duplicate task name %q", tk.Name)
		}
		seen[tk.Name] = true
	}
	if len(cat.Tasks()) == 0 {
		t.Fatal("expected at least one task")
	}
}

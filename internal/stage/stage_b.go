package stage

import (
	"github.com/huier-git/drillplan/internal/duration"
	"github.com/huier-git/drillplan/internal/solver"
	"github.com/huier-git/drillplan/internal/task"
)

// B builds Stage B(i) — Add & Drill Pipe i (spec.md §4.3), for i in
// [1, N]. i indexes the carousel/Sr rotation: call i moves Sr from i-1
// to i, so the carousel advances 0 -> 1 -> ... -> N across successive
// calls (spec.md §8 scenario: "Sr carousel index sequencing"), and i
// folds into every task name so repeated calls don't collide in the
// catalogue.
//
// Unlike Stage A, no step here gets a synchronized Cb hold: after both
// couplings (F->D, then J->I) the lower clamp does its own real work, a
// Cb_Release before the drilling step and a Cb_Clamp after it, so
// coupleOrBreak is called with withCb=false throughout this stage.
func B(cat *task.Catalogue, dt *duration.Table, i int, anchor Anchor) (*solver.IntVar, error) {
	srIndex, err := chain(cat, anchor, "", indexed("B", i, "Sr_Index"), task.Sr, dt.Get("SR_INDEX"),
		carouselState(i-1), carouselState(i))
	if err != nil {
		return nil, err
	}

	meToStore, err := chain(cat, anchor, "", indexed("B", i, "Me_ToStore"), task.Me, dt.Get("B_ME_to_store"), "H", "S")
	if err != nil {
		return nil, err
	}
	mgGrip, err := chain(cat, anchor, meToStore, indexed("B", i, "Mg_Grip"), task.Mg, dt.Get("B_MG_grip"), "O", "G")
	if err != nil {
		return nil, err
	}
	meBack, err := chain(cat, anchor, mgGrip, indexed("B", i, "Me_Back"), task.Me, dt.Get("B_ME_back"), "S", "H")
	if err != nil {
		return nil, err
	}
	mrToHead, err := chain(cat, anchor, meBack, indexed("B", i, "Mr_ToHead"), task.Mr, dt.Get("B_MR_to_head"), "H", "D")
	if err != nil {
		return nil, err
	}
	meToHead, err := chain(cat, anchor, mrToHead, indexed("B", i, "Me_ToHead"), task.Me, dt.Get("B_ME_to_head"), "H", "D")
	if err != nil {
		return nil, err
	}

	fzHF, err := chain(cat, anchor, srIndex, indexed("B", i, "Fz_HF"), task.Fz, dt.Get("B_FZ_HF"), "H", "F")
	if err != nil {
		return nil, err
	}
	cat.AddPrecedence(meToHead, fzHF)

	coupleFD, err := coupleOrBreak(cat, dt, indexed("B", i, "Couple_FD"), "B_COUPLE_FD", "F", "D", "B", false, "")
	if err != nil {
		return nil, err
	}
	cat.AddPrecedence(fzHF, coupleFD)

	dhLock, err := chain(cat, anchor, coupleFD, indexed("B", i, "Dh_Lock"), task.Dh, dt.Get("B_DH_lock"), "O", "L")
	if err != nil {
		return nil, err
	}
	mgRelease, err := chain(cat, anchor, dhLock, indexed("B", i, "Mg_Release"), task.Mg, dt.Get("B_MG_release"), "G", "O")
	if err != nil {
		return nil, err
	}
	meBackFromHead, err := chain(cat, anchor, mgRelease, indexed("B", i, "Me_BackFromHead"), task.Me, dt.Get("B_ME_back_from_head"), "D", "H")
	if err != nil {
		return nil, err
	}
	if _, err := chain(cat, anchor, meBackFromHead, indexed("B", i, "Mr_BackToStore"), task.Mr, dt.Get("B_MR_back_to_store"), "D", "H"); err != nil {
		return nil, err
	}

	fzDJ, err := chain(cat, anchor, dhLock, indexed("B", i, "Fz_DJ"), task.Fz, dt.Get("B_FZ_DJ"), "D", "J")
	if err != nil {
		return nil, err
	}

	coupleJI, err := coupleOrBreak(cat, dt, indexed("B", i, "Couple_JI"), "B_COUPLE_JI", "J", "I", "B", false, "")
	if err != nil {
		return nil, err
	}
	cat.AddPrecedence(fzDJ, coupleJI)

	cbRelease, err := chain(cat, anchor, dhLock, indexed("B", i, "Cb_Release"), task.Cb, dt.Get("B_CB_release"), "L", "O")
	if err != nil {
		return nil, err
	}

	drill, err := coupleOrBreak(cat, dt, indexed("B", i, "Drill"), "B_DRILL", "I", "I", "D", false, "")
	if err != nil {
		return nil, err
	}
	cat.AddPrecedence(coupleJI, drill)
	cat.AddPrecedence(cbRelease, drill)

	cbClamp, err := chain(cat, anchor, drill, indexed("B", i, "Cb_Clamp"), task.Cb, dt.Get("B_CB_clamp"), "O", "L")
	if err != nil {
		return nil, err
	}
	dhUnlock, err := chain(cat, anchor, cbClamp, indexed("B", i, "Dh_Unlock"), task.Dh, dt.Get("B_DH_unlock"), "L", "O")
	if err != nil {
		return nil, err
	}

	brk, err := coupleOrBreak(cat, dt, indexed("B", i, "Break_AC"), "B_BREAK_AC", "I", "C", "C", false, "")
	if err != nil {
		return nil, err
	}
	cat.AddPrecedence(dhUnlock, brk)

	fzRetract, err := chain(cat, anchor, brk, indexed("B", i, "Fz_Retract"), task.Fz, dt.Get("B_FZ_CH"), "C", "H")
	if err != nil {
		return nil, err
	}

	return cat.Get(fzRetract).End, nil
}

// carouselState renders a carousel slot index as its single-character
// state label for Gantt/Sr rendering; the carousel has as many slots as
// pipes handled, cycling through '0'..'9' then 'a'..'z' for indices
// beyond nine (more than enough for any realistic N).
func carouselState(i int) string {
	if i < 10 {
		return string(rune('0' + i))
	}
	return string(rune('a' + (i - 10)))
}

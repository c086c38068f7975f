package stage

import (
	"github.com/huier-git/drillplan/internal/duration"
	"github.com/huier-git/drillplan/internal/solver"
	"github.com/huier-git/drillplan/internal/task"
)

// A builds Stage A — Install Tool (spec.md §4.3). Stage A has no
// predecessor, so it is called with the zero Anchor. It returns the
// end-variable of its final task, for Stage B(1) to anchor against and
// for the stage-cut list.
//
// Key design points carried from spec.md §4.3: Fz_Lift begins the stage;
// Me_ToHead (the "Me_Head" of spec.md §8 scenario 4) must not start
// earlier than 0.75 * A_FZ_AH seconds after Fz_Lift starts; coupling,
// drilling, and breaking each pair a primary Fz motion with a synchronized
// Pr spin (mid_state B, D, C respectively) and — as in Stage D, and
// unlike Stages B and C, since the lower clamp has no release/clamp work
// of its own until Cb_Clamp — a synchronized Cb hold alongside it;
// Cb_Clamp happens after drilling, before the upper clamp (Dh) unlocks.
func A(cat *task.Catalogue, dt *duration.Table) (*solver.IntVar, error) {
	const prefix = "A"
	var anchor Anchor // Stage A has no predecessor.

	fzLift, err := chain(cat, anchor, "", namef(prefix, "Fz_Lift"), task.Fz, dt.Get("A_FZ_AH"), "A", "H")
	if err != nil {
		return nil, err
	}

	meToStore, err := chain(cat, anchor, "", namef(prefix, "Me_ToStore"), task.Me, dt.Get("A_ME_to_store"), "H", "S")
	if err != nil {
		return nil, err
	}
	mgGrip, err := chain(cat, anchor, meToStore, namef(prefix, "Mg_Grip"), task.Mg, dt.Get("A_MG_grip"), "O", "G")
	if err != nil {
		return nil, err
	}
	meBack, err := chain(cat, anchor, mgGrip, namef(prefix, "Me_Back"), task.Me, dt.Get("A_ME_back"), "S", "H")
	if err != nil {
		return nil, err
	}
	mrToHead, err := chain(cat, anchor, meBack, namef(prefix, "Mr_ToHead"), task.Mr, dt.Get("A_MR_to_head"), "H", "D")
	if err != nil {
		return nil, err
	}
	meToHead, err := chain(cat, anchor, mrToHead, namef(prefix, "Me_ToHead"), task.Me, dt.Get("A_ME_to_head"), "H", "D")
	if err != nil {
		return nil, err
	}
	delay := truncate75(dt.Get("A_FZ_AH"))
	if err := cat.AddSafetyDelay(fzLift, meToHead, delay); err != nil {
		return nil, err
	}

	fzLower, err := chain(cat, anchor, meToHead, namef(prefix, "Fz_Lower"), task.Fz, dt.Get("A_FZ_HG"), "H", "G")
	if err != nil {
		return nil, err
	}

	couple, err := coupleOrBreak(cat, dt, namef(prefix, "Couple_GE"), "A_COUPLE_GE", "G", "E", "B", true, "B")
	if err != nil {
		return nil, err
	}
	cat.AddPrecedence(fzLower, couple)

	dhLock, err := chain(cat, anchor, couple, namef(prefix, "Dh_Lock"), task.Dh, dt.Get("A_DH_lock"), "O", "L")
	if err != nil {
		return nil, err
	}
	mgRelease, err := chain(cat, anchor, dhLock, namef(prefix, "Mg_Release"), task.Mg, dt.Get("A_MG_release"), "G", "O")
	if err != nil {
		return nil, err
	}
	meBackFromHead, err := chain(cat, anchor, mgRelease, namef(prefix, "Me_BackFromHead"), task.Me, dt.Get("A_ME_back_from_head"), "D", "H")
	if err != nil {
		return nil, err
	}
	if _, err := chain(cat, anchor, meBackFromHead, namef(prefix, "Mr_BackToStore"), task.Mr, dt.Get("A_MR_back_to_store"), "D", "H"); err != nil {
		return nil, err
	}

	drill, err := coupleOrBreak(cat, dt, namef(prefix, "Drill"), "A_DRILL", "E", "I", "D", true, "D")
	if err != nil {
		return nil, err
	}
	cat.AddPrecedence(dhLock, drill)

	cbClamp, err := chain(cat, anchor, drill, namef(prefix, "Cb_Clamp"), task.Cb, dt.Get("A_CB_clamp"), "O", "L")
	if err != nil {
		return nil, err
	}
	dhUnlock, err := chain(cat, anchor, cbClamp, namef(prefix, "Dh_Unlock"), task.Dh, dt.Get("A_DH_unlock"), "L", "O")
	if err != nil {
		return nil, err
	}

	brk, err := coupleOrBreak(cat, dt, namef(prefix, "Break_AC"), "A_BREAK_AC", "I", "C", "C", true, "C")
	if err != nil {
		return nil, err
	}
	cat.AddPrecedence(dhUnlock, brk)

	fzRetract, err := chain(cat, anchor, brk, namef(prefix, "Fz_Retract"), task.Fz, dt.Get("A_FZ_CH"), "C", "H")
	if err != nil {
		return nil, err
	}

	return cat.Get(fzRetract).End, nil
}

// truncate75 computes 0.75 * v truncated toward zero, spec.md §9's
// "only floating-point intrusion" in the model.
func truncate75(v int) int {
	return (3 * v) / 4
}

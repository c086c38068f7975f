package stage

import (
	"github.com/huier-git/drillplan/internal/duration"
	"github.com/huier-git/drillplan/internal/solver"
	"github.com/huier-git/drillplan/internal/task"
)

// D builds Stage D — Remove Tool (spec.md §4.3), the mirror of Stage A's
// coupling-break sequence with no drilling step: Fz walks H -> C -> B ->
// E -> G -> H. Like Stage A, both the coupling and the breaking step get
// a synchronized Cb hold alongside the Pr spin; the stage's only real
// lower-clamp task is a single Cb_Release between the coupling and the
// B -> E move, with no Cb clamp task of its own. D is called once, after
// the last Stage C(1), and its end-variable is the final stage cut.
func D(cat *task.Catalogue, dt *duration.Table, anchor Anchor) (*solver.IntVar, error) {
	fzHC, err := chain(cat, anchor, "", "D_Fz_HC", task.Fz, dt.Get("D_FZ_HC"), "H", "C")
	if err != nil {
		return nil, err
	}

	coupleCB, err := coupleOrBreak(cat, dt, "D_Couple_CB", "D_COUPLE_CB", "C", "B", "B", true, "B")
	if err != nil {
		return nil, err
	}
	cat.AddPrecedence(fzHC, coupleCB)

	dhLock, err := chain(cat, anchor, coupleCB, "D_Dh_Lock", task.Dh, dt.Get("D_DH_lock"), "O", "L")
	if err != nil {
		return nil, err
	}
	cbRelease, err := chain(cat, anchor, dhLock, "D_Cb_Release", task.Cb, dt.Get("D_CB_release"), "L", "O")
	if err != nil {
		return nil, err
	}

	fzBE, err := chain(cat, anchor, cbRelease, "D_Fz_BE", task.Fz, dt.Get("D_FZ_BE"), "B", "E")
	if err != nil {
		return nil, err
	}

	mrAssist, err := chain(cat, anchor, fzBE, "D_Mr_Assist", task.Mr, dt.Get("D_MR_Assist"), "H", "D")
	if err != nil {
		return nil, err
	}
	meAssist, err := chain(cat, anchor, mrAssist, "D_Me_Assist", task.Me, dt.Get("D_ME_Assist"), "H", "D")
	if err != nil {
		return nil, err
	}
	mgGrip, err := chain(cat, anchor, meAssist, "D_Mg_Grip", task.Mg, dt.Get("D_MG_Grip"), "O", "G")
	if err != nil {
		return nil, err
	}

	dhUnlock, err := chain(cat, anchor, fzBE, "D_Dh_Unlock", task.Dh, dt.Get("D_DH_unlock"), "L", "O")
	if err != nil {
		return nil, err
	}

	breakEG, err := coupleOrBreak(cat, dt, "D_Break_EG", "D_BREAK_EG", "E", "G", "C", true, "C")
	if err != nil {
		return nil, err
	}
	cat.AddPrecedence(dhUnlock, breakEG)
	cat.AddPrecedence(mgGrip, breakEG)

	fzGH, err := chain(cat, anchor, breakEG, "D_Fz_GH", task.Fz, dt.Get("D_FZ_GH"), "G", "H")
	if err != nil {
		return nil, err
	}

	meRetract, err := chain(cat, anchor, breakEG, "D_Me_Retract", task.Me, dt.Get("D_ME_Retract"), "D", "H")
	if err != nil {
		return nil, err
	}
	mrRetract, err := chain(cat, anchor, meRetract, "D_Mr_Retract", task.Mr, dt.Get("D_MR_Retract"), "D", "H")
	if err != nil {
		return nil, err
	}
	meStore, err := chain(cat, anchor, mrRetract, "D_Me_Store", task.Me, dt.Get("D_ME_Store"), "H", "S")
	if err != nil {
		return nil, err
	}
	mgRelease, err := chain(cat, anchor, meStore, "D_Mg_Release", task.Mg, dt.Get("D_MG_Release"), "G", "O")
	if err != nil {
		return nil, err
	}
	meBack, err := chain(cat, anchor, mgRelease, "D_Me_Back", task.Me, dt.Get("D_ME_Back"), "S", "H")
	if err != nil {
		return nil, err
	}

	srReset, err := chain(cat, anchor, "", "D_Sr_Reset", task.Sr, dt.Get("D_SR_Reset"), "z", "0")
	if err != nil {
		return nil, err
	}
	cat.AddPrecedence(fzGH, srReset)
	cat.AddPrecedence(meBack, srReset)

	return cat.Get(srReset).End, nil
}

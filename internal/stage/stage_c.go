package stage

import (
	"github.com/huier-git/drillplan/internal/duration"
	"github.com/huier-git/drillplan/internal/solver"
	"github.com/huier-git/drillplan/internal/task"
)

// C builds Stage C(i) — Retrieve Pipe i (spec.md §4.3), called for i
// from N down to 1 (the carousel unwinds in the opposite order it wound
// up in during Stage B). The Fz travel for this stage walks H -> C -> B
// -> I -> J -> D -> F -> H, coupling and breaking along the way; the
// Mr/Me/Mg "assist" tasks grip the freed section once Break_IJ opens it,
// then retract, store, and release it once Break_DF frees it for good.
func C(cat *task.Catalogue, dt *duration.Table, i int, anchor Anchor) (*solver.IntVar, error) {
	fzHC, err := chain(cat, anchor, "", indexed("C", i, "Fz_HC"), task.Fz, dt.Get("C_FZ_HC"), "H", "C")
	if err != nil {
		return nil, err
	}

	coupleCB, err := coupleOrBreak(cat, dt, indexed("C", i, "Couple_CB"), "C_COUPLE_CB", "C", "B", "B", false, "")
	if err != nil {
		return nil, err
	}
	cat.AddPrecedence(fzHC, coupleCB)

	dhLock, err := chain(cat, anchor, coupleCB, indexed("C", i, "Dh_Lock"), task.Dh, dt.Get("C_DH_lock"), "O", "L")
	if err != nil {
		return nil, err
	}
	cbRelease, err := chain(cat, anchor, dhLock, indexed("C", i, "Cb_Release"), task.Cb, dt.Get("C_CB_release"), "L", "O")
	if err != nil {
		return nil, err
	}

	fzBI, err := chain(cat, anchor, cbRelease, indexed("C", i, "Fz_BI"), task.Fz, dt.Get("C_FZ_BI"), "B", "I")
	if err != nil {
		return nil, err
	}
	cbClamp, err := chain(cat, anchor, fzBI, indexed("C", i, "Cb_Clamp"), task.Cb, dt.Get("C_CB_clamp"), "O", "L")
	if err != nil {
		return nil, err
	}

	breakIJ, err := coupleOrBreak(cat, dt, indexed("C", i, "Break_IJ"), "C_BREAK_IJ", "I", "J", "C", false, "")
	if err != nil {
		return nil, err
	}
	cat.AddPrecedence(cbClamp, breakIJ)

	fzJD, err := chain(cat, anchor, breakIJ, indexed("C", i, "Fz_JD"), task.Fz, dt.Get("C_FZ_JD"), "J", "D")
	if err != nil {
		return nil, err
	}

	mrAssist, err := chain(cat, anchor, breakIJ, indexed("C", i, "Mr_Assist"), task.Mr, dt.Get("C_MR_Assist"), "H", "D")
	if err != nil {
		return nil, err
	}
	meAssist, err := chain(cat, anchor, mrAssist, indexed("C", i, "Me_Assist"), task.Me, dt.Get("C_ME_Assist"), "H", "D")
	if err != nil {
		return nil, err
	}
	mgGrip, err := chain(cat, anchor, meAssist, indexed("C", i, "Mg_Grip"), task.Mg, dt.Get("C_MG_Grip"), "O", "G")
	if err != nil {
		return nil, err
	}

	dhUnlock, err := chain(cat, anchor, fzJD, indexed("C", i, "Dh_Unlock"), task.Dh, dt.Get("C_DH_unlock"), "L", "O")
	if err != nil {
		return nil, err
	}

	breakDF, err := coupleOrBreak(cat, dt, indexed("C", i, "Break_DF"), "C_BREAK_DF", "D", "F", "C", false, "")
	if err != nil {
		return nil, err
	}
	cat.AddPrecedence(dhUnlock, breakDF)
	cat.AddPrecedence(mgGrip, breakDF)

	fzFH, err := chain(cat, anchor, breakDF, indexed("C", i, "Fz_FH"), task.Fz, dt.Get("C_FZ_FH"), "F", "H")
	if err != nil {
		return nil, err
	}

	meRetract, err := chain(cat, anchor, breakDF, indexed("C", i, "Me_Retract"), task.Me, dt.Get("C_ME_Retract"), "D", "H")
	if err != nil {
		return nil, err
	}
	mrRetract, err := chain(cat, anchor, meRetract, indexed("C", i, "Mr_Retract"), task.Mr, dt.Get("C_MR_Retract"), "D", "H")
	if err != nil {
		return nil, err
	}
	meStore, err := chain(cat, anchor, mrRetract, indexed("C", i, "Me_Store"), task.Me, dt.Get("C_ME_Store"), "H", "S")
	if err != nil {
		return nil, err
	}
	mgRelease, err := chain(cat, anchor, meStore, indexed("C", i, "Mg_Release"), task.Mg, dt.Get("C_MG_Release"), "G", "O")
	if err != nil {
		return nil, err
	}
	meBack, err := chain(cat, anchor, mgRelease, indexed("C", i, "Me_Back"), task.Me, dt.Get("C_ME_Back"), "S", "H")
	if err != nil {
		return nil, err
	}

	srNext, err := chain(cat, anchor, "", indexed("C", i, "Sr_Next"), task.Sr, dt.Get("C_SR_Next"),
		carouselState(i), carouselState(i-1))
	if err != nil {
		return nil, err
	}
	cat.AddPrecedence(fzFH, srNext)
	cat.AddPrecedence(meBack, srNext)

	return cat.Get(srNext).End, nil
}

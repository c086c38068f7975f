// Package duration implements the Duration Table (spec.md §4.1): a finite,
// immutable-after-load mapping from the fixed operation keys enumerated in
// spec.md §6 to positive integer seconds. Grounded on original_source's
// scheduler.py/serial.py, which both import json/os for exactly this
// "load defaults, optionally overlay a side-file" shape; this package
// keeps that shape but implements it with encoding/json rather than
// translating the Python.
package duration

import (
	"encoding/json"
	"fmt"
	"os"
)

// Table is the immutable, fully-resolved set of duration values a stage
// builder reads from. Values are always positive integer seconds.
type Table struct {
	values map[string]int
}

// Get returns the duration for key, panicking if it is unrecognized — an
// unknown key reaching a stage builder is a programming bug (a stage
// referencing a key it never declared), not a user error.
func (t *Table) Get(key string) int {
	v, ok := t.values[key]
	if !ok {
		panic(fmt.Sprintf("duration: unrecognized key %q", key))
	}
	return v
}

// defaults holds the built-in duration for every recognized key (spec.md
// §6). These are the only keys an overlay file is permitted to change.
var defaults = map[string]int{
	// Stage A
	"A_FZ_AH": 8, "A_ME_to_store": 4, "A_MG_grip": 2, "A_ME_back": 4,
	"A_MR_to_head": 5, "A_ME_to_head": 5, "A_FZ_HG": 6, "A_COUPLE_GE": 10,
	"A_DH_lock": 3, "A_MG_release": 2, "A_ME_back_from_head": 4,
	"A_MR_back_to_store": 5, "A_DRILL": 30, "A_CB_clamp": 3, "A_DH_unlock": 3,
	"A_BREAK_AC": 10, "A_FZ_CH": 6,

	// Stage B
	"SR_INDEX": 6, "B_ME_to_store": 4, "B_MG_grip": 2, "B_ME_back": 4,
	"B_MR_to_head": 5, "B_ME_to_head": 5, "B_FZ_HF": 6, "B_COUPLE_FD": 10,
	"B_DH_lock": 3, "B_MG_release": 2, "B_ME_back_from_head": 4,
	"B_MR_back_to_store": 5, "B_FZ_DJ": 4, "B_COUPLE_JI": 10, "B_CB_release": 2,
	"B_DRILL": 30, "B_CB_clamp": 3, "B_DH_unlock": 3, "B_BREAK_AC": 10, "B_FZ_CH": 6,

	// Stage C
	"C_FZ_HC": 6, "C_COUPLE_CB": 10, "C_DH_lock": 3, "C_CB_release": 2,
	"C_FZ_BI": 4, "C_CB_clamp": 3, "C_BREAK_IJ": 10, "C_FZ_JD": 4,
	"C_MR_Assist": 5, "C_ME_Assist": 5, "C_MG_Grip": 2, "C_DH_unlock": 3,
	"C_BREAK_DF": 10, "C_FZ_FH": 6, "C_ME_Retract": 4, "C_MR_Retract": 5,
	"C_ME_Store": 4, "C_MG_Release": 2, "C_ME_Back": 4, "C_SR_Next": 6,

	// Stage D
	"D_FZ_HC": 6, "D_COUPLE_CB": 10, "D_DH_lock": 3, "D_CB_release": 2,
	"D_FZ_BE": 6, "D_MR_Assist": 5, "D_ME_Assist": 5, "D_MG_Grip": 2,
	"D_DH_unlock": 3, "D_BREAK_EG": 10, "D_FZ_GH": 6, "D_SR_Reset": 6,
	"D_ME_Retract": 4, "D_MR_Retract": 5, "D_ME_Store": 4, "D_MG_Release": 2,
	"D_ME_Back": 4,
}

// Default returns the built-in duration table, independent of any overlay.
func Default() *Table {
	cp := make(map[string]int, len(defaults))
	for k, v := range defaults {
		cp[k] = v
	}
	return &Table{values: cp}
}

// LoadOverlay builds a Table starting from Default() and overlays values
// found in the JSON file at path. Per spec.md §4.1/§7 (ConfigError):
//   - a missing file is not an error — the defaults are used as-is.
//   - a malformed file or non-object root produces a warning (returned
//     as a non-nil, non-fatal warning string) and the defaults are used.
//   - unknown keys in the file are silently ignored.
//   - non-integer or non-positive values for a known key are reported in
//     the returned warning and that key's default is kept.
func LoadOverlay(path string) (*Table, string) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, ""
		}
		return t, fmt.Sprintf("duration: could not read %s: %v (using defaults)", path, err)
	}

	var overlay map[string]json.Number
	if err := json.Unmarshal(raw, &overlay); err != nil {
		return t, fmt.Sprintf("duration: %s is not a JSON object of key/value pairs: %v (using defaults)", path, err)
	}

	var warnings string
	for key, num := range overlay {
		if _, known := defaults[key]; !known {
			continue // unknown keys are silently ignored
		}
		iv, err := num.Int64()
		if err != nil || iv <= 0 {
			warnings += fmt.Sprintf("duration: ignoring non-integer/non-positive override for %q\n", key)
			continue
		}
		t.values[key] = int(iv)
	}
	return t, warnings
}

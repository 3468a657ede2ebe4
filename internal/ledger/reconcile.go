// Implements the reconciliation step that dedups candidate records.

package ledger

// Reconcile decides whether candidate belongs in the ledger. It scans the
// existing rows for an exact identity-tuple match; when none is found the
// candidate is appended at the end. All-empty rows are always filtered out,
// whether or not the candidate was appended. The inputs are not mutated.
func Reconcile(existing []Record, candidate Record) ([]Record, bool) {
	appended := true
	for _, r := range existing {
		if r.Key() == candidate.Key() {
			appended = false
			break
		}
	}

	out := make([]Record, 0, len(existing)+1)
	for _, r := range existing {
		if !r.IsEmpty() {
			out = append(out, r)
		}
	}
	if appended && !candidate.IsEmpty() {
		out = append(out, candidate)
	}
	return out, appended
}

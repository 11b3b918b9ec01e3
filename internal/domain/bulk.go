package domain

// BulkAction is the enumerated set of operations a bulk mutation can apply.
type BulkAction string

const (
	ActionUpdateStatus BulkAction = "update_status"
	ActionAddTag       BulkAction = "add_tag"
	ActionRemoveTag    BulkAction = "remove_tag"
)

// VersionMissing is the sentinel reported in a conflict when a version is
// absent on either side: the id is missing from the request's version map,
// or the row does not exist.
const VersionMissing int64 = -1

// BulkRequest applies one action to a set of projects, guarded by the
// versions the caller last observed. Target order is irrelevant.
type BulkRequest struct {
	Action    BulkAction      `json:"action"`
	IDs       []int64         `json:"ids"`
	Versions  map[int64]int64 `json:"versions"`
	NewStatus string          `json:"new_status,omitempty"`
	Tag       string          `json:"tag,omitempty"`
}

// BulkConflict records one target whose expected version did not match.
type BulkConflict struct {
	ID       int64 `json:"id"`
	Expected int64 `json:"expected"`
	Found    int64 `json:"found"`
}

// BulkResult is the outcome of a bulk mutation: either everything that had a
// non-empty delta was applied, or nothing was and Conflicts lists every
// mismatched target. Partial application never happens.
type BulkResult struct {
	UpdatedCount int            `json:"updated_count"`
	Conflicts    []BulkConflict `json:"conflicts,omitempty"`
}

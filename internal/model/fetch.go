package model

// OpKind identifies a logical lookup operation. Generations and fetch
// states are tracked per kind.
type OpKind string

const (
	OpSearch OpKind = "search"
	OpEnrich OpKind = "enrich"
	OpPlaces OpKind = "places"
)

// AllOpKinds returns every lookup kind.
func AllOpKinds() []OpKind {
	return []OpKind{OpSearch, OpEnrich, OpPlaces}
}

// FetchStatus is the lifecycle tag of a lookup kind.
type FetchStatus string

const (
	FetchIdle      FetchStatus = "idle"
	FetchLoading   FetchStatus = "loading"
	FetchSucceeded FetchStatus = "succeeded"
	FetchFailed    FetchStatus = "failed"
)

// FetchState is the status of the latest generation issued for a kind.
// Reason is set only when Status is FetchFailed.
type FetchState struct {
	Status     FetchStatus `json:"status"`
	Reason     string      `json:"reason,omitempty"`
	ErrorKind  ErrorKind   `json:"error_kind,omitempty"`
	Generation uint64      `json:"generation"`
}

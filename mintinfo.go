package cashubind

// MintInfoOutcome tags the result of the best-effort mint metadata lookup.
type MintInfoOutcome string

const (
	// MintInfoAlreadyCached means the engine already had mint metadata.
	MintInfoAlreadyCached MintInfoOutcome = "already_cached"
	// MintInfoFetchedAndCached means a keyset fetch pulled the metadata in.
	MintInfoFetchedAndCached MintInfoOutcome = "fetched_and_cached"
	// MintInfoPartiallyAvailable means keysets loaded but metadata is still
	// missing.
	MintInfoPartiallyAvailable MintInfoOutcome = "partially_available"
	// MintInfoFetchFailed means the keyset fetch itself failed; Reason holds
	// the detail.
	MintInfoFetchFailed MintInfoOutcome = "fetch_failed"
)

// MintInfoStatus reports how far the cache-or-fetch of mint metadata got.
// Degraded outcomes are values here, not errors: GetMintInfo is best-effort
// and callers are not meant to branch on an error path for it.
type MintInfoStatus struct {
	Outcome MintInfoOutcome
	// Name is the mint's display name when known.
	Name string
	// Keysets is the number of keysets loaded when a fetch happened.
	Keysets int
	// Reason carries the failure detail for MintInfoFetchFailed.
	Reason string
}

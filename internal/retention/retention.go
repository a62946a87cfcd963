// Package retention decides what happens to a campaign's previous
// snapshots when a new save lands.
//
// The two policies encode mutually incompatible archive models sharing one
// manifest and index shape: KeepAll grows an append-only log of snapshots,
// ReplacePrevious keeps a single mutable slot per campaign. A deployment
// selects one through configuration; the engine never tries to guess which
// model an existing archive tree follows.
package retention

import "github.com/cockroachdb/errors"

// Decision is a policy's answer for one new save.
type Decision int

const (
	// Keep appends the new snapshot alongside the campaign's previous ones.
	Keep Decision = iota

	// Replace removes the campaign's previous snapshots, catalog entries
	// and archived files both, once the new snapshot is fully in place.
	Replace
)

// Policy is consulted once per archive operation, after transfers and the
// manifest write succeed and before index registration.
type Policy interface {
	OnNewSave(campaignID string) Decision

	// Name is the config string selecting this policy.
	Name() string
}

// Config strings naming the policies.
const (
	NameKeepAll         = "keep_all"
	NameReplacePrevious = "replace_previous"
)

// KeepAll is the append-only model: every snapshot is preserved and the
// catalog orders them by recency.
type KeepAll struct{}

func (KeepAll) OnNewSave(string) Decision { return Keep }
func (KeepAll) Name() string              { return NameKeepAll }

// ReplacePrevious is the single-slot model: registering a new save drops
// the campaign's previous snapshot from the catalog and deletes its
// archived files. The previous save stays intact until the new one is
// cataloged, so a failure mid-archive never costs the old state.
type ReplacePrevious struct{}

func (ReplacePrevious) OnNewSave(string) Decision { return Replace }
func (ReplacePrevious) Name() string              { return NameReplacePrevious }

// FromString maps a config value to its policy. The empty string selects
// KeepAll.
func FromString(name string) (Policy, error) {
	switch name {
	case "", NameKeepAll:
		return KeepAll{}, nil
	case NameReplacePrevious:
		return ReplacePrevious{}, nil
	default:
		return nil, errors.Newf("unknown retention policy %q", name)
	}
}

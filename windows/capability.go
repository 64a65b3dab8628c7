package windows

import (
	"sort"
	"strings"

	"github.com/frantjc/appx"
	"github.com/frantjc/appx/internal/appxregexp"
	xslice "github.com/frantjc/x/slice"
)

// UapPrefix is the namespace token prepended to capability element
// names that need a secondary declaration in unified manifests.
const UapPrefix = "uap"

// CapabilitiesNeedingUapPrefix are the capability names whose
// declarations must additionally be emitted under the uap namespace
// in unified manifests.
var CapabilitiesNeedingUapPrefix = []string{
	"documentsLibrary",
	"picturesLibrary",
	"videosLibrary",
	"musicLibrary",
	"enterpriseAuthentication",
	"sharedUserCertificates",
	"removableStorage",
	"appointments",
	"contacts",
	"userAccountInformation",
	"phoneCall",
	"blockedChatMessages",
	"objects3D",
	"voipCall",
	"chat",
}

// CapabilityName returns the capability name the change declares,
// derived from its XML fragment. The name is always recomputed from
// the fragment, never cached, so rewrites by earlier pipeline stages
// cannot leave it stale.
func CapabilityName(change appx.Change) string {
	return appxregexp.ExtractCapabilityName(change.XML)
}

// IsCapabilityChange reports whether the change's fragment declares a
// Capability or DeviceCapability element.
func IsCapabilityChange(change appx.Change) bool {
	return appxregexp.IsCapabilityElement(change.XML)
}

// DedupeCapabilities keeps the first change declaring each capability
// name and discards the rest, preserving input order.
func DedupeCapabilities(changes []appx.Change) []appx.Change {
	var (
		deduped = []appx.Change{}
		seen    = map[string]bool{}
	)
	for _, change := range changes {
		if name := CapabilityName(change); !seen[name] {
			seen[name] = true
			deduped = append(deduped, change.Clone())
		}
	}

	return deduped
}

// SortCapabilities orders changes by capability name so that repeated
// installs produce diff-stable manifests no matter what order plugins
// were processed in. The sort is stable and the comparison ordinal.
func SortCapabilities(changes []appx.Change) []appx.Change {
	sorted := xslice.Map(changes, func(change appx.Change, _ int) appx.Change {
		return change.Clone()
	})

	sort.SliceStable(sorted, func(i, j int) bool {
		return CapabilityName(sorted[i]) < CapabilityName(sorted[j])
	})

	return sorted
}

// PrefixPolicy selects how capability changes are projected onto
// their uap-namespaced counterparts.
type PrefixPolicy string

const (
	// PrefixPolicyWhitelist prefixes only capabilities in
	// CapabilitiesNeedingUapPrefix; the rest contribute nothing to
	// the derived munge.
	PrefixPolicyWhitelist PrefixPolicy = "whitelist"
	// PrefixPolicyAll prefixes every capability change and keeps
	// every selector of the source munge present in the derived one,
	// empty when nothing under it matched.
	PrefixPolicyAll PrefixPolicy = "all"
)

// GenerateUapCapabilities derives the uap-namespaced counterparts of
// the capability changes under each selector of munge, per policy.
// Derived changes carry only the rewritten fragment plus the original
// count and before anchor; they are merged back into the same
// selector as their originals.
func GenerateUapCapabilities(munge *appx.Munge, policy PrefixPolicy) *appx.Munge {
	prefixed := appx.NewMunge()

	for parent, changes := range munge.Parents {
		if policy == PrefixPolicyAll {
			prefixed.Parents[parent] = []appx.Change{}
		}

		for _, change := range changes {
			if !IsCapabilityChange(change) {
				continue
			}

			if policy != PrefixPolicyAll && !xslice.Includes(CapabilitiesNeedingUapPrefix, CapabilityName(change)) {
				continue
			}

			prefixed.Add(parent, prefixCapability(change))
		}
	}

	return prefixed
}

// prefixCapability clones the change with the first textual occurrence
// of its capability element name rewritten under the uap prefix.
func prefixCapability(change appx.Change) appx.Change {
	name, _ := appxregexp.CapabilityElementName(change.XML)

	return appx.Change{
		XML:    strings.Replace(change.XML, name, UapPrefix+":"+name, 1),
		Count:  change.Count,
		Before: change.Before,
	}
}

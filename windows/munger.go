package windows

import (
	"context"

	"github.com/frantjc/appx"
)

// BaseMunger is the merge engine that turns flat change lists into
// munges and actually splices XML into manifest files. The windows
// Munger wraps one, layering demultiplexing and capability handling
// around its primitives.
type BaseMunger interface {
	// ApplyFileMunge splices the munge's fragments into the target
	// file, or removes them from it, and persists the result.
	ApplyFileMunge(ctx context.Context, file string, munge *appx.Munge, remove bool) error
	// GeneratePluginConfigMunge groups a flat change list by parent
	// selector, substituting vars into fragment templates.
	GeneratePluginConfigMunge(changes []appx.Change, pluginID string, vars map[string]string) (*appx.Munge, error)
}

// Munger projects plugin change-sets onto Windows manifest files. It
// holds no state across operations beyond its configuration; callers
// must serialize operations touching the same project.
type Munger struct {
	Base         BaseMunger
	Table        ManifestTable
	PrefixPolicy PrefixPolicy
}

func (m *Munger) table() ManifestTable {
	if m.Table == nil {
		return DefaultManifestTable
	}

	return m.Table
}

func (m *Munger) prefixPolicy() PrefixPolicy {
	if m.PrefixPolicy == "" {
		return PrefixPolicyWhitelist
	}

	return m.PrefixPolicy
}

// GeneratePluginConfigMunge demultiplexes the changes, along with any
// caller-supplied edit-config changes, then delegates to the base
// munge generator. Edit-config changes are concatenated before the
// demux so they are subject to the same version and device-target
// expansion as plugin-declared ones.
func (m *Munger) GeneratePluginConfigMunge(changes []appx.Change, pluginID string, vars map[string]string, editConfigChanges []appx.Change) (*appx.Munge, error) {
	all := append(append([]appx.Change{}, changes...), editConfigChanges...)

	demuxed, err := m.table().Demux(all)
	if err != nil {
		return nil, err
	}

	return m.Base.GeneratePluginConfigMunge(demuxed, pluginID, vars)
}

// ApplyFileMunge applies or removes the munge against the given
// manifest file. The abstract package manifest fans out to every
// concrete manifest the table knows of. On the unified manifest,
// capability changes are deduplicated, canonically sorted, and
// augmented with their uap-prefixed counterparts on install; on
// uninstall the prefixed counterparts are re-derived from the munge
// being removed and removed in a second pass, since they were never
// independently recorded.
func (m *Munger) ApplyFileMunge(ctx context.Context, file string, munge *appx.Munge, remove bool) error {
	if file == PackageManifestName {
		for _, manifest := range m.table().Manifests() {
			if err := m.ApplyFileMunge(ctx, manifest, munge, remove); err != nil {
				return err
			}
		}

		return nil
	}

	if file != Windows10ManifestName || len(munge.Parents[CapabilitiesSelector]) == 0 {
		return m.Base.ApplyFileMunge(ctx, file, munge, remove)
	}

	if remove {
		if err := m.Base.ApplyFileMunge(ctx, file, munge, true); err != nil {
			return err
		}

		return m.Base.ApplyFileMunge(ctx, file, GenerateUapCapabilities(munge, m.prefixPolicy()), true)
	}

	var (
		normalized = munge.Clone()
		caps       = SortCapabilities(DedupeCapabilities(normalized.Parents[CapabilitiesSelector]))
	)
	normalized.Parents[CapabilitiesSelector] = caps

	for parent, changes := range GenerateUapCapabilities(normalized, m.prefixPolicy()).Parents {
		normalized.Add(parent, changes...)
	}

	return m.Base.ApplyFileMunge(ctx, file, normalized, false)
}

// AddConfigChanges installs a plugin's change-set: demultiplex,
// generate the munge per target file, and apply each one.
func (m *Munger) AddConfigChanges(ctx context.Context, changes []appx.Change, pluginID string, vars map[string]string, editConfigChanges []appx.Change) error {
	return m.configChanges(ctx, changes, pluginID, vars, editConfigChanges, false)
}

// RemoveConfigChanges reverses AddConfigChanges for the same
// change-set. Removal passes every original change through, never
// deduplicating, so exactly what was added gets removed.
func (m *Munger) RemoveConfigChanges(ctx context.Context, changes []appx.Change, pluginID string, vars map[string]string, editConfigChanges []appx.Change) error {
	return m.configChanges(ctx, changes, pluginID, vars, editConfigChanges, true)
}

func (m *Munger) configChanges(ctx context.Context, changes []appx.Change, pluginID string, vars map[string]string, editConfigChanges []appx.Change, remove bool) error {
	all := append(append([]appx.Change{}, changes...), editConfigChanges...)

	demuxed, err := m.table().Demux(all)
	if err != nil {
		return err
	}

	var (
		targets  = []string{}
		byTarget = map[string][]appx.Change{}
	)
	for _, change := range demuxed {
		if _, ok := byTarget[change.Target]; !ok {
			targets = append(targets, change.Target)
		}

		byTarget[change.Target] = append(byTarget[change.Target], change)
	}

	for _, target := range targets {
		munge, err := m.Base.GeneratePluginConfigMunge(byTarget[target], pluginID, vars)
		if err != nil {
			return err
		}

		if err = m.ApplyFileMunge(ctx, target, munge, remove); err != nil {
			return err
		}
	}

	return nil
}

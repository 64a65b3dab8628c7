package windows

import (
	"fmt"
	"strings"

	"github.com/blang/semver/v4"
	"github.com/frantjc/appx"
	xslice "github.com/frantjc/x/slice"
)

var deviceTargets = []string{DeviceTargetWindows, DeviceTargetPhone, DeviceTargetAll}

// Demux expands each change targeting the abstract package manifest
// into concrete per-manifest changes, one per manifest file serving
// the change's device target at each schema version satisfying its
// versions range. Changes with a concrete target, or with neither
// qualifier set, pass through untouched.
//
// Unknown device targets are coerced to "all" rather than rejected.
// A malformed versions range aborts the whole call.
func (t ManifestTable) Demux(changes []appx.Change) ([]appx.Change, error) {
	demuxed := []appx.Change{}

	for _, change := range changes {
		if change.Target != PackageManifestName || (change.Versions == "" && change.DeviceTarget == "") {
			demuxed = append(demuxed, change)
			continue
		}

		deviceTarget := change.DeviceTarget
		if !xslice.Includes(deviceTargets, deviceTarget) {
			deviceTarget = DeviceTargetAll
		}

		var versions semver.Range
		if change.Versions != "" {
			var err error
			if versions, err = parseRange(change.Versions); err != nil {
				return nil, fmt.Errorf("parse versions %q: %w", change.Versions, err)
			}
		}

		for _, version := range t {
			if versions != nil {
				schemaVersion, err := semver.Parse(version.SchemaVersion)
				if err != nil {
					return nil, err
				}

				if !versions(schemaVersion) {
					continue
				}
			}

			for _, manifest := range version.Targets[deviceTarget] {
				concrete := change.Clone()
				concrete.Target = manifest
				demuxed = append(demuxed, concrete)
			}
		}
	}

	return demuxed, nil
}

// parseRange parses a semver range expression, expanding the caret
// and tilde shorthands that semver.ParseRange has no grammar for.
func parseRange(expr string) (semver.Range, error) {
	fields := strings.Fields(expr)

	for i, field := range fields {
		if len(field) < 2 || (field[0] != '^' && field[0] != '~') {
			continue
		}

		version, err := semver.Parse(field[1:])
		if err != nil {
			return nil, err
		}

		upper := version
		switch {
		case field[0] == '~':
			upper.Minor++
			upper.Patch = 0
		case version.Major == 0 && version.Minor == 0:
			upper.Patch++
		case version.Major == 0:
			upper.Minor++
			upper.Patch = 0
		default:
			upper.Major++
			upper.Minor = 0
			upper.Patch = 0
		}
		upper.Pre = nil

		fields[i] = fmt.Sprintf(">=%s <%s", version, upper)
	}

	return semver.ParseRange(strings.Join(fields, " "))
}

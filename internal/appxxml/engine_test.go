package appxxml

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/xml"
	"os"
	"path/filepath"
	"testing"

	"github.com/frantjc/appx"
	"github.com/frantjc/appx/windows"
)

var (
	//go:embed package.windows10.test.appxmanifest
	data []byte
)

func tmpProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, windows.Windows10ManifestName), data, 0o644); err != nil {
		t.Error(err)
		t.FailNow()
	}

	return dir
}

func decodeManifest(t *testing.T, dir string) *windows.Manifest {
	t.Helper()

	b, err := os.ReadFile(filepath.Join(dir, windows.Windows10ManifestName))
	if err != nil {
		t.Error(err)
		t.FailNow()
	}

	manifest := &windows.Manifest{}
	if err = xml.NewDecoder(bytes.NewReader(b)).Decode(manifest); err != nil {
		t.Error(err)
		t.FailNow()
	}

	return manifest
}

func TestGeneratePluginConfigMunge(t *testing.T) {
	engine := &Engine{}

	munge, err := engine.GeneratePluginConfigMunge(
		[]appx.Change{
			{
				Parent: "/Package/Identity",
				XML:    `<Identity Name="$PACKAGE_NAME" />`,
			},
			{
				Parent: windows.CapabilitiesSelector,
				XML:    `<Capability Name="internetClient" />`,
			},
			{
				Parent: windows.CapabilitiesSelector,
				XML:    `<Capability Name="microphone" />`,
				Count:  2,
			},
		},
		"test-plugin",
		map[string]string{"PACKAGE_NAME": "io.appx.testapp"},
	)
	if err != nil {
		t.Error(err)
		t.FailNow()
	}

	if len(munge.Parents) != 2 {
		t.Error("expected 2 selectors, got", len(munge.Parents))
		t.FailNow()
	}

	identity := munge.Parents["/Package/Identity"]
	if len(identity) != 1 || identity[0].XML != `<Identity Name="io.appx.testapp" />` {
		t.Error("expected vars to be substituted into the fragment")
	}

	caps := munge.Parents[windows.CapabilitiesSelector]
	if len(caps) != 2 {
		t.Error("expected 2 capability changes, got", len(caps))
		t.FailNow()
	}

	if caps[0].Count != 1 || caps[1].Count != 2 {
		t.Error("expected counts to default to 1")
	}
}

func TestApplyFileMunge(t *testing.T) {
	var (
		ctx    = context.Background()
		dir    = tmpProject(t)
		engine = &Engine{Dir: dir}
		munge  = appx.NewMunge()
	)
	munge.Add(windows.CapabilitiesSelector, appx.Change{
		XML:   `<DeviceCapability Name="microphone" />`,
		Count: 1,
	})

	if err := engine.ApplyFileMunge(ctx, windows.Windows10ManifestName, munge, false); err != nil {
		t.Error(err)
		t.FailNow()
	}

	manifest := decodeManifest(t, dir)
	if len(manifest.Capabilities.DeviceCapabilities) != 1 {
		t.Error("expected the device capability to be spliced in")
	}

	if err := engine.ApplyFileMunge(ctx, windows.Windows10ManifestName, munge, true); err != nil {
		t.Error(err)
		t.FailNow()
	}

	manifest = decodeManifest(t, dir)
	if len(manifest.Capabilities.DeviceCapabilities) != 0 {
		t.Error("expected the device capability to be pruned back out")
	}

	if len(manifest.Capabilities.Capabilities) != 1 || manifest.Capabilities.Capabilities[0].Name() != "internetClient" {
		t.Error("expected the preexisting capability to be untouched")
	}
}

func TestApplyFileMungeMissingFile(t *testing.T) {
	engine := &Engine{Dir: t.TempDir()}

	if err := engine.ApplyFileMunge(context.Background(), windows.Windows10ManifestName, appx.NewMunge(), false); err == nil {
		t.Error("expected an error for a missing manifest")
	}
}

func TestInstallUninstallSymmetry(t *testing.T) {
	var (
		ctx    = context.Background()
		dir    = tmpProject(t)
		munger = &windows.Munger{
			Base: &Engine{Dir: dir},
		}
		changes = []appx.Change{
			{
				Target:   windows.PackageManifestName,
				Parent:   windows.CapabilitiesSelector,
				XML:      `<Capability Name="picturesLibrary" />`,
				Versions: "10.0.0",
			},
			{
				Target:   windows.PackageManifestName,
				Parent:   windows.CapabilitiesSelector,
				XML:      `<Capability Name="microphone" />`,
				Versions: "10.0.0",
			},
			{
				Target:   windows.PackageManifestName,
				Parent:   windows.CapabilitiesSelector,
				XML:      `<Capability Name="picturesLibrary" />`,
				Versions: "10.0.0",
			},
		}
	)

	if err := munger.AddConfigChanges(ctx, changes, "test-plugin", nil, nil); err != nil {
		t.Error(err)
		t.FailNow()
	}

	manifest := decodeManifest(t, dir)

	caps := manifest.Capabilities.Capabilities
	if len(caps) != 4 {
		t.Error("expected internetClient, microphone, picturesLibrary and uap:picturesLibrary, got", len(caps))
		t.FailNow()
	}

	var prefixed *windows.ManifestCapability
	for i := range caps {
		if caps[i].Prefixed() {
			if prefixed != nil {
				t.Error("expected exactly one prefixed capability")
			}

			prefixed = &caps[i]
		}
	}

	if prefixed == nil || prefixed.Name() != "picturesLibrary" {
		t.Error("expected a uap-prefixed picturesLibrary capability")
		t.FailNow()
	}

	if err := munger.RemoveConfigChanges(ctx, changes, "test-plugin", nil, nil); err != nil {
		t.Error(err)
		t.FailNow()
	}

	manifest = decodeManifest(t, dir)

	// The capability list is back to its pre-install state, with no
	// orphaned namespaced duplicates left behind.
	caps = manifest.Capabilities.Capabilities
	if len(caps) != 1 || caps[0].Name() != "internetClient" || caps[0].Prefixed() {
		t.Error("expected the manifest to be restored to its pre-install state")
	}

	if len(manifest.Capabilities.DeviceCapabilities) != 0 {
		t.Error("expected no device capabilities to be left behind")
	}
}

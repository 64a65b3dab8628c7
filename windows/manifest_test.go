package windows_test

import (
	"bytes"
	_ "embed"
	"encoding/xml"
	"testing"

	"github.com/frantjc/appx/windows"
)

var (
	//go:embed package.windows10.test.appxmanifest
	data []byte
)

func TestUnmarshalAppxManifest(t *testing.T) {
	manifest := &windows.Manifest{}
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(manifest); err != nil {
		t.Error(err)
		t.FailNow()
	}

	caps := manifest.Capabilities.Capabilities
	if len(caps) != 2 {
		t.Error("expected 2 capabilities, got", len(caps))
		t.FailNow()
	}

	if caps[0].Name() != "internetClient" || caps[0].Prefixed() {
		t.Error("expected an unprefixed internetClient capability")
	}

	if caps[1].Name() != "documentsLibrary" || !caps[1].Prefixed() {
		t.Error("expected a uap-prefixed documentsLibrary capability")
	}

	deviceCaps := manifest.Capabilities.DeviceCapabilities
	if len(deviceCaps) != 1 || deviceCaps[0].Name() != "microphone" {
		t.Error("expected a microphone device capability")
	}
}

func TestManifestTableResolve(t *testing.T) {
	for _, testcase := range []struct {
		deviceTarget  string
		schemaVersion string
		manifests     []string
	}{
		{windows.DeviceTargetWindows, "8.1.0", []string{windows.WindowsManifestName}},
		{windows.DeviceTargetPhone, "8.1.0", []string{windows.PhoneManifestName}},
		{windows.DeviceTargetAll, "8.1.0", []string{windows.WindowsManifestName, windows.PhoneManifestName}},
		{windows.DeviceTargetWindows, "10.0.0", []string{windows.Windows10ManifestName}},
		{windows.DeviceTargetPhone, "10.0.0", []string{windows.Windows10ManifestName}},
		{windows.DeviceTargetAll, "10.0.0", []string{windows.Windows10ManifestName}},
		{windows.DeviceTargetAll, "11.0.0", nil},
	} {
		manifests := windows.DefaultManifestTable.Resolve(testcase.deviceTarget, testcase.schemaVersion)
		if len(manifests) != len(testcase.manifests) {
			t.Error(testcase.deviceTarget, testcase.schemaVersion, "expected", testcase.manifests, "got", manifests)
			continue
		}

		for i := range manifests {
			if manifests[i] != testcase.manifests[i] {
				t.Error(testcase.deviceTarget, testcase.schemaVersion, "expected", testcase.manifests, "got", manifests)
			}
		}
	}
}

func TestManifestTableManifests(t *testing.T) {
	manifests := windows.DefaultManifestTable.Manifests()

	expected := []string{
		windows.WindowsManifestName,
		windows.PhoneManifestName,
		windows.Windows10ManifestName,
	}
	if len(manifests) != len(expected) {
		t.Error("expected", expected, "got", manifests)
		t.FailNow()
	}

	for i := range expected {
		if manifests[i] != expected[i] {
			t.Error("expected", expected, "got", manifests)
		}
	}
}

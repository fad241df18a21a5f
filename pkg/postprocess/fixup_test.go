package postprocess

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	pkgerrors "github.com/glorpus-work/gamekeep/pkg/errors"
	"github.com/glorpus-work/gamekeep/pkg/platform"
	"github.com/glorpus-work/gamekeep/test/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixups_Run(t *testing.T) {
	scripts := t.TempDir()
	install := t.TempDir()

	tests := []struct {
		name    string
		script  string
		wantErr bool
	}{
		{
			name:   "missing script is a no-op",
			script: "",
		},
		{
			name: "variables are exposed",
			script: `
text := import("text")
if !text.has_suffix(targetFile, "Client-Win64-Shipping.exe") || version != "1.2.0" || manifestID != "wuwa_global" {
	err = "unexpected context"
}
`,
		},
		{
			name: "script writes into the install",
			script: `
os := import("os")
f := os.create(installDir + "/fixup.log")
f.write_string(version)
f.close()
`,
		},
		{
			name:    "script reports failure",
			script:  `err = "patch signature not found"`,
			wantErr: true,
		},
		{
			name:    "runtime error",
			script:  `undefined_function()`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFixups(scripts)
			_ = os.Remove(f.ScriptPath("wuwa_global"))
			if tt.script != "" {
				testutil.WriteFile(t, scripts, "wuwa_global.tengo", []byte(tt.script))
			}

			err := f.Run(context.Background(), FixupContext{
				ManifestID: "wuwa_global",
				InstallDir: install,
				TargetFile: filepath.Join(install, "Client", "Binaries", "Win64", "Client-Win64-Shipping.exe"),
				Version:    "1.2.0",
			})
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, pkgerrors.ErrFixupFailed)
				return
			}
			require.NoError(t, err)
		})
	}

	got, err := os.ReadFile(filepath.Join(install, "fixup.log"))
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", string(got))
}

func TestFixups_PrefersPlatformVariant(t *testing.T) {
	scripts := t.TempDir()
	install := t.TempDir()
	f := NewFixups(scripts)

	generic := testutil.WriteFile(t, scripts, "wuwa_global.tengo", []byte(`err = "generic script used"`))
	assert.Equal(t, generic, f.ScriptPath("wuwa_global"))

	host := platform.CurrentPlatform()
	specific := testutil.WriteFile(t, filepath.Join(scripts, host.OS+"-"+host.Arch), "wuwa_global.tengo", []byte(`
if platform != expected || hostOS == "" {
	err = "unexpected platform " + platform
}
`))
	assert.Equal(t, specific, f.ScriptPath("wuwa_global"))

	err := f.Run(context.Background(), FixupContext{
		ManifestID: "wuwa_global",
		InstallDir: install,
		Vars:       map[string]interface{}{"expected": host.String()},
	})
	require.NoError(t, err)
}

package resio

import "github.com/spf13/afero"

// DefaultFs backs path, file: and prefix resources of every Loader built
// without Builder.WithFilesystem, and is where LoadConfig reads its file
// unless WithConfigFs is given. It is the OS filesystem by default.
//
// Tests can point all of them at memory in one step:
//
//	func TestMain(m *testing.M) {
//	    mem := afero.NewMemMapFs()
//	    _ = afero.WriteFile(mem, "/etc/resio.yaml", []byte("baseDir: /srv"), 0o644)
//	    resio.SetDefaultFs(mem)
//	    code := m.Run()
//	    resio.ResetDefaultFs()
//	    os.Exit(code)
//	}
var DefaultFs afero.Fs = afero.NewOsFs()

// SetDefaultFs replaces DefaultFs. Loaders keep the filesystem they were
// built with, so only later Build and LoadConfig calls are affected.
//
// Not safe to call while other goroutines build loaders or load config;
// prefer Builder.WithFilesystem and WithConfigFs in parallel tests.
func SetDefaultFs(fs afero.Fs) {
	DefaultFs = fs
}

// ResetDefaultFs restores DefaultFs to the OS filesystem.
func ResetDefaultFs() {
	DefaultFs = afero.NewOsFs()
}

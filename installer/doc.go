// Package installer defines composition-root units that populate a scope.
//
// An Installer registers services into either the Global scope or a
// Session scope. Installers run in two phases: every Install first, then
// every Initialize of installers that also implement Initializer, so
// initialization code can resolve anything the installers registered.
//
// # Interfaces
//
//   - Installer: Name, Target and Install
//   - Initializer: optional second phase run after all installs
//   - Describable: optional one-line description for the startup summary
//
// # Usage
//
//	reg := installer.NewRegistry()
//	reg.Register(installer.New("logging", installer.Global, func(s *di.Scope) error {
//	    return di.RegisterSingleton(s, newLogger)
//	}))
//	err := reg.Apply(installer.Global, root.Global())
package installer

// Package root manages the two-level scope tree of an application: one
// Global scope that lives for the whole process and at most one Session
// scope parented to it.
//
// Sessions are switched with BeginSession and EndSession. Beginning a new
// session fully disposes the previous one before the new scope is handed
// out. Lookups through Get try the active session first and fall back to
// Global.
//
//	r := root.New(root.WithScopeOptions(di.WithValidation(true)))
//	di.RegisterSingleton(r.Global(), newLogger)
//
//	session, err := r.BeginSession()
//	di.RegisterSingleton(session, newRepository)
//
//	repo, err := root.Get[Repository](r)
//	...
//	r.Shutdown()
package root

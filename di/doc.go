// Package di provides a lifetime-scoped dependency injection container.
//
// A Scope maps service types to registrations with one of three lifetimes:
// Instance (pre-built), LazySingleton (built once on first resolution) and
// Transient (built on every resolution). Scopes form a tree: a child falls
// back to its parent for anything it does not register itself, and concrete
// types that nobody registered can still be built from constructors declared
// with AddConstructor.
//
// # Registration
//
//	global := di.NewScope(di.WithName("global"))
//	di.RegisterInstance[Clock](global, systemClock{})
//	di.RegisterSingleton(global, func(r di.Resolver) (*Logger, error) {
//	    return NewLogger(), nil
//	})
//	di.ProvideSingleton[Repository](session, NewSQLRepository)
//	di.AddConstructor(global, NewReportService)
//
// # Resolution
//
//	repo, err := di.Resolve[Repository](session)
//	if clock, ok := di.TryResolve[Clock](session); ok { ... }
//	svc := di.MustResolve[*ReportService](session)
//
// # Teardown
//
//	session.Dispose() // disposes owned singletons that implement Disposable or io.Closer
package di

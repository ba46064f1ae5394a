// Package bootstrap hosts a lifescope root container inside an application.
//
// It loads typed configuration, initializes logging and telemetry, applies
// global installers at startup and session installers on every
// BeginSession, and tears everything down on OS signals.
//
// # Quick Start
//
//	var cfg DemoConfig
//	_ = config.LoadConfig("demo", &cfg)
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app.Install(loggingInstaller, repositoryInstaller)
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package bootstrap

// Package service provides the provider registry for automation tooling.
//
// The registry maintains a catalog of provider plugins and routes tool
// invocations to them. A tool ID is "<service>.<tool>"; the service half
// selects the provider, which handles the rest.
//
// Example Usage:
//
//	registry := service.NewRegistry()
//	registry.Register(pauseProvider)
//	result, err := registry.Execute(ctx, "pause.run", params, runCtx)
package service

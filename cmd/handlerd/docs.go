package main

// General API documentation for swaggo. Run `swag init -g cmd/handlerd/docs.go` to generate docs.
//
// @title           handlerd API
// @version         1.0
// @description     HTTP API hosting one batch handler: manifests, status and predictions.
//
// @contact.name   handlerd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http

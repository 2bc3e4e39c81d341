package main

// General API documentation for swaggo. The generated document lives in
// internal/apidocs and is served under /swagger/ in -tags=swagger builds.
//
// @title           llamabridge API
// @version         1.0
// @description     HTTP API for a single llama.cpp session: load, generate, stream and stop.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http

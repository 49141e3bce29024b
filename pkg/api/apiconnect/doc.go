// Package apiconnect wires the ebills Connect services: procedure names,
// typed clients and handler constructors for the messages in package api.
//
// Handlers and clients built here always use the JSON codec from package
// api, so any Connect client speaking JSON can call them.
package apiconnect

// Package api defines the public types of the visa application
// submission pipeline: the application draft and wizard steps, pricing
// types, the payment gateway and backend surfaces, fan-out outcomes,
// error types, and the Observer interface.
//
// Most applications import the root visaflow package, which re-exports
// everything here; this package exists so that internal packages and
// custom Backend or Gateway implementations can share the contract
// without importing the pipeline itself.
package api

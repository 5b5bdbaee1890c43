// Package config defines the format-agnostic model of the eonc settings file
// and the Loader interface that concrete formats implement. The HCL
// implementation lives in hcl_adapter.
//
// Every field of the model is optional. A nil field means the file did not
// set it, so callers can layer file values between built-in defaults and
// command-line flags.
package config

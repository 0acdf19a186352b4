// Package llm provides the core types shared across the gateway: conversation
// messages, the provider contract, and the structured error model.
// This package has ZERO dependencies on other trustgate packages to avoid
// circular imports. All other packages should import types from here.
package llm

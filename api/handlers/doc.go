// Package handlers implements the gateway's HTTP handlers: chat, feedback
// and health, plus the shared response envelope helpers.
package handlers

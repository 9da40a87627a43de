// Package model defines the shared types for the coverage workflow.
package model

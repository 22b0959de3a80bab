// Package controller holds HTTP middleware and utility handlers shared by the
// supervisor's health and metrics endpoint.
package controller

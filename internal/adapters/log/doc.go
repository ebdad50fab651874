// Package log adapts zerolog to ports.Logger.
package log

// Package console is the line-mode front end behind the shell and watch commands.
//
// A [Console] keeps the widget state in memory and prints notifications as lines.
// A [Shell] parses typed commands and drives the sender and connection manager.
package console

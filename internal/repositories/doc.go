// Package repositories implements SQLite persistence for the stand-in mixer.
//
// [StateRepository] keeps the master volume and one volume per track list address so a restarted server
// comes back where it left off. Rows are keyed by address, not by name: renaming a track list in the
// config keeps its volume, moving it does not.
package repositories

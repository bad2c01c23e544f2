// Package protocol defines the JSON frames exchanged with the music server.
//
// Inbound frames carry an "action" tag and decode into one of the [Event] variants:
//   - [NowPlaying] : a track list of a group started playing
//   - [MusicStopped] : playback was stopped by a user
//   - [MusicFinished] : the last track list ran out of tracks
//   - [MasterVolume] : the master volume changed
//   - [TrackListVolume] : the volume of one track list changed
//
// Every variant implements [Event.Apply], which calls exactly one method of [Handler].
// Adding a variant means adding a Handler method, so every consumer stops compiling until it handles the new event.
//
// Outbound frames carry a "type" tag and are built from [Command] values with [Encode].
//
// Track lists are addressed by [Address], the (groupIndex, trackListIndex) pair the server uses.
package protocol

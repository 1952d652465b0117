// Package host is a development host for sudo I/O plugins built with this
// SDK.
//
// It loads a plugin shared object with dlopen, inspects the exported
// sudo_go_io_plugin table and replays scenarios against it through the same
// C calling convention the sudo front end uses. Conversation and printf
// traffic from the plugin is captured in a Transcript.
package host

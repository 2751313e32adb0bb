// Package cli implements groupsync, the command-line client of the group
// service.
//
// Every invocation runs one command against the local SQLite database and
// exits:
//
//	groupsync register --name Alice
//	groupsync contact add <uid> --phone +15550002 --profile-key <hex>
//	groupsync group create --title Climbing --member +15550002
//	groupsync group update <master key> --title Bouldering
//	groupsync group refresh <master key>
//
// Master keys are printed by "group create" and shared with members out of
// band; members start tracking a group with "group import".
package cli

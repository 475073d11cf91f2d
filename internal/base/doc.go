// Package base assembles the base site configuration: everything in the
// output document except the navigation list.
//
// The base configuration is the shallow merge of three named parts, always in
// the order common, tab, anchor; a later part overrides an earlier one on a
// shared key. Each part comes from a Provider, so the assembly itself is pure
// and can be tested with static values.
package base

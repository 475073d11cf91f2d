// Package database stores the history of site configuration builds.
//
// Each recorded build keeps its ID, time, root, output and backup paths, the
// fragment files that made up the navigation list and the digest of the
// written document. The history lets users see when the site configuration
// changed and which fragments were added or removed between builds.
//
// The store is a single SQLite file (modernc.org/sqlite, no cgo) in the
// per-user data directory.
package database

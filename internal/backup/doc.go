// Package backup rotates a previous output file into a backup directory
// before it is overwritten.
//
// The backup is named after the output file with a leading underscore and the
// local wall-clock time at second resolution: mint.json becomes
// _mint-20250203-141530.json. Two backups taken within the same second share a
// name and the later one replaces the earlier.
package backup

// Package discovery finds navigation fragment files in a documentation tree.
//
// The tree is walked depth-first from the aggregation root. By default the
// entries of each directory are visited in lexical order so that repeated
// builds of the same tree produce the same navigation order on every
// filesystem. WithFilesystemOrder restores the order in which the filesystem
// reports entries; note that this order decides the order of the navigation
// list in the generated document.
package discovery

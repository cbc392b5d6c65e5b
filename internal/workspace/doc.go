// Package workspace owns the fixed on-disk project tree the toolchain builds from.
//
// The workspace is a process-wide singleton: it is never created or removed
// here, only written into. Writer stages request files under the source
// directory (additive overwrite; files not named in a request are left alone)
// and Artifact locates the build output at a fixed relative path.
//
// None of the types in this package synchronize access. Callers serialize all
// mutation through the build coordinator's lock.
package workspace

// Package testsupport builds isolated configurations, stub binaries and
// fixture files for tests across ytalbum packages.
package testsupport

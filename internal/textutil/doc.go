// Package textutil provides filename sanitization and label formatting for
// text that originates in video descriptions.
package textutil

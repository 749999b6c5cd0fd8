// Package delivery streams finished artifacts to clients and guarantees the
// scratch copy is deleted exactly once, whether the transfer completes, the
// client disconnects, or an I/O error interrupts it.
package delivery

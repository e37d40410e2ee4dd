// Package realtime keeps order views current without trusting the push
// channel. Push signals only trigger fetches; every view shown to an observer
// comes from a pull against the snapshot source chain, reconciled so the
// displayed lifecycle stage never flickers backwards on out-of-order
// responses.
package realtime

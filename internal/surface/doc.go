// Package surface tracks the result surfaces of an hgbuf session.
//
// A result surface holds the captured output of one command together with
// a non-owning handle to the source it relates to. The Registry:
//   - generates unique display names ("bar.txt _status_", then
//     "bar.txt _status_ (1)", ...) when naming is enabled,
//   - de-duplicates or refreshes surfaces per (source, command kind),
//   - re-validates the source handle on every dereference,
//   - groups comparison surfaces so they are disposed of together,
//   - notifies lifecycle subscribers through a Bus once a surface is
//     fully registered.
//
// Showing a surface is delegated to a Presenter, which receives a
// placement directive and nothing more.
package surface

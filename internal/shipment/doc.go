// Package shipment holds the shipment lifecycle rules: the transition table and
// its guards, the per-specimen tagging rules, and the version-stamped update
// protocol. It performs no I/O. Every operation is validated here and encoded
// as a Request, so a call that breaks a rule fails before anything reaches the
// network.
package shipment

// Package lazy tracks the lazy tensors alive on each device and the
// per-device random seed used by deferred computations.
//
// The Arena keeps one context per device. A context holds weak references to
// the data of every registered tensor, so step barriers can enumerate the
// tensors users still hold, and the seed state that random operations consume.
// The arena lock only guards the device map; all other work happens under the
// lock of the device involved, so devices never contend with each other.
package lazy

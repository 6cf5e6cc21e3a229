// Package opset defines the fixed set of kernel operations.
//
// Each Op carries its WIT signature, the WAT body of the exported function
// and whether the reduced fallback module includes it. The set is closed at
// build time; All returns it in export order, which is also the order the
// assembler emits functions in.
//
// Bodies reference params and locals by name and may use the module globals
// ($PI, $TWO_PI, $DEG_TO_RAD, $RAD_TO_DEG, $random_seed), the internal
// $normalize_angle helper and other ops by $name.
package opset

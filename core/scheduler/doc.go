// Package scheduler assigns batches of maintenance requests to service slots.
//
// Despite the "priority optimization" name it inherited, assignment is first
// come first served: requests are handled in input order and each one takes
// the earliest free slot. Urgency travels with the request but does not
// reorder anything. Batches can be loaded from YAML or JSON files.
package scheduler

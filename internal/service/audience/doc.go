// Package audience implements audience resolution and provider sync.
//
// The service layer materializes an audience definition (static list,
// dynamic segment, or "all subscribed") into a bounded contact set, and
// reconciles that set with the external email provider in fixed-size
// concurrent batches. It depends on repository interfaces defined in
// this package and should never import from api/.
//
// Repository implementations live in repository/postgres/.
package audience

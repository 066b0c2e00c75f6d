// Package reactive keeps live, identifier-filtered views of normalized rows.
//
// A Projection is handed the records (or bare ids) a caller currently holds,
// for example the items of the last API response. It defines one query over
// the entity's table selecting exactly those rows, and returns them as fully
// deserialized records. Later writes to those rows reach the projection's
// subscribers without the caller asking again.
//
// The query is only redefined when the requested id set changes. A second
// signature, the brake, suppresses redefinition loops when the id list is
// itself derived from the projection's own output.
package reactive

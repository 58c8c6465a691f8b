// Package event provides the record types that flow through the fixture pipeline.
//
// A RawFixture is what the parser pulls out of a rendered page, a ClassifiedFixture
// adds the competition tier, price band and age bracket, and a Record is the
// persisted event row consumed by the map dashboard. Records are identified by
// their (name, date) business key; fixtures are deduplicated by the numeric
// match id embedded in their source URL.
package event

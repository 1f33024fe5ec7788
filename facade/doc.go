// Package facade exposes animal rescue records over GraphQL.
//
// The schema is deliberately small:
//
//	enum Species { DOG CAT }
//	type Record { id: ID! name: String! species: Species }
//	type Query {
//	  record(id: ID!): Record
//	  records: [Record]
//	}
//	type Mutation {
//	  createRecord(name: String!, species: Species): Record
//	}
//
// Each resolver is a direct pass-through to a [kv.Namespace]: record is one
// Get, records is one List followed by one Get per key, createRecord is one
// Put under a freshly generated id.
//
// The namespace is never held by the resolver. Transports attach it to each
// request with [WithNamespace]; [Handler] does this for HTTP and the gateway
// package does it for Lambda.
//
// # Errors
//
// A missing record is null, not an error. Other failures are returned as
// GraphQL errors whose extensions carry a code:
//
//   - CORRUPT_RECORD - a stored value failed record.Decode
//   - STORE_UNAVAILABLE - the namespace returned an error
//   - NO_NAMESPACE - the request carried no namespace binding
//   - CANCELLED, DEADLINE_EXCEEDED - the request context ended
package facade

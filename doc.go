/*
Package kvdoc stores typed Go values in an embedded key-value engine (Bolt,
or an in-memory engine for tests and caches).

Every stored item lives at an Index: a collection name plus a string key.
The collection comes from the item's type, the key from its Identifier.
Next to its payload, an item may carry an optional metadata value, stored in
a separate slot at the same index.

# Shapes

Items and metadata are either objects, meaning registered Go types stored
as they are, or values, meaning types stored through a registered coder
object (see ValueCoding and Coding). That gives six shapes, and each
collection is declared with exactly one of them:

	Objects                    object, no metadata
	ObjectsWithObjectMetadata  object, object metadata
	ObjectsWithValueMetadata   object, value metadata
	Values                     value, no metadata
	ValuesWithObjectMetadata   value, object metadata
	ValuesWithValueMetadata    value, value metadata

A declared Collection offers the same operations for every shape: read
(single, many, all, filter existing), write and remove. Its methods take a
transaction; Collection.On binds it to a Handle instead: a *Tx joins that
transaction, a *Connection runs each call in its own transaction and can run
it asynchronously, and a *DB borrows a temporary connection.

# Reads never fail

A read that finds nothing, or finds bytes that do not decode into the
requested type, reports absence. Batch reads silently skip such items.
Metadata that cannot be decoded leaves the item's metadata unset. Engine
failures and misuse (writing through a read-only transaction, asking a
transaction for a connection) panic.

# Storage layout

Each collection is a root bucket with two nested buckets, "data" and "meta",
keyed by the item key. A stored object is a format byte followed by an
envelope holding the registered type name and the encoded value: msgpack
(0x81) by default, or JSON (0x82). Both formats are always readable.
*/
package kvdoc

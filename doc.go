/*
Package btrfstree searches the B-trees of a mounted btrfs filesystem through
the BTRFS_IOC_TREE_SEARCH control call and decodes the items it returns.

We implement:

1. Queries, four inclusive key ranges (object id, item type, offset,
transaction id) plus a tree id and a cap on returned items.

2. The codec: encoding a query into the search buffer, issuing the call,
and decoding the response into a stream of records.

3. Typed decoding of item payloads for the structures the catalog covers.

4. Pagination, continuing a search past the items one call can return.

# Wire format

**Search buffer.** BufferSize bytes. On entry it starts with the search key:
tree id, min/max object id, min/max offset, min/max transid (u64 each), min/max
type, max items (u32 each), then 36 reserved bytes. All of it is in host byte
order. On return the max items field holds the number of returned items, and
the items follow the search key.

**Items.** Each item is a 32-byte header (transid, object id, offset as u64;
type, length as u32; host byte order) followed by length bytes of payload. Items
are packed without padding, in tree order.

**Payloads.** On-disk structures, packed and little-endian. Which structure a
payload holds depends on the item type; see DecodeItem.

# Pagination

A search returns at most MaxItems items and only as many as fit into the buffer.
To read a whole range, search again with the lower bound moved past the last
header (Query.After) until a search returns nothing. Pager and Searcher.Walk do
this. Each page is a separate search, so concurrent writers can add or remove
items between pages.

# Concurrency

Searcher is safe for concurrent use. A search buffer belongs to one search at a
time, and records decoded from it are only valid until it is reused.
*/
package btrfstree

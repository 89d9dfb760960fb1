/*
Package gossip resolves gossip topic strings and converts gossip payloads to
and from consensus objects.

A topic looks like

	/eth2/b5303f2a/committee_index7_beacon_attestation/ssz_snappy

and names the fork, the kind of object carried (with the subnet for
attestations) and the wire encoding. The transport may deliver one payload
under several topics; DecodeMessage picks the first topic it understands.
*/
package gossip

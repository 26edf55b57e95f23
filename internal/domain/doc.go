// Package domain holds the wire types and collaborator contracts of the
// session layer: the store and hand-off documents, the decrypted session
// response, and the key store, transport, store client and redirect channel
// interfaces. Types live in types/, interfaces in interfaces/, and both are
// re-exported here.
package domain
